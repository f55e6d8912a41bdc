// Package nn implements the neural network layers used by the classifier.
//
// This package provides:
//   - Module interface: Forward plus the trainable parameters
//   - Parameter: named trainable tensor
//   - Conv2D, MaxPool2D, ReLU, Flatten, Linear layers
//   - Sequential: container for stacking layers
//   - CrossEntropyLoss
//
// Layers call their backend for every kernel, so wrapping the backend with
// autodiff.New makes every layer differentiable without extra code.
package nn

import (
	"github.com/born-ml/cifarnet/internal/tensor"
)

// Backend is the compute surface layers run on. autodiff.AutodiffBackend
// satisfies it.
type Backend interface {
	tensor.Backend

	// Reshape returns a view of x with a new shape.
	Reshape(x *tensor.Tensor, dims ...int) *tensor.Tensor

	// CrossEntropy returns the mean cross-entropy of logits against targets.
	CrossEntropy(logits *tensor.Tensor, targets []int) *tensor.Tensor
}

// Module is the base interface for all neural network components.
type Module interface {
	// Forward computes the output of the module given an input tensor.
	Forward(input *tensor.Tensor) *tensor.Tensor

	// Parameters returns all trainable parameters of this module.
	// Modules without weights return nil.
	Parameters() []*Parameter
}

// Sequential applies modules in order.
type Sequential struct {
	modules []Module
}

// NewSequential creates a container running modules one after another.
func NewSequential(modules ...Module) *Sequential {
	return &Sequential{modules: modules}
}

// Forward runs input through every module.
func (s *Sequential) Forward(input *tensor.Tensor) *tensor.Tensor {
	x := input
	for _, m := range s.modules {
		x = m.Forward(x)
	}
	return x
}

// Parameters collects the parameters of every module in order.
func (s *Sequential) Parameters() []*Parameter {
	var params []*Parameter
	for _, m := range s.modules {
		params = append(params, m.Parameters()...)
	}
	return params
}

// Modules returns the contained modules.
func (s *Sequential) Modules() []Module {
	return s.modules
}
