package nn

import (
	"github.com/born-ml/cifarnet/internal/tensor"
)

// ReLU applies max(0, x) element-wise.
type ReLU struct {
	backend Backend
}

// NewReLU creates a ReLU activation.
func NewReLU(backend Backend) *ReLU {
	return &ReLU{backend: backend}
}

// Forward applies the activation.
func (r *ReLU) Forward(input *tensor.Tensor) *tensor.Tensor {
	return r.backend.ReLU(input)
}

// Parameters returns nil.
func (r *ReLU) Parameters() []*Parameter {
	return nil
}

func (r *ReLU) String() string {
	return "ReLU()"
}

// Flatten reshapes [N, ...] to [N, prod(...)].
type Flatten struct {
	backend Backend
}

// NewFlatten creates a Flatten layer.
func NewFlatten(backend Backend) *Flatten {
	return &Flatten{backend: backend}
}

// Forward flattens every dimension after the batch dimension.
func (f *Flatten) Forward(input *tensor.Tensor) *tensor.Tensor {
	return f.backend.Reshape(input, input.Shape()[0], -1)
}

// Parameters returns nil.
func (f *Flatten) Parameters() []*Parameter {
	return nil
}

func (f *Flatten) String() string {
	return "Flatten()"
}
