package nn

import (
	"github.com/born-ml/cifarnet/internal/tensor"
)

// Parameter represents a trainable parameter in a neural network.
//
// The tensor is updated in place by optimizers, so its pointer identity is
// stable and can be used to look up gradients returned by the tape.
//
// Example:
//
//	weight := nn.NewParameter("conv1.weight", w)
//	grad := grads[weight.Tensor()]
type Parameter struct {
	name   string
	tensor *tensor.Tensor
	grad   *tensor.Tensor
}

// NewParameter creates a new trainable parameter.
func NewParameter(name string, t *tensor.Tensor) *Parameter {
	return &Parameter{name: name, tensor: t}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter) Tensor() *tensor.Tensor {
	return p.tensor
}

// Grad returns the gradient tensor, or nil before the first backward pass.
func (p *Parameter) Grad() *tensor.Tensor {
	return p.grad
}

// SetGrad sets the gradient tensor.
func (p *Parameter) SetGrad(grad *tensor.Tensor) {
	p.grad = grad
}

// ZeroGrad clears the gradient tensor.
func (p *Parameter) ZeroGrad() {
	p.grad = nil
}

// NumElements returns the number of scalars in the parameter.
func (p *Parameter) NumElements() int {
	return p.tensor.NumElements()
}

// CountParameters sums the element counts of params.
func CountParameters(params []*Parameter) int {
	n := 0
	for _, p := range params {
		n += p.NumElements()
	}
	return n
}
