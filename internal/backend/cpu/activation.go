package cpu

import (
	"fmt"

	"github.com/born-ml/cifarnet/internal/tensor"
)

// ReLU computes max(0, x) element-wise.
func (cpu *CPUBackend) ReLU(x *tensor.Tensor) *tensor.Tensor {
	out := tensor.Zeros(x.Shape())
	outData := out.Data()
	for i, v := range x.Data() {
		if v > 0 {
			outData[i] = v
		}
	}
	return out
}

// ReLUBackward passes grad through where the forward input was positive.
func (cpu *CPUBackend) ReLUBackward(x, grad *tensor.Tensor) *tensor.Tensor {
	if !x.Shape().Equal(grad.Shape()) {
		panic(fmt.Sprintf("relu_backward: input %v and gradient %v differ", x.Shape(), grad.Shape()))
	}
	out := tensor.Zeros(x.Shape())
	outData, gData := out.Data(), grad.Data()
	for i, v := range x.Data() {
		if v > 0 {
			outData[i] = gData[i]
		}
	}
	return out
}
