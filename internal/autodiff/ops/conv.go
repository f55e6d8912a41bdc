package ops

import "github.com/born-ml/cifarnet/internal/tensor"

// Conv2DOp records output = Conv2D(input, kernel).
type Conv2DOp struct {
	input, kernel, output *tensor.Tensor
	stride, padding       int
}

// NewConv2DOp creates a new Conv2D operation.
func NewConv2DOp(input, kernel, output *tensor.Tensor, stride, padding int) *Conv2DOp {
	return &Conv2DOp{input: input, kernel: kernel, output: output, stride: stride, padding: padding}
}

// Inputs returns [input, kernel].
func (op *Conv2DOp) Inputs() []*tensor.Tensor {
	return []*tensor.Tensor{op.input, op.kernel}
}

// Output returns the convolution result.
func (op *Conv2DOp) Output() *tensor.Tensor {
	return op.output
}

// Backward computes gradients for input and kernel.
func (op *Conv2DOp) Backward(outputGrad *tensor.Tensor, backend tensor.Backend) []*tensor.Tensor {
	return []*tensor.Tensor{
		backend.Conv2DInputBackward(op.input, op.kernel, outputGrad, op.stride, op.padding),
		backend.Conv2DKernelBackward(op.input, op.kernel, outputGrad, op.stride, op.padding),
	}
}

// MaxPool2DOp records output = MaxPool2D(input).
type MaxPool2DOp struct {
	input, output *tensor.Tensor
	maxIndices    []int
}

// NewMaxPool2DOp creates a new MaxPool2D operation.
func NewMaxPool2DOp(input, output *tensor.Tensor, maxIndices []int) *MaxPool2DOp {
	return &MaxPool2DOp{input: input, output: output, maxIndices: maxIndices}
}

// Inputs returns [input].
func (op *MaxPool2DOp) Inputs() []*tensor.Tensor {
	return []*tensor.Tensor{op.input}
}

// Output returns the pooled tensor.
func (op *MaxPool2DOp) Output() *tensor.Tensor {
	return op.output
}

// Backward routes the gradient to the max positions.
func (op *MaxPool2DOp) Backward(outputGrad *tensor.Tensor, backend tensor.Backend) []*tensor.Tensor {
	return []*tensor.Tensor{backend.MaxPool2DBackward(op.input, outputGrad, op.maxIndices)}
}
