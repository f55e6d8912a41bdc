// Package ops defines the differentiable operations recorded on the gradient tape.
//
// Each operation keeps references to its inputs and output from the
// forward pass and computes input gradients in Backward:
//   - Conv2DOp: d/dinput and d/dkernel through the backend conv kernels
//   - MaxPool2DOp: routes gradient to the recorded argmax positions
//   - ReLUOp: gradient passes where the input was positive
//   - MatMulOp: d(A@B)/dA = grad@B^T, d(A@B)/dB = A^T@grad (transposes respected)
//   - AddBiasOp: identity for the input, channel sum for the bias
//   - ReshapeOp: reshapes the gradient back to the input shape
//   - CrossEntropyOp: (softmax(logits) - onehot) / batch
package ops

import "github.com/born-ml/cifarnet/internal/tensor"

// Operation represents a differentiable operation in the computation graph.
type Operation interface {
	// Backward returns one gradient per input (nil where no gradient flows).
	Backward(outputGrad *tensor.Tensor, backend tensor.Backend) []*tensor.Tensor

	// Inputs returns the input tensors for this operation.
	Inputs() []*tensor.Tensor

	// Output returns the output tensor produced by this operation.
	Output() *tensor.Tensor
}
