// Package autodiff implements automatic differentiation using the decorator pattern.
//
// AutodiffBackend wraps any Backend implementation (CPU, WebGPU) and adds
// gradient tracking through a GradientTape. Forward kernels run on the inner
// backend; when the tape is recording, each call is recorded as an ops.Operation
// whose Backward is replayed in reverse by GradientTape.Backward.
//
// Usage:
//
//	ad := autodiff.New(cpu.New())
//	ad.Tape().StartRecording()
//	logits := model.Forward(x)
//	loss := ad.CrossEntropy(logits, labels)
//	grads := ad.Backward(loss)
package autodiff

import (
	"github.com/born-ml/cifarnet/internal/autodiff/ops"
	"github.com/born-ml/cifarnet/internal/tensor"
)

// AutodiffBackend wraps a Backend and adds automatic differentiation.
// It implements the tensor.Backend interface and records operations in a GradientTape.
type AutodiffBackend[B tensor.Backend] struct {
	inner B
	tape  *GradientTape
}

// New creates a new AutodiffBackend wrapping the given backend.
func New[B tensor.Backend](backend B) *AutodiffBackend[B] {
	return &AutodiffBackend[B]{
		inner: backend,
		tape:  NewGradientTape(),
	}
}

// Tape returns the gradient tape for manual control.
func (b *AutodiffBackend[B]) Tape() *GradientTape {
	return b.tape
}

// Inner returns the wrapped backend for direct access.
func (b *AutodiffBackend[B]) Inner() B {
	return b.inner
}

// Name returns the backend name.
func (b *AutodiffBackend[B]) Name() string {
	return "autodiff(" + b.inner.Name() + ")"
}

// Backward runs the tape backward from a scalar loss seeded with 1.
func (b *AutodiffBackend[B]) Backward(loss *tensor.Tensor) map[*tensor.Tensor]*tensor.Tensor {
	seed := tensor.Full(loss.Shape(), 1)
	return b.tape.Backward(loss, seed, b.inner)
}

// MatMul performs op(a) @ op(c) and records the operation.
func (b *AutodiffBackend[B]) MatMul(a, c *tensor.Tensor, transA, transB bool) *tensor.Tensor {
	out := b.inner.MatMul(a, c, transA, transB)
	b.tape.Record(ops.NewMatMulOp(a, c, out, transA, transB))
	return out
}

// Conv2D performs 2D convolution and records the operation.
func (b *AutodiffBackend[B]) Conv2D(input, kernel *tensor.Tensor, stride, padding int) *tensor.Tensor {
	out := b.inner.Conv2D(input, kernel, stride, padding)
	b.tape.Record(ops.NewConv2DOp(input, kernel, out, stride, padding))
	return out
}

// Conv2DInputBackward delegates to the inner backend. Not recorded.
func (b *AutodiffBackend[B]) Conv2DInputBackward(input, kernel, grad *tensor.Tensor, stride, padding int) *tensor.Tensor {
	return b.inner.Conv2DInputBackward(input, kernel, grad, stride, padding)
}

// Conv2DKernelBackward delegates to the inner backend. Not recorded.
func (b *AutodiffBackend[B]) Conv2DKernelBackward(input, kernel, grad *tensor.Tensor, stride, padding int) *tensor.Tensor {
	return b.inner.Conv2DKernelBackward(input, kernel, grad, stride, padding)
}

// MaxPool2D performs max pooling and records the operation with its argmax indices.
func (b *AutodiffBackend[B]) MaxPool2D(input *tensor.Tensor, kernelSize, stride int) (*tensor.Tensor, []int) {
	out, idx := b.inner.MaxPool2D(input, kernelSize, stride)
	b.tape.Record(ops.NewMaxPool2DOp(input, out, idx))
	return out, idx
}

// MaxPool2DBackward delegates to the inner backend. Not recorded.
func (b *AutodiffBackend[B]) MaxPool2DBackward(input, grad *tensor.Tensor, maxIndices []int) *tensor.Tensor {
	return b.inner.MaxPool2DBackward(input, grad, maxIndices)
}

// ReLU applies max(0, x) and records the operation.
func (b *AutodiffBackend[B]) ReLU(x *tensor.Tensor) *tensor.Tensor {
	out := b.inner.ReLU(x)
	b.tape.Record(ops.NewReLUOp(x, out))
	return out
}

// ReLUBackward delegates to the inner backend. Not recorded.
func (b *AutodiffBackend[B]) ReLUBackward(x, grad *tensor.Tensor) *tensor.Tensor {
	return b.inner.ReLUBackward(x, grad)
}

// AddBias adds a per-channel bias and records the operation.
func (b *AutodiffBackend[B]) AddBias(x, bias *tensor.Tensor) *tensor.Tensor {
	out := b.inner.AddBias(x, bias)
	b.tape.Record(ops.NewAddBiasOp(x, bias, out))
	return out
}

// BiasBackward delegates to the inner backend. Not recorded.
func (b *AutodiffBackend[B]) BiasBackward(grad *tensor.Tensor) *tensor.Tensor {
	return b.inner.BiasBackward(grad)
}

// Reshape returns a view of x with a new shape and records the operation.
func (b *AutodiffBackend[B]) Reshape(x *tensor.Tensor, dims ...int) *tensor.Tensor {
	out := x.Reshape(dims...)
	b.tape.Record(ops.NewReshapeOp(x, out))
	return out
}

// CrossEntropy computes mean cross-entropy of logits against class targets
// and records the operation.
func (b *AutodiffBackend[B]) CrossEntropy(logits *tensor.Tensor, targets []int) *tensor.Tensor {
	out := ops.CrossEntropy(logits, targets)
	b.tape.Record(ops.NewCrossEntropyOp(logits, targets, out))
	return out
}
