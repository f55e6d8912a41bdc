package tensor

// Backend defines the kernels a compute device provides.
//
// Forward kernels allocate and return a new tensor. The *Backward kernels
// receive the forward inputs together with the gradient of the forward
// output and return the gradient with respect to one input.
//
// Implementations:
//   - cpu: pure Go kernels on top of BLAS gemm
//   - webgpu: GPU matmul through WebGPU compute shaders, CPU for the rest
type Backend interface {
	// Name identifies the device, e.g. "cpu" or "webgpu".
	Name() string

	// MatMul computes op(a) @ op(b) for 2D tensors, where op transposes
	// its argument when the matching flag is set.
	MatMul(a, b *Tensor, transA, transB bool) *Tensor

	// Conv2D convolves input [N, C_in, H, W] with kernel [C_out, C_in, K_h, K_w].
	Conv2D(input, kernel *Tensor, stride, padding int) *Tensor
	Conv2DInputBackward(input, kernel, grad *Tensor, stride, padding int) *Tensor
	Conv2DKernelBackward(input, kernel, grad *Tensor, stride, padding int) *Tensor

	// MaxPool2D returns the pooled tensor and, for every output element,
	// the flat input index that produced it.
	MaxPool2D(input *Tensor, kernelSize, stride int) (*Tensor, []int)
	MaxPool2DBackward(input, grad *Tensor, maxIndices []int) *Tensor

	ReLU(x *Tensor) *Tensor
	ReLUBackward(x, grad *Tensor) *Tensor

	// AddBias adds bias[c] to every element of channel c, where the channel
	// axis is dimension 1 ([N, C] or [N, C, H, W]).
	AddBias(x, bias *Tensor) *Tensor
	// BiasBackward sums grad over every axis except dimension 1.
	BiasBackward(grad *Tensor) *Tensor
}
