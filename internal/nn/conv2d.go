package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/cifarnet/internal/tensor"
)

// Conv2D is a 2D convolutional layer.
//
// Performs convolution: output = Conv2D(input, weight) + bias
//
// Input shape:  [batch, in_channels, height, width]
// Weight shape: [out_channels, in_channels, kernel, kernel]
// Bias shape:   [out_channels]
// Output shape: [batch, out_channels, out_h, out_w]
//
// Where:
//
//	out_h = (height + 2*padding - kernel) / stride + 1
//	out_w = (width + 2*padding - kernel) / stride + 1
//
// Example:
//
//	conv := nn.NewConv2D("conv1", 3, 6, 5, 1, 0, backend, rng)
//	output := conv.Forward(input) // [4, 3, 32, 32] -> [4, 6, 28, 28]
type Conv2D struct {
	inChannels  int
	outChannels int
	kernelSize  int
	stride      int
	padding     int

	weight *Parameter
	bias   *Parameter

	backend Backend
}

// NewConv2D creates a new 2D convolutional layer.
//
// Initialization:
//   - Weights: Xavier/Glorot uniform with
//     fan_in = in_channels*k*k, fan_out = out_channels*k*k
//   - Bias: Zeros
func NewConv2D(name string, inChannels, outChannels, kernelSize, stride, padding int, backend Backend, rng *rand.Rand) *Conv2D {
	if inChannels <= 0 || outChannels <= 0 {
		panic(fmt.Sprintf("conv2d: invalid channels in=%d, out=%d", inChannels, outChannels))
	}
	if kernelSize <= 0 {
		panic(fmt.Sprintf("conv2d: invalid kernel size %d", kernelSize))
	}
	if stride <= 0 {
		panic(fmt.Sprintf("conv2d: invalid stride %d", stride))
	}
	if padding < 0 {
		panic(fmt.Sprintf("conv2d: invalid padding %d", padding))
	}

	area := kernelSize * kernelSize
	weight := Xavier(inChannels*area, outChannels*area, tensor.Shape{outChannels, inChannels, kernelSize, kernelSize}, rng)

	return &Conv2D{
		inChannels:  inChannels,
		outChannels: outChannels,
		kernelSize:  kernelSize,
		stride:      stride,
		padding:     padding,
		weight:      NewParameter(name+".weight", weight),
		bias:        NewParameter(name+".bias", Zeros(tensor.Shape{outChannels})),
		backend:     backend,
	}
}

// Forward performs the forward pass.
func (c *Conv2D) Forward(input *tensor.Tensor) *tensor.Tensor {
	shape := input.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("conv2d: expected 4D input [N,C,H,W], got %dD", len(shape)))
	}
	if shape[1] != c.inChannels {
		panic(fmt.Sprintf("conv2d: expected %d input channels, got %d", c.inChannels, shape[1]))
	}
	out := c.backend.Conv2D(input, c.weight.Tensor(), c.stride, c.padding)
	return c.backend.AddBias(out, c.bias.Tensor())
}

// OutputSize returns the spatial output size for a square input of side n.
func (c *Conv2D) OutputSize(n int) int {
	return (n+2*c.padding-c.kernelSize)/c.stride + 1
}

// Parameters returns [weight, bias].
func (c *Conv2D) Parameters() []*Parameter {
	return []*Parameter{c.weight, c.bias}
}

// String describes the layer.
func (c *Conv2D) String() string {
	return fmt.Sprintf("Conv2D(in=%d, out=%d, kernel=%d, stride=%d, padding=%d)",
		c.inChannels, c.outChannels, c.kernelSize, c.stride, c.padding)
}
