package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/cifarnet/internal/parallel"
	"github.com/born-ml/cifarnet/internal/tensor"
)

// MaxPool2D performs max pooling over non-padded windows.
//
// The returned index slice holds, for each output element, the flat index
// into input of the value that won. MaxPool2DBackward routes gradients
// through those indices only.
//
// Example (2x2 pool, stride=2):
//
//	Input: [[1,2,3,4],    Output: [[6,8],
//	        [5,6,7,8],             [14,16]]
//	        [9,10,11,12],
//	        [13,14,15,16]]
func (cpu *CPUBackend) MaxPool2D(input *tensor.Tensor, kernelSize, stride int) (*tensor.Tensor, []int) {
	shape := input.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("maxpool2d: expected 4D input [N,C,H,W], got %v", shape))
	}
	if kernelSize <= 0 || stride <= 0 {
		panic(fmt.Sprintf("maxpool2d: invalid kernel size %d / stride %d", kernelSize, stride))
	}
	N, C, H, W := shape[0], shape[1], shape[2], shape[3]
	if kernelSize > H || kernelSize > W {
		panic(fmt.Sprintf("maxpool2d: kernel size %d too large for input %dx%d", kernelSize, H, W))
	}
	HOut := (H-kernelSize)/stride + 1
	WOut := (W-kernelSize)/stride + 1

	out := tensor.Zeros(tensor.Shape{N, C, HOut, WOut})
	indices := make([]int, out.NumElements())
	inData, outData := input.Data(), out.Data()

	parallel.For(N*C, cpu.par, func(_, plane int) {
		inBase := plane * H * W
		outBase := plane * HOut * WOut
		for oh := 0; oh < HOut; oh++ {
			for ow := 0; ow < WOut; ow++ {
				best := float32(math.Inf(-1))
				bestIdx := -1
				for kh := 0; kh < kernelSize; kh++ {
					row := inBase + (oh*stride+kh)*W + ow*stride
					for kw := 0; kw < kernelSize; kw++ {
						if v := inData[row+kw]; bestIdx < 0 || v > best {
							best = v
							bestIdx = row + kw
						}
					}
				}
				o := outBase + oh*WOut + ow
				outData[o] = best
				indices[o] = bestIdx
			}
		}
	})
	return out, indices
}

// MaxPool2DBackward scatters grad to the input positions recorded by MaxPool2D.
func (cpu *CPUBackend) MaxPool2DBackward(input, grad *tensor.Tensor, maxIndices []int) *tensor.Tensor {
	if len(maxIndices) != grad.NumElements() {
		panic(fmt.Sprintf("maxpool2d_backward: %d indices for gradient %v", len(maxIndices), grad.Shape()))
	}
	dInput := tensor.Zeros(input.Shape())
	dData := dInput.Data()
	for o, g := range grad.Data() {
		dData[maxIndices[o]] += g
	}
	return dInput
}
