// Package cpu implements tensor.Backend on the CPU with BLAS gemm and
// batch-parallel convolution kernels.
package cpu

import (
	"fmt"

	"github.com/born-ml/cifarnet/internal/parallel"
	"github.com/born-ml/cifarnet/internal/tensor"
)

// CPUBackend implements tensor operations on the CPU.
type CPUBackend struct {
	par parallel.Config
}

// Compile-time check that CPUBackend implements tensor.Backend.
var _ tensor.Backend = (*CPUBackend)(nil)

// New creates a CPU backend that parallelizes over all physical cores.
func New() *CPUBackend {
	return &CPUBackend{par: parallel.DefaultConfig()}
}

// NewWithConfig creates a CPU backend with an explicit parallel config.
func NewWithConfig(cfg parallel.Config) *CPUBackend {
	return &CPUBackend{par: cfg}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "cpu"
}

// Workers returns the maximum number of goroutines a kernel uses.
func (cpu *CPUBackend) Workers() int {
	return max(cpu.par.Workers, 1)
}

// AddBias adds bias[c] along dimension 1.
func (cpu *CPUBackend) AddBias(x, bias *tensor.Tensor) *tensor.Tensor {
	shape := x.Shape()
	if len(shape) < 2 {
		panic(fmt.Sprintf("add_bias: expected at least 2D input, got %v", shape))
	}
	channels := shape[1]
	if len(bias.Shape()) != 1 || bias.Shape()[0] != channels {
		panic(fmt.Sprintf("add_bias: bias shape %v does not match %d channels", bias.Shape(), channels))
	}

	out := x.Clone()
	outData := out.Data()
	biasData := bias.Data()
	inner := shape.Inner(1)
	batch := shape[0]
	for n := 0; n < batch; n++ {
		for c := 0; c < channels; c++ {
			b := biasData[c]
			seg := outData[(n*channels+c)*inner : (n*channels+c+1)*inner]
			for i := range seg {
				seg[i] += b
			}
		}
	}
	return out
}

// BiasBackward sums grad over every axis but dimension 1.
func (cpu *CPUBackend) BiasBackward(grad *tensor.Tensor) *tensor.Tensor {
	shape := grad.Shape()
	if len(shape) < 2 {
		panic(fmt.Sprintf("bias_backward: expected at least 2D gradient, got %v", shape))
	}
	channels := shape[1]
	inner := shape.Inner(1)
	batch := shape[0]

	out := tensor.Zeros(tensor.Shape{channels})
	outData := out.Data()
	gradData := grad.Data()
	for n := 0; n < batch; n++ {
		for c := 0; c < channels; c++ {
			var sum float32
			for _, v := range gradData[(n*channels+c)*inner : (n*channels+c+1)*inner] {
				sum += v
			}
			outData[c] += sum
		}
	}
	return out
}
