package webgpu

import (
	"errors"
	"fmt"

	"github.com/born-ml/cifarnet/internal/tensor"
)

// ErrUnavailable is returned by New when no WebGPU device can be used.
var ErrUnavailable = errors.New("webgpu: unavailable")

// transpose2D returns a row-major copy of the transpose of t.
func transpose2D(t *tensor.Tensor) *tensor.Tensor {
	s := t.Shape()
	if len(s) != 2 {
		panic(fmt.Sprintf("webgpu: transpose requires a 2D tensor, got %v", s))
	}
	rows, cols := s[0], s[1]
	out := tensor.Zeros(tensor.Shape{cols, rows})
	src, dst := t.Data(), out.Data()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			dst[c*rows+r] = src[r*cols+c]
		}
	}
	return out
}
