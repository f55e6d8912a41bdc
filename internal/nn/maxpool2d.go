package nn

import (
	"fmt"

	"github.com/born-ml/cifarnet/internal/tensor"
)

// MaxPool2D is a 2D max pooling layer without padding.
//
// Output shape: [batch, channels, (H-k)/stride+1, (W-k)/stride+1]
type MaxPool2D struct {
	kernelSize int
	stride     int
	backend    Backend
}

// NewMaxPool2D creates a new max pooling layer.
func NewMaxPool2D(kernelSize, stride int, backend Backend) *MaxPool2D {
	if kernelSize <= 0 || stride <= 0 {
		panic(fmt.Sprintf("maxpool2d: invalid kernel size %d / stride %d", kernelSize, stride))
	}
	return &MaxPool2D{kernelSize: kernelSize, stride: stride, backend: backend}
}

// Forward performs max pooling.
func (m *MaxPool2D) Forward(input *tensor.Tensor) *tensor.Tensor {
	out, _ := m.backend.MaxPool2D(input, m.kernelSize, m.stride)
	return out
}

// OutputSize returns the spatial output size for an input of side n.
func (m *MaxPool2D) OutputSize(n int) int {
	return (n-m.kernelSize)/m.stride + 1
}

// Parameters returns nil; pooling has no weights.
func (m *MaxPool2D) Parameters() []*Parameter {
	return nil
}

func (m *MaxPool2D) String() string {
	return fmt.Sprintf("MaxPool2D(kernel=%d, stride=%d)", m.kernelSize, m.stride)
}
