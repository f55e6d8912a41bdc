package webgpu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/cifarnet/internal/backend/cpu"
	"github.com/born-ml/cifarnet/internal/tensor"
)

func TestTranspose2D(t *testing.T) {
	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	require.NoError(t, err)

	xt := transpose2D(x)
	assert.True(t, xt.Shape().Equal(tensor.Shape{3, 2}))
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, xt.Data())
}

// TestMatMulMatchesCPU runs only where a GPU adapter is present.
func TestMatMulMatchesCPU(t *testing.T) {
	gpu, err := New()
	if err != nil {
		require.True(t, errors.Is(err, ErrUnavailable))
		t.Skipf("webgpu not available: %v", err)
	}
	defer gpu.Release()

	a, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	require.NoError(t, err)
	b, err := tensor.FromSlice([]float32{1, 0, 0, 1, 1, 1}, tensor.Shape{2, 3})
	require.NoError(t, err)

	want := cpu.New().MatMul(a, b, false, true)
	got := gpu.MatMul(a, b, false, true)
	require.True(t, got.Shape().Equal(want.Shape()))
	for i := range want.Data() {
		assert.InDelta(t, want.Data()[i], got.Data()[i], 1e-5)
	}
}
