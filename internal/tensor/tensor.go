// Package tensor defines the float32 tensor type and the Backend interface
// that compute devices implement.
package tensor

import (
	"fmt"
	"math/rand"
)

// Tensor is a dense row-major float32 array.
//
// Tensors produced by Reshape share their data with the source, so a
// tensor must be treated as immutable once it has been handed to an
// operation that may be recorded for the backward pass.
type Tensor struct {
	shape Shape
	data  []float32
}

// Zeros creates a zero-filled tensor.
func Zeros(shape Shape) *Tensor {
	if err := shape.Validate(); err != nil {
		panic(fmt.Sprintf("tensor: %v", err))
	}
	return &Tensor{
		shape: shape.Clone(),
		data:  make([]float32, shape.NumElements()),
	}
}

// Full creates a tensor filled with value.
func Full(shape Shape, value float32) *Tensor {
	t := Zeros(shape)
	for i := range t.data {
		t.data[i] = value
	}
	return t
}

// FromSlice creates a tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromSlice(data []float32, shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	t := Zeros(shape)
	copy(t.data, data)
	return t, nil
}

// Wrap creates a tensor that uses data directly without copying.
func Wrap(data []float32, shape Shape) *Tensor {
	if shape.NumElements() != len(data) {
		panic(fmt.Sprintf("tensor: shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data)))
	}
	return &Tensor{shape: shape.Clone(), data: data}
}

// Uniform creates a tensor with values drawn from U(-bound, bound).
func Uniform(shape Shape, bound float64, rng *rand.Rand) *Tensor {
	t := Zeros(shape)
	for i := range t.data {
		t.data[i] = float32((rng.Float64()*2.0 - 1.0) * bound)
	}
	return t
}

// Shape returns the tensor's shape.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// Data returns the underlying storage.
func (t *Tensor) Data() []float32 {
	return t.data
}

// NumElements returns the number of elements.
func (t *Tensor) NumElements() int {
	return len(t.data)
}

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	c := Zeros(t.shape)
	copy(c.data, t.data)
	return c
}

// Reshape returns a view with a new shape over the same data.
// A single -1 dimension is inferred from the element count.
func (t *Tensor) Reshape(dims ...int) *Tensor {
	shape := make(Shape, len(dims))
	infer := -1
	known := 1
	for i, d := range dims {
		if d == -1 {
			if infer >= 0 {
				panic("tensor: reshape allows only one inferred dimension")
			}
			infer = i
			continue
		}
		shape[i] = d
		known *= d
	}
	if infer >= 0 {
		if known == 0 || len(t.data)%known != 0 {
			panic(fmt.Sprintf("tensor: cannot reshape %v into %v", t.shape, dims))
		}
		shape[infer] = len(t.data) / known
	}
	if shape.NumElements() != len(t.data) {
		panic(fmt.Sprintf("tensor: cannot reshape %v (%d elements) into %v", t.shape, len(t.data), shape))
	}
	return &Tensor{shape: shape, data: t.data}
}

// At returns the element at the given multi-dimensional index.
func (t *Tensor) At(idx ...int) float32 {
	if len(idx) != len(t.shape) {
		panic(fmt.Sprintf("tensor: index %v does not match rank %d", idx, len(t.shape)))
	}
	off := 0
	for i, v := range idx {
		if v < 0 || v >= t.shape[i] {
			panic(fmt.Sprintf("tensor: index %v out of range for shape %v", idx, t.shape))
		}
		off = off*t.shape[i] + v
	}
	return t.data[off]
}

// ArgmaxRows returns the column index of the maximum value of each row of
// a 2D tensor. Ties resolve to the lowest index.
func (t *Tensor) ArgmaxRows() []int {
	if len(t.shape) != 2 {
		panic(fmt.Sprintf("tensor: ArgmaxRows expects a 2D tensor, got %v", t.shape))
	}
	rows, cols := t.shape[0], t.shape[1]
	out := make([]int, rows)
	for r := 0; r < rows; r++ {
		row := t.data[r*cols : (r+1)*cols]
		best := 0
		for c := 1; c < cols; c++ {
			if row[c] > row[best] {
				best = c
			}
		}
		out[r] = best
	}
	return out
}

// String returns a short description of the tensor.
func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor%v", t.shape)
}
