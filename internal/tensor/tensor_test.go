package tensor

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeNumElements(t *testing.T) {
	assert.Equal(t, 1, Shape{}.NumElements())
	assert.Equal(t, 4*3*32*32, Shape{4, 3, 32, 32}.NumElements())
}

func TestShapeValidate(t *testing.T) {
	require.NoError(t, Shape{2, 3}.Validate())
	assert.Error(t, Shape{2, 0}.Validate())
	assert.Error(t, Shape{-1}.Validate())
}

func TestShapeInner(t *testing.T) {
	s := Shape{4, 32, 15, 15}
	assert.Equal(t, 225, s.Inner(1))
	assert.Equal(t, 1, s.Inner(3))
}

func TestShapeString(t *testing.T) {
	assert.Equal(t, "(4, 2304)", Shape{4, 2304}.String())
}

func TestFromSliceCopies(t *testing.T) {
	src := []float32{1, 2, 3, 4, 5, 6}
	x, err := FromSlice(src, Shape{2, 3})
	require.NoError(t, err)

	src[0] = 100
	assert.Equal(t, float32(1), x.Data()[0])
	assert.Equal(t, float32(6), x.At(1, 2))
}

func TestFromSliceShapeMismatch(t *testing.T) {
	_, err := FromSlice([]float32{1, 2, 3}, Shape{2, 2})
	assert.Error(t, err)
}

func TestReshapeSharesData(t *testing.T) {
	x := Zeros(Shape{4, 64, 6, 6})
	flat := x.Reshape(4, -1)

	assert.True(t, flat.Shape().Equal(Shape{4, 2304}))
	flat.Data()[5] = 7
	assert.Equal(t, float32(7), x.Data()[5])
}

func TestReshapeInvalid(t *testing.T) {
	x := Zeros(Shape{2, 3})
	assert.Panics(t, func() { x.Reshape(4, 2) })
	assert.Panics(t, func() { x.Reshape(-1, -1) })
}

func TestArgmaxRows(t *testing.T) {
	x, err := FromSlice([]float32{
		0.1, 0.9, 0.3,
		2.0, 2.0, 1.0,
		-5, -4, -3,
	}, Shape{3, 3})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 0, 2}, x.ArgmaxRows())
}

func TestUniformBoundsAndDeterminism(t *testing.T) {
	a := Uniform(Shape{100}, 0.5, rand.New(rand.NewSource(7)))
	b := Uniform(Shape{100}, 0.5, rand.New(rand.NewSource(7)))

	assert.Equal(t, a.Data(), b.Data())
	for _, v := range a.Data() {
		assert.LessOrEqual(t, v, float32(0.5))
		assert.GreaterOrEqual(t, v, float32(-0.5))
	}
}

func TestCloneIsIndependent(t *testing.T) {
	x := Full(Shape{2}, 3)
	c := x.Clone()
	c.Data()[0] = 0
	assert.Equal(t, float32(3), x.Data()[0])
}
