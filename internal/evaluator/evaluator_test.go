package evaluator

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/cifarnet/internal/autodiff"
	"github.com/born-ml/cifarnet/internal/backend/cpu"
	"github.com/born-ml/cifarnet/internal/dataset"
	"github.com/born-ml/cifarnet/internal/model"
	"github.com/born-ml/cifarnet/internal/tensor"
	"github.com/born-ml/cifarnet/internal/trainer"
)

var classes = dataset.Classes[:]

func TestAccumulatorAndRatios(t *testing.T) {
	var acc Accumulator
	acc.Add([]int{0, 1, 1, 3}, []int{0, 1, 2, 2})
	acc.Add([]int{0, 0}, []int{0, 1})

	r := acc.Report()
	assert.Equal(t, 2, r.Correct[0])
	assert.Equal(t, 2, r.Total[0])
	assert.Equal(t, 1, r.Correct[1])
	assert.Equal(t, 2, r.Total[1])
	assert.Equal(t, 0, r.Correct[2])
	assert.Equal(t, 2, r.Total[2])

	ratios := r.Ratios()
	require.Len(t, ratios, NumClasses)
	assert.Equal(t, 1.0, ratios[0])
	assert.Equal(t, 0.5, ratios[1])
	assert.Equal(t, 0.0, ratios[2])
	for _, v := range ratios[3:] {
		assert.True(t, math.IsNaN(v))
	}
	assert.InDelta(t, 3.0/6.0, r.Overall(), 1e-12)
}

func TestAccumulatorMismatchPanics(t *testing.T) {
	var acc Accumulator
	assert.Panics(t, func() { acc.Add([]int{1}, []int{1, 2}) })
}

func TestLinesTruncateAndHandleEmptyClasses(t *testing.T) {
	r := Report{}
	r.Correct[0], r.Total[0] = 2, 3 // 66.6 -> 66
	r.Correct[1], r.Total[1] = 1, 1
	r.Correct[2], r.Total[2] = 0, 4

	lines := r.Lines(classes)
	require.Len(t, lines, NumClasses)
	assert.Equal(t, "Accuracy of plane: 66 %", lines[0])
	assert.Equal(t, "Accuracy of   car: 100 %", lines[1])
	assert.Equal(t, "Accuracy of  bird:  0 %", lines[2])
	assert.Equal(t, "Accuracy of   cat: n/a", lines[3])

	assert.Panics(t, func() { r.Lines(classes[:3]) })
}

func TestRawVector(t *testing.T) {
	r := Report{}
	r.Correct[0], r.Total[0] = 1, 4
	r.Correct[1], r.Total[1] = 2, 3
	assert.Equal(t, "[0.25 0.6667 nan nan nan nan nan nan nan nan]", r.RawVector())
}

func TestOverallEmpty(t *testing.T) {
	assert.True(t, math.IsNaN(Report{}.Overall()))
}

func TestOverallMatchesTallies(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	var acc Accumulator
	for range 50 {
		acc.Add([]int{rng.Intn(NumClasses)}, []int{rng.Intn(NumClasses)})
	}
	r := acc.Report()
	var correct, total int
	for i := range r.Total {
		correct += r.Correct[i]
		total += r.Total[i]
	}
	assert.InDelta(t, float64(correct)/float64(total), r.Overall(), 1e-12)
	for i, v := range r.Ratios() {
		if r.Total[i] > 0 {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
}

// fixedModel predicts class k for every row.
type fixedModel struct{ k int }

func (m fixedModel) Forward(x *tensor.Tensor) *tensor.Tensor {
	n := x.Shape()[0]
	out := tensor.Zeros(tensor.Shape{n, NumClasses})
	for i := 0; i < n; i++ {
		out.Data()[i*NumClasses+m.k] = 1
	}
	return out
}

func TestEvaluateCountsEveryExample(t *testing.T) {
	ds, err := dataset.Synthetic(10, 5, 1)
	require.NoError(t, err)
	loader, err := dataset.NewLoader(ds, 4, false, nil)
	require.NoError(t, err)

	tape := autodiff.NewGradientTape()
	tape.StartRecording()

	r, err := Evaluate(context.Background(), fixedModel{k: 2}, tape, loader)
	require.NoError(t, err)
	assert.Equal(t, [NumClasses]int{2, 2, 2, 2, 2}, r.Total)
	assert.Equal(t, [NumClasses]int{0, 0, 2}, r.Correct)
	assert.True(t, tape.IsRecording())
}

func TestEvaluateDoesNotRecord(t *testing.T) {
	backend := autodiff.New(cpu.New())
	net := model.New(backend, rand.New(rand.NewSource(1)))
	ds, _ := dataset.Synthetic(4, 2, 1)
	loader, _ := dataset.NewLoader(ds, 4, false, nil)

	backend.Tape().StartRecording()
	_, err := Evaluate(context.Background(), net, backend.Tape(), loader)
	require.NoError(t, err)
	assert.Equal(t, 0, backend.Tape().NumOps())
}

// End to end: seeded, one epoch on 8 synthetic training images, evaluated on
// 8 synthetic test images over two classes.
func TestEndToEndSmallRun(t *testing.T) {
	train, err := dataset.Synthetic(8, 2, 11)
	require.NoError(t, err)
	test, err := dataset.Synthetic(8, 2, 12)
	require.NoError(t, err)

	backend := autodiff.New(cpu.New())
	net := model.New(backend, rand.New(rand.NewSource(1)))
	trainLoader, err := dataset.NewLoader(train, 4, true, rand.New(rand.NewSource(2)))
	require.NoError(t, err)
	testLoader, err := dataset.NewLoader(test, 4, false, nil)
	require.NoError(t, err)

	tr := trainer.New(net, backend, trainer.Config{Epochs: 1, LR: 0.001, Momentum: 0.9, LogEvery: 2000}, nil)
	require.NoError(t, tr.Run(context.Background(), trainLoader))

	r, err := Evaluate(context.Background(), net, backend.Tape(), testLoader)
	require.NoError(t, err)

	ratios := r.Ratios()
	for c := 0; c < NumClasses; c++ {
		if r.Total[c] == 0 {
			assert.True(t, math.IsNaN(ratios[c]))
			continue
		}
		assert.False(t, math.IsNaN(ratios[c]))
		assert.GreaterOrEqual(t, ratios[c], 0.0)
		assert.LessOrEqual(t, ratios[c], 1.0)
	}
	assert.Equal(t, 4, r.Total[0])
	assert.Equal(t, 4, r.Total[1])
	assert.Len(t, r.Lines(classes), NumClasses)
}
