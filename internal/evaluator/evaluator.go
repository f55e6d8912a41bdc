// Package evaluator measures per-class accuracy on the test split.
package evaluator

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/born-ml/cifarnet/internal/autodiff"
	"github.com/born-ml/cifarnet/internal/dataset"
	"github.com/born-ml/cifarnet/internal/tensor"
)

// NumClasses is the number of tallied labels.
const NumClasses = dataset.NumClasses

// Model is the inference surface the evaluator needs.
type Model interface {
	Forward(x *tensor.Tensor) *tensor.Tensor
}

// Accumulator tallies correct predictions and totals per true label.
type Accumulator struct {
	Correct [NumClasses]int
	Total   [NumClasses]int
}

// Add records predictions against their true labels.
func (a *Accumulator) Add(predicted, labels []int) {
	if len(predicted) != len(labels) {
		panic(fmt.Sprintf("evaluator: %d predictions for %d labels", len(predicted), len(labels)))
	}
	for i, label := range labels {
		a.Total[label]++
		if predicted[i] == label {
			a.Correct[label]++
		}
	}
}

// Report returns an immutable view of the tallies.
func (a *Accumulator) Report() Report {
	return Report{Correct: a.Correct, Total: a.Total}
}

// Evaluate runs one pass over loader in inference mode and returns the
// per-class tallies. The tape is paused for the pass and restored after.
func Evaluate(ctx context.Context, model Model, tape *autodiff.GradientTape, loader *dataset.Loader) (Report, error) {
	if tape != nil {
		wasRecording := tape.IsRecording()
		tape.StopRecording()
		defer func() {
			if wasRecording {
				tape.StartRecording()
			}
		}()
	}

	var acc Accumulator
	it := loader.Epoch()
	for {
		if err := ctx.Err(); err != nil {
			return Report{}, err
		}
		batch, ok := it.Next()
		if !ok {
			break
		}
		predicted := model.Forward(batch.Images).ArgmaxRows()
		acc.Add(predicted, batch.Labels)
	}
	return acc.Report(), nil
}

// Report holds the final tallies.
type Report struct {
	Correct [NumClasses]int
	Total   [NumClasses]int
}

// Ratios returns correct/total per class. A class with no test examples
// yields NaN.
func (r Report) Ratios() []float64 {
	out := make([]float64, NumClasses)
	for i := range out {
		if r.Total[i] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = float64(r.Correct[i]) / float64(r.Total[i])
	}
	return out
}

// Overall returns sum(correct)/sum(total), or NaN when nothing was evaluated.
func (r Report) Overall() float64 {
	var correct, total int
	for i := range r.Total {
		correct += r.Correct[i]
		total += r.Total[i]
	}
	if total == 0 {
		return math.NaN()
	}
	return float64(correct) / float64(total)
}

// RawVector formats the ratio vector in brackets, one value per class.
func (r Report) RawVector() string {
	parts := make([]string, NumClasses)
	for i, v := range r.Ratios() {
		if math.IsNaN(v) {
			parts[i] = "nan"
			continue
		}
		parts[i] = fmt.Sprintf("%.4g", v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Lines renders one "Accuracy of <name>: <pct> %" line per class. The
// percentage is truncated toward zero; classes without examples print n/a.
func (r Report) Lines(classes []string) []string {
	if len(classes) != NumClasses {
		panic(fmt.Sprintf("evaluator: %d class names for %d classes", len(classes), NumClasses))
	}
	lines := make([]string, NumClasses)
	for i, v := range r.Ratios() {
		if math.IsNaN(v) {
			lines[i] = fmt.Sprintf("Accuracy of %5s: n/a", classes[i])
			continue
		}
		pct := 100 * r.Correct[i] / r.Total[i]
		lines[i] = fmt.Sprintf("Accuracy of %5s: %2d %%", classes[i], pct)
	}
	return lines
}
