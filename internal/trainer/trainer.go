// Package trainer runs the optimization loop.
//
// Per batch: zero gradients, forward, cross-entropy loss, backward through
// the gradient tape, optimizer step. A running-loss line
//
//	[epoch, batch] loss: X.XXX
//
// is written every LogEvery batches of an epoch.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/born-ml/cifarnet/internal/autodiff"
	"github.com/born-ml/cifarnet/internal/dataset"
	"github.com/born-ml/cifarnet/internal/nn"
	"github.com/born-ml/cifarnet/internal/optim"
	"github.com/born-ml/cifarnet/internal/tensor"
)

// ErrNonFinite is returned when a batch loss is NaN or infinite.
var ErrNonFinite = errors.New("trainer: non-finite loss")

// Backend is an nn.Backend that records onto a gradient tape.
// autodiff.AutodiffBackend satisfies it.
type Backend interface {
	nn.Backend
	Tape() *autodiff.GradientTape
	Backward(loss *tensor.Tensor) map[*tensor.Tensor]*tensor.Tensor
}

// Config holds the training hyperparameters.
type Config struct {
	Epochs   int
	LR       float32
	Momentum float32
	LogEvery int // batches between loss reports
}

// Progress is one emitted running-loss report.
type Progress struct {
	Epoch int     `json:"epoch"` // 1-based
	Batch int     `json:"batch"` // 1-based index of the last batch in the window
	Loss  float64 `json:"loss"`  // mean loss over the window
}

// Observer receives training events.
type Observer interface {
	OnReport(p Progress)
	OnEpoch(epoch int, meanLoss float64)
}

// Trainer owns the loss, optimizer and loop state for one model.
type Trainer struct {
	model     nn.Module
	backend   Backend
	criterion *nn.CrossEntropyLoss
	optimizer optim.Optimizer
	cfg       Config
	out       io.Writer

	observers []Observer
	history   []Progress
}

// New creates a trainer using SGD with momentum over every model parameter.
// Report lines go to out.
func New(model nn.Module, backend Backend, cfg Config, out io.Writer) *Trainer {
	if out == nil {
		out = io.Discard
	}
	return &Trainer{
		model:     model,
		backend:   backend,
		criterion: nn.NewCrossEntropyLoss(backend),
		optimizer: optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: cfg.LR, Momentum: cfg.Momentum}),
		cfg:       cfg,
		out:       out,
	}
}

// AddObserver registers o for report and epoch events.
func (t *Trainer) AddObserver(o Observer) {
	t.observers = append(t.observers, o)
}

// History returns every report emitted so far.
func (t *Trainer) History() []Progress {
	return t.history
}

// Run trains for cfg.Epochs passes over loader. It stops early with the
// context error when ctx is canceled.
func (t *Trainer) Run(ctx context.Context, loader *dataset.Loader) error {
	for epoch := 1; epoch <= t.cfg.Epochs; epoch++ {
		mean, err := t.runEpoch(ctx, epoch, loader)
		if err != nil {
			return err
		}
		for _, o := range t.observers {
			o.OnEpoch(epoch, mean)
		}
	}
	return nil
}

func (t *Trainer) runEpoch(ctx context.Context, epoch int, loader *dataset.Loader) (float64, error) {
	running := NewRunningLoss(t.cfg.LogEvery)
	var total float64
	batches := 0

	it := loader.Epoch()
	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		batch, ok := it.Next()
		if !ok {
			break
		}

		loss := t.Step(batch)
		if math.IsNaN(loss) || math.IsInf(loss, 0) {
			return 0, fmt.Errorf("%w at epoch %d batch %d", ErrNonFinite, epoch, i+1)
		}
		running.Add(loss)
		total += loss
		batches++

		if running.Due() {
			p := Progress{Epoch: epoch, Batch: i + 1, Loss: running.Flush()}
			fmt.Fprintf(t.out, "[%d, %5d] loss: %.3f\n", p.Epoch, p.Batch, p.Loss)
			t.history = append(t.history, p)
			for _, o := range t.observers {
				o.OnReport(p)
			}
		}
	}
	if batches == 0 {
		return 0, nil
	}
	return total / float64(batches), nil
}

// Step performs one optimization step on batch and returns its loss.
func (t *Trainer) Step(batch dataset.Batch) float64 {
	tape := t.backend.Tape()
	tape.Clear()
	tape.StartRecording()
	defer func() {
		tape.StopRecording()
		tape.Clear()
	}()

	t.optimizer.ZeroGrad()
	logits := t.model.Forward(batch.Images)
	loss := t.criterion.Forward(logits, batch.Labels)
	grads := t.backend.Backward(loss)
	t.optimizer.Step(grads)

	return float64(loss.Data()[0])
}
