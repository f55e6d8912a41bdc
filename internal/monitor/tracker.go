// Package monitor exposes read-only training progress over HTTP.
package monitor

import (
	"math"
	"sync"
	"time"

	"github.com/born-ml/cifarnet/internal/evaluator"
	"github.com/born-ml/cifarnet/internal/trainer"
)

// Run phases reported in Snapshot.Status.
const (
	StatusStarting   = "starting"
	StatusTraining   = "training"
	StatusEvaluating = "evaluating"
	StatusFinished   = "finished"
	StatusFailed     = "failed"
)

// ClassAccuracy is one class row of a finished evaluation.
type ClassAccuracy struct {
	Class   string   `json:"class"`
	Correct int      `json:"correct"`
	Total   int      `json:"total"`
	Ratio   *float64 `json:"ratio"` // null for classes without examples
}

// Snapshot is the JSON body of GET /progress.
type Snapshot struct {
	Status     string             `json:"status"`
	Device     string             `json:"device"`
	Epochs     int                `json:"epochs"`
	Epoch      int                `json:"epoch"`
	Reports    []trainer.Progress `json:"reports"`
	EpochLoss  []float64          `json:"epoch_loss"`
	Accuracy   []ClassAccuracy    `json:"accuracy,omitempty"`
	Overall    *float64           `json:"overall,omitempty"`
	Error      string             `json:"error,omitempty"`
	StartedAt  time.Time          `json:"started_at"`
	ElapsedSec float64            `json:"elapsed_sec"`
}

// Tracker holds the mutex-guarded progress state. It implements
// trainer.Observer so it can be attached to the trainer directly.
type Tracker struct {
	mu    sync.RWMutex
	snap  Snapshot
	clock func() time.Time
}

var _ trainer.Observer = (*Tracker)(nil)

// NewTracker creates a tracker for a run of `epochs` epochs on device.
func NewTracker(device string, epochs int) *Tracker {
	t := &Tracker{clock: time.Now}
	t.snap = Snapshot{
		Status:    StatusStarting,
		Device:    device,
		Epochs:    epochs,
		StartedAt: t.clock(),
	}
	return t
}

// SetStatus moves the run to another phase.
func (t *Tracker) SetStatus(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.Status = status
}

// Fail records a fatal error.
func (t *Tracker) Fail(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.Status = StatusFailed
	t.snap.Error = err.Error()
}

// OnReport records a running-loss report.
func (t *Tracker) OnReport(p trainer.Progress) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.Status = StatusTraining
	t.snap.Epoch = p.Epoch
	t.snap.Reports = append(t.snap.Reports, p)
}

// OnEpoch records a finished epoch.
func (t *Tracker) OnEpoch(epoch int, meanLoss float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.Status = StatusTraining
	t.snap.Epoch = epoch
	t.snap.EpochLoss = append(t.snap.EpochLoss, meanLoss)
}

// SetResult stores the evaluation outcome and marks the run finished.
func (t *Tracker) SetResult(r evaluator.Report, classes []string) {
	acc := make([]ClassAccuracy, evaluator.NumClasses)
	for i, v := range r.Ratios() {
		acc[i] = ClassAccuracy{Class: classes[i], Correct: r.Correct[i], Total: r.Total[i], Ratio: finite(v)}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.Status = StatusFinished
	t.snap.Accuracy = acc
	t.snap.Overall = finite(r.Overall())
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s := t.snap
	s.Reports = append([]trainer.Progress(nil), t.snap.Reports...)
	s.EpochLoss = append([]float64(nil), t.snap.EpochLoss...)
	s.Accuracy = append([]ClassAccuracy(nil), t.snap.Accuracy...)
	s.ElapsedSec = t.clock().Sub(s.StartedAt).Seconds()
	return s
}

// finite maps NaN to nil; encoding/json rejects NaN.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
