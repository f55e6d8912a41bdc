package visual

import (
	"errors"
	"fmt"
	"sync"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/born-ml/cifarnet/internal/trainer"
)

// ErrNoData is returned when a loss plot has nothing to draw.
var ErrNoData = errors.New("visual: no loss data")

// LossCurve collects running-loss reports and per-epoch means. It
// implements trainer.Observer.
type LossCurve struct {
	mu              sync.Mutex
	batchesPerEpoch int
	reports         plotter.XYs
	epochs          plotter.XYs
}

var _ trainer.Observer = (*LossCurve)(nil)

// NewLossCurve creates a collector. batchesPerEpoch converts (epoch, batch)
// to a global step on the x axis.
func NewLossCurve(batchesPerEpoch int) *LossCurve {
	return &LossCurve{batchesPerEpoch: batchesPerEpoch}
}

func (c *LossCurve) step(epoch, batch int) float64 {
	return float64((epoch-1)*c.batchesPerEpoch + batch)
}

// OnReport records one running-loss window.
func (c *LossCurve) OnReport(p trainer.Progress) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports = append(c.reports, plotter.XY{X: c.step(p.Epoch, p.Batch), Y: p.Loss})
}

// OnEpoch records the mean loss of a finished epoch.
func (c *LossCurve) OnEpoch(epoch int, meanLoss float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epochs = append(c.epochs, plotter.XY{X: c.step(epoch+1, 0), Y: meanLoss})
}

// Plot builds the loss plot.
func (c *LossCurve) Plot() (*plot.Plot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.reports)+len(c.epochs) == 0 {
		return nil, ErrNoData
	}

	p := plot.New()
	p.Title.Text = "Training loss"
	p.X.Label.Text = "batch"
	p.Y.Label.Text = "cross-entropy"
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	for i, series := range []struct {
		name string
		pts  plotter.XYs
	}{
		{"running loss", c.reports},
		{"epoch mean", c.epochs},
	} {
		if len(series.pts) == 0 {
			continue
		}
		line, points, err := plotter.NewLinePoints(series.pts)
		if err != nil {
			return nil, fmt.Errorf("visual: %s: %w", series.name, err)
		}
		line.Width = vg.Points(2)
		line.Color = plotutil.Color(i)
		points.Color = plotutil.Color(i)
		points.Shape = plotutil.Shape(i)
		p.Add(line, points)
		p.Legend.Add(series.name, line, points)
	}
	return p, nil
}

// Save writes the loss plot as an image; the format follows the extension.
func (c *LossCurve) Save(path string) error {
	p, err := c.Plot()
	if err != nil {
		return err
	}
	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("visual: save loss plot: %w", err)
	}
	return nil
}
