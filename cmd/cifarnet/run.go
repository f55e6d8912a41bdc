package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
	"time"

	"github.com/born-ml/cifarnet/internal/autodiff"
	"github.com/born-ml/cifarnet/internal/config"
	"github.com/born-ml/cifarnet/internal/dataset"
	"github.com/born-ml/cifarnet/internal/device"
	"github.com/born-ml/cifarnet/internal/evaluator"
	"github.com/born-ml/cifarnet/internal/model"
	"github.com/born-ml/cifarnet/internal/monitor"
	"github.com/born-ml/cifarnet/internal/report"
	"github.com/born-ml/cifarnet/internal/trainer"
	"github.com/born-ml/cifarnet/internal/visual"
)

const (
	syntheticTrain = 1000
	syntheticTest  = 200
)

// splits holds the two datasets of a run plus the label names shipped
// with them.
type splits struct {
	train, test *dataset.Dataset
	labels      []string
}

// run executes the pipeline: data, model, training, evaluation. Console
// lines go to out.
func run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	dev, err := device.Select(cfg.Device, cfg.Workers)
	if err != nil {
		return fmt.Errorf("select device: %w", err)
	}
	defer dev.Close()
	fmt.Fprintf(out, "Using device: %s\n", dev.Name())
	log.Printf("Device: %s", dev.Info)

	data, err := loadData(ctx, cfg, out)
	if err != nil {
		return err
	}

	log.Printf("Train: %d images, per class %v", data.train.Len(), data.train.ClassCounts())
	log.Printf("Test: %d images, per class %v", data.test.Len(), data.test.ClassCounts())

	// Every stream is drawn up front so optional outputs never shift the
	// weights or the shuffle order for a given seed.
	rng := rand.New(rand.NewSource(cfg.Seed))
	shuffleSeed, gridSeed, initSeed := rng.Int63(), rng.Int63(), rng.Int63()

	trainLoader, err := dataset.NewLoader(data.train, cfg.BatchSize, true, rand.New(rand.NewSource(shuffleSeed)))
	if err != nil {
		return err
	}
	testLoader, err := dataset.NewLoader(data.test, cfg.BatchSize, false, nil)
	if err != nil {
		return err
	}

	if cfg.GridPath != "" {
		writeGrid(cfg, data.train, gridSeed, out)
	}

	backend := autodiff.New(dev.Backend)
	net := model.New(backend, rand.New(rand.NewSource(initSeed)))
	fmt.Fprint(out, net.Summary())

	tracker := monitor.NewTracker(dev.Name(), cfg.Epochs)
	if cfg.MonitorAddr != "" {
		srv, err := monitor.Start(cfg.MonitorAddr, tracker)
		if err != nil {
			log.Printf("Warning: monitor disabled: %v", err)
		} else {
			log.Printf("Monitor listening on %s", srv.Addr())
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()
		}
	}

	tr := trainer.New(net, backend, trainer.Config{
		Epochs:   cfg.Epochs,
		LR:       cfg.LR,
		Momentum: cfg.Momentum,
		LogEvery: cfg.LogEvery,
	}, out)
	curve := visual.NewLossCurve(trainLoader.NumBatches())
	epochs := &epochLog{}
	tr.AddObserver(tracker)
	tr.AddObserver(curve)
	tr.AddObserver(epochs)

	fmt.Fprintln(out, "Training...")
	tracker.SetStatus(monitor.StatusTraining)
	if err := tr.Run(ctx, trainLoader); err != nil {
		tracker.Fail(err)
		return fmt.Errorf("training: %w", err)
	}
	fmt.Fprintln(out, "Finished.")

	tracker.SetStatus(monitor.StatusEvaluating)
	result, err := evaluator.Evaluate(ctx, net, backend.Tape(), testLoader)
	if err != nil {
		tracker.Fail(err)
		return fmt.Errorf("evaluation: %w", err)
	}
	tracker.SetResult(result, cfg.Classes)

	fmt.Fprintln(out, result.RawVector())
	for _, line := range result.Lines(cfg.Classes) {
		fmt.Fprintln(out, line)
	}

	if cfg.PlotPath != "" {
		if err := curve.Save(cfg.PlotPath); err != nil {
			log.Printf("Warning: loss plot not written: %v", err)
		}
	}
	if cfg.ReportPath != "" {
		wb := report.Workbook{
			Classes:   cfg.Classes,
			Labels:    data.labels,
			Result:    result,
			History:   tr.History(),
			EpochLoss: epochs.means,
		}
		if err := report.Write(cfg.ReportPath, wb); err != nil {
			log.Printf("Warning: report not written: %v", err)
		}
	}
	return nil
}

// loadData fetches and decodes CIFAR-10, or generates synthetic splits.
func loadData(ctx context.Context, cfg *config.Config, out io.Writer) (splits, error) {
	if cfg.Synthetic {
		nTrain, nTest := syntheticTrain, syntheticTest
		if cfg.MaxSamples > 0 {
			nTrain, nTest = cfg.MaxSamples, cfg.MaxSamples
		}
		train, err := dataset.Synthetic(nTrain, dataset.NumClasses, cfg.Seed)
		if err != nil {
			return splits{}, err
		}
		test, err := dataset.Synthetic(nTest, dataset.NumClasses, cfg.Seed+1)
		if err != nil {
			return splits{}, err
		}
		return splits{train: train, test: test}, nil
	}

	opts := dataset.FetchOptions{URL: cfg.DownloadURL, SHA256: cfg.SHA256, Log: out}
	if err := dataset.Fetch(ctx, cfg.DataDir, opts); err != nil {
		return splits{}, err
	}
	train, err := dataset.Load(cfg.DataDir, dataset.Train)
	if err != nil {
		return splits{}, err
	}
	test, err := dataset.Load(cfg.DataDir, dataset.Test)
	if err != nil {
		return splits{}, err
	}
	labels, err := dataset.ReadClassNames(cfg.DataDir)
	if err != nil {
		log.Printf("Warning: using built-in class names: %v", err)
		labels = nil
	}
	return splits{
		train:  train.Subset(cfg.MaxSamples),
		test:   test.Subset(cfg.MaxSamples),
		labels: labels,
	}, nil
}

// writeGrid saves one shuffled training batch as an image and prints its
// labels. Failures are logged; the grid is a debugging aid.
func writeGrid(cfg *config.Config, train *dataset.Dataset, seed int64, out io.Writer) {
	loader, err := dataset.NewLoader(train, cfg.BatchSize, true, rand.New(rand.NewSource(seed)))
	if err != nil {
		log.Printf("Warning: sample grid skipped: %v", err)
		return
	}
	batch, ok := loader.Epoch().Next()
	if !ok {
		log.Printf("Warning: sample grid skipped: empty training set")
		return
	}
	if err := visual.SaveGrid(cfg.GridPath, batch, cfg.Classes); err != nil {
		log.Printf("Warning: sample grid not written: %v", err)
		return
	}
	fmt.Fprintln(out, visual.Caption(batch.Labels, cfg.Classes))
}

// epochLog keeps per-epoch mean losses for the report.
type epochLog struct {
	means []float64
}

func (e *epochLog) OnReport(trainer.Progress) {}

func (e *epochLog) OnEpoch(_ int, meanLoss float64) {
	e.means = append(e.means, meanLoss)
}
