// Command cifarnet trains a small convolutional classifier on CIFAR-10 and
// reports per-class test accuracy.
//
// Usage:
//
//	cifarnet [-config run.yaml] [-data ./data] [-epochs 10] [-device auto]
//	cifarnet -synthetic -samples 64 -epochs 1   # no download
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/gin-gonic/gin"

	"github.com/born-ml/cifarnet/internal/config"
)

func main() {
	configPath, overrides, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Fatalf("%v", err)
	}

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	cfg.ApplyOverrides(overrides)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, os.Stdout); err != nil {
		stop()
		log.Fatalf("%v", err)
	}
}

// parseFlags returns the -config path and the overrides for every flag
// present on the command line.
func parseFlags(args []string) (string, config.Overrides, error) {
	fs := flag.NewFlagSet("cifarnet", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML config file (optional)")
	dataDir := fs.String("data", "", "Dataset cache directory (default ./data)")
	epochs := fs.Int("epochs", 0, "Number of training epochs (default 10)")
	batchSize := fs.Int("batch", 0, "Mini-batch size (default 4)")
	lr := fs.Float64("lr", 0, "SGD learning rate (default 0.001)")
	momentum := fs.Float64("momentum", 0, "SGD momentum, 0 for plain SGD (default 0.9)")
	logEvery := fs.Int("log-every", 0, "Batches between loss reports (default 2000)")
	seed := fs.Int64("seed", 0, "Random seed for init and shuffling (default 1)")
	dev := fs.String("device", "", "Compute device: auto, cpu or webgpu (default auto)")
	workers := fs.Int("workers", 0, "CPU kernel goroutines (default physical cores)")
	synthetic := fs.Bool("synthetic", false, "Use generated images instead of CIFAR-10")
	samples := fs.Int("samples", 0, "Max samples per split (0 = all)")
	grid := fs.String("grid", "", "Write a sample grid PNG of training images")
	plot := fs.String("plot", "", "Write the training loss curve PNG")
	report := fs.String("report", "", "Write per-class accuracy to an .xlsx workbook")
	monitor := fs.String("monitor", "", "Serve progress over HTTP on this address, e.g. :8080")
	if err := fs.Parse(args); err != nil {
		return "", config.Overrides{}, err
	}

	o := config.Overrides{
		DataDir:     *dataDir,
		Epochs:      *epochs,
		BatchSize:   *batchSize,
		LR:          float32(*lr),
		LogEvery:    *logEvery,
		Device:      *dev,
		Workers:     *workers,
		Synthetic:   *synthetic,
		MaxSamples:  *samples,
		GridPath:    *grid,
		PlotPath:    *plot,
		ReportPath:  *report,
		MonitorAddr: *monitor,
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "momentum":
			m := float32(*momentum)
			o.Momentum = &m
		case "seed":
			o.Seed = seed
		}
	})
	return *configPath, o, nil
}
