// Package config holds the run configuration. Defaults reproduce the
// reference training setup; a YAML file and command-line flags may override.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/cifarnet/internal/dataset"
	"github.com/born-ml/cifarnet/internal/device"
)

// Config captures the runtime knobs for a training run.
type Config struct {
	DataDir     string `yaml:"data_dir"`
	DownloadURL string `yaml:"download_url"`
	SHA256      string `yaml:"sha256"`

	Epochs    int     `yaml:"epochs"`
	BatchSize int     `yaml:"batch_size"`
	LR        float32 `yaml:"lr"`
	Momentum  float32 `yaml:"momentum"`
	LogEvery  int     `yaml:"log_every"`
	Seed      int64   `yaml:"seed"`

	Device  string `yaml:"device"`
	Workers int    `yaml:"workers"` // CPU kernel workers, 0 = physical cores

	Synthetic  bool     `yaml:"synthetic"`   // train on generated images instead of CIFAR-10
	MaxSamples int      `yaml:"max_samples"` // per split, 0 = all
	Classes    []string `yaml:"classes"`

	GridPath    string `yaml:"grid"`
	PlotPath    string `yaml:"plot"`
	ReportPath  string `yaml:"report"`
	MonitorAddr string `yaml:"monitor"`
}

// Overrides captures CLI supplied values. Zero values leave the config
// alone; Momentum and Seed are pointers because zero is a valid setting.
type Overrides struct {
	DataDir     string
	Epochs      int
	BatchSize   int
	LR          float32
	Momentum    *float32
	LogEvery    int
	Seed        *int64
	Device      string
	Workers     int
	Synthetic   bool
	MaxSamples  int
	GridPath    string
	PlotPath    string
	ReportPath  string
	MonitorAddr string
}

// Default returns the reference configuration.
func Default() *Config {
	return &Config{
		DataDir:     "./data",
		DownloadURL: dataset.DefaultURL,
		Epochs:      10,
		BatchSize:   4,
		LR:          0.001,
		Momentum:    0.9,
		LogEvery:    2000,
		Seed:        1,
		Device:      device.Auto,
		Classes:     append([]string(nil), dataset.Classes[:]...),
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg := Default()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyOverrides updates cfg using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.DataDir != "" {
		c.DataDir = o.DataDir
	}
	if o.Epochs > 0 {
		c.Epochs = o.Epochs
	}
	if o.BatchSize > 0 {
		c.BatchSize = o.BatchSize
	}
	if o.LR > 0 {
		c.LR = o.LR
	}
	if o.Momentum != nil {
		c.Momentum = *o.Momentum
	}
	if o.LogEvery > 0 {
		c.LogEvery = o.LogEvery
	}
	if o.Seed != nil {
		c.Seed = *o.Seed
	}
	if o.Device != "" {
		c.Device = o.Device
	}
	if o.Workers > 0 {
		c.Workers = o.Workers
	}
	if o.Synthetic {
		c.Synthetic = true
	}
	if o.MaxSamples > 0 {
		c.MaxSamples = o.MaxSamples
	}
	if o.GridPath != "" {
		c.GridPath = o.GridPath
	}
	if o.PlotPath != "" {
		c.PlotPath = o.PlotPath
	}
	if o.ReportPath != "" {
		c.ReportPath = o.ReportPath
	}
	if o.MonitorAddr != "" {
		c.MonitorAddr = o.MonitorAddr
	}
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.DataDir == "" && !c.Synthetic {
		return errors.New("data_dir must be set")
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("epochs must be > 0 (got %d)", c.Epochs)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0 (got %d)", c.BatchSize)
	}
	if c.LR <= 0 {
		return fmt.Errorf("lr must be > 0 (got %g)", c.LR)
	}
	if c.Momentum < 0 || c.Momentum >= 1 {
		return fmt.Errorf("momentum must be in [0, 1) (got %g)", c.Momentum)
	}
	if c.LogEvery <= 0 {
		return fmt.Errorf("log_every must be > 0 (got %d)", c.LogEvery)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0 (got %d)", c.Workers)
	}
	if c.MaxSamples < 0 {
		return fmt.Errorf("max_samples must be >= 0 (got %d)", c.MaxSamples)
	}
	switch c.Device {
	case device.Auto, device.CPU, device.WebGPU:
	default:
		return fmt.Errorf("device must be one of %s|%s|%s (got %q)", device.Auto, device.CPU, device.WebGPU, c.Device)
	}
	if len(c.Classes) != dataset.NumClasses {
		return fmt.Errorf("classes must list %d names (got %d)", dataset.NumClasses, len(c.Classes))
	}
	return nil
}
