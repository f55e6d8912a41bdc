package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsReferenceSetup(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, 10, cfg.Epochs)
	assert.Equal(t, 4, cfg.BatchSize)
	assert.Equal(t, float32(0.001), cfg.LR)
	assert.Equal(t, float32(0.9), cfg.Momentum)
	assert.Equal(t, 2000, cfg.LogEvery)
	assert.Equal(t, "auto", cfg.Device)
	assert.Equal(t, []string{"plane", "car", "bird", "cat", "deer", "dog", "frog", "horse", "ship", "truck"}, cfg.Classes)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
data_dir: /tmp/cifar
epochs: 2
lr: 0.01
device: cpu
synthetic: true
max_samples: 100
plot: loss.png
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/cifar", cfg.DataDir)
	assert.Equal(t, 2, cfg.Epochs)
	assert.Equal(t, float32(0.01), cfg.LR)
	assert.Equal(t, "cpu", cfg.Device)
	assert.True(t, cfg.Synthetic)
	assert.Equal(t, 100, cfg.MaxSamples)
	assert.Equal(t, "loss.png", cfg.PlotPath)
	// untouched keys keep their defaults
	assert.Equal(t, 4, cfg.BatchSize)
	assert.Equal(t, float32(0.9), cfg.Momentum)
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeConfig(t, "epochz: 3\n"))
	assert.ErrorContains(t, err, "parse config")
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	_, err := Load(writeConfig(t, "momentum: 1.5\n"))
	assert.ErrorContains(t, err, "momentum")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestApplyOverrides(t *testing.T) {
	cfg := Default()
	seed := int64(7)
	cfg.ApplyOverrides(Overrides{
		Epochs:      1,
		LR:          0.05,
		Seed:        &seed,
		Device:      "cpu",
		Workers:     2,
		Synthetic:   true,
		MaxSamples:  16,
		MonitorAddr: ":8080",
	})

	assert.Equal(t, 1, cfg.Epochs)
	assert.Equal(t, float32(0.05), cfg.LR)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, "cpu", cfg.Device)
	assert.Equal(t, 2, cfg.Workers)
	assert.True(t, cfg.Synthetic)
	assert.Equal(t, 16, cfg.MaxSamples)
	assert.Equal(t, ":8080", cfg.MonitorAddr)
	// zero overrides leave values alone
	assert.Equal(t, 4, cfg.BatchSize)
	assert.Equal(t, float32(0.9), cfg.Momentum)
	assert.Equal(t, "./data", cfg.DataDir)
}

func TestApplyOverridesZeroMomentumAndSeed(t *testing.T) {
	cfg := Default()
	momentum, seed := float32(0), int64(0)
	cfg.ApplyOverrides(Overrides{Momentum: &momentum, Seed: &seed})

	assert.Equal(t, float32(0), cfg.Momentum)
	assert.Equal(t, int64(0), cfg.Seed)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"epochs":     func(c *Config) { c.Epochs = 0 },
		"batch_size": func(c *Config) { c.BatchSize = -1 },
		"lr":         func(c *Config) { c.LR = 0 },
		"momentum":   func(c *Config) { c.Momentum = -0.1 },
		"log_every":  func(c *Config) { c.LogEvery = 0 },
		"workers":    func(c *Config) { c.Workers = -2 },
		"device":     func(c *Config) { c.Device = "tpu" },
		"classes":    func(c *Config) { c.Classes = []string{"a"} },
		"data_dir":   func(c *Config) { c.DataDir = "" },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), name)
		})
	}

	var nilCfg *Config
	assert.Error(t, nilCfg.Validate())
}
