// Package device selects the compute backend once at startup.
package device

import (
	"fmt"
	"strings"

	"github.com/klauspost/cpuid/v2"

	"github.com/born-ml/cifarnet/internal/backend/cpu"
	"github.com/born-ml/cifarnet/internal/backend/webgpu"
	"github.com/born-ml/cifarnet/internal/parallel"
	"github.com/born-ml/cifarnet/internal/tensor"
)

// Preference values accepted by Select.
const (
	Auto   = "auto"
	CPU    = "cpu"
	WebGPU = "webgpu"
)

// Device is the backend chosen for the run together with a human
// readable description of the hardware behind it.
type Device struct {
	Backend tensor.Backend
	Info    string

	release func()
}

// Name returns the backend name, e.g. "cpu".
func (d *Device) Name() string {
	return d.Backend.Name()
}

// Close releases any accelerator resources.
func (d *Device) Close() {
	if d.release != nil {
		d.release()
	}
}

// Select picks a backend for pref. "auto" prefers the accelerator when one
// is present and otherwise uses the CPU; "webgpu" fails if no GPU is usable.
// workers caps CPU kernel goroutines; 0 means one per physical core.
func Select(pref string, workers int) (*Device, error) {
	switch strings.ToLower(pref) {
	case "", Auto:
		if webgpu.IsAvailable() {
			if d, err := newWebGPU(); err == nil {
				return d, nil
			}
		}
		return newCPU(workers), nil
	case CPU:
		return newCPU(workers), nil
	case WebGPU:
		return newWebGPU()
	default:
		return nil, fmt.Errorf("unknown device %q (want %s, %s or %s)", pref, Auto, CPU, WebGPU)
	}
}

func newCPU(workers int) *Device {
	cfg := parallel.DefaultConfig()
	if workers > 0 {
		cfg.Workers = workers
	}
	backend := cpu.NewWithConfig(cfg)
	return &Device{
		Backend: backend,
		Info:    fmt.Sprintf("%s, %d workers", DescribeCPU(), backend.Workers()),
	}
}

func newWebGPU() (*Device, error) {
	gpu, err := webgpu.New()
	if err != nil {
		return nil, err
	}
	return &Device{
		Backend: gpu,
		Info:    "matmul on GPU, convolution on " + DescribeCPU(),
		release: gpu.Release,
	}, nil
}

// DescribeCPU summarizes the host processor from cpuid.
func DescribeCPU() string {
	brand := strings.TrimSpace(cpuid.CPU.BrandName)
	if brand == "" {
		brand = "unknown CPU"
	}
	var feats []string
	for _, f := range []struct {
		id   cpuid.FeatureID
		name string
	}{
		{cpuid.AVX2, "avx2"},
		{cpuid.FMA3, "fma"},
		{cpuid.AVX512F, "avx512f"},
		{cpuid.ASIMD, "neon"},
	} {
		if cpuid.CPU.Supports(f.id) {
			feats = append(feats, f.name)
		}
	}
	desc := fmt.Sprintf("%s (%d physical cores", brand, cpuid.CPU.PhysicalCores)
	if len(feats) > 0 {
		desc += ", " + strings.Join(feats, " ")
	}
	return desc + ")"
}
