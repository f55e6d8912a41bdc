//go:build !windows

// Package webgpu implements an accelerator backend: dense matrix products run
// as WebGPU compute shaders, every other kernel runs on the CPU backend.
//
// The GPU path is only built on windows; elsewhere New always fails and
// callers fall back to the CPU backend.
package webgpu

import (
	"github.com/born-ml/cifarnet/internal/backend/cpu"
	"github.com/born-ml/cifarnet/internal/tensor"
)

// Backend is never constructed on this platform.
type Backend struct {
	*cpu.CPUBackend
}

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New always returns ErrUnavailable on this platform.
func New() (*Backend, error) {
	return nil, ErrUnavailable
}

// IsAvailable reports whether a WebGPU adapter can be acquired.
func IsAvailable() bool {
	return false
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return "webgpu"
}

// Release is a no-op on this platform.
func (b *Backend) Release() {}
