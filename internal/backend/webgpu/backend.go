//go:build windows

// Package webgpu implements an accelerator backend: dense matrix products run
// as WebGPU compute shaders, every other kernel runs on the CPU backend.
// Uses go-webgpu (github.com/go-webgpu/webgpu) for zero-CGO bindings.
package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/born-ml/cifarnet/internal/backend/cpu"
	"github.com/born-ml/cifarnet/internal/tensor"
)

// Backend runs MatMul on the GPU and delegates the rest to the CPU.
type Backend struct {
	*cpu.CPUBackend

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	mu       sync.Mutex
	pipeline *wgpu.ComputePipeline
}

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a WebGPU backend.
// Returns ErrUnavailable if no adapter or native library can be found.
func New() (backend *Backend, err error) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			backend = nil
			err = fmt.Errorf("%w: native library: %v", ErrUnavailable, r)
		}
	}()

	instance := wgpu.CreateInstance(nil)
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("%w: request adapter: %v", ErrUnavailable, err)
	}

	device, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("%w: request device: %v", ErrUnavailable, err)
	}

	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("%w: no device queue", ErrUnavailable)
	}

	return &Backend{
		CPUBackend: cpu.New(),
		instance:   instance,
		adapter:    adapter,
		device:     device,
		queue:      queue,
	}, nil
}

// IsAvailable reports whether a WebGPU adapter can be acquired.
func IsAvailable() (available bool) {
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		return false
	}
	adapter.Release()
	return true
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return "webgpu"
}

// Release frees all GPU resources.
func (b *Backend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pipeline != nil {
		b.pipeline.Release()
		b.pipeline = nil
	}
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

// MatMul computes op(a) @ op(b) on the GPU. Transposed operands are
// materialized on the host before upload.
func (b *Backend) MatMul(a, other *tensor.Tensor, transA, transB bool) *tensor.Tensor {
	if transA {
		a = transpose2D(a)
	}
	if transB {
		other = transpose2D(other)
	}
	out, err := b.runMatMul(a, other)
	if err != nil {
		panic(fmt.Sprintf("webgpu: %v", err))
	}
	return out
}

func (b *Backend) matmulPipeline() *wgpu.ComputePipeline {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pipeline == nil {
		shader := b.device.CreateShaderModuleWGSL(matmulShader)
		b.pipeline = b.device.CreateComputePipelineSimple(nil, shader, "main")
	}
	return b.pipeline
}

func (b *Backend) runMatMul(a, other *tensor.Tensor) (*tensor.Tensor, error) {
	as, os := a.Shape(), other.Shape()
	if len(as) != 2 || len(os) != 2 {
		return nil, fmt.Errorf("matmul requires 2D tensors, got %v and %v", as, os)
	}
	if as[1] != os[0] {
		return nil, fmt.Errorf("matmul shape mismatch: %v @ %v", as, os)
	}

	//nolint:gosec // G115: shape dimensions are non-negative
	M, K, N := uint32(as[0]), uint32(as[1]), uint32(os[1])
	pipeline := b.matmulPipeline()

	bufferA := b.createBuffer(float32Bytes(a.Data()), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferA.Release()
	bufferB := b.createBuffer(float32Bytes(other.Data()), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferB.Release()

	resultSize := uint64(M) * uint64(N) * 4
	bufferResult := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:  resultSize,
	})
	defer bufferResult.Release()

	params := make([]byte, 16) // 3 u32 padded to 16 bytes
	binary.LittleEndian.PutUint32(params[0:4], M)
	binary.LittleEndian.PutUint32(params[4:8], K)
	binary.LittleEndian.PutUint32(params[8:12], N)
	bufferParams := b.createBuffer(params, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)
	defer bufferParams.Release()

	bindGroup := b.device.CreateBindGroupSimple(pipeline.GetBindGroupLayout(0), []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferA, 0, uint64(len(a.Data())*4)),
		wgpu.BufferBindingEntry(1, bufferB, 0, uint64(len(other.Data())*4)),
		wgpu.BufferBindingEntry(2, bufferResult, 0, resultSize),
		wgpu.BufferBindingEntry(3, bufferParams, 0, 16),
	})
	defer bindGroup.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups(
		uint32(math.Ceil(float64(N)/workgroupSize)),
		uint32(math.Ceil(float64(M)/workgroupSize)),
		1,
	)
	pass.End()
	b.queue.Submit(encoder.Finish(nil))

	raw, err := b.readBuffer(bufferResult, resultSize)
	if err != nil {
		return nil, err
	}
	out := tensor.Zeros(tensor.Shape{int(M), int(N)})
	outData := out.Data()
	for i := range outData {
		outData[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return out, nil
}

// createBuffer creates a GPU buffer initialized with data.
// Sizes are rounded up to 16 bytes to satisfy uniform alignment.
func (b *Backend) createBuffer(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := (uint64(len(data)) + 15) &^ 15
	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})
	mapped := buffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice over the mapped range
	copy(unsafe.Slice((*byte)(mapped), size), data)
	buffer.Unmap()
	return buffer
}

// readBuffer copies a storage buffer back to host memory through a staging buffer.
func (b *Backend) readBuffer(src *wgpu.Buffer, size uint64) ([]byte, error) {
	staging := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer staging.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(src, 0, staging, 0, size)
	b.queue.Submit(encoder.Finish(nil))

	if err := staging.MapAsync(b.device, wgpu.MapModeRead, 0, size); err != nil {
		return nil, fmt.Errorf("map staging buffer: %w", err)
	}
	mapped := staging.GetMappedRange(0, size)
	result := make([]byte, size)
	//nolint:gosec // unsafe.Slice over the mapped range
	copy(result, unsafe.Slice((*byte)(mapped), size))
	staging.Unmap()
	return result, nil
}

func float32Bytes(data []float32) []byte {
	out := make([]byte, len(data)*4)
	for i, v := range data {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}
