package cpu

import (
	"fmt"

	"github.com/born-ml/cifarnet/internal/parallel"
	"github.com/born-ml/cifarnet/internal/tensor"
)

// convGeom holds the dimensions of one convolution.
type convGeom struct {
	n, cIn, h, w    int
	cOut, kh, kw    int
	hOut, wOut      int
	stride, padding int
}

// cols returns the im2col row count (C_in*K_h*K_w).
func (g convGeom) cols() int { return g.cIn * g.kh * g.kw }

// positions returns the number of output positions per image.
func (g convGeom) positions() int { return g.hOut * g.wOut }

func newConvGeom(op string, input, kernel *tensor.Tensor, stride, padding int) convGeom {
	is, ks := input.Shape(), kernel.Shape()
	if len(is) != 4 {
		panic(fmt.Sprintf("%s: input must be 4D [N,C,H,W], got %v", op, is))
	}
	if len(ks) != 4 {
		panic(fmt.Sprintf("%s: kernel must be 4D [C_out,C_in,K_h,K_w], got %v", op, ks))
	}
	if is[1] != ks[1] {
		panic(fmt.Sprintf("%s: input channels %d != kernel channels %d", op, is[1], ks[1]))
	}
	if stride <= 0 || padding < 0 {
		panic(fmt.Sprintf("%s: invalid stride %d / padding %d", op, stride, padding))
	}
	g := convGeom{
		n: is[0], cIn: is[1], h: is[2], w: is[3],
		cOut: ks[0], kh: ks[2], kw: ks[3],
		stride: stride, padding: padding,
	}
	g.hOut = (g.h+2*padding-g.kh)/stride + 1
	g.wOut = (g.w+2*padding-g.kw)/stride + 1
	if g.hOut <= 0 || g.wOut <= 0 {
		panic(fmt.Sprintf("%s: invalid output dimensions %dx%d for input %v and kernel %v", op, g.hOut, g.wOut, is, ks))
	}
	return g
}

// Conv2D performs 2D convolution with im2col followed by one gemm per image.
//
//	col_n:  [C_in*K_h*K_w, H_out*W_out]
//	out_n = kernel[C_out, C_in*K_h*K_w] @ col_n
//
// out_n is already laid out as [C_out, H_out, W_out], so no final
// rearrangement is needed. Images are processed in parallel.
func (cpu *CPUBackend) Conv2D(input, kernel *tensor.Tensor, stride, padding int) *tensor.Tensor {
	g := newConvGeom("conv2d", input, kernel, stride, padding)
	out := tensor.Zeros(tensor.Shape{g.n, g.cOut, g.hOut, g.wOut})

	inData, kData, outData := input.Data(), kernel.Data(), out.Data()
	K, P := g.cols(), g.positions()
	inStride, outStride := g.cIn*g.h*g.w, g.cOut*P

	scratch := newScratch(cpu.par, g.n, K*P)
	parallel.For(g.n, cpu.par, func(worker, n int) {
		col := scratch[worker]
		im2col(col, inData[n*inStride:(n+1)*inStride], g)
		gemm(false, false, g.cOut, P, K, kData, col, outData[n*outStride:(n+1)*outStride], 0)
	})
	return out
}

// Conv2DInputBackward computes dL/dinput.
//
//	dcol_n = kernel^T @ grad_n, then col2im scatters dcol_n back to image space.
func (cpu *CPUBackend) Conv2DInputBackward(input, kernel, grad *tensor.Tensor, stride, padding int) *tensor.Tensor {
	g := newConvGeom("conv2d_input_backward", input, kernel, stride, padding)
	checkGradShape("conv2d_input_backward", grad, tensor.Shape{g.n, g.cOut, g.hOut, g.wOut})

	dInput := tensor.Zeros(input.Shape())
	dData, kData, gData := dInput.Data(), kernel.Data(), grad.Data()
	K, P := g.cols(), g.positions()
	inStride, gradStride := g.cIn*g.h*g.w, g.cOut*P

	scratch := newScratch(cpu.par, g.n, K*P)
	parallel.For(g.n, cpu.par, func(worker, n int) {
		dcol := scratch[worker]
		gemm(true, false, K, P, g.cOut, kData, gData[n*gradStride:(n+1)*gradStride], dcol, 0)
		col2im(dData[n*inStride:(n+1)*inStride], dcol, g)
	})
	return dInput
}

// Conv2DKernelBackward computes dL/dkernel = sum_n grad_n @ col_n^T.
//
// Each worker accumulates into its own partial buffer; the partials are
// summed once all images are done.
func (cpu *CPUBackend) Conv2DKernelBackward(input, kernel, grad *tensor.Tensor, stride, padding int) *tensor.Tensor {
	g := newConvGeom("conv2d_kernel_backward", input, kernel, stride, padding)
	checkGradShape("conv2d_kernel_backward", grad, tensor.Shape{g.n, g.cOut, g.hOut, g.wOut})

	inData, gData := input.Data(), grad.Data()
	K, P := g.cols(), g.positions()
	inStride, gradStride := g.cIn*g.h*g.w, g.cOut*P

	cols := newScratch(cpu.par, g.n, K*P)
	partials := newScratch(cpu.par, g.n, g.cOut*K)
	parallel.For(g.n, cpu.par, func(worker, n int) {
		col := cols[worker]
		im2col(col, inData[n*inStride:(n+1)*inStride], g)
		gemm(false, true, g.cOut, K, P, gData[n*gradStride:(n+1)*gradStride], col, partials[worker], 1)
	})

	dKernel := tensor.Zeros(kernel.Shape())
	dk := dKernel.Data()
	for _, p := range partials {
		for i, v := range p {
			dk[i] += v
		}
	}
	return dKernel
}

// im2col unrolls one image [C, H, W] into col [C*K_h*K_w, H_out*W_out].
// Row r = (c, kh, kw), column p = (oh, ow). Padded positions are zero.
func im2col(col, img []float32, g convGeom) {
	P := g.positions()
	row := 0
	for c := 0; c < g.cIn; c++ {
		plane := img[c*g.h*g.w : (c+1)*g.h*g.w]
		for kh := 0; kh < g.kh; kh++ {
			for kw := 0; kw < g.kw; kw++ {
				dst := col[row*P : (row+1)*P]
				p := 0
				for oh := 0; oh < g.hOut; oh++ {
					y := oh*g.stride - g.padding + kh
					for ow := 0; ow < g.wOut; ow++ {
						x := ow*g.stride - g.padding + kw
						if y >= 0 && y < g.h && x >= 0 && x < g.w {
							dst[p] = plane[y*g.w+x]
						} else {
							dst[p] = 0
						}
						p++
					}
				}
				row++
			}
		}
	}
}

// col2im is the adjoint of im2col: it accumulates col back into img.
func col2im(img, col []float32, g convGeom) {
	P := g.positions()
	row := 0
	for c := 0; c < g.cIn; c++ {
		plane := img[c*g.h*g.w : (c+1)*g.h*g.w]
		for kh := 0; kh < g.kh; kh++ {
			for kw := 0; kw < g.kw; kw++ {
				src := col[row*P : (row+1)*P]
				p := 0
				for oh := 0; oh < g.hOut; oh++ {
					y := oh*g.stride - g.padding + kh
					for ow := 0; ow < g.wOut; ow++ {
						x := ow*g.stride - g.padding + kw
						if y >= 0 && y < g.h && x >= 0 && x < g.w {
							plane[y*g.w+x] += src[p]
						}
						p++
					}
				}
				row++
			}
		}
	}
}

// newScratch allocates one zeroed buffer of size per worker.
func newScratch(cfg parallel.Config, n, size int) [][]float32 {
	bufs := make([][]float32, cfg.NumWorkers(n))
	for i := range bufs {
		bufs[i] = make([]float32, size)
	}
	return bufs
}

func checkGradShape(op string, grad *tensor.Tensor, want tensor.Shape) {
	if !grad.Shape().Equal(want) {
		panic(fmt.Sprintf("%s: gradient shape %v, expected %v", op, grad.Shape(), want))
	}
}
