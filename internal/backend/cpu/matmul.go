package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/born-ml/cifarnet/internal/tensor"
)

// MatMul computes op(a) @ op(b) for 2D tensors using BLAS sgemm.
//
// With transA set, a is stored as [K, M] and used as [M, K]; likewise b
// is stored as [N, K] when transB is set. The result is always [M, N].
func (cpu *CPUBackend) MatMul(a, b *tensor.Tensor, transA, transB bool) *tensor.Tensor {
	as, bs := a.Shape(), b.Shape()
	if len(as) != 2 || len(bs) != 2 {
		panic(fmt.Sprintf("matmul: requires 2D tensors, got %v and %v", as, bs))
	}

	m, k := as[0], as[1]
	if transA {
		m, k = k, m
	}
	kb, n := bs[0], bs[1]
	if transB {
		kb, n = n, kb
	}
	if k != kb {
		panic(fmt.Sprintf("matmul: shape mismatch %v (trans=%v) @ %v (trans=%v)", as, transA, bs, transB))
	}

	out := tensor.Zeros(tensor.Shape{m, n})
	gemm(transA, transB, m, n, k, a.Data(), b.Data(), out.Data(), 0)
	return out
}

// gemm computes c = op(a) @ op(b) + beta*c on raw row-major buffers.
// m, n, k are the dimensions after applying the transposes.
func gemm(transA, transB bool, m, n, k int, a, b, c []float32, beta float32) {
	ta, tb := blas.NoTrans, blas.NoTrans
	ga := blas32.General{Rows: m, Cols: k, Stride: k, Data: a}
	if transA {
		ta = blas.Trans
		ga = blas32.General{Rows: k, Cols: m, Stride: m, Data: a}
	}
	gb := blas32.General{Rows: k, Cols: n, Stride: n, Data: b}
	if transB {
		tb = blas.Trans
		gb = blas32.General{Rows: n, Cols: k, Stride: k, Data: b}
	}
	gc := blas32.General{Rows: m, Cols: n, Stride: n, Data: c}
	blas32.Gemm(ta, tb, 1, ga, gb, beta, gc)
}
