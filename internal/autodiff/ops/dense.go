package ops

import "github.com/born-ml/cifarnet/internal/tensor"

// MatMulOp records output = op(a) @ op(b).
type MatMulOp struct {
	a, b, output   *tensor.Tensor
	transA, transB bool
}

// NewMatMulOp creates a new MatMul operation.
func NewMatMulOp(a, b, output *tensor.Tensor, transA, transB bool) *MatMulOp {
	return &MatMulOp{a: a, b: b, output: output, transA: transA, transB: transB}
}

// Inputs returns [a, b].
func (op *MatMulOp) Inputs() []*tensor.Tensor {
	return []*tensor.Tensor{op.a, op.b}
}

// Output returns the product.
func (op *MatMulOp) Output() *tensor.Tensor {
	return op.output
}

// Backward computes gradients in the stored (untransposed) layout of a and b.
//
//	dop(A) = G @ op(B)^T    dop(B) = op(A)^T @ G
func (op *MatMulOp) Backward(g *tensor.Tensor, backend tensor.Backend) []*tensor.Tensor {
	var gradA, gradB *tensor.Tensor
	if op.transA {
		gradA = backend.MatMul(op.b, g, op.transB, true)
	} else {
		gradA = backend.MatMul(g, op.b, false, !op.transB)
	}
	if op.transB {
		gradB = backend.MatMul(g, op.a, true, op.transA)
	} else {
		gradB = backend.MatMul(op.a, g, !op.transA, false)
	}
	return []*tensor.Tensor{gradA, gradB}
}

// AddBiasOp records output = x + bias (broadcast along dimension 1).
type AddBiasOp struct {
	x, bias, output *tensor.Tensor
}

// NewAddBiasOp creates a new AddBias operation.
func NewAddBiasOp(x, bias, output *tensor.Tensor) *AddBiasOp {
	return &AddBiasOp{x: x, bias: bias, output: output}
}

// Inputs returns [x, bias].
func (op *AddBiasOp) Inputs() []*tensor.Tensor {
	return []*tensor.Tensor{op.x, op.bias}
}

// Output returns the biased tensor.
func (op *AddBiasOp) Output() *tensor.Tensor {
	return op.output
}

// Backward passes the gradient through to x and sums it per channel for bias.
func (op *AddBiasOp) Backward(g *tensor.Tensor, backend tensor.Backend) []*tensor.Tensor {
	return []*tensor.Tensor{g, backend.BiasBackward(g)}
}

// ReLUOp records output = max(0, x).
type ReLUOp struct {
	x, output *tensor.Tensor
}

// NewReLUOp creates a new ReLU operation.
func NewReLUOp(x, output *tensor.Tensor) *ReLUOp {
	return &ReLUOp{x: x, output: output}
}

// Inputs returns [x].
func (op *ReLUOp) Inputs() []*tensor.Tensor {
	return []*tensor.Tensor{op.x}
}

// Output returns the activation.
func (op *ReLUOp) Output() *tensor.Tensor {
	return op.output
}

// Backward masks the gradient with x > 0.
func (op *ReLUOp) Backward(g *tensor.Tensor, backend tensor.Backend) []*tensor.Tensor {
	return []*tensor.Tensor{backend.ReLUBackward(op.x, g)}
}

// ReshapeOp records output = x viewed with another shape.
type ReshapeOp struct {
	x, output *tensor.Tensor
}

// NewReshapeOp creates a new Reshape operation.
func NewReshapeOp(x, output *tensor.Tensor) *ReshapeOp {
	return &ReshapeOp{x: x, output: output}
}

// Inputs returns [x].
func (op *ReshapeOp) Inputs() []*tensor.Tensor {
	return []*tensor.Tensor{op.x}
}

// Output returns the reshaped view.
func (op *ReshapeOp) Output() *tensor.Tensor {
	return op.output
}

// Backward reshapes the gradient to the input shape.
func (op *ReshapeOp) Backward(g *tensor.Tensor, _ tensor.Backend) []*tensor.Tensor {
	return []*tensor.Tensor{g.Reshape(op.x.Shape()...)}
}
