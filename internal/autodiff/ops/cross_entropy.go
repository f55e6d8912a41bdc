package ops

import (
	"fmt"
	"math"

	"github.com/born-ml/cifarnet/internal/tensor"
)

// CrossEntropyOp represents mean cross-entropy over a batch of logits.
//
// Forward:
//
//	Loss = mean(-log_softmax(logits)[targets])
//
// Backward:
//
//	dL/dlogits = (softmax(logits) - onehot(targets)) / batch_size
type CrossEntropyOp struct {
	logits  *tensor.Tensor // [batch_size, num_classes]
	targets []int          // [batch_size]
	output  *tensor.Tensor // scalar loss, shape [1]
}

// NewCrossEntropyOp creates a new cross-entropy operation.
func NewCrossEntropyOp(logits *tensor.Tensor, targets []int, output *tensor.Tensor) *CrossEntropyOp {
	return &CrossEntropyOp{logits: logits, targets: targets, output: output}
}

// Inputs returns [logits]. Targets are not differentiable.
func (op *CrossEntropyOp) Inputs() []*tensor.Tensor {
	return []*tensor.Tensor{op.logits}
}

// Output returns the scalar loss.
func (op *CrossEntropyOp) Output() *tensor.Tensor {
	return op.output
}

// Backward computes the gradient with respect to logits.
func (op *CrossEntropyOp) Backward(outputGrad *tensor.Tensor, _ tensor.Backend) []*tensor.Tensor {
	shape := op.logits.Shape()
	batch, classes := shape[0], shape[1]
	scale := outputGrad.Data()[0] / float32(batch)

	grad := tensor.Zeros(shape)
	gData, lData := grad.Data(), op.logits.Data()
	for b := 0; b < batch; b++ {
		row := gData[b*classes : (b+1)*classes]
		Softmax(row, lData[b*classes:(b+1)*classes])
		row[op.targets[b]] -= 1
		for i := range row {
			row[i] *= scale
		}
	}
	return []*tensor.Tensor{grad}
}

// CrossEntropy computes the mean cross-entropy loss of logits against targets.
func CrossEntropy(logits *tensor.Tensor, targets []int) *tensor.Tensor {
	shape := logits.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("cross_entropy: logits must be 2D [batch_size, num_classes], got %v", shape))
	}
	batch, classes := shape[0], shape[1]
	if len(targets) != batch {
		panic(fmt.Sprintf("cross_entropy: %d targets for batch of %d", len(targets), batch))
	}

	data := logits.Data()
	var total float64
	for b := 0; b < batch; b++ {
		target := targets[b]
		if target < 0 || target >= classes {
			panic(fmt.Sprintf("cross_entropy: target %d out of range [0,%d)", target, classes))
		}
		row := data[b*classes : (b+1)*classes]
		total += float64(logSumExp(row) - row[target])
	}

	return tensor.Full(tensor.Shape{1}, float32(total/float64(batch)))
}

// Softmax writes softmax(z) into dst using the max-subtraction trick.
func Softmax(dst, z []float32) {
	maxZ := z[0]
	for _, v := range z[1:] {
		if v > maxZ {
			maxZ = v
		}
	}
	var sum float64
	for i, v := range z {
		e := math.Exp(float64(v - maxZ))
		dst[i] = float32(e)
		sum += e
	}
	inv := float32(1 / sum)
	for i := range dst {
		dst[i] *= inv
	}
}

// logSumExp computes log(sum(exp(z))) without overflow.
func logSumExp(z []float32) float32 {
	maxZ := z[0]
	for _, v := range z[1:] {
		if v > maxZ {
			maxZ = v
		}
	}
	var sum float64
	for _, v := range z {
		sum += math.Exp(float64(v - maxZ))
	}
	return maxZ + float32(math.Log(sum))
}
