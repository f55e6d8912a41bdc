package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/cifarnet/internal/tensor"
)

// Linear implements a fully connected layer: y = x @ W^T + b.
//
// Weight is stored as [out_features, in_features].
//
// Example:
//
//	fc := nn.NewLinear("fc1", 400, 120, backend, rng)
//	y := fc.Forward(x) // [4, 400] -> [4, 120]
type Linear struct {
	inFeatures  int
	outFeatures int

	weight *Parameter
	bias   *Parameter

	backend Backend
}

// NewLinear creates a new linear layer with Xavier weights and zero bias.
func NewLinear(name string, inFeatures, outFeatures int, backend Backend, rng *rand.Rand) *Linear {
	if inFeatures <= 0 || outFeatures <= 0 {
		panic(fmt.Sprintf("linear: invalid features in=%d, out=%d", inFeatures, outFeatures))
	}
	weight := Xavier(inFeatures, outFeatures, tensor.Shape{outFeatures, inFeatures}, rng)
	return &Linear{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      NewParameter(name+".weight", weight),
		bias:        NewParameter(name+".bias", Zeros(tensor.Shape{outFeatures})),
		backend:     backend,
	}
}

// Forward computes x @ W^T + b for x of shape [batch, in_features].
func (l *Linear) Forward(input *tensor.Tensor) *tensor.Tensor {
	shape := input.Shape()
	if len(shape) != 2 || shape[1] != l.inFeatures {
		panic(fmt.Sprintf("linear: expected input [batch, %d], got %v", l.inFeatures, shape))
	}
	out := l.backend.MatMul(input, l.weight.Tensor(), false, true)
	return l.backend.AddBias(out, l.bias.Tensor())
}

// Parameters returns [weight, bias].
func (l *Linear) Parameters() []*Parameter {
	return []*Parameter{l.weight, l.bias}
}

func (l *Linear) String() string {
	return fmt.Sprintf("Linear(in=%d, out=%d)", l.inFeatures, l.outFeatures)
}
