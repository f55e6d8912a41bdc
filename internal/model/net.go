// Package model defines the fixed-topology CIFAR-10 classifier.
//
// Architecture:
//
//	Input:  [batch, 3, 32, 32]
//	Conv1:  3 -> 32 channels, 3x3 kernel  -> [batch, 32, 30, 30]
//	ReLU + MaxPool(2x2)                   -> [batch, 32, 15, 15]
//	Conv2:  32 -> 64 channels, 4x4 kernel -> [batch, 64, 12, 12]
//	ReLU + MaxPool(2x2)                   -> [batch, 64, 6, 6]
//	Flatten                               -> [batch, 2304]
//	FC1:    2304 -> 120 + ReLU
//	FC2:    120 -> 84 + ReLU
//	FC3:    84 -> 10 (raw class scores)
package model

import (
	"math/rand"

	"github.com/born-ml/cifarnet/internal/nn"
	"github.com/born-ml/cifarnet/internal/tensor"
)

const (
	InputChannels = 3
	InputSize     = 32
	NumClasses    = 10

	conv1Out    = 32
	conv1Kernel = 3
	conv2Out    = 64
	conv2Kernel = 4
	poolSize    = 2
	fc1Out      = 120
	fc2Out      = 84

	// FlatFeatures is the width after the second pooling stage: 64*6*6.
	FlatFeatures = conv2Out * 6 * 6
)

// Net is the classifier. Parameters are owned by the layers and updated in
// place by the optimizer.
type Net struct {
	conv1 *nn.Conv2D
	conv2 *nn.Conv2D
	pool  *nn.MaxPool2D
	fc1   *nn.Linear
	fc2   *nn.Linear
	fc3   *nn.Linear

	layers *nn.Sequential
	names  []string // one per module in layers, for Trace
}

// New builds the network on backend, drawing initial weights from rng.
func New(backend nn.Backend, rng *rand.Rand) *Net {
	conv1 := nn.NewConv2D("conv1", InputChannels, conv1Out, conv1Kernel, 1, 0, backend, rng)
	conv2 := nn.NewConv2D("conv2", conv1Out, conv2Out, conv2Kernel, 1, 0, backend, rng)
	fc1 := nn.NewLinear("fc1", FlatFeatures, fc1Out, backend, rng)
	fc2 := nn.NewLinear("fc2", fc1Out, fc2Out, backend, rng)
	fc3 := nn.NewLinear("fc3", fc2Out, NumClasses, backend, rng)
	pool := nn.NewMaxPool2D(poolSize, poolSize, backend)
	relu := nn.NewReLU(backend)

	return &Net{
		conv1: conv1,
		conv2: conv2,
		pool:  pool,
		fc1:   fc1,
		fc2:   fc2,
		fc3:   fc3,

		layers: nn.NewSequential(
			conv1, relu, pool,
			conv2, relu, pool,
			nn.NewFlatten(backend),
			fc1, relu,
			fc2, relu,
			fc3,
		),
		names: []string{
			"conv1", "relu1", "pool1",
			"conv2", "relu2", "pool2",
			"flatten",
			"fc1", "relu3",
			"fc2", "relu4",
			"fc3",
		},
	}
}

// Forward maps images [batch, 3, 32, 32] to scores [batch, 10].
func (n *Net) Forward(x *tensor.Tensor) *tensor.Tensor {
	return n.layers.Forward(x)
}

// StageShape is the output shape of one named stage.
type StageShape struct {
	Name  string
	Shape tensor.Shape
}

// Trace runs a forward pass and returns the shape after every stage.
func (n *Net) Trace(x *tensor.Tensor) []StageShape {
	modules := n.layers.Modules()
	shapes := make([]StageShape, 0, len(modules)+1)
	shapes = append(shapes, StageShape{Name: "input", Shape: x.Shape().Clone()})
	for i, m := range modules {
		x = m.Forward(x)
		shapes = append(shapes, StageShape{Name: n.names[i], Shape: x.Shape().Clone()})
	}
	return shapes
}

// Parameters returns every trainable parameter in layer order.
func (n *Net) Parameters() []*nn.Parameter {
	return n.layers.Parameters()
}

// NumParameters returns the total number of trainable scalars.
func (n *Net) NumParameters() int {
	return nn.CountParameters(n.Parameters())
}
