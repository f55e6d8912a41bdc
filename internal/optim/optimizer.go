// Package optim implements optimization algorithms for training neural networks.
//
// Example usage:
//
//	optimizer := optim.NewSGD(model.Parameters(), optim.SGDConfig{
//	    LR:       0.001,
//	    Momentum: 0.9,
//	})
//
//	backend.Tape().StartRecording()
//	loss := criterion.Forward(model.Forward(input), labels)
//	grads := backend.Backward(loss)
//	optimizer.Step(grads)
//	optimizer.ZeroGrad()
package optim

import (
	"github.com/born-ml/cifarnet/internal/nn"
	"github.com/born-ml/cifarnet/internal/tensor"
)

// Optimizer is the base interface for all optimization algorithms.
type Optimizer interface {
	// Step applies gradient updates to all parameters.
	//
	// grads maps parameter tensors to their gradients, as returned by the
	// gradient tape.
	Step(grads map[*tensor.Tensor]*tensor.Tensor)

	// ZeroGrad clears all parameter gradients.
	ZeroGrad()

	// GetLR returns the current learning rate.
	GetLR() float32
}

// getGradient looks up the gradient for a parameter and attaches it.
func getGradient(param *nn.Parameter, grads map[*tensor.Tensor]*tensor.Tensor) *tensor.Tensor {
	grad, ok := grads[param.Tensor()]
	if !ok {
		return nil
	}
	param.SetGrad(grad)
	return grad
}
