package optim

import (
	"fmt"

	"github.com/born-ml/cifarnet/internal/nn"
	"github.com/born-ml/cifarnet/internal/tensor"
)

// SGD implements Stochastic Gradient Descent with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
type SGD struct {
	params     []*nn.Parameter
	lr         float32
	momentum   float32
	velocities map[*nn.Parameter][]float32
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR       float32 // Learning rate (default: 0.01)
	Momentum float32 // Momentum factor (default: 0.0, range: [0, 1))
}

// NewSGD creates a new SGD optimizer.
func NewSGD(params []*nn.Parameter, config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD{
		params:     params,
		lr:         config.LR,
		momentum:   config.Momentum,
		velocities: make(map[*nn.Parameter][]float32),
	}
}

// Step performs a single optimization step. Parameters with no gradient
// are skipped.
func (s *SGD) Step(grads map[*tensor.Tensor]*tensor.Tensor) {
	for _, param := range s.params {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}
		if grad.NumElements() != param.NumElements() {
			panic(fmt.Sprintf("sgd: gradient %v does not match parameter %s %v",
				grad.Shape(), param.Name(), param.Tensor().Shape()))
		}

		if s.momentum == 0 {
			s.updateParameter(param, grad)
		} else {
			s.updateParameterWithMomentum(param, grad)
		}
	}
}

// updateParameter performs param -= lr * grad.
func (s *SGD) updateParameter(param *nn.Parameter, grad *tensor.Tensor) {
	p, g := param.Tensor().Data(), grad.Data()
	for i := range p {
		p[i] -= s.lr * g[i]
	}
}

// updateParameterWithMomentum performs the momentum update.
func (s *SGD) updateParameterWithMomentum(param *nn.Parameter, grad *tensor.Tensor) {
	velocity, exists := s.velocities[param]
	if !exists {
		velocity = make([]float32, param.NumElements())
		s.velocities[param] = velocity
	}

	p, g := param.Tensor().Data(), grad.Data()
	for i := range p {
		velocity[i] = s.momentum*velocity[i] + g[i]
		p[i] -= s.lr * velocity[i]
	}
}

// ZeroGrad clears gradients for all parameters.
func (s *SGD) ZeroGrad() {
	for _, param := range s.params {
		param.ZeroGrad()
	}
}

// GetLR returns the current learning rate.
func (s *SGD) GetLR() float32 {
	return s.lr
}
