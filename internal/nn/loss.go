package nn

import (
	"github.com/born-ml/cifarnet/internal/tensor"
)

// CrossEntropyLoss computes mean cross-entropy between logits and class
// indices. Softmax is applied internally, so the model outputs raw scores.
type CrossEntropyLoss struct {
	backend Backend
}

// NewCrossEntropyLoss creates a cross-entropy criterion.
func NewCrossEntropyLoss(backend Backend) *CrossEntropyLoss {
	return &CrossEntropyLoss{backend: backend}
}

// Forward returns the scalar loss (shape [1]) for logits [batch, classes].
func (l *CrossEntropyLoss) Forward(logits *tensor.Tensor, targets []int) *tensor.Tensor {
	return l.backend.CrossEntropy(logits, targets)
}
