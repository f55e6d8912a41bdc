package dataset

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/cifarnet/internal/tensor"
)

// Batch is one mini-batch: images [B, 3, 32, 32] and B labels.
type Batch struct {
	Images *tensor.Tensor
	Labels []int
}

// Size returns the number of samples in the batch.
func (b Batch) Size() int {
	return len(b.Labels)
}

// Loader produces mini-batches over a dataset. Each call to Epoch starts a
// new pass; with shuffle set the order is a fresh permutation every pass.
type Loader struct {
	ds        *Dataset
	batchSize int
	shuffle   bool
	rng       *rand.Rand
}

// NewLoader creates a loader. rng is required when shuffle is set.
func NewLoader(ds *Dataset, batchSize int, shuffle bool, rng *rand.Rand) (*Loader, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("dataset: invalid batch size %d", batchSize)
	}
	if shuffle && rng == nil {
		return nil, fmt.Errorf("dataset: shuffling loader needs a random source")
	}
	return &Loader{ds: ds, batchSize: batchSize, shuffle: shuffle, rng: rng}, nil
}

// NumBatches returns the number of batches per pass, counting a final
// partial batch.
func (l *Loader) NumBatches() int {
	return (l.ds.Len() + l.batchSize - 1) / l.batchSize
}

// Epoch starts a new pass over the dataset.
func (l *Loader) Epoch() *Iterator {
	var order []int
	if l.shuffle {
		order = l.rng.Perm(l.ds.Len())
	} else {
		order = make([]int, l.ds.Len())
		for i := range order {
			order[i] = i
		}
	}
	return &Iterator{loader: l, order: order}
}

// Iterator walks one pass of a Loader.
type Iterator struct {
	loader *Loader
	order  []int
	pos    int
}

// Next returns the next batch, or false when the pass is exhausted.
// Batch images are copies; callers may keep them.
func (it *Iterator) Next() (Batch, bool) {
	if it.pos >= len(it.order) {
		return Batch{}, false
	}
	end := min(it.pos+it.loader.batchSize, len(it.order))
	idx := it.order[it.pos:end]
	it.pos = end

	images := make([]float32, len(idx)*ImageSize)
	labels := make([]int, len(idx))
	for i, j := range idx {
		s := it.loader.ds.Sample(j)
		copy(images[i*ImageSize:], s.Image)
		labels[i] = s.Label
	}
	return Batch{
		Images: tensor.Wrap(images, tensor.Shape{len(idx), Channels, Height, Width}),
		Labels: labels,
	}, true
}
