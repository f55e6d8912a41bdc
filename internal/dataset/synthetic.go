package dataset

import (
	"fmt"
	"math/rand"
)

// Synthetic builds a deterministic dataset of n images over the first
// `classes` labels. Labels cycle 0..classes-1 so every class is represented
// as evenly as n allows. Each class has a distinct mean color plus noise,
// which keeps the task learnable.
func Synthetic(n, classes int, seed int64) (*Dataset, error) {
	if n < 0 {
		return nil, fmt.Errorf("dataset: negative sample count %d", n)
	}
	if classes <= 0 || classes > NumClasses {
		return nil, fmt.Errorf("dataset: class count %d outside [1,%d]", classes, NumClasses)
	}
	rng := rand.New(rand.NewSource(seed))
	images := make([]float32, 0, n*ImageSize)
	labels := make([]int, n)
	plane := Height * Width
	for i := range labels {
		label := i % classes
		labels[i] = label
		for c := 0; c < Channels; c++ {
			// Per-class, per-channel base intensity in [0.1, 0.9].
			base := 0.1 + 0.8*float32((label*(c+3)+c)%NumClasses)/float32(NumClasses-1)
			for p := 0; p < plane; p++ {
				v := base + 0.1*(rng.Float32()-0.5)
				images = append(images, Normalize(min(max(v, 0), 1)))
			}
		}
	}
	return New(images, labels)
}
