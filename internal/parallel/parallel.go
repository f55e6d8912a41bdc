// Package parallel runs independent loop iterations across goroutines.
package parallel

import (
	"runtime"
	"sync"

	"github.com/klauspost/cpuid/v2"
)

// Config controls parallel execution behavior.
type Config struct {
	Workers  int // Maximum number of goroutines.
	MinItems int // Below this many iterations the loop runs inline.
}

// DefaultConfig sizes the pool to the physical core count reported by
// cpuid, falling back to runtime.NumCPU when the CPU cannot be identified.
func DefaultConfig() Config {
	n := cpuid.CPU.PhysicalCores
	if n <= 0 {
		n = runtime.NumCPU()
	}
	return Config{
		Workers:  n,
		MinItems: 2,
	}
}

// NumWorkers returns how many workers For uses for n iterations.
// Worker ids passed to f are always in [0, NumWorkers(n)).
func (c Config) NumWorkers(n int) int {
	if c.Workers <= 1 || n < c.MinItems || n <= 1 {
		return 1
	}
	return min(c.Workers, n)
}

// For executes f(worker, i) for i in [0, n). Each worker handles a
// contiguous range of iterations, so f may use per-worker scratch space
// indexed by worker without locking.
func For(n int, cfg Config, f func(worker, i int)) {
	workers := cfg.NumWorkers(n)
	if workers == 1 {
		for i := 0; i < n; i++ {
			f(0, i)
		}
		return
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunk
		if start >= n {
			break
		}
		end := min(start+chunk, n)
		wg.Add(1)
		go func(w, s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(w, i)
			}
		}(w, start, end)
	}
	wg.Wait()
}
