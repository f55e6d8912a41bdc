package trainer

// RunningLoss accumulates per-batch losses and signals when a report is due.
//
//	rl := NewRunningLoss(2000)
//	rl.Add(loss)
//	if rl.Due() {
//	    fmt.Printf("loss: %.3f\n", rl.Flush())
//	}
type RunningLoss struct {
	every int
	sum   float64
	count int
}

// NewRunningLoss creates a counter that reports every `every` batches.
func NewRunningLoss(every int) *RunningLoss {
	if every <= 0 {
		every = 1
	}
	return &RunningLoss{every: every}
}

// Add records one batch loss.
func (r *RunningLoss) Add(loss float64) {
	r.sum += loss
	r.count++
}

// Due reports whether `every` losses have accumulated since the last flush.
func (r *RunningLoss) Due() bool {
	return r.count >= r.every
}

// Flush returns the mean of the accumulated losses and resets the counter.
func (r *RunningLoss) Flush() float64 {
	if r.count == 0 {
		return 0
	}
	mean := r.sum / float64(r.count)
	r.sum, r.count = 0, 0
	return mean
}

// Reset discards accumulated losses.
func (r *RunningLoss) Reset() {
	r.sum, r.count = 0, 0
}
