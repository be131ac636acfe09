package variation

import (
	"math"
	"sync/atomic"
)

// Controller is the state shared between a running sweep and its caller: the
// fraction complete and the cancellation flag. Both use atomic access; it is
// safe for concurrent use.
type Controller struct {
	progress atomic.Uint64 // math.Float64bits of the fraction complete
	cancel   atomic.Bool
}

// NewController returns a controller at progress 0, not cancelled.
func NewController() *Controller {
	return &Controller{}
}

// Cancel requests cooperative cancellation. The sweep observes it at its next
// checkpoint.
func (c *Controller) Cancel() {
	c.cancel.Store(true)
}

// Cancelled reports whether cancellation was requested.
func (c *Controller) Cancelled() bool {
	return c.cancel.Load()
}

// Progress returns the fraction complete in [0, 1].
func (c *Controller) Progress() float64 {
	return math.Float64frombits(c.progress.Load())
}

// report raises progress to p. Lower values are ignored, so progress never
// decreases. Returns whether the value changed.
func (c *Controller) report(p float64) bool {
	if p > 1 {
		p = 1
	}
	for {
		old := c.progress.Load()
		if p <= math.Float64frombits(old) {
			return false
		}
		if c.progress.CompareAndSwap(old, math.Float64bits(p)) {
			return true
		}
	}
}

// complete sets progress to 1.0. Returns false if it was already 1.0.
func (c *Controller) complete() bool {
	return c.report(1)
}
