// Package steps estimates walked steps from accelerometer samples with a
// simple peak detector.
package steps

import (
	"context"
	"math"
	"sync"
	"time"
)

const (
	// Threshold is the acceleration magnitude, gravity included, in m/s²
	// above which a sample counts as a peak.
	Threshold = 11.7
	// MinGap is the shortest time between two counted peaks.
	MinGap = 280 * time.Millisecond
)

// Sample is one accelerometer reading.
type Sample struct {
	X, Y, Z float64
	At      time.Time
}

func (s Sample) Magnitude() float64 {
	return math.Sqrt(s.X*s.X + s.Y*s.Y + s.Z*s.Z)
}

// Counter is safe for concurrent use. onUpdate, when set, is called with
// the new count after every change, outside the lock.
type Counter struct {
	mu       sync.Mutex
	steps    int
	lastPeak time.Time
	onUpdate func(int)
}

func New(onUpdate func(int)) *Counter {
	return &Counter{onUpdate: onUpdate}
}

// Observe feeds one sample and reports whether it was counted as a step.
func (c *Counter) Observe(s Sample) bool {
	if math.IsNaN(s.Magnitude()) {
		return false
	}
	c.mu.Lock()
	if s.Magnitude() <= Threshold || (!c.lastPeak.IsZero() && s.At.Sub(c.lastPeak) <= MinGap) {
		c.mu.Unlock()
		return false
	}
	c.lastPeak = s.At
	c.steps++
	n := c.steps
	c.mu.Unlock()

	c.notify(n)
	return true
}

// Run consumes samples until the channel closes or ctx is done.
func (c *Counter) Run(ctx context.Context, samples <-chan Sample) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s, ok := <-samples:
			if !ok {
				return nil
			}
			c.Observe(s)
		}
	}
}

// Set overrides the count, e.g. with a reading from a phone or a watch.
// Negative values become zero.
func (c *Counter) Set(n int) {
	if n < 0 {
		n = 0
	}
	c.mu.Lock()
	c.steps = n
	c.mu.Unlock()
	c.notify(n)
}

func (c *Counter) Reset() {
	c.mu.Lock()
	c.steps = 0
	c.lastPeak = time.Time{}
	c.mu.Unlock()
	c.notify(0)
}

func (c *Counter) Steps() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.steps
}

func (c *Counter) notify(n int) {
	if c.onUpdate != nil {
		c.onUpdate(n)
	}
}
