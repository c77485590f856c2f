package steps

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

func peak(ms int) Sample {
	return Sample{X: 3, Y: 4, Z: 11, At: t0.Add(time.Duration(ms) * time.Millisecond)}
}

func TestSampleMagnitude(t *testing.T) {
	assert.InDelta(t, 5.0, Sample{X: 3, Y: 4}.Magnitude(), 1e-9)
}

func TestObserve_ThresholdAndGap(t *testing.T) {
	var seen []int
	c := New(func(n int) { seen = append(seen, n) })

	assert.False(t, c.Observe(Sample{Z: 9.81, At: t0}), "resting phone")
	assert.False(t, c.Observe(Sample{Z: Threshold, At: t0}), "must exceed, not equal")
	assert.True(t, c.Observe(peak(0)))
	assert.False(t, c.Observe(peak(200)), "too soon")
	assert.False(t, c.Observe(peak(280)), "gap must exceed the minimum")
	assert.True(t, c.Observe(peak(281)))
	assert.True(t, c.Observe(peak(600)))

	assert.Equal(t, 3, c.Steps())
	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestSetAndReset(t *testing.T) {
	c := New(nil)
	c.Set(1200)
	assert.Equal(t, 1200, c.Steps())
	c.Set(-5)
	assert.Zero(t, c.Steps())

	c.Observe(peak(0))
	c.Reset()
	assert.Zero(t, c.Steps())
	assert.True(t, c.Observe(peak(10)), "reset forgets the last peak")
}

func TestRun(t *testing.T) {
	c := New(nil)
	ch := make(chan Sample)
	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background(), ch) }()

	for i := 0; i < 4; i++ {
		ch <- peak(i * 500)
	}
	close(ch)
	require.NoError(t, <-done)
	assert.Equal(t, 4, c.Steps())
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := New(nil).Run(ctx, make(chan Sample))
	require.ErrorIs(t, err, context.Canceled)
}

func TestConcurrentUse(t *testing.T) {
	c := New(nil)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				c.Observe(peak(g*100000 + i*1000))
				_ = c.Steps()
			}
		}(g)
	}
	wg.Wait()
	assert.Positive(t, c.Steps())
}
