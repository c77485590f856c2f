package steps

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// ParseSample reads one "x,y,z,t" line. t is Unix milliseconds or an
// RFC 3339 timestamp.
func ParseSample(line string) (Sample, error) {
	f := strings.Split(line, ",")
	if len(f) != 4 {
		return Sample{}, fmt.Errorf("want x,y,z,t, got %d fields", len(f))
	}
	var axes [3]float64
	for i := range axes {
		v, err := strconv.ParseFloat(strings.TrimSpace(f[i]), 64)
		if err != nil {
			return Sample{}, fmt.Errorf("axis %d: %w", i, err)
		}
		axes[i] = v
	}
	ts := strings.TrimSpace(f[3])
	var at time.Time
	if ms, err := strconv.ParseInt(ts, 10, 64); err == nil {
		at = time.UnixMilli(ms).UTC()
	} else if at, err = time.Parse(time.RFC3339Nano, ts); err != nil {
		return Sample{}, fmt.Errorf("time: %w", err)
	}
	return Sample{X: axes[0], Y: axes[1], Z: axes[2], At: at}, nil
}

// Feed runs the counter over samples read from r, one per line. Blank lines
// and lines starting with '#' are ignored; lines that do not parse are
// skipped and counted. It returns the number of steps added.
func (c *Counter) Feed(ctx context.Context, r io.Reader) (counted, skipped int, err error) {
	before := c.Steps()
	samples := make(chan Sample)
	scanned := make(chan error, 1)

	go func() {
		defer close(samples)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			s, err := ParseSample(line)
			if err != nil {
				skipped++
				continue
			}
			select {
			case samples <- s:
			case <-ctx.Done():
				scanned <- ctx.Err()
				return
			}
		}
		scanned <- sc.Err()
	}()

	err = c.Run(ctx, samples)
	if serr := <-scanned; err == nil {
		err = serr
	}
	if err == nil {
		err = ctx.Err()
	}
	return max(c.Steps()-before, 0), skipped, err
}
