package profiler

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTickReportsOncePerInterval(t *testing.T) {
	clock := time.Unix(0, 0)
	var buf bytes.Buffer
	p := NewProfiler(
		WithInterval(time.Second),
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
		WithClock(func() time.Time { return clock }),
	)

	for range 59 {
		clock = clock.Add(10 * time.Millisecond)
		assert.False(t, p.Tick())
	}
	clock = clock.Add(410 * time.Millisecond)
	assert.True(t, p.Tick())

	assert.InDelta(t, 60, p.Last().TicksPerSecond, 1e-9)
	assert.Contains(t, buf.String(), "[Profiler]")
	assert.Contains(t, buf.String(), "tps=60")

	clock = clock.Add(100 * time.Millisecond)
	assert.False(t, p.Tick(), "the counter restarts after a report")
}
