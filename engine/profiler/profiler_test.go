package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTickReportsOnlyAfterInterval(t *testing.T) {
	p := NewProfiler()
	p.updateInterval = 10 * time.Millisecond

	assert.False(t, p.Tick(), "first tick inside the interval must not report")

	time.Sleep(15 * time.Millisecond)
	assert.True(t, p.Tick(), "tick after the interval must report")
	assert.False(t, p.Tick(), "the interval resets after a report")
}

func TestDisabledProfilerCountsButStaysQuiet(t *testing.T) {
	p := NewProfiler()
	p.updateInterval = 5 * time.Millisecond
	p.SetEnabled(false)

	time.Sleep(10 * time.Millisecond)
	assert.False(t, p.Tick(), "disabled profiler never reports")

	p.SetEnabled(true)
	time.Sleep(10 * time.Millisecond)
	assert.True(t, p.Tick())
}
