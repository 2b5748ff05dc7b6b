// package profiler tracks frame rate and memory statistics for performance
// monitoring, logging a summary at a fixed interval.
package profiler

import (
	"runtime"
	"time"

	"github.com/charmbracelet/log"
)

// Profiler tracks frame rate and memory statistics. Call Tick once per frame;
// stats are logged when the update interval elapses.
type Profiler struct {
	logger  *log.Logger
	enabled bool

	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// NewProfiler creates a new Profiler with a one-second update interval,
// enabled by default.
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler() *Profiler {
	return &Profiler{
		logger:         log.WithPrefix("profiler"),
		enabled:        true,
		lastTime:       time.Now(),
		updateInterval: time.Second,
	}
}

// SetEnabled turns stat logging on or off. Frame counting continues either
// way so re-enabling does not skew the first report.
//
// Parameters:
//   - enabled: whether to log stats
func (p *Profiler) SetEnabled(enabled bool) {
	p.enabled = enabled
}

// Tick should be called once per frame to track frame timing. Logs FPS, heap
// usage, allocation rate, and GC pause stats when the update interval has
// elapsed.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.frameCount++
	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)

	if elapsed < p.updateInterval {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	// Alloc is live heap; TotalAlloc is cumulative churn; Sys is the
	// process footprint from the OS.
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024

	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a circular buffer of the last 256 GC pauses.
	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			pause := p.memStats.PauseNs[i%256] / 1000
			if pause > maxPauseUs {
				maxPauseUs = pause
			}
		}
	}

	logged := false
	if p.enabled {
		p.logger.Info("frame stats",
			"fps", fps,
			"heap_mb", allocMB,
			"alloc_rate_mb_s", allocRateMB,
			"gc_count", gcCount,
			"gc_last_us", lastPauseUs,
			"gc_max_us", maxPauseUs,
			"sys_mb", sysMB)
		logged = true
	}

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return logged
}
