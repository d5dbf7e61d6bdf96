package ftgs

import (
	"sync/atomic"
	"time"
)

// Timer slots passed to Profiler around well-known phases.
const (
	// TimerSlotPass brackets one whole TGS pass.
	TimerSlotPass = 3
	// TimerSlotFlush brackets the dirty-group flush of a pass.
	TimerSlotFlush = 4
)

// Profiler is an optional named-slot timer hook. The pass executor
// calls it unconditionally around its phases; the no-op implementation
// costs nothing when profiling is disabled.
type Profiler interface {
	StartTimer(slot int)
	EndTimer(slot int)
}

// NoopProfiler discards all timing calls.
type NoopProfiler struct{}

func (NoopProfiler) StartTimer(int) {}
func (NoopProfiler) EndTimer(int)   {}

// BasicProfiler accumulates per-slot wall time in memory. It is not
// safe for concurrent use; give each worker its own instance, matching
// the one-worker-per-goroutine execution model.
type BasicProfiler struct {
	starts map[int]time.Time
	totals map[int]time.Duration
	counts map[int]int64
}

// NewBasicProfiler creates an empty profiler.
func NewBasicProfiler() *BasicProfiler {
	return &BasicProfiler{
		starts: make(map[int]time.Time),
		totals: make(map[int]time.Duration),
		counts: make(map[int]int64),
	}
}

// StartTimer implements Profiler.
func (p *BasicProfiler) StartTimer(slot int) {
	p.starts[slot] = time.Now()
}

// EndTimer implements Profiler.
func (p *BasicProfiler) EndTimer(slot int) {
	start, ok := p.starts[slot]
	if !ok {
		return
	}
	delete(p.starts, slot)
	p.totals[slot] += time.Since(start)
	p.counts[slot]++
}

// Total returns the accumulated time for slot.
func (p *BasicProfiler) Total(slot int) time.Duration { return p.totals[slot] }

// Count returns the number of completed start/end pairs for slot.
func (p *BasicProfiler) Count(slot int) int64 { return p.counts[slot] }

// MetricsCollector receives operational metrics after each pass.
// Implement it to integrate with monitoring systems; implementations
// must tolerate concurrent calls when workers run in parallel.
type MetricsCollector interface {
	// RecordPass is called after every TGS pass. docs is the number
	// of matching documents scanned, groups the number of dirty
	// groups flushed, err nil on success.
	RecordPass(docs, groups int, duration time.Duration, err error)
}

// NoopMetricsCollector discards all metrics.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordPass(int, int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection
// without external dependencies.
type BasicMetricsCollector struct {
	PassCount      atomic.Int64
	PassErrors     atomic.Int64
	PassTotalNanos atomic.Int64
	DocsScanned    atomic.Int64
	GroupsFlushed  atomic.Int64
}

// RecordPass implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPass(docs, groups int, duration time.Duration, err error) {
	b.PassCount.Add(1)
	b.PassTotalNanos.Add(duration.Nanoseconds())
	b.DocsScanned.Add(int64(docs))
	b.GroupsFlushed.Add(int64(groups))
	if err != nil {
		b.PassErrors.Add(1)
	}
}
