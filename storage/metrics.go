package storage

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// Histogram tracks latency distribution with percentile support.
type Histogram struct {
	samples []float64 // Latencies in microseconds
	mu      sync.RWMutex
	maxSize int
	sorted  bool
}

// NewHistogram creates a new histogram with a max sample size.
func NewHistogram(maxSize int) *Histogram {
	if maxSize <= 0 {
		maxSize = 10000
	}
	return &Histogram{
		samples: make([]float64, 0, maxSize),
		maxSize: maxSize,
		sorted:  true,
	}
}

// Record adds a latency sample (in microseconds).
func (h *Histogram) Record(latencyUs float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.samples) >= h.maxSize {
		copy(h.samples, h.samples[1:])
		h.samples = h.samples[:len(h.samples)-1]
	}

	h.samples = append(h.samples, latencyUs)
	h.sorted = false
}

// Percentile calculates the given percentile (0-100). It sorts a copy of
// the samples, so the insertion order Record uses to drop the oldest
// sample is left intact.
func (h *Histogram) Percentile(p float64) float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.samples) == 0 {
		return 0
	}
	ordered := make([]float64, len(h.samples))
	copy(ordered, h.samples)
	sort.Float64s(ordered)

	rank := (p / 100.0) * float64(len(ordered)-1)
	lower := int(rank)
	upper := lower
	if frac := rank - float64(lower); frac > 0 && lower+1 < len(ordered) {
		upper = lower + 1
		return ordered[lower]*(1-frac) + ordered[upper]*frac
	}
	return ordered[lower]
}

// Mean calculates the average latency.
func (h *Histogram) Mean() float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.samples) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range h.samples {
		sum += v
	}
	return sum / float64(len(h.samples))
}

// Min returns the minimum latency.
func (h *Histogram) Min() float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.samples) == 0 {
		return 0
	}

	min := h.samples[0]
	for _, v := range h.samples {
		if v < min {
			min = v
		}
	}
	return min
}

// Max returns the maximum latency.
func (h *Histogram) Max() float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.samples) == 0 {
		return 0
	}

	max := h.samples[0]
	for _, v := range h.samples {
		if v > max {
			max = v
		}
	}
	return max
}

// Count returns the number of samples.
func (h *Histogram) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.samples)
}

// Reset clears all samples.
func (h *Histogram) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.samples = h.samples[:0]
	h.sorted = true
}

// HistogramSnapshot is a point-in-time read of a Histogram.
type HistogramSnapshot struct {
	Count int
	Min   float64
	Max   float64
	Mean  float64
	P50   float64
	P95   float64
	P99   float64
	P999  float64
}

// Snapshot captures current histogram statistics.
func (h *Histogram) Snapshot() HistogramSnapshot {
	return HistogramSnapshot{
		Count: h.Count(),
		Min:   h.Min(),
		Max:   h.Max(),
		Mean:  h.Mean(),
		P50:   h.Percentile(50),
		P95:   h.Percentile(95),
		P99:   h.Percentile(99),
		P999:  h.Percentile(99.9),
	}
}

// Metrics tracks buffer pool performance counters and latency histograms.
type Metrics struct {
	cacheHits        atomic.Uint64
	cacheMisses      atomic.Uint64
	pageEvictions    atomic.Uint64
	dirtyPageFlushes atomic.Uint64
	newPageAllocs    atomic.Uint64
	saturationEvents atomic.Uint64

	pageFetchLatency *Histogram
	pageFlushLatency *Histogram

	startTime time.Time
	mu        sync.RWMutex
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{
		startTime:        time.Now(),
		pageFetchLatency: NewHistogram(10000),
		pageFlushLatency: NewHistogram(10000),
	}
}

func (m *Metrics) RecordCacheHit()        { m.cacheHits.Add(1) }
func (m *Metrics) RecordCacheMiss()       { m.cacheMisses.Add(1) }
func (m *Metrics) RecordPageEviction()    { m.pageEvictions.Add(1) }
func (m *Metrics) RecordDirtyPageFlush()  { m.dirtyPageFlushes.Add(1) }
func (m *Metrics) RecordNewPageAlloc()    { m.newPageAllocs.Add(1) }
func (m *Metrics) RecordSaturationEvent() { m.saturationEvents.Add(1) }

// RecordPageFetchLatency records the latency of a page fetch operation.
func (m *Metrics) RecordPageFetchLatency(duration time.Duration) {
	m.pageFetchLatency.Record(float64(duration.Microseconds()))
}

// RecordPageFlushLatency records the latency of a page flush operation.
func (m *Metrics) RecordPageFlushLatency(duration time.Duration) {
	m.pageFlushLatency.Record(float64(duration.Microseconds()))
}

func (m *Metrics) GetCacheHits() uint64     { return m.cacheHits.Load() }
func (m *Metrics) GetCacheMisses() uint64   { return m.cacheMisses.Load() }
func (m *Metrics) GetPageEvictions() uint64 { return m.pageEvictions.Load() }
func (m *Metrics) GetDirtyPageFlushes() uint64 { return m.dirtyPageFlushes.Load() }
func (m *Metrics) GetNewPageAllocs() uint64    { return m.newPageAllocs.Load() }
func (m *Metrics) GetSaturationEvents() uint64 { return m.saturationEvents.Load() }

func (m *Metrics) GetCacheHitRate() float64 {
	hits := m.cacheHits.Load()
	misses := m.cacheMisses.Load()
	total := hits + misses
	if total == 0 {
		return 0.0
	}
	return float64(hits) / float64(total)
}

func (m *Metrics) GetUptime() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return time.Since(m.startTime)
}

// GetPageFetchLatency returns a snapshot of page fetch latency distribution.
func (m *Metrics) GetPageFetchLatency() HistogramSnapshot {
	return m.pageFetchLatency.Snapshot()
}

// GetPageFlushLatency returns a snapshot of page flush latency distribution.
func (m *Metrics) GetPageFlushLatency() HistogramSnapshot {
	return m.pageFlushLatency.Snapshot()
}

// ResidentBytes reports how many bytes of page data a pool of the given
// frame capacity holds resident, in human-readable form.
func ResidentBytes(frameCount uint32, pageSize uint32) string {
	return humanize.Bytes(uint64(frameCount) * uint64(pageSize))
}

// LogMetrics logs all metrics through the pool's structured logger.
func (m *Metrics) LogMetrics(logger *zap.Logger) {
	pageFetch := m.GetPageFetchLatency()
	pageFlush := m.GetPageFlushLatency()

	logger.Info("buffer pool metrics",
		zap.Uint64("cache_hits", m.GetCacheHits()),
		zap.Uint64("cache_misses", m.GetCacheMisses()),
		zap.Float64("cache_hit_rate", m.GetCacheHitRate()),
		zap.Uint64("page_evictions", m.GetPageEvictions()),
		zap.Uint64("dirty_page_flushes", m.GetDirtyPageFlushes()),
		zap.Uint64("new_page_allocs", m.GetNewPageAllocs()),
		zap.Uint64("saturation_events", m.GetSaturationEvents()),
		zap.Int("fetch_latency_count", pageFetch.Count),
		zap.Float64("fetch_latency_p50_us", pageFetch.P50),
		zap.Float64("fetch_latency_p99_us", pageFetch.P99),
		zap.Int("flush_latency_count", pageFlush.Count),
		zap.Float64("flush_latency_p50_us", pageFlush.P50),
		zap.Float64("flush_latency_p99_us", pageFlush.P99),
		zap.Duration("uptime", m.GetUptime()),
	)
}

// Reset resets all metrics. Useful for testing.
func (m *Metrics) Reset() {
	m.cacheHits.Store(0)
	m.cacheMisses.Store(0)
	m.pageEvictions.Store(0)
	m.dirtyPageFlushes.Store(0)
	m.newPageAllocs.Store(0)
	m.saturationEvents.Store(0)

	m.pageFetchLatency.Reset()
	m.pageFlushLatency.Reset()

	m.mu.Lock()
	m.startTime = time.Now()
	m.mu.Unlock()
}
