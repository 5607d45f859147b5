// internal/utils/metrics.go
package utils

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metric names shared across services
const (
	MetricAnalysisRequests     = "analysis.requests"
	MetricAnalysisAIFallbacks  = "analysis.ai_fallbacks"
	MetricAnalysisSourcePrefix = "analysis.source."
	MetricSearchRequests       = "search.requests"
	MetricSearchProviderErrors = "search.provider_errors"
	MetricSearchDurationMs     = "search.duration_ms"
	MetricSessionsSaved        = "sessions.saved"
	MetricExports              = "exports.written"
	MetricActiveStreams        = "ws.active_streams"
)

// MetricsCollector collects application metrics
type MetricsCollector struct {
	counters   map[string]*int64
	gauges     map[string]*int64
	histograms map[string]*Histogram

	mu sync.RWMutex
}

// Histogram tracks count, sum, min and max of observed values
type Histogram struct {
	count int64
	sum   int64
	min   int64
	max   int64
	mu    sync.Mutex
}

// NewMetricsCollector creates an empty collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		counters:   make(map[string]*int64),
		gauges:     make(map[string]*int64),
		histograms: make(map[string]*Histogram),
	}
}

// cell returns the atomic slot for name, creating it on first use
func (m *MetricsCollector) cell(set map[string]*int64, name string) *int64 {
	m.mu.RLock()
	v, exists := set[name]
	m.mu.RUnlock()
	if exists {
		return v
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if v, exists = set[name]; !exists {
		v = new(int64)
		set[name] = v
	}
	return v
}

// IncrementCounter increments a counter metric
func (m *MetricsCollector) IncrementCounter(name string) {
	m.AddCounter(name, 1)
}

// AddCounter adds a value to a counter metric
func (m *MetricsCollector) AddCounter(name string, value int64) {
	if m == nil {
		return
	}
	atomic.AddInt64(m.cell(m.counters, name), value)
}

// GetCounterValue gets the current value of a counter
func (m *MetricsCollector) GetCounterValue(name string) int64 {
	if m == nil {
		return 0
	}
	return atomic.LoadInt64(m.cell(m.counters, name))
}

// IncGauge increments a gauge metric
func (m *MetricsCollector) IncGauge(name string) {
	if m == nil {
		return
	}
	atomic.AddInt64(m.cell(m.gauges, name), 1)
}

// DecGauge decrements a gauge metric
func (m *MetricsCollector) DecGauge(name string) {
	if m == nil {
		return
	}
	atomic.AddInt64(m.cell(m.gauges, name), -1)
}

// GetGauge gets the current value of a gauge
func (m *MetricsCollector) GetGauge(name string) int64 {
	if m == nil {
		return 0
	}
	return atomic.LoadInt64(m.cell(m.gauges, name))
}

// RecordHistogram records a value in a histogram
func (m *MetricsCollector) RecordHistogram(name string, value int64) {
	if m == nil {
		return
	}
	m.mu.RLock()
	h, exists := m.histograms[name]
	m.mu.RUnlock()

	if !exists {
		m.mu.Lock()
		if h, exists = m.histograms[name]; !exists {
			h = &Histogram{min: value, max: value}
			m.histograms[name] = h
		}
		m.mu.Unlock()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	if value < h.min {
		h.min = value
	}
	if value > h.max {
		h.max = value
	}
}

// ObserveDuration records the time elapsed since start in milliseconds
func (m *MetricsCollector) ObserveDuration(name string, start time.Time) {
	m.RecordHistogram(name, time.Since(start).Milliseconds())
}

// GetMetrics returns a snapshot of all metrics
func (m *MetricsCollector) GetMetrics() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counters := make(map[string]int64, len(m.counters))
	for name, v := range m.counters {
		counters[name] = atomic.LoadInt64(v)
	}

	gauges := make(map[string]int64, len(m.gauges))
	for name, v := range m.gauges {
		gauges[name] = atomic.LoadInt64(v)
	}

	histograms := make(map[string]map[string]int64, len(m.histograms))
	for name, h := range m.histograms {
		h.mu.Lock()
		histograms[name] = map[string]int64{
			"count": h.count,
			"sum":   h.sum,
			"min":   h.min,
			"max":   h.max,
		}
		h.mu.Unlock()
	}

	return map[string]interface{}{
		"counters":   counters,
		"gauges":     gauges,
		"histograms": histograms,
	}
}
