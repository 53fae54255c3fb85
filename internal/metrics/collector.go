// Package metrics provides runtime statistics for store, lookup and LLM calls.
package metrics

import (
	"math"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OperationMetrics holds aggregated metrics for a single operation type.
type OperationMetrics struct {
	Count     int64
	Errors    int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration

	// Token metrics (only for LLM operations)
	TotalInputTokens  int64
	TotalOutputTokens int64
}

// OperationSnapshot provides computed stats from raw metrics.
type OperationSnapshot struct {
	Count       int64   `json:"count"`
	Errors      int64   `json:"errors"`
	TotalTimeMs int64   `json:"total_time_ms"`
	AvgTimeMs   float64 `json:"avg_time_ms"`
	MinTimeMs   int64   `json:"min_time_ms"`
	MaxTimeMs   int64   `json:"max_time_ms"`

	// Token stats (nil if not applicable)
	TotalInputTokens  *int64 `json:"total_input_tokens,omitempty"`
	TotalOutputTokens *int64 `json:"total_output_tokens,omitempty"`
}

// Snapshot represents the full server statistics at a point in time.
type Snapshot struct {
	UptimeSeconds float64            `json:"uptime_seconds"`
	StorePut      *OperationSnapshot `json:"store_put,omitempty"`
	StoreFetch    *OperationSnapshot `json:"store_fetch,omitempty"`
	StoreDelete   *OperationSnapshot `json:"store_delete,omitempty"`
	PaymentLookup *OperationSnapshot `json:"payment_lookup,omitempty"`
	LLMGenerate   *OperationSnapshot `json:"llm_generate,omitempty"`
	Embedding     *OperationSnapshot `json:"embedding,omitempty"`
}

// Operation names for the collector.
const (
	OpStorePut      = "store_put"
	OpStoreFetch    = "store_fetch"
	OpStoreDelete   = "store_delete"
	OpPaymentLookup = "payment_lookup"
	OpLLMGenerate   = "llm_generate"
	OpEmbedding     = "embedding"
)

// Collector aggregates in-memory runtime statistics and mirrors every
// observation into a Prometheus histogram.
// All methods are thread-safe; the Record methods are no-ops on a nil receiver.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	ops       map[string]*OperationMetrics

	duration *prometheus.HistogramVec
	tokens   *prometheus.CounterVec
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		ops:       make(map[string]*OperationMetrics),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "paydesk",
			Name:      "operation_duration_seconds",
			Help:      "Duration of store, payment lookup and LLM operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "outcome"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "paydesk",
			Name:      "llm_tokens_total",
			Help:      "Tokens consumed by text generation.",
		}, []string{"direction"}),
	}
}

// Register exposes the Prometheus series on reg.
func (c *Collector) Register(reg prometheus.Registerer) error {
	if err := reg.Register(c.duration); err != nil {
		return err
	}
	return reg.Register(c.tokens)
}

// getOrCreate returns existing metrics or creates new ones for an operation.
// Caller must hold write lock.
func (c *Collector) getOrCreate(op string) *OperationMetrics {
	m, ok := c.ops[op]
	if !ok {
		m = &OperationMetrics{MinTime: time.Duration(math.MaxInt64)}
		c.ops[op] = m
	}
	return m
}

// RecordTiming records timing for an operation. A non-nil err counts as a failure.
func (c *Collector) RecordTiming(op string, duration time.Duration, err error) {
	if c == nil {
		return
	}

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.duration.WithLabelValues(op, outcome).Observe(duration.Seconds())

	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.getOrCreate(op)
	m.Count++
	if err != nil {
		m.Errors++
	}
	m.TotalTime += duration

	if duration < m.MinTime {
		m.MinTime = duration
	}
	if duration > m.MaxTime {
		m.MaxTime = duration
	}
}

// RecordTokens adds token usage to an operation already timed with RecordTiming.
func (c *Collector) RecordTokens(op string, inputTokens, outputTokens int64) {
	if c == nil {
		return
	}

	c.tokens.WithLabelValues("input").Add(float64(inputTokens))
	c.tokens.WithLabelValues("output").Add(float64(outputTokens))

	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.getOrCreate(op)
	m.TotalInputTokens += inputTokens
	m.TotalOutputTokens += outputTokens
}

// snapshotOp creates a snapshot for an operation, returning nil if no data.
func snapshotOp(m *OperationMetrics, includeTokens bool) *OperationSnapshot {
	if m == nil || m.Count == 0 {
		return nil
	}

	snap := &OperationSnapshot{
		Count:       m.Count,
		Errors:      m.Errors,
		TotalTimeMs: m.TotalTime.Milliseconds(),
		AvgTimeMs:   float64(m.TotalTime.Milliseconds()) / float64(m.Count),
		MinTimeMs:   m.MinTime.Milliseconds(),
		MaxTimeMs:   m.MaxTime.Milliseconds(),
	}

	if includeTokens && (m.TotalInputTokens > 0 || m.TotalOutputTokens > 0) {
		totalIn := m.TotalInputTokens
		totalOut := m.TotalOutputTokens
		snap.TotalInputTokens = &totalIn
		snap.TotalOutputTokens = &totalOut
	}

	return snap
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Snapshot{
		UptimeSeconds: time.Since(c.startTime).Seconds(),
		StorePut:      snapshotOp(c.ops[OpStorePut], false),
		StoreFetch:    snapshotOp(c.ops[OpStoreFetch], false),
		StoreDelete:   snapshotOp(c.ops[OpStoreDelete], false),
		PaymentLookup: snapshotOp(c.ops[OpPaymentLookup], false),
		LLMGenerate:   snapshotOp(c.ops[OpLLMGenerate], true),
		Embedding:     snapshotOp(c.ops[OpEmbedding], false),
	}
}
