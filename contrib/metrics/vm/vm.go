package vm

import (
	"fmt"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/VictoriaMetrics/metrics"

	"github.com/akashmir/harvesh-app-sub004/types"
)

// Option configures a Collector.
type Option func(*Collector)

// WithPrefix sets the metric name prefix.
//
// Default: "netop"
//
// Parameters:
//   - prefix: The prefix to use for all metric names
//
// Returns:
//   - Option: A configuration option
func WithPrefix(prefix string) Option {
	return func(c *Collector) {
		c.prefix = prefix
	}
}

// WithMetricsSet sets the metrics set to use.
//
// If provided, the collector will register metrics with this set instead of
// creating a new one. The caller is responsible for exposing this set
// (e.g., via metrics.WritePrometheus or a custom handler).
//
// Parameters:
//   - set: The metrics set to use
//
// Returns:
//   - Option: A configuration option
func WithMetricsSet(set *metrics.Set) Option {
	return func(c *Collector) {
		c.set = set
	}
}

// Collector implements types.MetricsCollector using VictoriaMetrics.
//
// Unlabeled metrics are pre-created at initialization time; labeled
// metrics (per HTTP method, per error kind) are created on first use.
// Thread-safe for concurrent use.
type Collector struct {
	set    *metrics.Set
	prefix string

	// Request metrics
	requestDuration *metrics.Histogram
	retryAttempts   *metrics.Counter

	// Queue metrics
	queueEnqueued     *metrics.Counter
	queueDrained      *metrics.Counter
	queueDeadLettered *metrics.Counter
	queueDepth        atomic.Int64

	// Drain metrics
	drainTotal    *metrics.Counter
	drainDuration *metrics.Histogram

	// Connectivity metrics
	connectivityState atomic.Int64
}

// Compile-time assertion that Collector implements types.MetricsCollector.
var _ types.MetricsCollector = (*Collector)(nil)

// New creates a new VictoriaMetrics-based metrics collector.
//
// The collector creates its own metrics.Set and registers it globally.
//
// Parameters:
//   - opts: Configuration options (e.g., WithPrefix)
//
// Returns:
//   - *Collector: A new metrics collector ready for use
//
// Example:
//
//	collector := vm.New(vm.WithPrefix("myapp"))
//	client, _ := netop.NewClient(netop.DefaultConfig(),
//	    netop.WithMetrics(collector),
//	)
func New(opts ...Option) *Collector {
	c := &Collector{
		prefix: "netop",
	}

	for _, opt := range opts {
		opt(c)
	}

	// If no set is provided, create a new one and register it globally.
	// If a set is provided, we assume the caller manages it.
	if c.set == nil {
		c.set = metrics.NewSet()
		metrics.RegisterSet(c.set)
	}

	c.initMetrics()

	return c
}

// initMetrics pre-creates all unlabeled metrics with the configured prefix.
func (c *Collector) initMetrics() {
	p := c.prefix

	c.requestDuration = c.set.NewHistogram(p + "_request_duration_seconds")
	c.retryAttempts = c.set.NewCounter(p + "_retry_attempts_total")

	c.queueEnqueued = c.set.NewCounter(p + "_queue_enqueued_total")
	c.queueDrained = c.set.NewCounter(p + "_queue_drained_total")
	c.queueDeadLettered = c.set.NewCounter(p + "_queue_dead_lettered_total")
	c.set.NewGauge(p+"_queue_depth", func() float64 {
		return float64(c.queueDepth.Load())
	})

	c.drainTotal = c.set.NewCounter(p + "_drain_total")
	c.drainDuration = c.set.NewHistogram(p + "_drain_duration_seconds")

	c.set.NewGauge(p+"_connectivity_online", func() float64 {
		return float64(c.connectivityState.Load())
	})
}

func (c *Collector) Set() *metrics.Set {
	return c.set
}

// Handler returns an HTTP handler that exposes metrics in Prometheus format.
//
// Example:
//
//	http.HandleFunc("/metrics", collector.Handler)
func (c *Collector) Handler(w http.ResponseWriter, _ *http.Request) {
	c.set.WritePrometheus(w)
}

// WritePrometheus writes all metrics in Prometheus format to the given writer.
//
// Parameters:
//   - w: The writer to write metrics to
func (c *Collector) WritePrometheus(w io.Writer) {
	c.set.WritePrometheus(w)
}

// ----------------------
// Request Metrics
// ----------------------

// IncRequestTotal increments the request counter for an HTTP method.
func (c *Collector) IncRequestTotal(method string) {
	c.set.GetOrCreateCounter(fmt.Sprintf(`%s_request_total{method=%q}`, c.prefix, method)).Inc()
}

// IncRequestError increments the error counter for a classified kind.
func (c *Collector) IncRequestError(kind types.ErrorKind) {
	c.set.GetOrCreateCounter(fmt.Sprintf(`%s_request_errors_total{kind=%q}`, c.prefix, kind.String())).Inc()
}

// ObserveRequestDuration records the duration of one request attempt.
func (c *Collector) ObserveRequestDuration(seconds float64) {
	c.requestDuration.Update(seconds)
}

// IncRetryAttempt increments the retry attempt counter.
func (c *Collector) IncRetryAttempt() {
	c.retryAttempts.Inc()
}

// ----------------------
// Queue Metrics
// ----------------------

// IncQueueEnqueued increments the counter of requests saved for offline sync.
func (c *Collector) IncQueueEnqueued() {
	c.queueEnqueued.Inc()
}

// IncQueueDrained increments the counter of queued items delivered.
func (c *Collector) IncQueueDrained() {
	c.queueDrained.Inc()
}

// IncQueueDeadLettered increments the counter of items that permanently failed.
func (c *Collector) IncQueueDeadLettered() {
	c.queueDeadLettered.Inc()
}

// SetQueueDepth sets the current number of pending items.
func (c *Collector) SetQueueDepth(depth int) {
	c.queueDepth.Store(int64(depth))
}

// ----------------------
// Drain Metrics
// ----------------------

// IncDrainTotal increments the counter of drain passes started.
func (c *Collector) IncDrainTotal() {
	c.drainTotal.Inc()
}

// ObserveDrainDuration records the duration of one drain pass.
func (c *Collector) ObserveDrainDuration(seconds float64) {
	c.drainDuration.Update(seconds)
}

// ----------------------
// Connectivity Metrics
// ----------------------

// SetConnectivityState records the current debounced connectivity state
// (1 for online, 0 for offline).
func (c *Collector) SetConnectivityState(state types.ConnectivityState) {
	if state == types.Online {
		c.connectivityState.Store(1)
	} else {
		c.connectivityState.Store(0)
	}
}
