// Package metrics provides internal metrics utilities for netop.
package metrics

import "github.com/akashmir/harvesh-app-sub004/types"

// NopMetrics is a no-op metrics collector that discards all metrics.
//
// This is used as the default metrics collector when no collector is configured,
// avoiding nil checks throughout the codebase.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements types.MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNopMetrics creates a new no-op metrics collector.
//
// Returns:
//   - *NopMetrics: A collector that discards all metrics
func NewNopMetrics() *NopMetrics {
	return &NopMetrics{}
}

// ----------------------
// Requests
// ----------------------

// IncRequestTotal discards the metric.
func (m *NopMetrics) IncRequestTotal(_ string) {}

// IncRequestError discards the metric.
func (m *NopMetrics) IncRequestError(_ types.ErrorKind) {}

// ObserveRequestDuration discards the metric.
func (m *NopMetrics) ObserveRequestDuration(_ float64) {}

// IncRetryAttempt discards the metric.
func (m *NopMetrics) IncRetryAttempt() {}

// ----------------------
// Offline Queue
// ----------------------

// IncQueueEnqueued discards the metric.
func (m *NopMetrics) IncQueueEnqueued() {}

// IncQueueDrained discards the metric.
func (m *NopMetrics) IncQueueDrained() {}

// IncQueueDeadLettered discards the metric.
func (m *NopMetrics) IncQueueDeadLettered() {}

// SetQueueDepth discards the metric.
func (m *NopMetrics) SetQueueDepth(_ int) {}

// ----------------------
// Sync Coordinator
// ----------------------

// IncDrainTotal discards the metric.
func (m *NopMetrics) IncDrainTotal() {}

// ObserveDrainDuration discards the metric.
func (m *NopMetrics) ObserveDrainDuration(_ float64) {}

// ----------------------
// Connectivity
// ----------------------

// SetConnectivityState discards the metric.
func (m *NopMetrics) SetConnectivityState(_ types.ConnectivityState) {}
