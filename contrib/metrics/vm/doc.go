// Package vm provides a VictoriaMetrics-based implementation of the MetricsCollector interface.
//
// This package uses github.com/VictoriaMetrics/metrics for lightweight,
// high-performance Prometheus-compatible metrics collection.
//
// # Basic Usage
//
// Create a collector with default prefix "netop":
//
//	collector := vm.New()
//	client, _ := netop.NewClient(netop.DefaultConfig(),
//	    netop.WithMetrics(collector),
//	)
//
// # Custom Prefix
//
// Use WithPrefix to customize the metric name prefix:
//
//	collector := vm.New(vm.WithPrefix("myapp"))
//
// This produces metrics like:
//   - myapp_request_total{method="POST"}
//   - myapp_queue_depth
//
// # Exposing Metrics
//
// Use the Handler method to expose metrics via HTTP:
//
//	http.HandleFunc("/metrics", collector.Handler)
//	http.ListenAndServe(":8080", nil)
//
// Or use WritePrometheus to write metrics to a custom writer:
//
//	collector.WritePrometheus(w)
//
// # Metrics Provided
//
// Requests:
//   - {prefix}_request_total{method} - Counter of requests by HTTP method
//   - {prefix}_request_errors_total{kind} - Counter of classified failures
//   - {prefix}_request_duration_seconds - Histogram of attempt durations
//   - {prefix}_retry_attempts_total - Counter of retry attempts
//
// Offline queue:
//   - {prefix}_queue_enqueued_total - Counter of requests saved for offline sync
//   - {prefix}_queue_drained_total - Counter of queued items delivered
//   - {prefix}_queue_dead_lettered_total - Counter of permanently failed items
//   - {prefix}_queue_depth - Gauge of pending items
//
// Sync:
//   - {prefix}_drain_total - Counter of drain passes
//   - {prefix}_drain_duration_seconds - Histogram of drain pass durations
//
// Connectivity:
//   - {prefix}_connectivity_online - Gauge, 1 when online and 0 when offline
package vm
