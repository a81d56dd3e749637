package types

// MetricsCollector defines methods for collecting operational metrics.
//
// Implementations should be thread-safe as methods may be called
// concurrently from the gateway, retry engine and sync coordinator.
//
// Example usage with VictoriaMetrics (via contrib/metrics/vm):
//
//	import vmmetrics "github.com/akashmir/harvesh-app-sub004/contrib/metrics/vm"
//
//	collector := vmmetrics.New(vmmetrics.WithPrefix("harvesh"))
//	client, _ := netop.NewClient(
//	    netop.WithMetrics(collector),
//	)
//
//	// Expose metrics via HTTP
//	http.HandleFunc("/metrics", collector.Handler)
type MetricsCollector interface {
	// ----------------------
	// Requests
	// ----------------------

	// IncRequestTotal increments the total request counter for a method.
	IncRequestTotal(method string)

	// IncRequestError increments the request error counter for an error kind.
	IncRequestError(kind ErrorKind)

	// ObserveRequestDuration records a request duration in seconds,
	// including any retries.
	ObserveRequestDuration(seconds float64)

	// IncRetryAttempt increments the retry attempt counter.
	// Called once per attempt after the first.
	IncRetryAttempt()

	// ----------------------
	// Offline Queue
	// ----------------------

	// IncQueueEnqueued increments the counter when a request is saved
	// for offline delivery.
	IncQueueEnqueued()

	// IncQueueDrained increments the counter when a queued item is
	// delivered successfully during a drain.
	IncQueueDrained()

	// IncQueueDeadLettered increments the counter when a queued item
	// exhausts its retry budget and is dead-lettered.
	IncQueueDeadLettered()

	// SetQueueDepth sets the pending queue depth gauge.
	SetQueueDepth(depth int)

	// ----------------------
	// Sync Coordinator
	// ----------------------

	// IncDrainTotal increments the drain pass counter.
	IncDrainTotal()

	// ObserveDrainDuration records a drain pass duration in seconds.
	ObserveDrainDuration(seconds float64)

	// ----------------------
	// Connectivity
	// ----------------------

	// SetConnectivityState sets the connectivity gauge.
	// Value: 1 if online, 0 if offline.
	SetConnectivityState(state ConnectivityState)
}
