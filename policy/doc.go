// Package policy provides the pure decision logic of the netop library:
// error classification, retry backoff schedules, and connectivity
// debouncing. Nothing in this package performs I/O.
//
// # Error Classification
//
// Classify maps transport-level failures onto the error taxonomy, and
// ClassifyStatus does the same for HTTP response statuses:
//
//	appErr := policy.Classify(err)
//	if appErr.Retryable {
//	    // transient: noInternet, timeout, serverError, network
//	}
//
// Classification is idempotent: an already-classified *types.AppError
// passes through unchanged, so the retry engine can classify on every
// loop iteration without double-wrapping.
//
// # Retry Policy
//
// RetryPolicy is a pure value describing the attempt budget and the
// exponential backoff schedule:
//
//	p := policy.DefaultRetryPolicy() // 3 attempts, 2s base, x2, 30s cap
//	p.Delay(1)                       // 2s
//	p.Delay(2)                       // 4s
//
// Delay growth is capped at MaxDelay and computed iteratively, so it
// cannot overflow. Enable Jitter to randomize delays within the same
// order of magnitude.
//
// # Flap Guard
//
// FlapGuard turns a stream of raw reachability probes into debounced
// transitions. A new state must persist for a configured dwell time
// before it is published, so a flapping link does not trigger a queue
// drain per blip:
//
//	guard := policy.NewFlapGuard(1500*time.Millisecond, types.Offline)
//	state, changed := guard.Observe(types.Online, time.Now())
package policy
