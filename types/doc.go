// Package types provides shared types and error definitions for the netop library.
//
// This is a leaf package with zero netop imports to prevent import cycles.
// All packages in netop can safely import this package.
//
// # Error Taxonomy
//
// ErrorKind categorizes failures for retry decisions and user messaging:
//
//	network, api, validation, authentication, permission,
//	timeout, serverError, noInternet, configuration, unknown
//
// Transient kinds (network, timeout, serverError, noInternet) are retried
// by the retry engine up to policy limits; the rest surface immediately
// without consuming retry budget.
//
// # Errors
//
// Sentinel errors are provided for common failure scenarios:
//
//   - ErrCancelled: The caller cancelled the operation (not a failure)
//   - ErrClientClosed: Operation attempted on a closed client
//   - ErrStoreClosed: Operation attempted on a closed queue store
//   - ErrQueueFull: The offline queue is at capacity
//   - ErrItemNotFound: The referenced queue item does not exist
//   - ErrDrainActive: A drain pass is already running
//
// # Request and QueuedItem
//
// Request describes one HTTP operation; QueuedItem wraps a Request with
// the bookkeeping the offline queue store maintains:
//
//	type QueuedItem struct {
//	    ID            QueueItemID
//	    Seq           int64
//	    Request       Request
//	    Attempts      int
//	    LastAttemptAt time.Time
//	    State         ItemState
//	    FailReason    string
//	}
package types
