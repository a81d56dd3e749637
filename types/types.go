// Package types provides shared types and errors for the netop library.
//
// This is a "leaf" package with no imports from other netop packages,
// allowing it to be imported by any package without causing import cycles.
package types

import (
	"errors"
	"time"
)

// ErrorKind categorizes a failure for retry decisions and user messaging.
type ErrorKind string

// Error kinds produced by the classifier.
const (
	// KindNetwork indicates a generic transport-level failure.
	KindNetwork ErrorKind = "network"
	// KindAPI indicates a non-2xx response that fits no more specific kind.
	KindAPI ErrorKind = "api"
	// KindValidation indicates the server rejected the request payload (400, 422).
	KindValidation ErrorKind = "validation"
	// KindAuthentication indicates missing or invalid credentials (401).
	KindAuthentication ErrorKind = "authentication"
	// KindPermission indicates the caller lacks access rights (403).
	KindPermission ErrorKind = "permission"
	// KindTimeout indicates the attempt exceeded its deadline (408, transport timeout).
	KindTimeout ErrorKind = "timeout"
	// KindServerError indicates a server-side failure (429, 5xx).
	KindServerError ErrorKind = "serverError"
	// KindNoInternet indicates the device has no route to the backend
	// (DNS failure, connection refused, no route to host).
	KindNoInternet ErrorKind = "noInternet"
	// KindConfiguration indicates a client misconfiguration (missing base URL).
	KindConfiguration ErrorKind = "configuration"
	// KindUnknown indicates an unclassifiable failure.
	KindUnknown ErrorKind = "unknown"
)

// String returns the string representation of the ErrorKind.
func (k ErrorKind) String() string {
	return string(k)
}

// AppError is the classified form of a failed network operation.
//
// Produced by policy.Classify, consumed by callers and by the retry
// engine's stop condition. The zero value is not meaningful; construct
// via the classifier or NewAppError.
type AppError struct {
	// Kind categorizes the failure.
	Kind ErrorKind

	// Message is a human-readable description of the failure.
	Message string

	// Code is a machine-readable code (HTTP status text, errno name, etc.).
	Code string

	// Retryable reports whether the retry engine may attempt the
	// operation again.
	Retryable bool

	// RetryCount is the number of attempts consumed before this error
	// became terminal. Zero for errors surfaced without retrying.
	RetryCount int

	// Cause is the underlying error, if any.
	Cause error
}

// NewAppError creates an AppError with the given kind, message and retryability.
//
// Parameters:
//   - kind: The error category
//   - message: Human-readable description
//   - retryable: Whether the retry engine may retry
//
// Returns:
//   - *AppError: The constructed error
func NewAppError(kind ErrorKind, message string, retryable bool) *AppError {
	return &AppError{Kind: kind, Message: message, Retryable: retryable}
}

// Error implements the error interface.
func (e *AppError) Error() string {
	msg := "netop: " + string(e.Kind) + ": " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// ConnectivityState is the process-wide reachability state.
//
// Updated only by the connectivity monitor; transitions to Online are
// the sole trigger for queue drains.
type ConnectivityState int

const (
	// Offline indicates the backend is unreachable.
	Offline ConnectivityState = iota
	// Online indicates the backend is reachable.
	Online
)

// String returns the string representation of the ConnectivityState.
func (s ConnectivityState) String() string {
	if s == Online {
		return "online"
	}
	return "offline"
}

// Request describes a single HTTP operation against a backend service.
//
// A Request is immutable once created. The caller-supplied idempotency
// key is forwarded as the Idempotency-Key header so the server can
// deduplicate replays of queued writes.
type Request struct {
	// Method is the HTTP method (GET, POST, PUT, DELETE).
	Method string

	// Service selects the backend base URL from the client configuration.
	// Empty means the default service.
	Service string

	// Path is the request path relative to the service base URL.
	Path string

	// Headers holds additional request headers.
	Headers map[string]string

	// Body is the request payload. Nil for bodyless methods.
	Body []byte

	// IdempotencyKey deduplicates replays server-side. Generated
	// automatically for mutating requests when not supplied.
	IdempotencyKey string

	// SaveForOfflineSync marks the request as safe to enqueue for later
	// delivery when the device is offline.
	SaveForOfflineSync bool

	// Timeout is the per-attempt deadline. Zero means the configured default.
	Timeout time.Duration

	// CreatedAt is the request creation timestamp.
	CreatedAt time.Time
}

// Mutating reports whether the request has side effects on the server.
func (r Request) Mutating() bool {
	return r.Method != "GET" && r.Method != "HEAD"
}

// QueueItemID uniquely identifies an item in the offline queue.
type QueueItemID string

// String returns the string representation of the QueueItemID.
func (id QueueItemID) String() string {
	return string(id)
}

// ItemState is the lifecycle state of a queued item.
type ItemState string

const (
	// StatePending indicates the item is waiting to be drained.
	StatePending ItemState = "pending"
	// StateInFlight indicates the item is currently being delivered.
	StateInFlight ItemState = "in_flight"
	// StateFailed indicates the item exhausted its retry budget and was
	// dead-lettered. Retained for user-visible reporting, excluded from
	// future drains.
	StateFailed ItemState = "failed"
	// StateCorrupt indicates the persisted payload could not be decoded.
	// Quarantined so a bad row never crashes the process or stalls a drain.
	StateCorrupt ItemState = "corrupt"
)

// QueuedItem wraps a Request with queue bookkeeping metadata.
//
// Owned exclusively by the queue store; created on enqueue, mutated only
// by the sync coordinator during drains, removed on successful remote
// acknowledgment or after dead-lettering.
type QueuedItem struct {
	// ID uniquely identifies the item.
	ID QueueItemID

	// Seq is the monotonically increasing sequence number assigning
	// FIFO drain order.
	Seq int64

	// Request is the wrapped operation.
	Request Request

	// Attempts is the number of delivery attempts made so far,
	// accumulated across process restarts.
	Attempts int

	// LastAttemptAt is the time of the most recent delivery attempt.
	LastAttemptAt time.Time

	// State is the item lifecycle state.
	State ItemState

	// FailReason records why the item was dead-lettered or quarantined.
	FailReason string
}

// Sentinel errors for common failure scenarios.
var (
	// ErrCancelled indicates the caller cancelled the operation. This is
	// a distinct outcome from failure: no further retries occur and no
	// AppError is produced.
	ErrCancelled = errors.New("netop: operation cancelled")

	// ErrClientClosed indicates an operation was attempted on a closed client.
	ErrClientClosed = errors.New("netop: client is closed")

	// ErrStoreClosed indicates an operation was attempted on a closed queue store.
	ErrStoreClosed = errors.New("netop: queue store is closed")

	// ErrQueueFull indicates the offline queue is at capacity.
	// The request could not be saved for later delivery.
	ErrQueueFull = errors.New("netop: offline queue is full")

	// ErrItemNotFound indicates the referenced queue item does not exist.
	ErrItemNotFound = errors.New("netop: queue item not found")

	// ErrDrainActive indicates a drain pass is already running.
	// The trigger is coalesced into a redrain after the current pass.
	ErrDrainActive = errors.New("netop: drain already in progress")
)

// StorageError wraps a failure of the queue persistence layer.
type StorageError struct {
	// Op describes the store operation that failed.
	Op string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return "netop: queue store " + e.Op + " failed: " + e.Cause.Error()
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *StorageError) Unwrap() error {
	return e.Cause
}
