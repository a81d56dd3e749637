// Package queue provides offline queue stores and the sync coordinator
// that drains them when connectivity returns.
package queue

import (
	"context"
	"time"

	"github.com/akashmir/harvesh-app-sub004/types"
)

// Store is a durable, ordered store of pending mutating requests.
//
// Items are assigned strictly increasing sequence numbers on enqueue and
// drained in that order. Implementations MUST serialize all mutations
// (single writer discipline) so sequence numbers and delivery bookkeeping
// never see lost updates.
//
// Durable implementations MUST reset items left in_flight by a previous
// process run back to pending on initialization, so a crash mid-drain
// still results in an at-least-once delivery attempt.
type Store interface {
	// Enqueue durably appends a request with the next sequence number.
	//
	// Enqueue never attempts the network call; it returns as soon as the
	// item is persisted.
	//
	// Parameters:
	//   - ctx: Context for cancellation
	//   - req: The request to save for later delivery
	//
	// Returns:
	//   - types.QueueItemID: The new item's ID
	//   - error: ErrQueueFull, ErrStoreClosed, or a *StorageError
	Enqueue(ctx context.Context, req types.Request) (types.QueueItemID, error)

	// Pending returns all pending items in sequence order.
	//
	// Returns:
	//   - []types.QueuedItem: Snapshot ordered by sequence number
	//   - error: Store failure, if any
	Pending(ctx context.Context) ([]types.QueuedItem, error)

	// MarkInFlight transitions an item from pending to in_flight.
	MarkInFlight(ctx context.Context, id types.QueueItemID) error

	// MarkPending transitions an item back to pending, used when a drain
	// stops early and the item should be retried on the next pass.
	MarkPending(ctx context.Context, id types.QueueItemID) error

	// MarkSucceeded removes an item after remote acknowledgment.
	MarkSucceeded(ctx context.Context, id types.QueueItemID) error

	// MarkFailed dead-letters an item after its retry budget is exhausted.
	// The item is retained for user-visible reporting but excluded from
	// future drains.
	MarkFailed(ctx context.Context, id types.QueueItemID, reason string) error

	// RecordAttempt persists an item's attempt count and stamps the
	// attempt time, so the budget survives process restarts.
	RecordAttempt(ctx context.Context, id types.QueueItemID, attempts int) error

	// Count returns the number of pending items.
	Count(ctx context.Context) (int, error)

	// DeadLetters returns dead-lettered items in sequence order.
	DeadLetters(ctx context.Context) ([]types.QueuedItem, error)

	// RequeueDeadLetter moves a dead-lettered item back to pending with a
	// fresh attempt budget. This backs the manual retry affordance.
	RequeueDeadLetter(ctx context.Context, id types.QueueItemID) error

	// LastSyncAt returns the time of the last fully completed drain.
	// The zero time means no drain has completed yet.
	LastSyncAt(ctx context.Context) (time.Time, error)

	// SetLastSyncAt records the time of a completed drain.
	SetLastSyncAt(ctx context.Context, at time.Time) error

	// Close releases store resources. Further calls return ErrStoreClosed.
	Close() error
}
