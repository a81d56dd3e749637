package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/akashmir/harvesh-app-sub004/types"
)

// MemoryStore implements an in-memory offline queue.
//
// # Durability Warning
//
// Enqueued items are LOST on process restart. Use MemoryStore for:
//   - Development and testing
//   - Scenarios where losing queued writes is acceptable
//
// For production durability, use SQLiteStore.
//
// # Thread Safety
//
// All methods are safe for concurrent use. A single mutex serializes
// every mutation, so sequence numbers are strictly increasing and
// delivery bookkeeping never sees lost updates.
type MemoryStore struct {
	mu          sync.Mutex
	seq         int64
	items       []*types.QueuedItem // pending + in_flight, sequence order
	deadLetters []*types.QueuedItem // failed, sequence order
	byID        map[types.QueueItemID]*types.QueuedItem
	lastSync    time.Time
	capacity    int
	closed      bool
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithCapacity sets the maximum number of queued items.
//
// Parameters:
//   - n: Maximum pending items (default: 1000)
//
// Returns:
//   - MemoryStoreOption: Configuration option
func WithCapacity(n int) MemoryStoreOption {
	return func(m *MemoryStore) {
		m.capacity = n
	}
}

// NewMemoryStore creates a new in-memory queue store.
//
// Parameters:
//   - opts: Optional configuration options
//
// Returns:
//   - *MemoryStore: A new memory store
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	m := &MemoryStore{
		capacity: 1000,
		byID:     make(map[types.QueueItemID]*types.QueuedItem),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Compile-time assertion that MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)

// Enqueue appends a request with the next sequence number.
func (m *MemoryStore) Enqueue(_ context.Context, req types.Request) (types.QueueItemID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return "", types.ErrStoreClosed
	}
	if len(m.items) >= m.capacity {
		return "", types.ErrQueueFull
	}

	m.seq++
	item := &types.QueuedItem{
		ID:      types.QueueItemID(uuid.NewString()),
		Seq:     m.seq,
		Request: req,
		State:   types.StatePending,
	}
	m.items = append(m.items, item)
	m.byID[item.ID] = item

	return item.ID, nil
}

// Pending returns all pending items in sequence order.
func (m *MemoryStore) Pending(_ context.Context) ([]types.QueuedItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, types.ErrStoreClosed
	}

	out := make([]types.QueuedItem, 0, len(m.items))
	for _, item := range m.items {
		if item.State == types.StatePending {
			out = append(out, *item)
		}
	}

	return out, nil
}

// MarkInFlight transitions an item from pending to in_flight.
func (m *MemoryStore) MarkInFlight(_ context.Context, id types.QueueItemID) error {
	return m.setState(id, types.StateInFlight)
}

// MarkPending transitions an item back to pending.
func (m *MemoryStore) MarkPending(_ context.Context, id types.QueueItemID) error {
	return m.setState(id, types.StatePending)
}

// MarkSucceeded removes an item after remote acknowledgment.
func (m *MemoryStore) MarkSucceeded(_ context.Context, id types.QueueItemID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return types.ErrStoreClosed
	}
	item, ok := m.byID[id]
	if !ok || item.State == types.StateFailed {
		return types.ErrItemNotFound
	}

	delete(m.byID, id)
	m.items = removeItem(m.items, id)

	return nil
}

// MarkFailed dead-letters an item, retaining it for reporting.
func (m *MemoryStore) MarkFailed(_ context.Context, id types.QueueItemID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return types.ErrStoreClosed
	}
	item, ok := m.byID[id]
	if !ok || item.State == types.StateFailed {
		return types.ErrItemNotFound
	}

	item.State = types.StateFailed
	item.FailReason = reason
	m.items = removeItem(m.items, id)
	m.deadLetters = append(m.deadLetters, item)

	return nil
}

// RecordAttempt persists an item's attempt count.
func (m *MemoryStore) RecordAttempt(_ context.Context, id types.QueueItemID, attempts int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return types.ErrStoreClosed
	}
	item, ok := m.byID[id]
	if !ok {
		return types.ErrItemNotFound
	}

	item.Attempts = attempts
	item.LastAttemptAt = time.Now().UTC()

	return nil
}

// Count returns the number of pending items.
func (m *MemoryStore) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, types.ErrStoreClosed
	}

	n := 0
	for _, item := range m.items {
		if item.State == types.StatePending {
			n++
		}
	}

	return n, nil
}

// DeadLetters returns dead-lettered items in sequence order.
func (m *MemoryStore) DeadLetters(_ context.Context) ([]types.QueuedItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, types.ErrStoreClosed
	}

	out := make([]types.QueuedItem, 0, len(m.deadLetters))
	for _, item := range m.deadLetters {
		out = append(out, *item)
	}

	return out, nil
}

// RequeueDeadLetter moves a dead-lettered item back to pending with a
// fresh attempt budget.
func (m *MemoryStore) RequeueDeadLetter(_ context.Context, id types.QueueItemID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return types.ErrStoreClosed
	}
	item, ok := m.byID[id]
	if !ok || item.State != types.StateFailed {
		return types.ErrItemNotFound
	}

	item.State = types.StatePending
	item.Attempts = 0
	item.FailReason = ""
	for i, dl := range m.deadLetters {
		if dl.ID == id {
			m.deadLetters = append(m.deadLetters[:i], m.deadLetters[i+1:]...)
			break
		}
	}

	// Re-insert in sequence order relative to current items.
	inserted := false
	for i, existing := range m.items {
		if existing.Seq > item.Seq {
			m.items = append(m.items[:i], append([]*types.QueuedItem{item}, m.items[i:]...)...)
			inserted = true
			break
		}
	}
	if !inserted {
		m.items = append(m.items, item)
	}

	return nil
}

// LastSyncAt returns the time of the last fully completed drain.
func (m *MemoryStore) LastSyncAt(_ context.Context) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return time.Time{}, types.ErrStoreClosed
	}

	return m.lastSync, nil
}

// SetLastSyncAt records the time of a completed drain.
func (m *MemoryStore) SetLastSyncAt(_ context.Context, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return types.ErrStoreClosed
	}

	m.lastSync = at

	return nil
}

// Close marks the store as closed.
//
// Close is safe to call multiple times.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true

	return nil
}

// setState transitions an item between pending and in_flight.
func (m *MemoryStore) setState(id types.QueueItemID, state types.ItemState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return types.ErrStoreClosed
	}
	item, ok := m.byID[id]
	if !ok || item.State == types.StateFailed {
		return types.ErrItemNotFound
	}

	item.State = state

	return nil
}

// removeItem removes the item with the given ID from a sequence-ordered slice.
func removeItem(items []*types.QueuedItem, id types.QueueItemID) []*types.QueuedItem {
	for i, item := range items {
		if item.ID == id {
			return append(items[:i], items[i+1:]...)
		}
	}
	return items
}
