package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // CGo-free sqlite driver

	"github.com/akashmir/harvesh-app-sub004/internal/logging"
	"github.com/akashmir/harvesh-app-sub004/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS queue_items (
	seq             INTEGER PRIMARY KEY AUTOINCREMENT,
	id              TEXT    NOT NULL UNIQUE,
	state           TEXT    NOT NULL DEFAULT 'pending',
	attempts        INTEGER NOT NULL DEFAULT 0,
	last_attempt_at INTEGER NOT NULL DEFAULT 0,
	fail_reason     TEXT    NOT NULL DEFAULT '',
	payload         BLOB    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_queue_items_state ON queue_items(state, seq);
CREATE TABLE IF NOT EXISTS sync_meta (
	key   TEXT PRIMARY KEY,
	value INTEGER NOT NULL
);
`

const lastSyncKey = "last_sync_at"

// SQLiteStore implements a durable offline queue backed by SQLite.
//
// The store survives process restarts: on Open, any item left in_flight
// by a previous run (crash mid-drain) is reset to pending so it is
// retried, guaranteeing at-least-once delivery attempts across crashes.
//
// Rows whose payload fails to decode are quarantined (state "corrupt"):
// they are excluded from drains and reported via the logger, but never
// crash the process or stall the queue.
//
// # Thread Safety
//
// All methods are safe for concurrent use. A single mutex serializes
// mutations on top of SQLite's own locking, preserving strict sequence
// number ordering.
type SQLiteStore struct {
	mu     sync.Mutex
	db     *sql.DB
	logger types.Logger
	closed bool
}

// SQLiteOption configures a SQLiteStore.
type SQLiteOption func(*SQLiteStore)

// WithStoreLogger sets the logger used to report quarantined rows and
// recovery actions.
//
// Parameters:
//   - l: The logger
//
// Returns:
//   - SQLiteOption: Configuration option
func WithStoreLogger(l types.Logger) SQLiteOption {
	return func(s *SQLiteStore) {
		s.logger = l
	}
}

// Open opens (creating if necessary) a durable queue store at the given path.
//
// The database runs in WAL mode with a busy timeout, which is the
// appropriate configuration for a single-process queue with concurrent
// readers.
//
// Parameters:
//   - path: Filesystem path of the database file
//   - opts: Optional configuration options
//
// Returns:
//   - *SQLiteStore: The opened store
//   - error: A *types.StorageError if the database cannot be opened or migrated
func Open(path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	s := &SQLiteStore{
		logger: logging.NewNopLogger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &types.StorageError{Op: "open", Cause: err}
	}

	// A single connection sidesteps SQLITE_BUSY between the pool's
	// connections; the store serializes access anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, &types.StorageError{Op: "migrate", Cause: err}
	}

	s.db = db

	// Crash recovery: items left in_flight by a previous run are retried.
	res, err := db.Exec(`UPDATE queue_items SET state = ? WHERE state = ?`,
		types.StatePending, types.StateInFlight)
	if err != nil {
		db.Close()
		return nil, &types.StorageError{Op: "recover", Cause: err}
	}
	if n, _ := res.RowsAffected(); n > 0 {
		s.logger.Info("recovered in-flight queue items", "count", n)
	}

	return s, nil
}

// Compile-time assertion that SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// Enqueue durably appends a request with the next sequence number.
func (s *SQLiteStore) Enqueue(ctx context.Context, req types.Request) (types.QueueItemID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", types.ErrStoreClosed
	}

	payload, err := encodeRequest(req)
	if err != nil {
		return "", &types.StorageError{Op: "encode", Cause: err}
	}

	id := types.QueueItemID(uuid.NewString())
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO queue_items (id, state, payload) VALUES (?, ?, ?)`,
		id, types.StatePending, payload)
	if err != nil {
		return "", &types.StorageError{Op: "enqueue", Cause: err}
	}

	return id, nil
}

// Pending returns all pending items in sequence order.
//
// Rows whose payload cannot be decoded are quarantined and skipped.
func (s *SQLiteStore) Pending(ctx context.Context) ([]types.QueuedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, types.ErrStoreClosed
	}

	return s.selectItems(ctx, types.StatePending, true)
}

// MarkInFlight transitions an item from pending to in_flight.
func (s *SQLiteStore) MarkInFlight(ctx context.Context, id types.QueueItemID) error {
	return s.setState(ctx, id, types.StateInFlight)
}

// MarkPending transitions an item back to pending.
func (s *SQLiteStore) MarkPending(ctx context.Context, id types.QueueItemID) error {
	return s.setState(ctx, id, types.StatePending)
}

// MarkSucceeded removes an item after remote acknowledgment.
func (s *SQLiteStore) MarkSucceeded(ctx context.Context, id types.QueueItemID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return types.ErrStoreClosed
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM queue_items WHERE id = ?`, id)
	if err != nil {
		return &types.StorageError{Op: "mark succeeded", Cause: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.ErrItemNotFound
	}

	return nil
}

// MarkFailed dead-letters an item, retaining it for reporting.
func (s *SQLiteStore) MarkFailed(ctx context.Context, id types.QueueItemID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return types.ErrStoreClosed
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE queue_items SET state = ?, fail_reason = ? WHERE id = ? AND state != ?`,
		types.StateFailed, reason, id, types.StateFailed)
	if err != nil {
		return &types.StorageError{Op: "mark failed", Cause: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.ErrItemNotFound
	}

	return nil
}

// RecordAttempt persists an item's attempt count and stamps the attempt time.
func (s *SQLiteStore) RecordAttempt(ctx context.Context, id types.QueueItemID, attempts int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return types.ErrStoreClosed
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE queue_items SET attempts = ?, last_attempt_at = ? WHERE id = ?`,
		attempts, time.Now().UnixMicro(), id)
	if err != nil {
		return &types.StorageError{Op: "record attempt", Cause: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.ErrItemNotFound
	}

	return nil
}

// Count returns the number of pending items.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, types.ErrStoreClosed
	}

	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM queue_items WHERE state = ?`, types.StatePending).Scan(&n)
	if err != nil {
		return 0, &types.StorageError{Op: "count", Cause: err}
	}

	return n, nil
}

// DeadLetters returns dead-lettered items in sequence order.
func (s *SQLiteStore) DeadLetters(ctx context.Context) ([]types.QueuedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, types.ErrStoreClosed
	}

	return s.selectItems(ctx, types.StateFailed, false)
}

// RequeueDeadLetter moves a dead-lettered item back to pending with a
// fresh attempt budget.
func (s *SQLiteStore) RequeueDeadLetter(ctx context.Context, id types.QueueItemID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return types.ErrStoreClosed
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE queue_items SET state = ?, attempts = 0, fail_reason = '' WHERE id = ? AND state = ?`,
		types.StatePending, id, types.StateFailed)
	if err != nil {
		return &types.StorageError{Op: "requeue dead letter", Cause: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.ErrItemNotFound
	}

	return nil
}

// LastSyncAt returns the time of the last fully completed drain.
func (s *SQLiteStore) LastSyncAt(ctx context.Context) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return time.Time{}, types.ErrStoreClosed
	}

	var us int64
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM sync_meta WHERE key = ?`, lastSyncKey).Scan(&us)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, &types.StorageError{Op: "last sync read", Cause: err}
	}

	return time.UnixMicro(us).UTC(), nil
}

// SetLastSyncAt records the time of a completed drain.
func (s *SQLiteStore) SetLastSyncAt(ctx context.Context, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return types.ErrStoreClosed
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		lastSyncKey, at.UnixMicro())
	if err != nil {
		return &types.StorageError{Op: "last sync write", Cause: err}
	}

	return nil
}

// Close closes the underlying database.
//
// Close is safe to call multiple times.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	return s.db.Close()
}

// setState transitions a live (non-failed) item to the given state.
func (s *SQLiteStore) setState(ctx context.Context, id types.QueueItemID, state types.ItemState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return types.ErrStoreClosed
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE queue_items SET state = ? WHERE id = ? AND state NOT IN (?, ?)`,
		state, id, types.StateFailed, types.StateCorrupt)
	if err != nil {
		return &types.StorageError{Op: "set state", Cause: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.ErrItemNotFound
	}

	return nil
}

// selectItems loads items in the given state in sequence order,
// quarantining rows that fail to decode when quarantine is true.
// Caller must hold s.mu.
func (s *SQLiteStore) selectItems(ctx context.Context, state types.ItemState, quarantine bool) ([]types.QueuedItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, id, state, attempts, last_attempt_at, fail_reason, payload
		 FROM queue_items WHERE state = ? ORDER BY seq`, state)
	if err != nil {
		return nil, &types.StorageError{Op: "select", Cause: err}
	}
	defer rows.Close()

	var items []types.QueuedItem
	var corrupt []types.QueueItemID

	for rows.Next() {
		var (
			item     types.QueuedItem
			stateStr string
			lastUS   int64
			payload  []byte
		)
		if err := rows.Scan(&item.Seq, &item.ID, &stateStr, &item.Attempts, &lastUS, &item.FailReason, &payload); err != nil {
			return nil, &types.StorageError{Op: "scan", Cause: err}
		}
		item.State = types.ItemState(stateStr)
		if lastUS != 0 {
			item.LastAttemptAt = time.UnixMicro(lastUS).UTC()
		}

		req, err := decodeRequest(payload)
		if err != nil {
			if quarantine {
				corrupt = append(corrupt, item.ID)
				s.logger.Error("quarantining undecodable queue item",
					"seq", item.Seq,
					"id", item.ID.String(),
					"error", err.Error(),
				)
			}
			continue
		}
		item.Request = req
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, &types.StorageError{Op: "select", Cause: err}
	}

	for _, id := range corrupt {
		if _, err := s.db.ExecContext(ctx,
			`UPDATE queue_items SET state = ?, fail_reason = ? WHERE id = ?`,
			types.StateCorrupt, "payload decode failed", id); err != nil {
			s.logger.Error("failed to quarantine queue item", "id", id.String(), "error", err.Error())
		}
	}

	return items, nil
}
