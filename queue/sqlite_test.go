package queue

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/akashmir/harvesh-app-sub004/types"
)

func openTestStore(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "queue.db")
	store, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store, path
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	req := types.Request{
		Method:             "POST",
		Service:            "fields",
		Path:               "/fields/42/irrigation",
		Headers:            map[string]string{"Content-Type": "application/json"},
		Body:               []byte(`{"enabled":true}`),
		IdempotencyKey:     "11111111-2222-3333-4444-555555555555",
		SaveForOfflineSync: true,
		Timeout:            30 * time.Second,
		CreatedAt:          time.Now().UTC().Truncate(time.Microsecond),
	}

	id, err := store.Enqueue(ctx, req)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	items, err := store.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, req.Method, items[0].Request.Method)
	require.Equal(t, req.Service, items[0].Request.Service)
	require.Equal(t, req.Path, items[0].Request.Path)
	require.Equal(t, req.Headers, items[0].Request.Headers)
	require.Equal(t, req.Body, items[0].Request.Body)
	require.Equal(t, req.IdempotencyKey, items[0].Request.IdempotencyKey)
	require.True(t, items[0].Request.SaveForOfflineSync)
	require.Equal(t, req.Timeout, items[0].Request.Timeout)
	require.Equal(t, req.CreatedAt, items[0].Request.CreatedAt)
}

func TestSQLiteStoreSurvivesRestart(t *testing.T) {
	store, path := openTestStore(t)
	ctx := context.Background()

	paths := []string{"/a", "/b", "/c", "/d", "/e"}
	for _, p := range paths {
		_, err := store.Enqueue(ctx, testRequest(p))
		require.NoError(t, err)
	}
	require.NoError(t, store.Close())

	// Simulated process restart.
	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	items, err := reopened.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, items, 5)
	for i, p := range paths {
		require.Equal(t, p, items[i].Request.Path)
	}
}

func TestSQLiteStoreCrashRecoveryResetsInFlight(t *testing.T) {
	store, path := openTestStore(t)
	ctx := context.Background()

	id, err := store.Enqueue(ctx, testRequest("/a"))
	require.NoError(t, err)
	require.NoError(t, store.MarkInFlight(ctx, id))

	// In-flight items are invisible to Pending.
	items, err := store.Pending(ctx)
	require.NoError(t, err)
	require.Empty(t, items)

	// Simulated crash: Close without resolving the item.
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	items, err = reopened.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, types.StatePending, items[0].State)
}

func TestSQLiteStoreAttemptCountSurvivesRestart(t *testing.T) {
	store, path := openTestStore(t)
	ctx := context.Background()

	id, err := store.Enqueue(ctx, testRequest("/a"))
	require.NoError(t, err)
	require.NoError(t, store.RecordAttempt(ctx, id, 2))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	items, err := reopened.Pending(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, items[0].Attempts)
}

func TestSQLiteStoreQuarantinesCorruptPayload(t *testing.T) {
	store, path := openTestStore(t)
	ctx := context.Background()

	_, err := store.Enqueue(ctx, testRequest("/good"))
	require.NoError(t, err)
	badID, err := store.Enqueue(ctx, testRequest("/bad"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Corrupt one payload behind the store's back.
	db, err := sql.Open("sqlite", "file:"+path)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE queue_items SET payload = ? WHERE id = ?`, []byte{0xc1, 0xff, 0x00}, badID)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	// The corrupt row is quarantined, the good one still drains.
	items, err := reopened.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "/good", items[0].Request.Path)

	// Quarantined rows never reappear.
	items, err = reopened.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestSQLiteStoreDeadLetters(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	id, err := store.Enqueue(ctx, testRequest("/a"))
	require.NoError(t, err)
	require.NoError(t, store.MarkFailed(ctx, id, "server rejected"))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	dead, err := store.DeadLetters(ctx)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	require.Equal(t, "server rejected", dead[0].FailReason)

	require.NoError(t, store.RequeueDeadLetter(ctx, id))
	items, err := store.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Zero(t, items[0].Attempts)
}

func TestSQLiteStoreLastSyncAt(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	at, err := store.LastSyncAt(ctx)
	require.NoError(t, err)
	require.True(t, at.IsZero())

	now := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, store.SetLastSyncAt(ctx, now))

	at, err = store.LastSyncAt(ctx)
	require.NoError(t, err)
	require.Equal(t, now, at)
}

func TestSQLiteStoreClosed(t *testing.T) {
	store, _ := openTestStore(t)
	require.NoError(t, store.Close())

	_, err := store.Enqueue(context.Background(), testRequest("/a"))
	require.ErrorIs(t, err, types.ErrStoreClosed)
	require.NoError(t, store.Close())
}
