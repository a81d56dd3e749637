package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/akashmir/harvesh-app-sub004/policy"
	"github.com/akashmir/harvesh-app-sub004/types"
)

// fastPolicy keeps coordinator tests quick.
func fastPolicy() policy.RetryPolicy {
	return policy.RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		Multiplier:  2,
		MaxDelay:    10 * time.Millisecond,
	}
}

func TestCoordinatorDrainsInFIFOOrder(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	for _, p := range []string{"/a", "/b", "/c", "/d", "/e"} {
		_, err := store.Enqueue(ctx, testRequest(p))
		require.NoError(t, err)
	}

	var mu sync.Mutex
	var delivered []string
	coord := NewCoordinator(store, func(_ context.Context, item types.QueuedItem) error {
		mu.Lock()
		delivered = append(delivered, item.Request.Path)
		mu.Unlock()
		return nil
	}, WithRetryPolicy(fastPolicy()))

	require.NoError(t, coord.Drain(ctx))
	require.Equal(t, []string{"/a", "/b", "/c", "/d", "/e"}, delivered)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestCoordinatorRetriesThenSucceeds(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	_, err := store.Enqueue(ctx, testRequest("/a"))
	require.NoError(t, err)
	_, err = store.Enqueue(ctx, testRequest("/b"))
	require.NoError(t, err)

	// Item A fails its first two attempts then succeeds; B succeeds at once.
	// A must be fully resolved before B begins draining.
	var order []string
	attemptsByPath := map[string]int{}
	var resolvedA, aResolvedBeforeB bool

	coord := NewCoordinator(store, func(_ context.Context, item types.QueuedItem) error {
		p := item.Request.Path
		attemptsByPath[p]++
		order = append(order, p)
		if p == "/b" {
			aResolvedBeforeB = resolvedA
			return nil
		}
		if attemptsByPath[p] < 3 {
			return types.NewAppError(types.KindServerError, "unavailable", true)
		}
		resolvedA = true
		return nil
	}, WithRetryPolicy(fastPolicy()))

	require.NoError(t, coord.Drain(ctx))

	require.Equal(t, []string{"/a", "/a", "/a", "/b"}, order)
	require.Equal(t, 3, attemptsByPath["/a"])
	require.Equal(t, 1, attemptsByPath["/b"])
	require.True(t, aResolvedBeforeB)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestCoordinatorPoisonItemDoesNotStallQueue(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	_, err := store.Enqueue(ctx, testRequest("/poison"))
	require.NoError(t, err)
	_, err = store.Enqueue(ctx, testRequest("/healthy"))
	require.NoError(t, err)

	var failedItems []types.QueuedItem
	coord := NewCoordinator(store, func(_ context.Context, item types.QueuedItem) error {
		if item.Request.Path == "/poison" {
			return types.NewAppError(types.KindServerError, "always fails", true)
		}
		return nil
	},
		WithRetryPolicy(fastPolicy()),
		WithOnItemFailed(func(item types.QueuedItem, _ *types.AppError) {
			failedItems = append(failedItems, item)
		}),
	)

	require.NoError(t, coord.Drain(ctx))

	// The poison item burned its own budget and was dead-lettered; the
	// later item still drained.
	require.Len(t, failedItems, 1)
	require.Equal(t, "/poison", failedItems[0].Request.Path)

	dead, err := store.DeadLetters(ctx)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	require.Equal(t, 3, dead[0].Attempts)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestCoordinatorNonRetryableFailsImmediately(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	_, err := store.Enqueue(ctx, testRequest("/a"))
	require.NoError(t, err)

	calls := 0
	coord := NewCoordinator(store, func(_ context.Context, _ types.QueuedItem) error {
		calls++
		return types.NewAppError(types.KindValidation, "bad payload", false)
	}, WithRetryPolicy(fastPolicy()))

	require.NoError(t, coord.Drain(ctx))
	require.Equal(t, 1, calls)

	dead, err := store.DeadLetters(ctx)
	require.NoError(t, err)
	require.Len(t, dead, 1)
}

func TestCoordinatorStopsWhenConnectivityDrops(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	for _, p := range []string{"/a", "/b", "/c"} {
		_, err := store.Enqueue(ctx, testRequest(p))
		require.NoError(t, err)
	}

	state := types.Online
	delivered := 0
	coord := NewCoordinator(store, func(_ context.Context, _ types.QueuedItem) error {
		delivered++
		state = types.Offline // link drops after the first delivery
		return nil
	},
		WithRetryPolicy(fastPolicy()),
		WithStateFunc(func() types.ConnectivityState { return state }),
	)

	require.NoError(t, coord.Drain(ctx))
	require.Equal(t, 1, delivered)

	// Remaining items stay pending for the next online transition.
	n, err := store.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestCoordinatorNoInternetLeavesItemPending(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	_, err := store.Enqueue(ctx, testRequest("/a"))
	require.NoError(t, err)

	coord := NewCoordinator(store, func(_ context.Context, _ types.QueuedItem) error {
		return types.NewAppError(types.KindNoInternet, "unreachable", true)
	}, WithRetryPolicy(fastPolicy()))

	require.NoError(t, coord.Drain(ctx))

	items, err := store.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	// The consumed attempt is kept so the budget stays bounded across drains.
	require.Equal(t, 1, items[0].Attempts)
}

func TestCoordinatorEmptyDrainIsNoOp(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	coord := NewCoordinator(store, func(_ context.Context, _ types.QueuedItem) error {
		t.Fatal("deliver must not be called for an empty queue")
		return nil
	}, WithRetryPolicy(fastPolicy()))

	require.NoError(t, coord.Drain(ctx))

	at, err := store.LastSyncAt(ctx)
	require.NoError(t, err)
	require.True(t, at.IsZero())
}

func TestCoordinatorSingleFlightCoalescesDrains(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	_, err := store.Enqueue(ctx, testRequest("/a"))
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	var delivered []string

	coord := NewCoordinator(store, func(_ context.Context, item types.QueuedItem) error {
		mu.Lock()
		delivered = append(delivered, item.Request.Path)
		first := len(delivered) == 1
		mu.Unlock()
		if first {
			close(started)
			<-release
		}
		return nil
	}, WithRetryPolicy(fastPolicy()))

	done := make(chan error, 1)
	go func() { done <- coord.Drain(ctx) }()

	<-started
	require.True(t, coord.Draining())

	// Enqueue another item and trigger a second drain mid-pass: it must
	// coalesce, not run concurrently.
	_, err = store.Enqueue(ctx, testRequest("/b"))
	require.NoError(t, err)
	require.ErrorIs(t, coord.Drain(ctx), types.ErrDrainActive)

	close(release)
	require.NoError(t, <-done)

	// The coalesced redrain delivered the second item.
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"/a", "/b"}, delivered)
}

func TestCoordinatorRecordsLastSync(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	_, err := store.Enqueue(ctx, testRequest("/a"))
	require.NoError(t, err)

	coord := NewCoordinator(store, func(_ context.Context, _ types.QueuedItem) error {
		return nil
	}, WithRetryPolicy(fastPolicy()))

	require.NoError(t, coord.Drain(ctx))

	at, err := store.LastSyncAt(ctx)
	require.NoError(t, err)
	require.False(t, at.IsZero())
}

func TestCoordinatorContextCancellation(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	for _, p := range []string{"/a", "/b"} {
		_, err := store.Enqueue(context.Background(), testRequest(p))
		require.NoError(t, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	coord := NewCoordinator(store, func(_ context.Context, _ types.QueuedItem) error {
		cancel()
		return errors.New("transport torn down")
	}, WithRetryPolicy(fastPolicy()))

	require.NoError(t, coord.Drain(ctx))

	// Both items remain pending: drain stopped without dead-lettering.
	n, err := store.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, n)
}
