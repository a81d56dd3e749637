package netop

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/akashmir/harvesh-app-sub004/monitor"
	"github.com/akashmir/harvesh-app-sub004/policy"
	"github.com/akashmir/harvesh-app-sub004/queue"
	"github.com/akashmir/harvesh-app-sub004/types"
)

// recordingServer wraps httptest.Server and records requests.
type recordingServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []*http.Request
	bodies   [][]byte
	status   atomic.Int32
	failures atomic.Int32 // number of leading requests to fail
}

func newRecordingServer(t *testing.T) *recordingServer {
	rs := &recordingServer{}
	rs.status.Store(200)
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rs.mu.Lock()
		rs.requests = append(rs.requests, r.Clone(context.Background()))
		rs.bodies = append(rs.bodies, body)
		count := len(rs.requests)
		rs.mu.Unlock()

		if int32(count) <= rs.failures.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(int(rs.status.Load()))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(rs.Close)
	return rs
}

func (rs *recordingServer) count() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return len(rs.requests)
}

func (rs *recordingServer) request(i int) *http.Request {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.requests[i]
}

func newTestClient(t *testing.T, rs *recordingServer, conn ConnectivitySource, opts ...Option) *Client {
	base := []Option{
		WithBaseURL(rs.URL),
		WithConnectivity(conn),
		WithRetryPolicy(policy.RetryPolicy{
			MaxAttempts: 3,
			BaseDelay:   time.Millisecond,
			Multiplier:  2,
			MaxDelay:    5 * time.Millisecond,
		}),
	}
	client, err := NewClient(DefaultConfig(), append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestClientGetSuccess(t *testing.T) {
	rs := newRecordingServer(t)
	client := newTestClient(t, rs, monitor.NewManual(types.Online))

	resp, err := client.Get(context.Background(), "/fields")
	require.NoError(t, err)
	require.Equal(t, 200, resp.Status)
	require.JSONEq(t, `{"ok":true}`, string(resp.Body))
	require.Equal(t, 1, rs.count())
	require.Equal(t, "/fields", rs.request(0).URL.Path)
}

func TestClientRetriesServerErrors(t *testing.T) {
	rs := newRecordingServer(t)
	rs.failures.Store(2)
	client := newTestClient(t, rs, monitor.NewManual(types.Online))

	resp, err := client.Get(context.Background(), "/weather/today")
	require.NoError(t, err)
	require.Equal(t, 200, resp.Status)
	require.Equal(t, 3, rs.count())
}

func TestClientPostSetsIdempotencyKey(t *testing.T) {
	rs := newRecordingServer(t)
	client := newTestClient(t, rs, monitor.NewManual(types.Online))

	_, err := client.Post(context.Background(), "/harvest-logs", []byte(`{"crop":"wheat"}`))
	require.NoError(t, err)

	got := rs.request(0)
	require.NotEmpty(t, got.Header.Get("Idempotency-Key"))
	require.Equal(t, "application/json", got.Header.Get("Content-Type"))
}

func TestClientGetHasNoIdempotencyKey(t *testing.T) {
	rs := newRecordingServer(t)
	client := newTestClient(t, rs, monitor.NewManual(types.Online))

	_, err := client.Get(context.Background(), "/fields")
	require.NoError(t, err)
	require.Empty(t, rs.request(0).Header.Get("Idempotency-Key"))
}

func TestClientOfflineWriteIsQueued(t *testing.T) {
	rs := newRecordingServer(t)
	client := newTestClient(t, rs, monitor.NewManual(types.Offline))

	resp, err := client.Post(context.Background(), "/harvest-logs", []byte(`{"crop":"maize"}`))
	require.NoError(t, err)
	require.True(t, resp.Queued)
	require.NotEmpty(t, resp.QueueItemID)
	require.Zero(t, rs.count())

	n, err := client.PendingCount(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestClientOfflineReadFailsFast(t *testing.T) {
	rs := newRecordingServer(t)
	client := newTestClient(t, rs, monitor.NewManual(types.Offline))

	start := time.Now()
	_, err := client.Get(context.Background(), "/fields")
	require.Error(t, err)
	require.Less(t, time.Since(start), time.Second)
	require.Zero(t, rs.count())

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, types.KindNoInternet, appErr.Kind)
	// Same contract as the classifier: noInternet is always retryable.
	require.True(t, appErr.Retryable)
}

func TestClientMidFlightFallbackToQueue(t *testing.T) {
	// Monitor still says online, but the backend is gone: the connection
	// refusal itself must trigger the queue fallback.
	rs := newRecordingServer(t)
	rs.Close()
	client := newTestClient(t, rs, monitor.NewManual(types.Online))

	resp, err := client.Post(context.Background(), "/harvest-logs", []byte(`{"crop":"rice"}`))
	require.NoError(t, err)
	require.True(t, resp.Queued)

	n, err := client.PendingCount(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestClientMidFlightReadFailureIsNotQueued(t *testing.T) {
	rs := newRecordingServer(t)
	rs.Close()
	client := newTestClient(t, rs, monitor.NewManual(types.Online))

	_, err := client.Get(context.Background(), "/fields")
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, types.KindNoInternet, appErr.Kind)

	n, err := client.PendingCount(context.Background())
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestClientDrainsQueueOnReconnect(t *testing.T) {
	rs := newRecordingServer(t)
	conn := monitor.NewManual(types.Offline)
	client := newTestClient(t, rs, conn)

	_, err := client.Post(context.Background(), "/harvest-logs", []byte(`{"crop":"wheat"}`))
	require.NoError(t, err)
	_, err = client.Post(context.Background(), "/harvest-logs", []byte(`{"crop":"maize"}`))
	require.NoError(t, err)

	conn.SetState(types.Online)

	require.Eventually(t, func() bool {
		n, err := client.PendingCount(context.Background())
		return err == nil && n == 0
	}, 5*time.Second, 10*time.Millisecond)

	require.Equal(t, 2, rs.count())
	require.NotEmpty(t, rs.request(0).Header.Get("Idempotency-Key"))

	last, err := client.LastSyncAt(context.Background())
	require.NoError(t, err)
	require.False(t, last.IsZero())
}

func TestClientSyncOfflineData(t *testing.T) {
	rs := newRecordingServer(t)
	store := queue.NewMemoryStore()
	client := newTestClient(t, rs, monitor.NewManual(types.Online), WithStore(store))

	// Left over from a previous offline session.
	_, err := store.Enqueue(context.Background(), types.Request{
		Method: http.MethodPost,
		Path:   "/harvest-logs",
		Body:   []byte(`{"crop":"wheat"}`),
	})
	require.NoError(t, err)

	require.NoError(t, client.SyncOfflineData(context.Background()))

	n, err := client.PendingCount(context.Background())
	require.NoError(t, err)
	require.Zero(t, n)
	require.Equal(t, 1, rs.count())
}

func TestClientDeadLetterRequeue(t *testing.T) {
	rs := newRecordingServer(t)
	rs.status.Store(422) // permanent validation failure
	store := queue.NewMemoryStore()
	client := newTestClient(t, rs, monitor.NewManual(types.Online), WithStore(store))

	id, err := store.Enqueue(context.Background(), types.Request{
		Method: http.MethodPost,
		Path:   "/harvest-logs",
		Body:   []byte(`{"crop":""}`),
	})
	require.NoError(t, err)

	require.NoError(t, client.SyncOfflineData(context.Background()))

	dead, err := client.DeadLetters(context.Background())
	require.NoError(t, err)
	require.Len(t, dead, 1)
	require.Equal(t, id, dead[0].ID)
	require.NotEmpty(t, dead[0].FailReason)

	rs.status.Store(200)
	require.NoError(t, client.RequeueDeadLetter(context.Background(), dead[0].ID))
	require.NoError(t, client.SyncOfflineData(context.Background()))

	dead, err = client.DeadLetters(context.Background())
	require.NoError(t, err)
	require.Empty(t, dead)
}

func TestClientServiceRouting(t *testing.T) {
	api := newRecordingServer(t)
	weather := newRecordingServer(t)
	client := newTestClient(t, api, monitor.NewManual(types.Online),
		WithServiceURL("weather", weather.URL))

	_, err := client.Get(context.Background(), "/forecast", WithService("weather"))
	require.NoError(t, err)
	require.Zero(t, api.count())
	require.Equal(t, 1, weather.count())
}

func TestClientMissingBaseURL(t *testing.T) {
	client, err := NewClient(DefaultConfig(),
		WithConnectivity(monitor.NewManual(types.Online)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	_, err = client.Get(context.Background(), "/fields")
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, types.KindConfiguration, appErr.Kind)
}

func TestClientCustomHeaders(t *testing.T) {
	rs := newRecordingServer(t)
	client := newTestClient(t, rs, monitor.NewManual(types.Online))

	_, err := client.Get(context.Background(), "/fields",
		WithHeader("Authorization", "Bearer token123"))
	require.NoError(t, err)
	require.Equal(t, "Bearer token123", rs.request(0).Header.Get("Authorization"))
}

func TestClientCloseInterruptsDrain(t *testing.T) {
	// The backend keeps failing with 503, so the reconnect drain sits in
	// long backoff sleeps. Close must cut the drain short instead of
	// waiting out the retry budget, leaving the item pending.
	rs := newRecordingServer(t)
	rs.failures.Store(1 << 30)
	store := queue.NewMemoryStore()
	conn := monitor.NewManual(types.Offline)

	client, err := NewClient(DefaultConfig(),
		WithBaseURL(rs.URL),
		WithStore(store),
		WithConnectivity(conn),
		WithRetryPolicy(policy.RetryPolicy{
			MaxAttempts: 3,
			BaseDelay:   time.Minute,
			Multiplier:  2,
			MaxDelay:    time.Minute,
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	resp, err := client.Post(context.Background(), "/harvest-logs", []byte(`{}`))
	require.NoError(t, err)
	require.True(t, resp.Queued)

	conn.SetState(types.Online)

	// Wait until the drain has made its first attempt and entered backoff.
	require.Eventually(t, func() bool {
		return rs.count() >= 1
	}, 5*time.Second, 10*time.Millisecond)

	start := time.Now()
	require.NoError(t, client.Close())
	require.Less(t, time.Since(start), 5*time.Second)

	// The interrupted item went back to pending for the next session.
	pending, err := store.Pending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, types.StatePending, pending[0].State)
}

func TestClientClosedRejectsRequests(t *testing.T) {
	rs := newRecordingServer(t)
	client := newTestClient(t, rs, monitor.NewManual(types.Online))

	require.NoError(t, client.Close())
	require.NoError(t, client.Close()) // idempotent

	_, err := client.Get(context.Background(), "/fields")
	require.ErrorIs(t, err, types.ErrClientClosed)
	require.ErrorIs(t, client.SyncOfflineData(context.Background()), types.ErrClientClosed)
}

func TestClientInjectedStoreSurvivesClose(t *testing.T) {
	rs := newRecordingServer(t)
	store := queue.NewMemoryStore()
	client := newTestClient(t, rs, monitor.NewManual(types.Offline), WithStore(store))

	_, err := client.Post(context.Background(), "/harvest-logs", []byte(`{}`))
	require.NoError(t, err)
	require.NoError(t, client.Close())

	// The injected store is still usable after the client is gone.
	n, err := store.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestClientSaveForOfflineSyncOptOut(t *testing.T) {
	rs := newRecordingServer(t)
	client := newTestClient(t, rs, monitor.NewManual(types.Offline))

	_, err := client.Post(context.Background(), "/harvest-logs", []byte(`{}`),
		WithSaveForOfflineSync(false))
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, types.KindNoInternet, appErr.Kind)
}
