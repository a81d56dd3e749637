package netop

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/akashmir/harvesh-app-sub004/monitor"
	"github.com/akashmir/harvesh-app-sub004/policy"
	"github.com/akashmir/harvesh-app-sub004/queue"
	"github.com/akashmir/harvesh-app-sub004/types"
)

// Client is the single entry point for all network operations.
//
// It executes requests with automatic classification and retry, falls
// back to the offline queue when connectivity is lost, and drains the
// queue when connectivity returns. All methods are safe for concurrent
// use.
type Client struct {
	config      *ClientConfig
	transport   Transport
	executor    *Executor
	store       queue.Store
	coordinator *queue.Coordinator
	conn        ConnectivitySource

	// ownsStore and ownsConn record whether Close should tear the
	// respective component down. Injected components stay with the
	// caller.
	ownsStore bool
	ownsConn  bool

	connCh <-chan types.ConnectivityState
	stopCh chan struct{}
	wg     sync.WaitGroup
	closed atomic.Bool

	// drainCtx bounds background drains to the client's lifetime so
	// Close never waits out a backoff sleep; cancelled items go back to
	// pending.
	drainCtx    context.Context
	drainCancel context.CancelFunc
}

// NewClient creates a network operation client.
//
// Without options the client uses an in-memory queue store and a TCP
// dial probe against the default service's host for connectivity.
// Production callers pass a durable store via WithStore and, on
// platforms with a native reachability signal, a monitor.Manual via
// WithConnectivity.
//
// Parameters:
//   - config: Base configuration, usually DefaultConfig or
//     ConfigFromEnv; nil means DefaultConfig
//   - opts: Optional configuration options
//
// Returns:
//   - *Client: A new client
//   - error: Configuration or store failure
func NewClient(config *ClientConfig, opts ...Option) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	for _, opt := range opts {
		opt(config)
	}
	if config.Logger == nil {
		config.Logger = DefaultConfig().Logger
	}
	if config.Metrics == nil {
		config.Metrics = DefaultConfig().Metrics
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{}
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	config.RetryPolicy = config.RetryPolicy.Normalize()

	c := &Client{
		config: config,
		stopCh: make(chan struct{}),
	}
	c.drainCtx, c.drainCancel = context.WithCancel(context.Background())

	c.transport = &httpTransport{
		client:         config.HTTPClient,
		baseURLs:       config.BaseURLs,
		defaultService: config.DefaultService,
		defaultTimeout: config.Timeout,
	}
	c.executor = NewExecutor(c.transport, config.RetryPolicy, config.Metrics, config.Logger)

	c.store = config.Store
	if c.store == nil {
		c.store = queue.NewMemoryStore()
		c.ownsStore = true
	}

	c.conn = config.Connectivity
	if c.conn == nil {
		probe := monitor.DialProbe(probeAddr(config.BaseURLs[config.DefaultService]), 3*time.Second)
		m := monitor.New(probe,
			monitor.WithLogger(config.Logger),
			monitor.WithMetrics(config.Metrics),
		)
		if err := m.Start(); err != nil {
			return nil, err
		}
		c.conn = m
		c.ownsConn = true
	}

	c.coordinator = queue.NewCoordinator(c.store, c.deliverQueued,
		queue.WithRetryPolicy(config.RetryPolicy),
		queue.WithStateFunc(c.conn.Current),
		queue.WithCoordinatorMetrics(config.Metrics),
		queue.WithCoordinatorLogger(config.Logger),
	)

	c.connCh = c.conn.Subscribe()
	c.wg.Add(1)
	go c.watchConnectivity()

	return c, nil
}

// probeAddr derives a host:port dial target from a base URL. An empty
// or unparseable URL falls back to a well-known public endpoint so the
// probe still measures general reachability.
func probeAddr(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return "1.1.1.1:443"
	}
	if u.Port() != "" {
		return u.Host
	}
	if u.Scheme == "http" {
		return u.Host + ":80"
	}
	return u.Host + ":443"
}

// watchConnectivity triggers a queue drain on each offline-to-online
// transition.
func (c *Client) watchConnectivity() {
	defer c.wg.Done()

	for {
		select {
		case <-c.stopCh:
			return
		case state, ok := <-c.connCh:
			if !ok {
				return
			}
			if state != types.Online {
				continue
			}
			c.config.Logger.Info("connectivity restored, draining offline queue")
			c.wg.Add(1)
			go func() {
				defer c.wg.Done()
				if err := c.coordinator.Drain(c.drainCtx); err != nil && err != types.ErrDrainActive {
					c.config.Logger.Error("offline queue drain failed", "error", err.Error())
				}
			}()
		}
	}
}

// deliverQueued performs one delivery attempt for a queued item.
func (c *Client) deliverQueued(ctx context.Context, item types.QueuedItem) error {
	_, err := c.transport.RoundTrip(ctx, item.Request)
	return err
}

// RequestOption configures a single request.
type RequestOption func(*requestOptions)

type requestOptions struct {
	service        string
	headers        map[string]string
	timeout        time.Duration
	idempotencyKey string
	saveForOffline *bool
	retryPolicy    *policy.RetryPolicy
}

// WithService routes the request to a named backend service instead of
// the default one.
func WithService(service string) RequestOption {
	return func(o *requestOptions) {
		o.service = service
	}
}

// WithHeader adds a header to the request.
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string)
		}
		o.headers[key] = value
	}
}

// WithRequestTimeout overrides the per-attempt timeout for this request.
func WithRequestTimeout(d time.Duration) RequestOption {
	return func(o *requestOptions) {
		o.timeout = d
	}
}

// WithIdempotencyKey sets an explicit idempotency key. Mutating
// requests without one get a generated UUID so replays after a crash
// stay safe to deliver twice.
func WithIdempotencyKey(key string) RequestOption {
	return func(o *requestOptions) {
		o.idempotencyKey = key
	}
}

// WithSaveForOfflineSync controls whether the request is queued for
// later delivery when it cannot reach the backend. Defaults to true for
// mutating requests and false for reads.
func WithSaveForOfflineSync(save bool) RequestOption {
	return func(o *requestOptions) {
		o.saveForOffline = &save
	}
}

// WithRequestRetryPolicy overrides the retry policy for this request.
func WithRequestRetryPolicy(p policy.RetryPolicy) RequestOption {
	return func(o *requestOptions) {
		p = p.Normalize()
		o.retryPolicy = &p
	}
}

// Get performs a GET request.
//
// Parameters:
//   - ctx: Context for cancellation
//   - path: Request path relative to the service base URL
//   - opts: Optional per-request options
//
// Returns:
//   - *Response: The response
//   - error: A classified *types.AppError on failure
func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, nil, opts...)
}

// Post performs a POST request. When the backend is unreachable the
// request is queued for offline sync and the response has Queued set.
func (c *Client) Post(ctx context.Context, path string, body []byte, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, body, opts...)
}

// Put performs a PUT request with the same offline fallback as Post.
func (c *Client) Put(ctx context.Context, path string, body []byte, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodPut, path, body, opts...)
}

// Delete performs a DELETE request with the same offline fallback as
// Post.
func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodDelete, path, nil, opts...)
}

// Do executes an arbitrary request built by the caller.
func (c *Client) Do(ctx context.Context, req types.Request, opts ...RequestOption) (*Response, error) {
	return c.execute(ctx, c.prepare(req, opts...), c.config.RetryPolicy, opts...)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, opts ...RequestOption) (*Response, error) {
	req := types.Request{
		Method: method,
		Path:   path,
		Body:   body,
	}
	return c.execute(ctx, c.prepare(req, opts...), c.config.RetryPolicy, opts...)
}

// prepare applies per-request options and fills request defaults.
func (c *Client) prepare(req types.Request, opts ...RequestOption) types.Request {
	var o requestOptions
	for _, opt := range opts {
		opt(&o)
	}

	if o.service != "" {
		req.Service = o.service
	}
	if req.Service == "" {
		req.Service = c.config.DefaultService
	}
	if o.timeout > 0 {
		req.Timeout = o.timeout
	}
	if req.Timeout <= 0 {
		req.Timeout = c.config.Timeout
	}
	if len(o.headers) > 0 {
		if req.Headers == nil {
			req.Headers = make(map[string]string, len(o.headers))
		}
		for k, v := range o.headers {
			req.Headers[k] = v
		}
	}
	if o.idempotencyKey != "" {
		req.IdempotencyKey = o.idempotencyKey
	}
	if req.IdempotencyKey == "" && req.Mutating() {
		req.IdempotencyKey = uuid.NewString()
	}
	if o.saveForOffline != nil {
		req.SaveForOfflineSync = *o.saveForOffline
	} else {
		req.SaveForOfflineSync = req.Mutating()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	return req
}

// execute runs a prepared request through the offline-aware pipeline.
func (c *Client) execute(ctx context.Context, req types.Request, defaultPolicy policy.RetryPolicy, opts ...RequestOption) (*Response, error) {
	if c.closed.Load() {
		return nil, types.ErrClientClosed
	}

	c.config.Metrics.IncRequestTotal(req.Method)

	p := defaultPolicy
	var o requestOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.retryPolicy != nil {
		p = *o.retryPolicy
	}

	// Known-offline fast path: queue writes, fail reads immediately
	// instead of burning the retry budget on attempts that cannot
	// succeed.
	if c.conn.Current() == types.Offline {
		if req.SaveForOfflineSync {
			return c.enqueue(ctx, req)
		}
		return nil, &types.AppError{
			Kind:      types.KindNoInternet,
			Message:   "no internet connection",
			Code:      "offline",
			Retryable: true,
		}
	}

	resp, err := c.executor.DoWithAttempt(ctx, req, 1, p)
	if err == nil {
		return resp, nil
	}

	// Connectivity vanished mid-flight. The monitor has not debounced
	// the transition yet, but the failure itself is proof enough to
	// fall back to the queue.
	if isNoInternet(err) && req.SaveForOfflineSync {
		return c.enqueue(ctx, req)
	}
	return nil, err
}

// enqueue saves a request for later delivery and reports it as queued.
func (c *Client) enqueue(ctx context.Context, req types.Request) (*Response, error) {
	id, err := c.store.Enqueue(ctx, req)
	if err != nil {
		return nil, &types.AppError{
			Kind:    types.KindUnknown,
			Message: "failed to queue request for offline sync",
			Code:    "enqueue_failed",
			Cause:   err,
		}
	}

	c.config.Metrics.IncQueueEnqueued()
	if n, err := c.store.Count(ctx); err == nil {
		c.config.Metrics.SetQueueDepth(n)
	}
	c.config.Logger.Info("request queued for offline sync",
		"method", req.Method,
		"path", req.Path,
		"id", string(id),
	)

	return &Response{Queued: true, QueueItemID: id}, nil
}

// SyncOfflineData drains the offline queue now instead of waiting for
// the next online transition, for pull-to-refresh style triggers.
//
// Parameters:
//   - ctx: Context for cancellation
//
// Returns:
//   - error: types.ErrDrainActive when a drain is already running and
//     this call was coalesced into it, nil on a completed drain
func (c *Client) SyncOfflineData(ctx context.Context) error {
	if c.closed.Load() {
		return types.ErrClientClosed
	}
	return c.coordinator.Drain(ctx)
}

// PendingCount returns the number of items waiting in the offline
// queue, dead letters excluded.
func (c *Client) PendingCount(ctx context.Context) (int, error) {
	return c.store.Count(ctx)
}

// LastSyncAt returns the time of the last drain that delivered at least
// one item, zero if no sync has completed yet.
func (c *Client) LastSyncAt(ctx context.Context) (time.Time, error) {
	return c.store.LastSyncAt(ctx)
}

// DeadLetters returns queued items that permanently failed delivery.
func (c *Client) DeadLetters(ctx context.Context) ([]types.QueuedItem, error) {
	return c.store.DeadLetters(ctx)
}

// RequeueDeadLetter moves a dead-lettered item back into the pending
// queue with a fresh retry budget.
//
// Parameters:
//   - ctx: Context for cancellation
//   - id: The dead-lettered item's ID
//
// Returns:
//   - error: types.ErrItemNotFound when no dead letter has that ID
func (c *Client) RequeueDeadLetter(ctx context.Context, id types.QueueItemID) error {
	return c.store.RequeueDeadLetter(ctx, id)
}

// Connectivity returns the current debounced connectivity state.
func (c *Client) Connectivity() types.ConnectivityState {
	return c.conn.Current()
}

// Close shuts the client down. A background drain in progress is
// interrupted and its remaining items stay pending for the next
// session. Components injected by the caller (store via WithStore,
// connectivity via WithConnectivity) are left running; everything the
// client created itself is stopped.
//
// Returns:
//   - error: Store close failure
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	close(c.stopCh)
	c.drainCancel()
	c.conn.Unsubscribe(c.connCh)
	if c.ownsConn {
		c.conn.Stop()
	}
	c.wg.Wait()

	if c.ownsStore {
		return c.store.Close()
	}
	return nil
}
