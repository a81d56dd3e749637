// Package monitor provides connectivity monitoring for the netop library.
package monitor

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akashmir/harvesh-app-sub004/internal/logging"
	"github.com/akashmir/harvesh-app-sub004/internal/metrics"
	"github.com/akashmir/harvesh-app-sub004/policy"
	"github.com/akashmir/harvesh-app-sub004/types"
)

// ProbeFunc checks whether the backend is reachable.
// It returns nil when reachable and an error otherwise.
type ProbeFunc func(ctx context.Context) error

// DialProbe returns a probe that attempts a TCP connection to addr.
//
// This is the default reachability primitive: a successful dial to the
// API host is the closest a client can get to "the backend is reachable"
// without issuing a real request.
//
// Parameters:
//   - addr: host:port to dial (e.g. "api.example.com:443")
//   - timeout: Per-probe dial timeout
//
// Returns:
//   - ProbeFunc: The probe function
func DialProbe(addr string, timeout time.Duration) ProbeFunc {
	dialer := &net.Dialer{Timeout: timeout}
	return func(ctx context.Context) error {
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return err
		}
		return conn.Close()
	}
}

// Config configures a Monitor.
type Config struct {
	// Interval is the pause between probes while online.
	// Default: 5s
	Interval time.Duration

	// OfflineInterval is the pause between probes while offline, kept
	// shorter so reconnection is noticed quickly.
	// Default: 2s
	OfflineInterval time.Duration

	// Dwell is how long a raw state change must persist before it is
	// published. Enforced by wall clock, so it holds at any probe
	// interval.
	// Default: 1500ms
	Dwell time.Duration

	// ProbeTimeout bounds each probe.
	// Default: 3s
	ProbeTimeout time.Duration

	// Logger is the structured logger for state transitions.
	// If nil, no logs are emitted.
	Logger types.Logger

	// Metrics is the metrics collector for the connectivity gauge.
	// If nil, no metrics are recorded.
	Metrics types.MetricsCollector
}

// DefaultConfig returns the default monitor configuration.
func DefaultConfig() Config {
	return Config{
		Interval:        5 * time.Second,
		OfflineInterval: 2 * time.Second,
		Dwell:           1500 * time.Millisecond,
		ProbeTimeout:    3 * time.Second,
	}
}

// Option configures a Monitor.
type Option func(*Config)

// WithInterval sets the probe interval while online.
func WithInterval(d time.Duration) Option {
	return func(c *Config) {
		c.Interval = d
	}
}

// WithOfflineInterval sets the probe interval while offline.
func WithOfflineInterval(d time.Duration) Option {
	return func(c *Config) {
		c.OfflineInterval = d
	}
}

// WithDwell sets the minimum time a raw state change must persist
// before being published.
func WithDwell(d time.Duration) Option {
	return func(c *Config) {
		c.Dwell = d
	}
}

// WithProbeTimeout sets the per-probe timeout.
func WithProbeTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.ProbeTimeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(l types.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m types.MetricsCollector) Option {
	return func(c *Config) {
		c.Metrics = m
	}
}

// Monitor observes backend reachability and publishes debounced
// online/offline transitions.
//
// A single probe loop drives the monitor. Raw probe results pass through
// a flap guard so a state must persist for the configured dwell time
// before subscribers see it; a flapping link therefore cannot trigger a
// drain per blip.
//
// Subscribers receive transitions on buffered channels. Delivery is
// non-blocking: a slow subscriber misses intermediate flips rather than
// stalling the monitor.
type Monitor struct {
	config Config
	probe  ProbeFunc
	state  atomic.Int32

	mu   sync.Mutex
	subs map[chan types.ConnectivityState]struct{}

	stopCh  chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
}

// New creates a connectivity monitor over the given probe.
//
// The monitor starts in the Offline state and does not probe until
// Start is called.
//
// Parameters:
//   - probe: The reachability probe
//   - opts: Optional configuration options
//
// Returns:
//   - *Monitor: A new monitor
func New(probe ProbeFunc, opts ...Option) *Monitor {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	// Ensure logger is never nil
	if config.Logger == nil {
		config.Logger = logging.NewNopLogger()
	}

	// Ensure metrics is never nil
	if config.Metrics == nil {
		config.Metrics = metrics.NewNopMetrics()
	}

	return &Monitor{
		config: config,
		probe:  probe,
		subs:   make(map[chan types.ConnectivityState]struct{}),
		stopCh: make(chan struct{}),
	}
}

// Start launches the probe loop.
//
// Returns:
//   - error: nil, or an error if the monitor is already running
func (m *Monitor) Start() error {
	if !m.running.CompareAndSwap(false, true) {
		return errors.New("netop: monitor already running")
	}

	m.wg.Add(1)
	go m.loop()

	return nil
}

// Current returns the current published connectivity state.
//
// Returns:
//   - types.ConnectivityState: The debounced state
func (m *Monitor) Current() types.ConnectivityState {
	return types.ConnectivityState(m.state.Load())
}

// Subscribe registers a new subscriber channel.
//
// The channel is buffered; transitions are delivered non-blocking.
// Callers should Unsubscribe when done to release the channel.
//
// Returns:
//   - <-chan types.ConnectivityState: Channel of debounced transitions
func (m *Monitor) Subscribe() <-chan types.ConnectivityState {
	ch := make(chan types.ConnectivityState, 4)

	m.mu.Lock()
	m.subs[ch] = struct{}{}
	m.mu.Unlock()

	return ch
}

// Unsubscribe removes a subscriber channel registered via Subscribe.
func (m *Monitor) Unsubscribe(ch <-chan types.ConnectivityState) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for sub := range m.subs {
		if sub == ch {
			delete(m.subs, sub)
			close(sub)
			return
		}
	}
}

// Stop halts the probe loop and closes all subscriber channels.
//
// Stop is safe to call multiple times.
func (m *Monitor) Stop() {
	if !m.running.CompareAndSwap(true, false) {
		return
	}

	close(m.stopCh)
	m.wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()
	for sub := range m.subs {
		close(sub)
	}
	m.subs = make(map[chan types.ConnectivityState]struct{})
}

// loop is the probe loop. It runs until Stop is called.
func (m *Monitor) loop() {
	defer m.wg.Done()

	interval := m.config.OfflineInterval
	guard := policy.NewFlapGuard(m.config.Dwell, types.Offline)

	for {
		state := m.probeOnce()
		published, changed := guard.Observe(state, time.Now())
		if changed {
			m.publish(published)
		}

		if published == types.Online {
			interval = m.config.Interval
		} else {
			interval = m.config.OfflineInterval
		}

		select {
		case <-m.stopCh:
			return
		case <-time.After(interval):
		}
	}
}

// probeOnce runs a single bounded probe.
func (m *Monitor) probeOnce() types.ConnectivityState {
	ctx, cancel := context.WithTimeout(context.Background(), m.config.ProbeTimeout)
	defer cancel()

	if err := m.probe(ctx); err != nil {
		return types.Offline
	}
	return types.Online
}

// publish records and fans a transition out to subscribers.
func (m *Monitor) publish(state types.ConnectivityState) {
	m.state.Store(int32(state))
	m.config.Metrics.SetConnectivityState(state)
	m.config.Logger.Info("connectivity changed", "state", state.String())

	m.mu.Lock()
	defer m.mu.Unlock()
	for sub := range m.subs {
		select {
		case sub <- state:
		default:
			// Subscriber is slow; it will observe Current() anyway.
		}
	}
}
