package netop

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/akashmir/harvesh-app-sub004/internal/logging"
	"github.com/akashmir/harvesh-app-sub004/internal/metrics"
	"github.com/akashmir/harvesh-app-sub004/policy"
	"github.com/akashmir/harvesh-app-sub004/queue"
	"github.com/akashmir/harvesh-app-sub004/types"
)

// DefaultTimeout is the default per-attempt network timeout.
const DefaultTimeout = 30 * time.Second

// ConnectivitySource observes backend reachability.
//
// monitor.Monitor is the probing implementation; monitor.Manual is the
// programmatic one for tests and demos.
type ConnectivitySource interface {
	// Current returns the current debounced state.
	Current() types.ConnectivityState

	// Subscribe returns a channel of debounced transitions.
	Subscribe() <-chan types.ConnectivityState

	// Unsubscribe removes a channel registered via Subscribe.
	Unsubscribe(ch <-chan types.ConnectivityState)

	// Stop halts the source and closes subscriber channels.
	Stop()
}

// ClientConfig holds configuration for the netop client.
//
// Build it once at process start via DefaultConfig or ConfigFromEnv,
// adjust it with options passed to NewClient, and leave it alone
// afterwards; the client does not observe later mutations.
type ClientConfig struct {
	// BaseURLs maps service names to backend base URLs.
	BaseURLs map[string]string

	// DefaultService is the service used when a request names none.
	DefaultService string

	// Timeout is the default per-attempt network timeout.
	Timeout time.Duration

	// RetryPolicy is the default retry policy for all requests.
	RetryPolicy policy.RetryPolicy

	// Store is the offline queue store. Defaults to a MemoryStore;
	// use queue.Open for durable queuing.
	Store queue.Store

	// Connectivity is the reachability source. Defaults to a dial probe
	// against the default service's host.
	Connectivity ConnectivitySource

	// HTTPClient is the underlying HTTP client.
	HTTPClient *http.Client

	// Metrics is the metrics collector. Defaults to a no-op collector.
	Metrics types.MetricsCollector

	// Logger is the structured logger. Defaults to a no-op logger.
	Logger types.Logger
}

// DefaultConfig returns a ClientConfig with sensible defaults.
//
// Returns:
//   - *ClientConfig: Configuration with default settings
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURLs:       make(map[string]string),
		DefaultService: "api",
		Timeout:        DefaultTimeout,
		RetryPolicy:    policy.DefaultRetryPolicy(),
		HTTPClient:     &http.Client{},
		Metrics:        metrics.NewNopMetrics(),
		Logger:         logging.NewNopLogger(),
	}
}

// ConfigFromEnv returns a ClientConfig with environment overrides applied.
//
// A .env file in the working directory is loaded first when present
// (missing files are not an error). Recognized variables, all optional
// with hard-coded fallbacks:
//
//	NETOP_BASE_URL             default service base URL
//	NETOP_TIMEOUT_MS           per-attempt timeout (default 30000)
//	NETOP_RETRY_MAX_ATTEMPTS   retry budget (default 3)
//	NETOP_RETRY_BASE_DELAY_MS  first backoff delay (default 2000)
//
// Returns:
//   - *ClientConfig: Configuration with environment overrides
func ConfigFromEnv() *ClientConfig {
	_ = godotenv.Load()

	config := DefaultConfig()

	if v := os.Getenv("NETOP_BASE_URL"); v != "" {
		config.BaseURLs[config.DefaultService] = v
	}
	if ms := envInt("NETOP_TIMEOUT_MS"); ms > 0 {
		config.Timeout = time.Duration(ms) * time.Millisecond
	}
	if n := envInt("NETOP_RETRY_MAX_ATTEMPTS"); n > 0 {
		config.RetryPolicy.MaxAttempts = n
	}
	if ms := envInt("NETOP_RETRY_BASE_DELAY_MS"); ms > 0 {
		config.RetryPolicy.BaseDelay = time.Duration(ms) * time.Millisecond
	}

	return config
}

// envInt parses an integer environment variable, returning 0 when the
// variable is unset or malformed.
func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

// Option configures a ClientConfig.
type Option func(*ClientConfig)

// WithBaseURL sets the base URL for the default service.
//
// Parameters:
//   - url: The backend base URL (e.g. "https://api.example.com")
//
// Returns:
//   - Option: Configuration option
func WithBaseURL(url string) Option {
	return func(c *ClientConfig) {
		c.BaseURLs[c.DefaultService] = url
	}
}

// WithServiceURL sets the base URL for a named backend service.
//
// Parameters:
//   - service: The service name (e.g. "weather", "market")
//   - url: The backend base URL
//
// Returns:
//   - Option: Configuration option
func WithServiceURL(service, url string) Option {
	return func(c *ClientConfig) {
		c.BaseURLs[service] = url
	}
}

// WithTimeout sets the default per-attempt network timeout.
//
// Parameters:
//   - d: The timeout (default: 30s)
//
// Returns:
//   - Option: Configuration option
func WithTimeout(d time.Duration) Option {
	return func(c *ClientConfig) {
		c.Timeout = d
	}
}

// WithRetryPolicy sets the default retry policy.
//
// Parameters:
//   - p: The retry policy
//
// Returns:
//   - Option: Configuration option
func WithRetryPolicy(p policy.RetryPolicy) Option {
	return func(c *ClientConfig) {
		c.RetryPolicy = p
	}
}

// WithStore sets the offline queue store.
//
// The client does not close an injected store; the caller owns its
// lifecycle.
//
// Parameters:
//   - s: The queue store
//
// Returns:
//   - Option: Configuration option
func WithStore(s queue.Store) Option {
	return func(c *ClientConfig) {
		c.Store = s
	}
}

// WithConnectivity sets the reachability source.
//
// The client does not stop an injected source; the caller owns its
// lifecycle.
//
// Parameters:
//   - src: The connectivity source
//
// Returns:
//   - Option: Configuration option
func WithConnectivity(src ConnectivitySource) Option {
	return func(c *ClientConfig) {
		c.Connectivity = src
	}
}

// WithHTTPClient sets the underlying HTTP client.
//
// Parameters:
//   - hc: The HTTP client
//
// Returns:
//   - Option: Configuration option
func WithHTTPClient(hc *http.Client) Option {
	return func(c *ClientConfig) {
		c.HTTPClient = hc
	}
}

// WithMetrics sets the metrics collector.
//
// Parameters:
//   - m: The metrics collector
//
// Returns:
//   - Option: Configuration option
func WithMetrics(m types.MetricsCollector) Option {
	return func(c *ClientConfig) {
		c.Metrics = m
	}
}

// WithLogger sets the structured logger.
//
// Parameters:
//   - l: The logger
//
// Returns:
//   - Option: Configuration option
func WithLogger(l types.Logger) Option {
	return func(c *ClientConfig) {
		c.Logger = l
	}
}
