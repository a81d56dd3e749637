package netop

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/akashmir/harvesh-app-sub004/policy"
	"github.com/akashmir/harvesh-app-sub004/types"
)

// Response is the outcome of a gateway request.
type Response struct {
	// Status is the HTTP status code. Zero when Queued is true.
	Status int

	// Body is the response payload.
	Body []byte

	// Header holds the response headers. Nil when Queued is true.
	Header http.Header

	// Queued reports that the request was saved for offline delivery
	// instead of being executed. This is a success outcome, not an
	// error: the caller can tell the user the action is pending.
	Queued bool

	// QueueItemID identifies the queued item when Queued is true,
	// usable for dead-letter inspection and manual requeue.
	QueueItemID types.QueueItemID
}

// Transport executes a single request attempt against a backend.
//
// Implementations MUST be safe for concurrent use; the gateway issues
// one RoundTrip per attempt, potentially from many goroutines.
type Transport interface {
	// RoundTrip performs one attempt.
	//
	// Parameters:
	//   - ctx: Context for cancellation; the per-attempt timeout is
	//     applied inside RoundTrip
	//   - req: The request to execute
	//
	// Returns:
	//   - *Response: The response on any 2xx status
	//   - error: A classified *types.AppError for non-2xx statuses, or
	//     the raw transport error otherwise
	RoundTrip(ctx context.Context, req types.Request) (*Response, error)
}

// httpTransport executes requests with net/http.
type httpTransport struct {
	client         *http.Client
	baseURLs       map[string]string
	defaultService string
	defaultTimeout time.Duration
}

// Compile-time assertion that httpTransport implements Transport.
var _ Transport = (*httpTransport)(nil)

// RoundTrip performs one HTTP attempt.
func (t *httpTransport) RoundTrip(ctx context.Context, req types.Request) (*Response, error) {
	service := req.Service
	if service == "" {
		service = t.defaultService
	}
	base, ok := t.baseURLs[service]
	if !ok || base == "" {
		return nil, &types.AppError{
			Kind:    types.KindConfiguration,
			Message: "no base URL configured for service " + service,
			Code:    "missing_base_url",
		}
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = t.defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, base+req.Path, body)
	if err != nil {
		return nil, &types.AppError{
			Kind:    types.KindConfiguration,
			Message: "failed to build request",
			Code:    "bad_request",
			Cause:   err,
		}
	}

	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if req.Body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.IdempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)
	}

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		// Raw transport failure; the retry engine classifies it.
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	if appErr := policy.ClassifyStatus(httpResp.StatusCode); appErr != nil {
		return nil, appErr
	}

	return &Response{
		Status: httpResp.StatusCode,
		Body:   respBody,
		Header: httpResp.Header,
	}, nil
}
