package netop

import (
	"context"
	"errors"
	"time"

	"github.com/akashmir/harvesh-app-sub004/policy"
	"github.com/akashmir/harvesh-app-sub004/types"
)

// Executor runs request attempts through a Transport with automatic
// retries. Every failure is classified first; only retryable kinds are
// retried, with exponential backoff between attempts.
type Executor struct {
	transport Transport
	policy    policy.RetryPolicy
	metrics   types.MetricsCollector
	logger    types.Logger
}

// NewExecutor creates an Executor.
//
// Parameters:
//   - transport: Transport used for each attempt
//   - p: Retry policy; zero fields are replaced with defaults
//   - metrics: Metrics collector, must be non-nil
//   - logger: Logger, must be non-nil
func NewExecutor(transport Transport, p policy.RetryPolicy, metrics types.MetricsCollector, logger types.Logger) *Executor {
	return &Executor{
		transport: transport,
		policy:    p.Normalize(),
		metrics:   metrics,
		logger:    logger,
	}
}

// Do executes the request starting from the first attempt.
func (e *Executor) Do(ctx context.Context, req types.Request) (*Response, error) {
	return e.DoWithAttempt(ctx, req, 1, e.policy)
}

// DoWithAttempt executes the request with retries, starting the attempt
// counter at startAttempt. A counter above 1 consumes part of the
// attempt budget, which lets callers continue a budget carried over
// from a previous process.
//
// Parameters:
//   - ctx: Context for cancellation; cancellation during a backoff wait
//     aborts immediately
//   - req: The request to execute
//   - startAttempt: First attempt number, minimum 1
//   - p: Retry policy for this execution
//
// Returns:
//   - *Response: The successful response
//   - error: types.ErrCancelled when the context ended the execution,
//     otherwise the classified *types.AppError of the final attempt
//     with RetryCount set to the number of attempts made
func (e *Executor) DoWithAttempt(ctx context.Context, req types.Request, startAttempt int, p policy.RetryPolicy) (*Response, error) {
	p = p.Normalize()
	if startAttempt < 1 {
		startAttempt = 1
	}

	var lastErr *types.AppError
	attempts := 0
	for attempt := startAttempt; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, types.ErrCancelled
		}

		start := time.Now()
		resp, err := e.transport.RoundTrip(ctx, req)
		e.metrics.ObserveRequestDuration(time.Since(start).Seconds())
		if err == nil {
			return resp, nil
		}

		if ctx.Err() != nil {
			return nil, types.ErrCancelled
		}

		lastErr = policy.Classify(err)
		attempts++
		e.metrics.IncRequestError(lastErr.Kind)

		if !lastErr.Retryable || attempt >= p.MaxAttempts {
			break
		}

		delay := p.Delay(attempt)
		e.logger.Debug("request failed, retrying",
			"method", req.Method,
			"path", req.Path,
			"kind", lastErr.Kind,
			"attempt", attempt,
			"delay", delay,
		)
		e.metrics.IncRetryAttempt()

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, types.ErrCancelled
		case <-timer.C:
		}
	}

	if lastErr == nil {
		// Budget already exhausted before the first attempt.
		return nil, &types.AppError{
			Kind:    types.KindUnknown,
			Message: "retry budget exhausted",
			Code:    "budget_exhausted",
		}
	}
	lastErr.RetryCount = attempts
	return nil, lastErr
}

// isNoInternet reports whether err classifies as a connectivity loss.
func isNoInternet(err error) bool {
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == types.KindNoInternet
	}
	return false
}
