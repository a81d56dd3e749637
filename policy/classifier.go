package policy

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"syscall"

	"github.com/akashmir/harvesh-app-sub004/types"
)

// Classify maps a raw transport-level failure to a typed AppError.
//
// The function is pure: it inspects the error chain and produces a
// classification without side effects. Logging is the caller's
// responsibility. Already-classified errors pass through unchanged so
// classification is idempotent across retry loops.
//
// Classification rules:
//   - nil input: nil output
//   - DNS failure, connection refused, no route to host: noInternet (retryable)
//   - deadline exceeded, net.Error timeout: timeout (retryable)
//   - connection reset, broken pipe, unexpected EOF: network (retryable)
//   - context cancellation: unknown, non-retryable (the retry engine
//     intercepts cancellation before classifying)
//   - anything else: unknown, non-retryable
//
// Parameters:
//   - err: The failure to classify
//
// Returns:
//   - *types.AppError: The classified error, or nil if err is nil
func Classify(err error) *types.AppError {
	if err == nil {
		return nil
	}

	var appErr *types.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return &types.AppError{
			Kind:      types.KindTimeout,
			Message:   "request deadline exceeded",
			Code:      "deadline_exceeded",
			Retryable: true,
			Cause:     err,
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &types.AppError{
			Kind:      types.KindNoInternet,
			Message:   "DNS lookup failed for " + dnsErr.Name,
			Code:      "dns_failure",
			Retryable: true,
			Cause:     err,
		}
	}

	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return unreachable("connection refused", "connection_refused", err)
	case errors.Is(err, syscall.EHOSTUNREACH):
		return unreachable("no route to host", "host_unreachable", err)
	case errors.Is(err, syscall.ENETUNREACH):
		return unreachable("network unreachable", "network_unreachable", err)
	case errors.Is(err, syscall.ENETDOWN):
		return unreachable("network is down", "network_down", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &types.AppError{
			Kind:      types.KindTimeout,
			Message:   "network operation timed out",
			Code:      "net_timeout",
			Retryable: true,
			Cause:     err,
		}
	}

	// Mid-stream transport failures: the connection existed but dropped.
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, net.ErrClosed) {
		return &types.AppError{
			Kind:      types.KindNetwork,
			Message:   "connection interrupted",
			Code:      "connection_interrupted",
			Retryable: true,
			Cause:     err,
		}
	}

	return &types.AppError{
		Kind:    types.KindUnknown,
		Message: "unclassified failure",
		Code:    "unknown",
		Cause:   err,
	}
}

// ClassifyStatus maps an HTTP response status to a typed AppError.
//
// 2xx statuses classify to nil. Non-2xx statuses follow the taxonomy:
//
//	401           authentication   not retryable
//	403           permission       not retryable
//	408           timeout          retryable
//	429, 5xx      serverError      retryable
//	400, 422      validation       not retryable
//	other         api              not retryable
//
// Parameters:
//   - status: The HTTP status code
//
// Returns:
//   - *types.AppError: The classified error, or nil for success statuses
func ClassifyStatus(status int) *types.AppError {
	if status >= 200 && status < 300 {
		return nil
	}

	code := strconv.Itoa(status)
	message := http.StatusText(status)
	if message == "" {
		message = "unexpected status " + code
	}

	switch {
	case status == http.StatusUnauthorized:
		return &types.AppError{Kind: types.KindAuthentication, Message: message, Code: code}
	case status == http.StatusForbidden:
		return &types.AppError{Kind: types.KindPermission, Message: message, Code: code}
	case status == http.StatusRequestTimeout:
		return &types.AppError{Kind: types.KindTimeout, Message: message, Code: code, Retryable: true}
	case status == http.StatusTooManyRequests || status >= 500:
		return &types.AppError{Kind: types.KindServerError, Message: message, Code: code, Retryable: true}
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return &types.AppError{Kind: types.KindValidation, Message: message, Code: code}
	default:
		return &types.AppError{Kind: types.KindAPI, Message: message, Code: code}
	}
}

// unreachable builds a noInternet classification for routing-level failures.
func unreachable(message, code string, cause error) *types.AppError {
	return &types.AppError{
		Kind:      types.KindNoInternet,
		Message:   message,
		Code:      code,
		Retryable: true,
		Cause:     cause,
	}
}
