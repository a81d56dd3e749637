package policy

import (
	"math/rand/v2"
	"time"
)

// Default retry policy values.
const (
	// DefaultMaxAttempts is the default total attempt budget per operation.
	DefaultMaxAttempts = 3

	// DefaultBaseDelay is the default delay before the first retry.
	DefaultBaseDelay = 2000 * time.Millisecond

	// DefaultMultiplier is the default exponential backoff base.
	DefaultMultiplier = 2

	// DefaultMaxDelay caps backoff growth to bound worst-case latency.
	DefaultMaxDelay = 30 * time.Second
)

// RetryPolicy defines the retry budget and backoff schedule for an operation.
//
// RetryPolicy is a pure value with no identity; it is safe to copy and
// share. Zero fields are replaced by defaults when the policy is applied,
// so RetryPolicy{MaxAttempts: 5} is a valid per-call override.
type RetryPolicy struct {
	// MaxAttempts is the total attempt budget, including the first attempt.
	// Default: 3
	MaxAttempts int

	// BaseDelay is the delay before the first retry.
	// Default: 2000ms
	BaseDelay time.Duration

	// Multiplier is the exponential backoff base.
	// Default: 2
	Multiplier int

	// MaxDelay caps the computed delay regardless of attempt count.
	// Default: 30s
	MaxDelay time.Duration

	// Jitter randomizes each delay within [delay/2, delay) to avoid
	// synchronized retry storms. The jittered delay stays within the
	// same order of magnitude as the deterministic one.
	Jitter bool
}

// DefaultRetryPolicy returns the default retry policy.
//
// Returns:
//   - RetryPolicy: 3 attempts, 2s base delay, exponential base 2, 30s cap
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		Multiplier:  DefaultMultiplier,
		MaxDelay:    DefaultMaxDelay,
	}
}

// Normalize returns a copy of the policy with zero fields replaced by defaults.
//
// Returns:
//   - RetryPolicy: The normalized policy
func (p RetryPolicy) Normalize() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.Multiplier <= 1 {
		p.Multiplier = DefaultMultiplier
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultMaxDelay
	}
	return p
}

// Delay computes the backoff delay before the given retry.
//
// The delay grows as BaseDelay * Multiplier^(attempt-1), capped at
// MaxDelay. Growth is applied iteratively while below the cap, so the
// computation cannot overflow for any attempt count. attempt is 1-based:
// Delay(1) is the pause after the first failed attempt.
//
// Parameters:
//   - attempt: The 1-based attempt number that just failed
//
// Returns:
//   - time.Duration: The pause before the next attempt
func (p RetryPolicy) Delay(attempt int) time.Duration {
	p = p.Normalize()
	delay := p.BaseDelay

	// Exponential backoff: delay * multiplier^(attempt-1)
	for i := 1; i < attempt && delay < p.MaxDelay; i++ {
		delay *= time.Duration(p.Multiplier)
	}

	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}

	if p.Jitter && delay > 1 {
		half := delay / 2
		delay = half + rand.N(half)
	}

	return delay
}
