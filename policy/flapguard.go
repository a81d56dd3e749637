package policy

import (
	"time"

	"github.com/akashmir/harvesh-app-sub004/types"
)

// FlapGuard debounces raw connectivity observations into stable transitions.
//
// A raw state change is published only after it has persisted for the
// configured dwell time. This prevents a flapping link from triggering
// redundant queue drains on every momentary blip, regardless of how
// often the link is probed.
//
// FlapGuard is not safe for concurrent use; it is owned by the monitor's
// single probe loop.
type FlapGuard struct {
	dwell          time.Duration
	published      types.ConnectivityState
	candidate      types.ConnectivityState
	candidateSince time.Time
}

// NewFlapGuard creates a FlapGuard.
//
// Parameters:
//   - dwell: Minimum time a new state must persist before it is
//     published. Values of zero or below publish on the first
//     observation.
//   - initial: The state considered already published at start
//
// Returns:
//   - *FlapGuard: A new flap guard
func NewFlapGuard(dwell time.Duration, initial types.ConnectivityState) *FlapGuard {
	return &FlapGuard{
		dwell:     dwell,
		published: initial,
		candidate: initial,
	}
}

// Observe feeds one raw probe result into the guard.
//
// Parameters:
//   - raw: The state observed by the current probe
//   - now: The observation time
//
// Returns:
//   - types.ConnectivityState: The currently published (stable) state
//   - bool: true if this observation caused a transition
func (g *FlapGuard) Observe(raw types.ConnectivityState, now time.Time) (types.ConnectivityState, bool) {
	if raw == g.published {
		// Back to the published state, abandon any half-confirmed candidate.
		g.candidate = g.published
		g.candidateSince = time.Time{}
		return g.published, false
	}

	if raw != g.candidate || g.candidateSince.IsZero() {
		g.candidate = raw
		g.candidateSince = now
	}

	if now.Sub(g.candidateSince) >= g.dwell {
		g.published = raw
		g.candidateSince = time.Time{}
		return g.published, true
	}

	return g.published, false
}

// Published returns the current stable state.
//
// Returns:
//   - types.ConnectivityState: The last published state
func (g *FlapGuard) Published() types.ConnectivityState {
	return g.published
}
