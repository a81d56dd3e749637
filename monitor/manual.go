package monitor

import (
	"sync"

	"github.com/akashmir/harvesh-app-sub004/types"
)

// Manual is a connectivity source under programmatic control.
//
// Unlike Monitor, it performs no probing: tests and demos flip the state
// directly with SetState, and subscribers see the transition immediately
// (no debouncing). This makes it ideal for unit tests that simulate
// going offline and back online.
type Manual struct {
	mu     sync.Mutex
	state  types.ConnectivityState
	subs   map[chan types.ConnectivityState]struct{}
	closed bool
}

// NewManual creates a manual connectivity source in the given state.
//
// Parameters:
//   - initial: The starting state
//
// Returns:
//   - *Manual: A new manual source
func NewManual(initial types.ConnectivityState) *Manual {
	return &Manual{
		state: initial,
		subs:  make(map[chan types.ConnectivityState]struct{}),
	}
}

// Current returns the current state.
func (m *Manual) Current() types.ConnectivityState {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state
}

// SetState sets the state, notifying subscribers on change.
//
// Parameters:
//   - state: The new state
func (m *Manual) SetState(state types.ConnectivityState) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || m.state == state {
		return
	}
	m.state = state

	for sub := range m.subs {
		select {
		case sub <- state:
		default:
		}
	}
}

// Subscribe registers a new subscriber channel.
func (m *Manual) Subscribe() <-chan types.ConnectivityState {
	ch := make(chan types.ConnectivityState, 4)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[ch] = struct{}{}

	return ch
}

// Unsubscribe removes a subscriber channel registered via Subscribe.
func (m *Manual) Unsubscribe(ch <-chan types.ConnectivityState) {
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

// Stop closes all subscriber channels.
//
// Stop is safe to call multiple times.
func (m *Manual) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true
	for sub := range m.subs {
		close(sub)
	}
	m.subs = make(map[chan types.ConnectivityState]struct{})
}
