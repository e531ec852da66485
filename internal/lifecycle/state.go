package lifecycle

import (
	"sync"
	"time"

	"capctl/internal/capability"
)

// State is a read-only snapshot of a manager's lifecycle state.
type State struct {
	// Status is capability.StatusUnknown until the first probe resolves.
	Status capability.Status
	// Error is the last user-facing failure description; empty means none.
	Error string
	// DownloadProgress is the last reported download percentage in [0, 100].
	DownloadProgress float64
	UpdatedAt        time.Time
}

// HasError reports whether a user-facing error is set.
func (s State) HasError() bool { return s.Error != "" }

// CanDownload reports whether a download affordance should be offered.
func (s State) CanDownload() bool { return s.Status == capability.StatusDownloadable }

// CanInvoke reports whether input affordances should be offered.
func (s State) CanInvoke() bool { return s.Status == capability.StatusAvailable }

// StateChangeEvent is published to subscribers after every mutation.
type StateChangeEvent struct {
	Kind capability.Kind
	Old  State
	New  State
}

// Subscription receives state change events for one manager.
type Subscription struct {
	ID      int64
	Channel chan StateChangeEvent

	mu      sync.RWMutex
	closed  bool
	dropped int64
}

// Close closes the subscription channel. Safe to call more than once.
func (s *Subscription) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		close(s.Channel)
		s.closed = true
	}
}

// IsClosed returns whether the subscription is closed.
func (s *Subscription) IsClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Dropped returns how many events were discarded because the buffer was full.
func (s *Subscription) Dropped() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dropped
}

// deliver sends without blocking; a full buffer drops the event.
func (s *Subscription) deliver(ev StateChangeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.Channel <- ev:
	default:
		s.dropped++
	}
}
