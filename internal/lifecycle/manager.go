package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"capctl/internal/capability"
	"capctl/internal/metrics"
	"capctl/pkg/logging"
)

const subsystem = "Lifecycle"

// now is swapped in tests.
var now = time.Now

// Config wires one capability provider into a Manager.
type Config[C, A any] struct {
	Kind     capability.Kind
	Provider capability.Provider[C, A]

	// NotSupportedMessage and UnavailableMessage default to the kind's texts.
	NotSupportedMessage string
	UnavailableMessage  string

	// AvailabilityOptions maps creation options onto availability options for
	// the re-probe that follows a download. The zero A is used when nil.
	AvailabilityOptions func(C) A

	// Defaults and DefaultAvailability are used on activation and by the
	// Controller methods.
	Defaults            C
	DefaultAvailability A
}

// Manager tracks the lifecycle of one capability: its availability status, the
// last user-facing error and download progress. It owns that state exclusively;
// consumers read snapshots and subscribe to changes.
//
// The manager reports status but never gates invocation: Instantiate passes
// straight through to the provider.
type Manager[C, A any] struct {
	cfg Config[C, A]

	mu        sync.RWMutex
	state     State
	subs      map[int64]*Subscription
	nextSubID int64
	closed    bool
}

// New validates cfg and returns a manager in the unknown state.
func New[C, A any](cfg Config[C, A]) (*Manager[C, A], error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("lifecycle: provider for %q is nil", cfg.Kind)
	}
	if cfg.Kind == "" {
		return nil, errors.New("lifecycle: capability kind is required")
	}
	if cfg.NotSupportedMessage == "" {
		cfg.NotSupportedMessage = cfg.Kind.NotSupportedMessage()
	}
	if cfg.UnavailableMessage == "" {
		cfg.UnavailableMessage = cfg.Kind.UnavailableMessage()
	}
	return &Manager[C, A]{
		cfg:   cfg,
		state: State{UpdatedAt: now()},
		subs:  make(map[int64]*Subscription),
	}, nil
}

// Attach creates a manager and runs the single activation probe with the
// configured default availability options. A probe failure is returned together
// with the usable manager; there is no re-polling afterwards.
func Attach[C, A any](ctx context.Context, cfg Config[C, A]) (*Manager[C, A], error) {
	m, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return m, m.ProbeAvailability(ctx, cfg.DefaultAvailability)
}

// Kind returns the capability family this manager tracks.
func (m *Manager[C, A]) Kind() capability.Kind { return m.cfg.Kind }

// Snapshot returns a copy of the current state.
func (m *Manager[C, A]) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Status returns the current status.
func (m *Manager[C, A]) Status() capability.Status { return m.Snapshot().Status }

// Error returns the current user-facing error text.
func (m *Manager[C, A]) Error() string { return m.Snapshot().Error }

// DownloadProgress returns the last reported download percentage.
func (m *Manager[C, A]) DownloadProgress() float64 { return m.Snapshot().DownloadProgress }

// Defaults returns the options used by the Controller methods.
func (m *Manager[C, A]) Defaults() (C, A) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.Defaults, m.cfg.DefaultAvailability
}

// SetDefaults replaces the options used by the Controller methods. It does not
// probe; call Refresh to re-check availability for the new options.
func (m *Manager[C, A]) SetDefaults(create C, availability A) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg.Defaults = create
	m.cfg.DefaultAvailability = availability
}

// ProbeAvailability checks availability for opts. Each call fully supersedes the
// previous status and error. An absent capability family sets the not-supported
// message without calling the provider; an unavailable result sets the
// unavailable message. Provider failures are returned unchanged.
func (m *Manager[C, A]) ProbeAvailability(ctx context.Context, opts A) error {
	kind := string(m.cfg.Kind)

	if !m.cfg.Provider.IsSupported() {
		m.update(func(s *State) {
			s.Status = capability.StatusUnknown
			s.Error = m.cfg.NotSupportedMessage
		})
		metrics.RecordProbe(kind, "not_supported")
		logging.Warn(subsystem, "%s: %s", kind, m.cfg.NotSupportedMessage)
		return nil
	}

	m.update(func(s *State) { s.Error = "" })

	status, err := m.check(ctx, opts)
	if err != nil {
		metrics.RecordProbe(kind, "error")
		logging.Error(subsystem, err, "Availability check for %s failed", kind)
		return err
	}

	m.applyStatus(status)
	metrics.RecordProbe(kind, string(status))
	logging.Debug(subsystem, "Availability of %s: %s", kind, status)
	return nil
}

// Download acquires the capability's resources. Progress is forwarded to the
// manager's state and then to onProgress, synchronously and in the order the
// provider reports it. On success availability is re-probed rather than
// assumed. On failure the status held before the download is restored and the
// provider's error is returned unchanged.
//
// Download must not run concurrently on the same manager; overlapping calls
// are not serialized and the last progress write wins.
func (m *Manager[C, A]) Download(ctx context.Context, opts C, onProgress capability.ProgressFunc) error {
	kind := string(m.cfg.Kind)

	var previous capability.Status
	m.update(func(s *State) {
		previous = s.Status
		s.Status = capability.StatusDownloading
		s.Error = ""
		s.DownloadProgress = 0
	})
	metrics.SetDownloadProgress(kind, 0)
	logging.Info(subsystem, "Downloading resources for %s", kind)

	err := m.cfg.Provider.Download(ctx, opts, func(percent float64) {
		if math.IsNaN(percent) {
			return
		}
		percent = math.Max(0, math.Min(100, percent))
		m.update(func(s *State) { s.DownloadProgress = percent })
		metrics.SetDownloadProgress(kind, percent)
		capability.ReportProgress(onProgress, percent)
	})
	metrics.RecordDownload(kind, err)
	if err != nil {
		m.restoreStatus(previous)
		logging.Error(subsystem, err, "Download for %s failed", kind)
		return err
	}

	status, err := m.check(ctx, m.availabilityFor(opts))
	if err != nil {
		m.restoreStatus(previous)
		logging.Error(subsystem, err, "Availability check after download of %s failed", kind)
		return err
	}
	m.applyStatus(status)
	logging.Info(subsystem, "Download for %s finished, status %s", kind, status)
	return nil
}

// Instantiate creates a ready handle. It does not check the status first:
// availability can change between a check and its use, so callers decide.
func (m *Manager[C, A]) Instantiate(ctx context.Context, opts C) (capability.Handle, error) {
	logging.Debug(subsystem, "Creating %s instance", m.cfg.Kind)
	return m.cfg.Provider.Create(ctx, opts)
}

// SetError sets a consumer-controlled error text.
func (m *Manager[C, A]) SetError(msg string) {
	m.update(func(s *State) { s.Error = msg })
}

// ClearError removes the error text.
func (m *Manager[C, A]) ClearError() { m.SetError("") }

// Refresh re-probes with the default availability options.
func (m *Manager[C, A]) Refresh(ctx context.Context) error {
	_, a := m.Defaults()
	return m.ProbeAvailability(ctx, a)
}

// DownloadDefault downloads with the default creation options.
func (m *Manager[C, A]) DownloadDefault(ctx context.Context, onProgress capability.ProgressFunc) error {
	c, _ := m.Defaults()
	return m.Download(ctx, c, onProgress)
}

// InstantiateDefault creates a handle with the default creation options.
func (m *Manager[C, A]) InstantiateDefault(ctx context.Context) (capability.Handle, error) {
	c, _ := m.Defaults()
	return m.Instantiate(ctx, c)
}

// Subscribe returns a subscription receiving every subsequent state change.
// buffer <= 0 selects a default of 64 events.
func (m *Manager[C, A]) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = 64
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextSubID++
	sub := &Subscription{ID: m.nextSubID, Channel: make(chan StateChangeEvent, buffer)}
	if m.closed {
		sub.Close()
		return sub
	}
	m.subs[sub.ID] = sub
	return sub
}

// Unsubscribe removes and closes sub.
func (m *Manager[C, A]) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	m.mu.Lock()
	delete(m.subs, sub.ID)
	m.mu.Unlock()
	sub.Close()
}

// Close detaches the manager: every subscription is closed. The state is
// discarded with the manager.
func (m *Manager[C, A]) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	for id, sub := range m.subs {
		sub.Close()
		delete(m.subs, id)
	}
	logging.Debug(subsystem, "Detached %s", m.cfg.Kind)
}

func (m *Manager[C, A]) check(ctx context.Context, opts A) (capability.Status, error) {
	status, err := m.cfg.Provider.CheckAvailability(ctx, opts)
	if err != nil {
		return capability.StatusUnknown, err
	}
	if !status.IsKnown() {
		return capability.StatusUnknown, fmt.Errorf("provider for %s returned invalid status %q", m.cfg.Kind, string(status))
	}
	return status, nil
}

func (m *Manager[C, A]) applyStatus(status capability.Status) {
	m.update(func(s *State) {
		s.Status = status
		if status == capability.StatusUnavailable {
			s.Error = m.cfg.UnavailableMessage
		}
	})
}

func (m *Manager[C, A]) restoreStatus(previous capability.Status) {
	m.update(func(s *State) {
		if s.Status == capability.StatusDownloading {
			s.Status = previous
		}
	})
}

func (m *Manager[C, A]) availabilityFor(opts C) A {
	if m.cfg.AvailabilityOptions != nil {
		return m.cfg.AvailabilityOptions(opts)
	}
	var zero A
	return zero
}

// update applies fn under the lock and notifies subscribers when the
// observable fields changed. Delivery never blocks.
func (m *Manager[C, A]) update(fn func(*State)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	old := m.state
	fn(&m.state)
	if old.Status == m.state.Status && old.Error == m.state.Error && old.DownloadProgress == m.state.DownloadProgress {
		return
	}
	m.state.UpdatedAt = now()

	logging.Debug(subsystem, "%s state changed: status %s -> %s, progress %.0f%% -> %.0f%%",
		m.cfg.Kind, old.Status, m.state.Status, old.DownloadProgress, m.state.DownloadProgress)

	ev := StateChangeEvent{Kind: m.cfg.Kind, Old: old, New: m.state}
	for _, sub := range m.subs {
		sub.deliver(ev)
	}
}
