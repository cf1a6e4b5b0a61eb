// Package lifecycle implements the session state machine.
//
// A session is Idle (no record), Active (record, not yet notified) or
// Notified (record, end hook already fired). Every state is derived from the
// persisted record and the current time; no process stays alive between
// commands. Mutating operations hold the session store's file lock from the
// first read to the last write, so concurrent invocations serialize and the
// end hook fires at most once per session. Hooks run after the lock is
// released.
package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Iron-Ham/tomate/internal/errors"
	"github.com/Iron-Ham/tomate/internal/history"
	"github.com/Iron-Ham/tomate/internal/hooks"
	"github.com/Iron-Ham/tomate/internal/logging"
	"github.com/Iron-Ham/tomate/internal/scheduler"
	"github.com/Iron-Ham/tomate/internal/session"
)

// State is the derived state of the single session slot.
type State int

const (
	StateIdle State = iota
	StateActive
	StateNotified
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateNotified:
		return "notified"
	default:
		return "unknown"
	}
}

// StateOf derives the state from a loaded record.
func StateOf(rec *session.Record) State {
	switch {
	case rec == nil:
		return StateIdle
	case rec.Notified:
		return StateNotified
	default:
		return StateActive
	}
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time { return f() }

// HookRunner runs the hook for an event. *hooks.Dispatcher implements it.
type HookRunner interface {
	Run(ctx context.Context, event hooks.Event, hc hooks.Context) error
}

// Options configures a Manager. Store and History are required.
type Options struct {
	Store     *session.Store
	History   history.Store
	Hooks     HookRunner
	Scheduler scheduler.Scheduler
	Clock     Clock
	// Durations holds the default length of each kind.
	Durations map[session.Kind]time.Duration
	Logger    *logging.Logger
	// NewID generates session ids; defaults to random UUIDs.
	NewID func() string
}

// Manager drives the session lifecycle.
type Manager struct {
	store     *session.Store
	history   history.Store
	hooks     HookRunner
	scheduler scheduler.Scheduler
	clock     Clock
	durations map[session.Kind]time.Duration
	logger    *logging.Logger
	newID     func() string
}

type nopHooks struct{}

func (nopHooks) Run(context.Context, hooks.Event, hooks.Context) error { return nil }

// New creates a Manager. Missing optional collaborators get no-op defaults.
func New(opts Options) *Manager {
	m := &Manager{
		store:     opts.Store,
		history:   opts.History,
		hooks:     opts.Hooks,
		scheduler: opts.Scheduler,
		clock:     opts.Clock,
		durations: opts.Durations,
		logger:    opts.Logger,
		newID:     opts.NewID,
	}
	if m.hooks == nil {
		m.hooks = nopHooks{}
	}
	if m.scheduler == nil {
		m.scheduler = scheduler.NopScheduler{}
	}
	if m.clock == nil {
		m.clock = ClockFunc(time.Now)
	}
	if m.durations == nil {
		m.durations = map[session.Kind]time.Duration{}
	}
	if m.logger == nil {
		m.logger = logging.NopLogger()
	}
	if m.newID == nil {
		m.newID = uuid.NewString
	}
	return m
}

// DefaultDuration returns the configured length for kind, or zero.
func (m *Manager) DefaultDuration(kind session.Kind) time.Duration {
	return m.durations[kind]
}

// withLock runs fn while holding the store's file lock.
func (m *Manager) withLock(fn func() error) error {
	lock, err := m.store.Lock()
	if err != nil {
		return err
	}
	defer func() {
		if uerr := lock.Unlock(); uerr != nil {
			m.logger.Warn("failed to release session lock", "error", uerr.Error())
		}
	}()
	return fn()
}

// markNotified persists notified=true for rec. The end hook itself runs
// after the lock is released, so a hook may call back into tomate.
func (m *Manager) markNotified(rec *session.Record) error {
	rec.Notified = true
	if err := m.store.Save(rec); err != nil {
		rec.Notified = false
		return err
	}
	m.logger.WithSession(rec.ID).Info("session expired", "kind", string(rec.Kind))
	return nil
}

// runHook runs the hook for rec at phase. A failure is returned as a warning.
func (m *Manager) runHook(ctx context.Context, rec *session.Record, phase hooks.Phase) error {
	event := hooks.EventFor(rec.Kind, phase)
	err := m.hooks.Run(ctx, event, hooks.ContextFor(rec))
	if err != nil {
		m.logger.WithSession(rec.ID).Warn("hook reported a problem", "event", string(event), "error", err.Error())
	}
	return err
}

func noSession(op string) error {
	return errors.NewSessionError("cannot "+op, errors.ErrNoActiveSession)
}

func appendWarning(warnings []error, err error) []error {
	if err == nil {
		return warnings
	}
	return append(warnings, err)
}
