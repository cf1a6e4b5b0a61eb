package lifecycle

import (
	"context"
	"time"

	"github.com/Iron-Ham/tomate/internal/errors"
	"github.com/Iron-Ham/tomate/internal/history"
	"github.com/Iron-Ham/tomate/internal/hooks"
	"github.com/Iron-Ham/tomate/internal/session"
)

// StartRequest describes a session to start. A zero Duration selects the
// configured default for Kind.
type StartRequest struct {
	Kind        session.Kind
	Description string
	Tags        []string
	Duration    time.Duration
}

// StartResult is returned by Start.
type StartResult struct {
	Record *session.Record
	// Warnings holds hook and scheduler problems. The session started
	// regardless.
	Warnings []error
}

// Start creates a new session. It fails with ErrSessionAlreadyActive when a
// session exists, leaving that session untouched.
func (m *Manager) Start(ctx context.Context, req StartRequest) (*StartResult, error) {
	if !req.Kind.Valid() {
		return nil, errors.NewValidationError("unknown session kind").
			WithField("kind").WithValue(string(req.Kind))
	}
	if req.Duration < 0 {
		return nil, errors.NewValidationError("duration must not be negative").
			WithField("duration").WithValue(req.Duration.String())
	}

	duration := req.Duration
	if duration == 0 {
		duration = m.DefaultDuration(req.Kind)
	}
	if duration < time.Second {
		return nil, errors.NewValidationError("duration must be at least one second").
			WithField("duration").WithValue(duration.String())
	}

	result := &StartResult{}
	err := m.withLock(func() error {
		existing, err := m.store.Load()
		if err != nil {
			return err
		}
		if existing != nil {
			return errors.NewSessionError("cannot start", errors.ErrSessionAlreadyActive).
				WithKind(string(existing.Kind))
		}

		rec := &session.Record{
			ID:          m.newID(),
			Kind:        req.Kind,
			Description: req.Description,
			Tags:        session.NormalizeTags(req.Tags),
			StartedAt:   m.clock.Now().Truncate(time.Second),
			Duration:    duration.Truncate(time.Second),
		}
		if err := m.store.Save(rec); err != nil {
			return err
		}
		result.Record = rec

		m.logger.WithSession(rec.ID).Info("session started",
			"kind", string(rec.Kind),
			"duration", rec.Duration.String(),
			"tags", rec.Tags,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	rec := result.Record
	result.Warnings = appendWarning(result.Warnings, m.runHook(ctx, rec, hooks.PhaseStart))
	if serr := m.scheduler.Schedule(ctx, rec.EndsAt()); serr != nil {
		m.logger.WithSession(rec.ID).Warn("could not schedule expiry check", "error", serr.Error())
		result.Warnings = append(result.Warnings, serr)
	}
	return result, nil
}

// Status is a snapshot of the current session.
type Status struct {
	Record    *session.Record
	State     State
	Now       time.Time
	Elapsed   time.Duration
	Remaining time.Duration
}

// Expired reports whether the session has reached its duration.
func (s *Status) Expired() bool {
	return s.Record.Expired(s.Now)
}

// Status reads the current session without taking the lock or changing
// anything. It returns ErrNoActiveSession when Idle.
func (m *Manager) Status(ctx context.Context) (*Status, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rec, err := m.store.Load()
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, noSession("show status")
	}

	now := m.clock.Now()
	return &Status{
		Record:    rec,
		State:     StateOf(rec),
		Now:       now,
		Elapsed:   rec.Elapsed(now),
		Remaining: rec.Remaining(now),
	}, nil
}

// Outcome is the result of an expiry check.
type Outcome string

const (
	// OutcomeIdle means there was no session.
	OutcomeIdle Outcome = "idle"
	// OutcomePending means the session has not reached its duration yet.
	OutcomePending Outcome = "pending"
	// OutcomeAlreadyNotified means the end hook fired earlier.
	OutcomeAlreadyNotified Outcome = "already-notified"
	// OutcomeFired means this check ran the end hook.
	OutcomeFired Outcome = "fired"
)

// CheckResult is returned by CheckExpiry.
type CheckResult struct {
	Outcome  Outcome
	Record   *session.Record
	Warnings []error
}

// CheckExpiry fires the end hook once the session has expired. Repeated or
// late calls are harmless: only the first check after expiry fires.
func (m *Manager) CheckExpiry(ctx context.Context) (*CheckResult, error) {
	result := &CheckResult{}
	err := m.withLock(func() error {
		rec, err := m.store.Load()
		if err != nil {
			return err
		}
		result.Record = rec

		switch {
		case rec == nil:
			result.Outcome = OutcomeIdle
		case rec.Notified:
			result.Outcome = OutcomeAlreadyNotified
		case !rec.Expired(m.clock.Now()):
			result.Outcome = OutcomePending
		default:
			if err := m.markNotified(rec); err != nil {
				return err
			}
			result.Outcome = OutcomeFired
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Outcome == OutcomeFired {
		result.Warnings = appendWarning(result.Warnings, m.runHook(ctx, result.Record, hooks.PhaseEnd))
	}

	m.logger.Debug("expiry check", "outcome", string(result.Outcome))
	return result, nil
}

// FinishResult is returned by Finish.
type FinishResult struct {
	Record *session.Record
	// Entry is the archived history entry; nil for breaks.
	Entry *history.Entry
	// Fired reports whether Finish itself ran the end hook.
	Fired    bool
	Warnings []error
}

// Finish ends the current session. An expired session that was never
// notified is marked notified and gets its end hook once the lock is
// released. A Pomodoro is archived to history before the record is removed;
// if archiving fails the record stays so finish can be retried.
func (m *Manager) Finish(ctx context.Context) (*FinishResult, error) {
	result := &FinishResult{}
	err := m.withLock(func() error {
		rec, err := m.store.Load()
		if err != nil {
			return err
		}
		if rec == nil {
			return noSession("finish")
		}
		result.Record = rec
		logger := m.logger.WithSession(rec.ID)

		now := m.clock.Now()
		if !rec.Notified && rec.Expired(now) {
			if err := m.markNotified(rec); err != nil {
				return err
			}
			result.Fired = true
		}

		if rec.Kind == session.KindPomodoro {
			entry := history.Entry{
				StartedAt:   rec.StartedAt,
				EndedAt:     now.Truncate(time.Second),
				Tags:        rec.Tags,
				Description: rec.Description,
			}
			if err := m.history.Append(ctx, entry); err != nil {
				logger.Error("failed to archive session", "error", err.Error())
				return err
			}
			result.Entry = &entry
		}

		if err := m.store.Delete(); err != nil {
			return err
		}
		logger.Info("session finished",
			"kind", string(rec.Kind),
			"elapsed", rec.Elapsed(now).String(),
			"archived", result.Entry != nil,
		)
		return nil
	})

	// Once notified is saved the hook must run, even if archiving failed.
	if result.Fired {
		result.Warnings = appendWarning(result.Warnings, m.runHook(ctx, result.Record, hooks.PhaseEnd))
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Clear removes the current session without archiving it or running hooks.
func (m *Manager) Clear(ctx context.Context) (*session.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var cleared *session.Record
	err := m.withLock(func() error {
		rec, err := m.store.Load()
		if err != nil {
			return err
		}
		if rec == nil {
			return noSession("clear")
		}
		if err := m.store.Delete(); err != nil {
			return err
		}
		cleared = rec
		m.logger.WithSession(rec.ID).Info("session cleared", "kind", string(rec.Kind))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cleared, nil
}

// Discard deletes the session file without reading it. It is the way out
// when the file is corrupt.
func (m *Manager) Discard(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.withLock(m.store.Discard)
}

// History lists archived Pomodoros, oldest first.
func (m *Manager) History(ctx context.Context) ([]history.Entry, error) {
	return m.history.List(ctx)
}

// Purge deletes the current session and all history.
func (m *Manager) Purge(ctx context.Context) error {
	return m.withLock(func() error {
		if err := m.store.Discard(); err != nil {
			return err
		}
		if err := m.history.Purge(ctx); err != nil {
			return err
		}
		m.logger.Info("state and history purged")
		return nil
	})
}
