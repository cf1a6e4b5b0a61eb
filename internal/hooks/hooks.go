// Package hooks runs user scripts when a session starts or ends.
//
// A hook is an executable file in the hooks directory named after the event,
// e.g. "pomodoro-end". Hooks receive details about the session in TOMATE_*
// environment variables and run synchronously, after the session lock has
// been released, so a hook may itself run "tomate finish" or "tomate break".
// A missing hook is not an error; a hook that cannot run or exits non-zero
// is reported as a *errors.HookError with warning severity.
package hooks

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/Iron-Ham/tomate/internal/errors"
	"github.com/Iron-Ham/tomate/internal/logging"
	"github.com/Iron-Ham/tomate/internal/session"
)

// Event names a hook.
type Event string

// Phase is the point in a session's life an event marks.
type Phase string

const (
	PhaseStart Phase = "start"
	PhaseEnd   Phase = "end"
)

const (
	PomodoroStart   Event = "pomodoro-start"
	PomodoroEnd     Event = "pomodoro-end"
	ShortBreakStart Event = "shortbreak-start"
	ShortBreakEnd   Event = "shortbreak-end"
	LongBreakStart  Event = "longbreak-start"
	LongBreakEnd    Event = "longbreak-end"
)

// Events returns every event a hook can be installed for.
func Events() []Event {
	return []Event{
		PomodoroStart, PomodoroEnd,
		ShortBreakStart, ShortBreakEnd,
		LongBreakStart, LongBreakEnd,
	}
}

// EventFor returns the event for a session kind and phase.
func EventFor(kind session.Kind, phase Phase) Event {
	return Event(string(kind) + "-" + string(phase))
}

// Context describes the session a hook runs for.
type Context struct {
	Kind        session.Kind
	Description string
	Tags        []string
	StartedAt   time.Time
	Duration    time.Duration
}

// ContextFor builds a hook Context from a session record.
func ContextFor(rec *session.Record) Context {
	return Context{
		Kind:        rec.Kind,
		Description: rec.Description,
		Tags:        rec.Tags,
		StartedAt:   rec.StartedAt,
		Duration:    rec.Duration,
	}
}

// Env returns the TOMATE_* variables passed to a hook for event.
func (c Context) Env(event Event) []string {
	return []string{
		"TOMATE_EVENT=" + string(event),
		"TOMATE_KIND=" + string(c.Kind),
		"TOMATE_TAGS=" + strings.Join(c.Tags, ","),
		"TOMATE_DESCRIPTION=" + c.Description,
		"TOMATE_STARTED_AT=" + c.StartedAt.Format(time.RFC3339),
		"TOMATE_STARTED_AT_UNIX=" + strconv.FormatInt(c.StartedAt.Unix(), 10),
		"TOMATE_DURATION=" + strconv.FormatInt(int64(c.Duration/time.Second), 10),
		"TOMATE_ENDS_AT=" + c.StartedAt.Add(c.Duration).Format(time.RFC3339),
	}
}

// Dispatcher locates and runs hooks in a directory.
type Dispatcher struct {
	dir    string
	logger *logging.Logger
}

// NewDispatcher returns a Dispatcher for hooks in dir.
func NewDispatcher(dir string, logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Dispatcher{dir: dir, logger: logger}
}

// Dir returns the hooks directory.
func (d *Dispatcher) Dir() string {
	return d.dir
}

// Path returns where the hook for event would live.
func (d *Dispatcher) Path(event Event) string {
	return filepath.Join(d.dir, string(event))
}

// Run executes the hook for event, if one is installed, and waits for it.
func (d *Dispatcher) Run(ctx context.Context, event Event, hc Context) error {
	path := d.Path(event)
	logger := d.logger.With("event", string(event), "path", path)

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("no hook installed")
			return nil
		}
		return errors.NewHookError(string(event), path, err)
	}

	if !info.Mode().IsRegular() {
		logger.Warn("hook is not a regular file")
		return errors.NewHookError(string(event), path,
			fmt.Errorf("%w: not a regular file", errors.ErrHookNotExecutable))
	}
	if err := unix.Access(path, unix.X_OK); err != nil {
		logger.Warn("hook is not executable", "error", err.Error())
		return errors.NewHookError(string(event), path,
			fmt.Errorf("%w: %v", errors.ErrHookNotExecutable, err))
	}

	var output bytes.Buffer
	cmd := exec.CommandContext(ctx, path)
	cmd.Dir = d.dir
	cmd.Env = append(os.Environ(), hc.Env(event)...)
	cmd.Stdout = &output
	cmd.Stderr = &output

	start := time.Now()
	runErr := cmd.Run()
	logger.Debug("hook finished",
		"duration_ms", time.Since(start).Milliseconds(),
		"output", output.String(),
	)

	if runErr != nil {
		var hookErr *errors.HookError
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			hookErr = errors.NewHookError(string(event), path, errors.ErrHookFailed).
				WithExitCode(exitErr.ExitCode())
		} else {
			hookErr = errors.NewHookError(string(event), path,
				fmt.Errorf("%w: %v", errors.ErrHookFailed, runErr))
		}
		hookErr = hookErr.WithOutput(output.String())
		logger.Warn("hook failed", "error", hookErr.Error())
		return hookErr
	}

	logger.Info("hook ran")
	return nil
}
