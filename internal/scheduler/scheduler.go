// Package scheduler registers a one-shot wake-up with the host so that
// "tomate timer check" runs when a session is due, even if no tomate
// process is alive at that moment.
//
// Scheduling is fire-and-forget. Wake-ups are never tracked or cancelled;
// a stale wake-up simply finds no session (or an already notified one) and
// does nothing.
package scheduler

import (
	"context"
	"fmt"
	"maps"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"time"

	"github.com/Iron-Ham/tomate/internal/config"
	"github.com/Iron-Ham/tomate/internal/errors"
	"github.com/Iron-Ham/tomate/internal/logging"
)

// Scheduler arranges for the expiry check to run at a point in time.
type Scheduler interface {
	Schedule(ctx context.Context, at time.Time) error
}

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// SystemdScheduler schedules wake-ups with transient systemd user timers.
type SystemdScheduler struct {
	// Executable is the tomate binary the timer invokes.
	Executable string
	// ConfigFile, when set, is passed through as --config.
	ConfigFile string
	// Env is set in the transient unit, which does not inherit the
	// caller's environment.
	Env map[string]string
	// Accuracy is the timer's AccuracySec.
	Accuracy time.Duration

	binary   string
	run      Runner
	lookPath func(string) (string, error)
	now      func() time.Time
	logger   *logging.Logger
}

// Option configures a SystemdScheduler.
type Option func(*SystemdScheduler)

// WithRunner replaces the command runner.
func WithRunner(r Runner) Option {
	return func(s *SystemdScheduler) { s.run = r }
}

// WithLookPath replaces the executable lookup used to find systemd-run.
func WithLookPath(fn func(string) (string, error)) Option {
	return func(s *SystemdScheduler) { s.lookPath = fn }
}

// WithClock replaces the time source used to compute the delay.
func WithClock(now func() time.Time) Option {
	return func(s *SystemdScheduler) { s.now = now }
}

// WithEnv sets environment variables for the scheduled command.
func WithEnv(env map[string]string) Option {
	return func(s *SystemdScheduler) { s.Env = env }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *SystemdScheduler) { s.logger = l }
}

// NewSystemdScheduler returns a scheduler that runs executable via
// systemd-run.
func NewSystemdScheduler(executable, configFile string, accuracy time.Duration, opts ...Option) *SystemdScheduler {
	s := &SystemdScheduler{
		Executable: executable,
		ConfigFile: configFile,
		Accuracy:   accuracy,
		binary:     "systemd-run",
		run:        execRunner,
		lookPath:   exec.LookPath,
		now:        time.Now,
		logger:     logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Args returns the systemd-run arguments for a wake-up after delay.
func (s *SystemdScheduler) Args(delay time.Duration) []string {
	secs := int64(math.Ceil(delay.Seconds()))
	if secs < 1 {
		secs = 1
	}

	args := []string{
		"--user",
		fmt.Sprintf("--on-active=%ds", secs),
		fmt.Sprintf("--timer-property=AccuracySec=%dms", s.Accuracy.Milliseconds()),
	}
	for _, key := range slices.Sorted(maps.Keys(s.Env)) {
		args = append(args, fmt.Sprintf("--setenv=%s=%s", key, s.Env[key]))
	}
	args = append(args, s.Executable)
	if s.ConfigFile != "" {
		args = append(args, "--config", s.ConfigFile)
	}
	return append(args, "timer", "check")
}

// Schedule registers a transient timer firing at at. The delay is rounded
// up to whole seconds and is never less than one second.
func (s *SystemdScheduler) Schedule(ctx context.Context, at time.Time) error {
	bin, err := s.lookPath(s.binary)
	if err != nil {
		return errors.NewSchedulerError("cannot schedule expiry check",
			fmt.Errorf("%w: %s not found", errors.ErrSchedulerUnavailable, s.binary))
	}

	args := s.Args(at.Sub(s.now()))
	s.logger.Debug("scheduling expiry check", "command", bin, "args", args)

	out, err := s.run(ctx, bin, args...)
	if err != nil {
		s.logger.Warn("systemd-run failed", "error", err.Error(), "output", string(out))
		return errors.NewSchedulerError("systemd-run failed", err).WithOutput(string(out))
	}

	s.logger.Info("expiry check scheduled", "at", at.Format(time.RFC3339))
	return nil
}

// NopScheduler never schedules anything. Sessions still expire; the end
// hook fires on the next finish or timer check.
type NopScheduler struct{}

// Schedule does nothing.
func (NopScheduler) Schedule(context.Context, time.Time) error {
	return nil
}

// New returns the scheduler selected by cfg. configFile is forwarded to the
// scheduled command so it sees the same configuration; a relative path is
// made absolute because the command runs from another directory.
func New(cfg config.SchedulerConfig, configFile string, logger *logging.Logger, opts ...Option) (Scheduler, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}
	switch cfg.Backend {
	case config.SchedulerBackendNone:
		return NopScheduler{}, nil
	case config.SchedulerBackendSystemd, "":
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to locate tomate executable: %w", err)
		}
		if configFile != "" {
			if configFile, err = filepath.Abs(configFile); err != nil {
				return nil, fmt.Errorf("failed to resolve config file: %w", err)
			}
		}
		opts = append([]Option{WithLogger(logger)}, opts...)
		return NewSystemdScheduler(exe, configFile, cfg.Accuracy, opts...), nil
	default:
		return nil, fmt.Errorf("unknown scheduler backend %q", cfg.Backend)
	}
}
