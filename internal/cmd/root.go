package cmd

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/tomate/internal/config"
	"github.com/Iron-Ham/tomate/internal/errors"
	"github.com/Iron-Ham/tomate/internal/history"
	"github.com/Iron-Ham/tomate/internal/hooks"
	"github.com/Iron-Ham/tomate/internal/lifecycle"
	"github.com/Iron-Ham/tomate/internal/logging"
	"github.com/Iron-Ham/tomate/internal/scheduler"
	"github.com/Iron-Ham/tomate/internal/session"
	"github.com/Iron-Ham/tomate/internal/tui/styles"
)

// app carries what the commands share: the viper instance, the loaded
// configuration and the collaborators built from it.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config

	// clock and sched override the real ones in tests.
	clock lifecycle.Clock
	sched scheduler.Scheduler
}

// silentError is returned when the command already printed everything the
// user needs; Execute reports failure through the exit code only.
type silentError struct {
	err error
}

func (e *silentError) Error() string { return e.err.Error() }
func (e *silentError) Unwrap() error { return e.err }

// IsSilent reports whether err should not be printed by the caller.
func IsSilent(err error) bool {
	var se *silentError
	return errors.As(err, &se)
}

// Report prints err the way the command line presents failures and returns
// the process exit code. Warnings do not fail the process. Errors that are
// not tomate's own, such as flag parsing failures, get a usage hint.
func Report(w io.Writer, err error) int {
	switch {
	case err == nil:
		return 0
	case IsSilent(err):
		return 1
	case errors.GetSeverity(err) <= errors.SeverityWarning:
		fmt.Fprintf(w, "warning: %v\n", err)
		return 0
	case errors.IsUserFacing(err):
		fmt.Fprintf(w, "Error: %v\n", err)
		return 1
	default:
		fmt.Fprintf(w, "Error: %v\n", err)
		fmt.Fprintln(w, "Run 'tomate --help' for usage.")
		return 1
	}
}

// Execute runs the tomate command line. ctx is cancelled on interrupt.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{v: viper.New()})
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tomate",
		Short: "A Pomodoro timer for the terminal",
		Long: `Tomate tracks one Pomodoro or break at a time.

Sessions survive between invocations: start one, close the terminal, and
check on it later. When a session runs out, the matching hook in the hooks
directory runs (pomodoro-end, shortbreak-end, ...). Finished Pomodoros are
archived to history.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			styles.Setup(cmd.OutOrStdout())
			return a.initConfig(cmd.Root().PersistentFlags())
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (default is $XDG_CONFIG_HOME/tomate/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(
		newStartCmd(a),
		newBreakCmd(a),
		newStatusCmd(a),
		newFinishCmd(a),
		newClearCmd(a),
		newTimerCmd(a),
		newHistoryCmd(a),
		newPurgeCmd(a),
		newConfigCmd(a),
	)
	return rootCmd
}

func (a *app) initConfig(flags *pflag.FlagSet) error {
	// Set defaults first so they're available even without a config file
	config.SetDefaultsOn(a.v)

	if err := a.v.BindPFlag("logging.level", flags.Lookup("log-level")); err != nil {
		return err
	}

	a.v.SetConfigType("yaml")
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		a.v.SetConfigFile(config.ConfigFile())
	}

	a.v.SetEnvPrefix("TOMATE")
	// e.g. TOMATE_DURATIONS_POMODORO for durations.pomodoro
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
		if !missing || a.cfgFile != "" {
			return errors.Wrap(err, "failed to read config file")
		}
	}

	cfg, err := config.LoadFrom(a.v)
	if err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	a.cfg = cfg
	return nil
}

// runtime holds the collaborators one command invocation works with.
type runtime struct {
	manager *lifecycle.Manager
	store   *session.Store
	logger  *logging.Logger
	history history.Store
}

func (r *runtime) Close() {
	_ = r.history.Close()
	_ = r.logger.Close()
}

// open wires the lifecycle manager from the loaded configuration.
func (a *app) open(errOut io.Writer) (*runtime, error) {
	cfg := a.cfg
	logger := a.openLogger(errOut)

	store := session.NewStore(cfg.Paths.ResolveStateFile(), logger)

	hist, err := history.Open(cfg.History.Backend, cfg.Paths.ResolveHistoryFile(cfg.History.Backend), logger)
	if err != nil {
		_ = logger.Close()
		return nil, errors.Wrapf(err, "failed to open %s history", cfg.History.Backend)
	}

	sched := a.sched
	if sched == nil {
		configFile, env := a.wakeupTarget()
		sched, err = scheduler.New(cfg.Scheduler, configFile, logger, scheduler.WithEnv(env))
		if err != nil {
			_ = hist.Close()
			_ = logger.Close()
			return nil, err
		}
	}

	manager := lifecycle.New(lifecycle.Options{
		Store:     store,
		History:   hist,
		Hooks:     hooks.NewDispatcher(cfg.Paths.ResolveHooksDir(), logger),
		Scheduler: sched,
		Clock:     a.clock,
		Durations: map[session.Kind]time.Duration{
			session.KindPomodoro:   cfg.Durations.Pomodoro,
			session.KindShortBreak: cfg.Durations.ShortBreak,
			session.KindLongBreak:  cfg.Durations.LongBreak,
		},
		Logger: logger,
	})

	return &runtime{manager: manager, store: store, logger: logger, history: hist}, nil
}

// wakeupTarget returns the config file and environment a scheduled expiry
// check needs to reach the same session, hooks and history as this
// invocation. The scheduled command runs in another directory and without
// the caller's TOMATE_* or XDG_* variables.
func (a *app) wakeupTarget() (string, map[string]string) {
	configFile := a.cfgFile
	if used := a.v.ConfigFileUsed(); configFile == "" && fileExists(used) {
		configFile = used
	}

	paths := a.cfg.Paths
	backend := a.cfg.History.Backend
	env := map[string]string{
		"TOMATE_HISTORY_BACKEND": backend,
	}
	for key, path := range map[string]string{
		"TOMATE_PATHS_STATE_FILE":   paths.ResolveStateFile(),
		"TOMATE_PATHS_HISTORY_FILE": paths.ResolveHistoryFile(backend),
		"TOMATE_PATHS_HOOKS_DIR":    paths.ResolveHooksDir(),
	} {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		env[key] = path
	}
	return configFile, env
}

func (a *app) openLogger(errOut io.Writer) *logging.Logger {
	if !a.cfg.Logging.Enabled {
		return logging.NopLogger()
	}
	logger, err := logging.NewFileLogger(a.cfg.Paths.ResolveLogFile(), logging.ParseLevel(a.cfg.Logging.Level), logging.RotationConfig{
		MaxSizeMB:  a.cfg.Logging.MaxSizeMB,
		MaxBackups: a.cfg.Logging.MaxBackups,
	})
	if err != nil {
		fmt.Fprintf(errOut, "warning: logging disabled: %v\n", err)
		return logging.NopLogger()
	}
	return logger
}

func (a *app) now() time.Time {
	if a.clock != nil {
		return a.clock.Now()
	}
	return time.Now()
}

// printWarnings reports problems that did not stop the operation.
func printWarnings(w io.Writer, warnings []error) {
	for _, warning := range warnings {
		fmt.Fprintf(w, "warning: %v\n", warning)
	}
}
