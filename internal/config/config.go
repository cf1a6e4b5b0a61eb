package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config represents the complete tomate configuration
type Config struct {
	Durations DurationsConfig `mapstructure:"durations"`
	Paths     PathsConfig     `mapstructure:"paths"`
	History   HistoryConfig   `mapstructure:"history"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// DurationsConfig holds the default length of each session kind.
// Values are written as Go durations in the config file, e.g. "25m".
type DurationsConfig struct {
	Pomodoro   time.Duration `mapstructure:"pomodoro"`
	ShortBreak time.Duration `mapstructure:"short_break"`
	LongBreak  time.Duration `mapstructure:"long_break"`
}

// PathsConfig controls where tomate keeps its files. Empty values resolve
// to XDG base directories; a leading "~/" is expanded.
type PathsConfig struct {
	// HooksDir holds scripts named after hook events (pomodoro-start, ...)
	HooksDir string `mapstructure:"hooks_dir"`
	// StateFile holds the current session
	StateFile string `mapstructure:"state_file"`
	// HistoryFile holds completed Pomodoros
	HistoryFile string `mapstructure:"history_file"`
}

// HistoryConfig selects the history backend
type HistoryConfig struct {
	// Backend is "toml" (default) or "sqlite"
	Backend string `mapstructure:"backend"`
}

// SchedulerConfig controls how expiry wake-ups are registered with the host
type SchedulerConfig struct {
	// Backend is "systemd" (default) or "none"
	Backend string `mapstructure:"backend"`
	// Accuracy is passed to systemd as AccuracySec
	Accuracy time.Duration `mapstructure:"accuracy"`
}

// LoggingConfig controls the diagnostic log
type LoggingConfig struct {
	// Enabled writes a JSON log next to the state file (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is one of debug, info, warn, error (default: info)
	Level string `mapstructure:"level"`
	// MaxSizeMB rotates the log when it exceeds this size (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of rotated logs to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
}

// History backends
const (
	HistoryBackendTOML   = "toml"
	HistoryBackendSQLite = "sqlite"
)

// Scheduler backends
const (
	SchedulerBackendSystemd = "systemd"
	SchedulerBackendNone    = "none"
)

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Durations: DurationsConfig{
			Pomodoro:   25 * time.Minute,
			ShortBreak: 5 * time.Minute,
			LongBreak:  15 * time.Minute,
		},
		Paths: PathsConfig{
			HooksDir:    "", // Empty means $XDG_CONFIG_HOME/tomate/hooks
			StateFile:   "", // Empty means $XDG_STATE_HOME/tomate/current.toml
			HistoryFile: "", // Empty means $XDG_DATA_HOME/tomate/history.<backend>
		},
		History: HistoryConfig{
			Backend: HistoryBackendTOML,
		},
		Scheduler: SchedulerConfig{
			Backend:  SchedulerBackendSystemd,
			Accuracy: 100 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// SetDefaultsOn registers default values with v
func SetDefaultsOn(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("durations.pomodoro", defaults.Durations.Pomodoro.String())
	v.SetDefault("durations.short_break", defaults.Durations.ShortBreak.String())
	v.SetDefault("durations.long_break", defaults.Durations.LongBreak.String())

	v.SetDefault("paths.hooks_dir", defaults.Paths.HooksDir)
	v.SetDefault("paths.state_file", defaults.Paths.StateFile)
	v.SetDefault("paths.history_file", defaults.Paths.HistoryFile)

	v.SetDefault("history.backend", defaults.History.Backend)

	v.SetDefault("scheduler.backend", defaults.Scheduler.Backend)
	v.SetDefault("scheduler.accuracy", defaults.Scheduler.Accuracy.String())

	v.SetDefault("logging.enabled", defaults.Logging.Enabled)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
}

// LoadFrom reads the configuration from v and validates it
func LoadFrom(v *viper.Viper) (*Config, error) {
	var cfg Config
	hook := viper.DecodeHook(mapstructure.StringToTimeDurationHookFunc())
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// StateDir returns the directory holding the current session by default
func StateDir() string {
	return xdgDir("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

// DataDir returns the directory holding history by default
func DataDir() string {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

func xdgDir(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, "tomate")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tomate"
	}
	return filepath.Join(home, fallback, "tomate")
}

// ResolveHooksDir returns the hooks directory, falling back to
// <config dir>/hooks.
func (p *PathsConfig) ResolveHooksDir() string {
	if p.HooksDir != "" {
		return expandHome(p.HooksDir)
	}
	return filepath.Join(ConfigDir(), "hooks")
}

// ResolveStateFile returns the current-session file path.
func (p *PathsConfig) ResolveStateFile() string {
	if p.StateFile != "" {
		return expandHome(p.StateFile)
	}
	return filepath.Join(StateDir(), "current.toml")
}

// ResolveHistoryFile returns the history file path. The default file name
// depends on the backend: history.toml or history.db.
func (p *PathsConfig) ResolveHistoryFile(backend string) string {
	if p.HistoryFile != "" {
		return expandHome(p.HistoryFile)
	}
	name := "history.toml"
	if backend == HistoryBackendSQLite {
		name = "history.db"
	}
	return filepath.Join(DataDir(), name)
}

// ResolveLogFile returns the diagnostic log path, next to the state file.
func (p *PathsConfig) ResolveLogFile() string {
	return filepath.Join(filepath.Dir(p.ResolveStateFile()), "tomate.log")
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
