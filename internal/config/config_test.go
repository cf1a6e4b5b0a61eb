package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	if cfg.Durations.Pomodoro != 25*time.Minute {
		t.Errorf("Durations.Pomodoro = %v, want 25m", cfg.Durations.Pomodoro)
	}
	if cfg.Durations.ShortBreak != 5*time.Minute {
		t.Errorf("Durations.ShortBreak = %v, want 5m", cfg.Durations.ShortBreak)
	}
	if cfg.Durations.LongBreak != 15*time.Minute {
		t.Errorf("Durations.LongBreak = %v, want 15m", cfg.Durations.LongBreak)
	}
	if cfg.History.Backend != HistoryBackendTOML {
		t.Errorf("History.Backend = %q, want %q", cfg.History.Backend, HistoryBackendTOML)
	}
	if cfg.Scheduler.Backend != SchedulerBackendSystemd {
		t.Errorf("Scheduler.Backend = %q, want %q", cfg.Scheduler.Backend, SchedulerBackendSystemd)
	}
	if cfg.Scheduler.Accuracy != 100*time.Millisecond {
		t.Errorf("Scheduler.Accuracy = %v, want 100ms", cfg.Scheduler.Accuracy)
	}
	if !cfg.Logging.Enabled {
		t.Error("Logging.Enabled should be true by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
}

// newTestViper returns a viper instance with defaults registered and, if
// content is non-empty, a config file read from an in-memory filesystem.
func newTestViper(t *testing.T, content string) *viper.Viper {
	t.Helper()

	v := viper.New()
	SetDefaultsOn(v)
	if content == "" {
		return v
	}

	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/etc/tomate/config.yaml", []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	v.SetFs(fs)
	v.SetConfigFile("/etc/tomate/config.yaml")
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig() error = %v", err)
	}
	return v
}

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(newTestViper(t, ""))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	want := Default()
	if cfg.Durations != want.Durations {
		t.Errorf("Durations = %+v, want %+v", cfg.Durations, want.Durations)
	}
	if cfg.Scheduler != want.Scheduler {
		t.Errorf("Scheduler = %+v, want %+v", cfg.Scheduler, want.Scheduler)
	}
	if cfg.Logging != want.Logging {
		t.Errorf("Logging = %+v, want %+v", cfg.Logging, want.Logging)
	}
}

func TestLoadFrom_ConfigFile(t *testing.T) {
	v := newTestViper(t, `
durations:
  pomodoro: 50m
  short_break: 10m
paths:
  hooks_dir: /opt/hooks
history:
  backend: sqlite
scheduler:
  backend: none
logging:
  level: debug
`)

	cfg, err := LoadFrom(v)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Durations.Pomodoro != 50*time.Minute {
		t.Errorf("Durations.Pomodoro = %v, want 50m", cfg.Durations.Pomodoro)
	}
	if cfg.Durations.ShortBreak != 10*time.Minute {
		t.Errorf("Durations.ShortBreak = %v, want 10m", cfg.Durations.ShortBreak)
	}
	if cfg.Durations.LongBreak != 15*time.Minute {
		t.Errorf("Durations.LongBreak = %v, want default 15m", cfg.Durations.LongBreak)
	}
	if cfg.Paths.HooksDir != "/opt/hooks" {
		t.Errorf("Paths.HooksDir = %q, want /opt/hooks", cfg.Paths.HooksDir)
	}
	if cfg.History.Backend != HistoryBackendSQLite {
		t.Errorf("History.Backend = %q, want sqlite", cfg.History.Backend)
	}
	if cfg.Scheduler.Backend != SchedulerBackendNone {
		t.Errorf("Scheduler.Backend = %q, want none", cfg.Scheduler.Backend)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadFrom_InvalidConfig(t *testing.T) {
	v := newTestViper(t, `
durations:
  pomodoro: 0s
history:
  backend: csv
`)

	_, err := LoadFrom(v)
	if err == nil {
		t.Fatal("LoadFrom() should fail for invalid config")
	}

	errs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("error type = %T, want ValidationErrors", err)
	}
	if len(errs) != 2 {
		t.Errorf("got %d validation errors, want 2: %v", len(errs), errs)
	}
}

func TestLoadFrom_BadDuration(t *testing.T) {
	v := newTestViper(t, "durations:\n  pomodoro: twenty\n")

	if _, err := LoadFrom(v); err == nil {
		t.Error("LoadFrom() should fail for unparseable duration")
	}
}

func TestConfigDir(t *testing.T) {
	t.Run("with XDG_CONFIG_HOME set", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/custom/config")

		if got := ConfigDir(); got != "/custom/config/tomate" {
			t.Errorf("ConfigDir() = %q, want /custom/config/tomate", got)
		}
	})

	t.Run("without XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")

		home, err := os.UserHomeDir()
		if err != nil {
			t.Skip("could not get home directory")
		}
		want := filepath.Join(home, ".config", "tomate")
		if got := ConfigDir(); got != want {
			t.Errorf("ConfigDir() = %q, want %q", got, want)
		}
	})
}

func TestConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")

	if got := ConfigFile(); got != "/custom/config/tomate/config.yaml" {
		t.Errorf("ConfigFile() = %q", got)
	}
}

func TestPathsConfig_Resolve(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
	t.Setenv("XDG_STATE_HOME", "/xdg/state")
	t.Setenv("XDG_DATA_HOME", "/xdg/data")

	var p PathsConfig
	if got := p.ResolveHooksDir(); got != "/xdg/config/tomate/hooks" {
		t.Errorf("ResolveHooksDir() = %q", got)
	}
	if got := p.ResolveStateFile(); got != "/xdg/state/tomate/current.toml" {
		t.Errorf("ResolveStateFile() = %q", got)
	}
	if got := p.ResolveHistoryFile(HistoryBackendTOML); got != "/xdg/data/tomate/history.toml" {
		t.Errorf("ResolveHistoryFile(toml) = %q", got)
	}
	if got := p.ResolveHistoryFile(HistoryBackendSQLite); got != "/xdg/data/tomate/history.db" {
		t.Errorf("ResolveHistoryFile(sqlite) = %q", got)
	}
	if got := p.ResolveLogFile(); got != "/xdg/state/tomate/tomate.log" {
		t.Errorf("ResolveLogFile() = %q", got)
	}
}

func TestPathsConfig_ExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("could not get home directory")
	}

	p := PathsConfig{
		HooksDir:  "~/hooks",
		StateFile: "/abs/state.toml",
	}
	if got := p.ResolveHooksDir(); got != filepath.Join(home, "hooks") {
		t.Errorf("ResolveHooksDir() = %q, want %q", got, filepath.Join(home, "hooks"))
	}
	if got := p.ResolveStateFile(); got != "/abs/state.toml" {
		t.Errorf("ResolveStateFile() = %q", got)
	}
	if got := p.ResolveLogFile(); !strings.HasPrefix(got, "/abs/") {
		t.Errorf("ResolveLogFile() = %q, want next to state file", got)
	}
}
