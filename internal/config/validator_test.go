package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidationError_Error(t *testing.T) {
	err := ValidationError{
		Field:   "durations.pomodoro",
		Value:   0,
		Message: "must be positive",
	}

	expected := "durations.pomodoro: must be positive (got: 0)"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestValidationErrors_Error(t *testing.T) {
	t.Run("empty errors", func(t *testing.T) {
		var errs ValidationErrors
		if errs.Error() != "" {
			t.Errorf("Error() for empty = %q, want empty string", errs.Error())
		}
	})

	t.Run("multiple errors", func(t *testing.T) {
		errs := ValidationErrors{
			{Field: "field1", Value: "bad", Message: "is invalid"},
			{Field: "field2", Value: -1, Message: "must be positive"},
		}
		result := errs.Error()
		if !strings.Contains(result, "2 validation errors") {
			t.Errorf("Error() should mention 2 errors: %s", result)
		}
		if !strings.Contains(result, "field1") || !strings.Contains(result, "field2") {
			t.Errorf("Error() should mention both fields: %s", result)
		}
	})
}

func TestConfig_Validate_DefaultConfig(t *testing.T) {
	if errs := Default().Validate(); len(errs) != 0 {
		t.Errorf("default config should be valid, got: %v", errs)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:      "zero pomodoro",
			mutate:    func(c *Config) { c.Durations.Pomodoro = 0 },
			wantField: "durations.pomodoro",
		},
		{
			name:      "negative short break",
			mutate:    func(c *Config) { c.Durations.ShortBreak = -time.Minute },
			wantField: "durations.short_break",
		},
		{
			name:      "sub-second long break",
			mutate:    func(c *Config) { c.Durations.LongBreak = 500 * time.Millisecond },
			wantField: "durations.long_break",
		},
		{
			name:      "null byte in hooks dir",
			mutate:    func(c *Config) { c.Paths.HooksDir = "/tmp/\x00hooks" },
			wantField: "paths.hooks_dir",
		},
		{
			name: "history file same as state file",
			mutate: func(c *Config) {
				c.Paths.StateFile = "/tmp/tomate.toml"
				c.Paths.HistoryFile = "/tmp/tomate.toml"
			},
			wantField: "paths.history_file",
		},
		{
			name:      "unknown history backend",
			mutate:    func(c *Config) { c.History.Backend = "csv" },
			wantField: "history.backend",
		},
		{
			name:      "unknown scheduler backend",
			mutate:    func(c *Config) { c.Scheduler.Backend = "cron" },
			wantField: "scheduler.backend",
		},
		{
			name:      "negative accuracy",
			mutate:    func(c *Config) { c.Scheduler.Accuracy = -time.Second },
			wantField: "scheduler.accuracy",
		},
		{
			name:      "bad log level",
			mutate:    func(c *Config) { c.Logging.Level = "verbose" },
			wantField: "logging.level",
		},
		{
			name:      "zero log size",
			mutate:    func(c *Config) { c.Logging.MaxSizeMB = 0 },
			wantField: "logging.max_size_mb",
		},
		{
			name:      "huge log size",
			mutate:    func(c *Config) { c.Logging.MaxSizeMB = 5000 },
			wantField: "logging.max_size_mb",
		},
		{
			name:      "negative backups",
			mutate:    func(c *Config) { c.Logging.MaxBackups = -1 },
			wantField: "logging.max_backups",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			errs := cfg.Validate()
			if len(errs) != 1 {
				t.Fatalf("Validate() returned %d errors, want 1: %v", len(errs), errs)
			}
			if errs[0].Field != tt.wantField {
				t.Errorf("Field = %q, want %q", errs[0].Field, tt.wantField)
			}
		})
	}
}

func TestConfig_Validate_ZeroAccuracyAllowed(t *testing.T) {
	cfg := Default()
	cfg.Scheduler.Accuracy = 0
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("zero accuracy should be valid, got: %v", errs)
	}
}
