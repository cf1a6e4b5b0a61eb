package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Iron-Ham/tomate/internal/logging"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "durations.pomodoro")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels, lowercased as they
// appear in the config file
func ValidLogLevels() []string {
	levels := logging.ValidLevels()
	for i, level := range levels {
		levels[i] = strings.ToLower(level)
	}
	return levels
}

// ValidHistoryBackends returns the list of valid history backends
func ValidHistoryBackends() []string {
	return []string{HistoryBackendTOML, HistoryBackendSQLite}
}

// ValidSchedulerBackends returns the list of valid scheduler backends
func ValidSchedulerBackends() []string {
	return []string{SchedulerBackendSystemd, SchedulerBackendNone}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateDurations()...)
	errors = append(errors, c.validatePaths()...)
	errors = append(errors, c.validateHistory()...)
	errors = append(errors, c.validateScheduler()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

func (c *Config) validateDurations() []ValidationError {
	var errors []ValidationError

	fields := []struct {
		name  string
		value time.Duration
	}{
		{"durations.pomodoro", c.Durations.Pomodoro},
		{"durations.short_break", c.Durations.ShortBreak},
		{"durations.long_break", c.Durations.LongBreak},
	}
	for _, f := range fields {
		if f.value <= 0 {
			errors = append(errors, ValidationError{
				Field:   f.name,
				Value:   f.value,
				Message: "must be positive",
			})
			continue
		}
		// Stored with second precision
		if f.value < time.Second {
			errors = append(errors, ValidationError{
				Field:   f.name,
				Value:   f.value,
				Message: "must be at least 1s",
			})
		}
	}

	return errors
}

func (c *Config) validatePaths() []ValidationError {
	var errors []ValidationError

	paths := []struct {
		name  string
		value string
	}{
		{"paths.hooks_dir", c.Paths.HooksDir},
		{"paths.state_file", c.Paths.StateFile},
		{"paths.history_file", c.Paths.HistoryFile},
	}
	for _, p := range paths {
		if strings.ContainsRune(p.value, '\x00') {
			errors = append(errors, ValidationError{
				Field:   p.name,
				Value:   p.value,
				Message: "path contains invalid null character",
			})
		}
	}

	if c.Paths.StateFile != "" && c.Paths.StateFile == c.Paths.HistoryFile {
		errors = append(errors, ValidationError{
			Field:   "paths.history_file",
			Value:   c.Paths.HistoryFile,
			Message: "must differ from paths.state_file",
		})
	}

	return errors
}

func (c *Config) validateHistory() []ValidationError {
	if slices.Contains(ValidHistoryBackends(), c.History.Backend) {
		return nil
	}
	return []ValidationError{{
		Field:   "history.backend",
		Value:   c.History.Backend,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidHistoryBackends(), ", ")),
	}}
}

func (c *Config) validateScheduler() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(ValidSchedulerBackends(), c.Scheduler.Backend) {
		errors = append(errors, ValidationError{
			Field:   "scheduler.backend",
			Value:   c.Scheduler.Backend,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidSchedulerBackends(), ", ")),
		})
	}

	if c.Scheduler.Accuracy < 0 {
		errors = append(errors, ValidationError{
			Field:   "scheduler.accuracy",
			Value:   c.Scheduler.Accuracy,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if c.Logging.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	}

	const maxLogSizeMB = 1000
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}
