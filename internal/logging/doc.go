// Package logging provides structured diagnostic logging for tomate.
//
// This package wraps Go's log/slog with a JSON handler. Every tomate
// invocation is short-lived, so the log file is the only record of what a
// scheduler-triggered "timer check" did while nobody was watching.
//
// # Basic Usage
//
//	logger, err := logging.NewFileLogger("/home/me/.local/state/tomate/tomate.log", "INFO", logging.DefaultRotationConfig())
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.Info("session started", "kind", "pomodoro")
//
// # Context Propagation
//
// Child loggers carry persistent attributes:
//
//	sessionLogger := logger.WithSession(rec.ID)
//	sessionLogger.With("event", "pomodoro-end").Warn("hook failed", "exit_code", 1)
//
// Output:
//
//	{"time":"...","level":"WARN","msg":"hook failed","session_id":"2f1c...","event":"pomodoro-end","exit_code":1}
//
// # Log Rotation
//
// [RotatingWriter] rotates the file when it exceeds MaxSizeMB, keeping
// MaxBackups numbered backups (tomate.log.1 is the newest).
//
// # Testing
//
// Use [NopLogger] to discard output, or [New] with a bytes.Buffer to
// assert on log lines.
package logging
