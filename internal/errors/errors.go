// Package errors provides the error taxonomy for tomate. It defines sentinel
// errors for each failure class of the session lifecycle, typed errors that
// carry context (paths, hook events, exit codes), and helpers that let the
// CLI boundary decide how to present an error.
//
// # Error Types
//
// Domain-specific errors:
//   - SessionError: lifecycle precondition failures (no session, already active)
//   - StateError: a persisted file exists but cannot be parsed
//   - StorageError: I/O failure on the state or history files
//   - HookError: a hook script is misconfigured or exited non-zero (warning)
//   - SchedulerError: the deferred wake-up could not be registered (warning)
//
// Semantic errors:
//   - ValidationError: invalid input, such as a negative duration
//
// # Usage
//
//	if errors.Is(err, errors.ErrNoActiveSession) { ... }
//
//	var stateErr *errors.StateError
//	if errors.As(err, &stateErr) {
//	    fmt.Println("corrupt file:", stateErr.Path)
//	}
//
//	if errors.IsWarning(err) {
//	    // report, but keep going
//	}
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions so callers only need this package.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are only useful while debugging.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for problems that must be reported but never abort
	// a session transition.
	SeverityWarning
	// SeverityError is for errors that fail the requested operation.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Lifecycle sentinel errors
var (
	// ErrNoActiveSession indicates the operation requires a session but none exists.
	ErrNoActiveSession = New("no active session")
	// ErrSessionAlreadyActive indicates a start was requested while a session exists.
	ErrSessionAlreadyActive = New("a session is already active")
)

// Persistence sentinel errors
var (
	// ErrCorruptState indicates a persisted file exists but cannot be parsed.
	ErrCorruptState = New("corrupt state")
	// ErrStorage indicates an I/O failure reading or writing persisted files.
	ErrStorage = New("storage error")
)

// Hook and scheduler sentinel errors
var (
	// ErrHookNotExecutable indicates a hook file exists but cannot be executed.
	ErrHookNotExecutable = New("hook is not executable")
	// ErrHookFailed indicates a hook script exited with a non-zero status.
	ErrHookFailed = New("hook failed")
	// ErrSchedulerUnavailable indicates no deferred wake-up facility is available.
	ErrSchedulerUnavailable = New("scheduler unavailable")
)

// General sentinel errors
var (
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error
// -----------------------------------------------------------------------------

// TomateError is implemented by every typed error in this package.
type TomateError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsUserFacing returns true if the message is safe to show to end users.
	IsUserFacing() bool
}

type baseError struct {
	message    string
	cause      error
	severity   Severity
	userFacing bool
}

func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *baseError) Unwrap() error {
	return e.cause
}

func (e *baseError) Severity() Severity {
	return e.severity
}

func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// format renders "<prefix> [k=v, ...]: message: cause", dropping empty parts.
func (e *baseError) format(prefix string, parts []string) string {
	if len(parts) > 0 {
		prefix = fmt.Sprintf("%s [%s]", prefix, strings.Join(parts, ", "))
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// SessionError represents a lifecycle precondition failure.
//
// Example:
//
//	err := errors.NewSessionError("cannot start", errors.ErrSessionAlreadyActive).WithKind("pomodoro")
//	fmt.Println(err) // "session error [kind=pomodoro]: cannot start: a session is already active"
type SessionError struct {
	baseError
	Kind string
}

// NewSessionError creates a new SessionError.
func NewSessionError(message string, cause error) *SessionError {
	return &SessionError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			userFacing: true,
		},
	}
}

// WithKind records the kind of the session involved.
func (e *SessionError) WithKind(kind string) *SessionError {
	e.Kind = kind
	return e
}

// Error returns the formatted error message.
func (e *SessionError) Error() string {
	var parts []string
	if e.Kind != "" {
		parts = append(parts, "kind="+e.Kind)
	}
	return e.format("session error", parts)
}

// StateError represents a persisted file that exists but cannot be parsed.
// It always matches ErrCorruptState.
type StateError struct {
	baseError
	Path string
}

// NewStateError creates a new StateError for the file at path.
func NewStateError(path string, cause error) *StateError {
	return &StateError{
		baseError: baseError{
			message:    "cannot parse file",
			cause:      cause,
			severity:   SeverityError,
			userFacing: true,
		},
		Path: path,
	}
}

// Error returns the formatted error message.
func (e *StateError) Error() string {
	var parts []string
	if e.Path != "" {
		parts = append(parts, "path="+e.Path)
	}
	return e.format("corrupt state", parts)
}

// Is reports whether target is ErrCorruptState.
func (e *StateError) Is(target error) bool {
	return target == ErrCorruptState
}

// StorageError represents an I/O failure on a persisted file.
// It always matches ErrStorage.
type StorageError struct {
	baseError
	Op   string
	Path string
}

// NewStorageError creates a new StorageError. op names the failed operation,
// e.g. "write" or "rename".
func NewStorageError(op, path string, cause error) *StorageError {
	return &StorageError{
		baseError: baseError{
			message:    op + " failed",
			cause:      cause,
			severity:   SeverityError,
			userFacing: true,
		},
		Op:   op,
		Path: path,
	}
}

// Error returns the formatted error message.
func (e *StorageError) Error() string {
	var parts []string
	if e.Path != "" {
		parts = append(parts, "path="+e.Path)
	}
	return e.format("storage error", parts)
}

// Is reports whether target is ErrStorage.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// HookError represents a hook that could not be run or failed. Hook errors
// are warnings: they are reported to the user but never abort a transition.
//
// Example:
//
//	err := errors.NewHookError("pomodoro-end", "/hooks/pomodoro-end", errors.ErrHookFailed).WithExitCode(2)
//	fmt.Println(err) // "hook error [event=pomodoro-end, path=/hooks/pomodoro-end, exit=2]: hook failed"
type HookError struct {
	baseError
	Event    string
	Path     string
	ExitCode int
	Output   string
}

// NewHookError creates a new HookError. cause should be ErrHookNotExecutable,
// ErrHookFailed, or an error wrapping one of them.
func NewHookError(event, path string, cause error) *HookError {
	return &HookError{
		baseError: baseError{
			message:    "hook " + event,
			cause:      cause,
			severity:   SeverityWarning,
			userFacing: true,
		},
		Event: event,
		Path:  path,
	}
}

// WithExitCode records the exit status of the hook process.
func (e *HookError) WithExitCode(code int) *HookError {
	e.ExitCode = code
	return e
}

// WithOutput records the combined output of the hook process.
func (e *HookError) WithOutput(output string) *HookError {
	e.Output = output
	return e
}

// Error returns the formatted error message.
func (e *HookError) Error() string {
	parts := []string{"event=" + e.Event}
	if e.Path != "" {
		parts = append(parts, "path="+e.Path)
	}
	if e.ExitCode != 0 {
		parts = append(parts, fmt.Sprintf("exit=%d", e.ExitCode))
	}
	prefix := fmt.Sprintf("hook error [%s]", strings.Join(parts, ", "))
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", prefix, e.cause)
	}
	return prefix
}

// SchedulerError represents a failure to register a deferred wake-up. The
// user keeps manual status/finish as a fallback, so it is a warning.
type SchedulerError struct {
	baseError
	Output string
}

// NewSchedulerError creates a new SchedulerError.
func NewSchedulerError(message string, cause error) *SchedulerError {
	return &SchedulerError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityWarning,
			userFacing: true,
		},
	}
}

// WithOutput records the output of the scheduling command.
func (e *SchedulerError) WithOutput(output string) *SchedulerError {
	e.Output = strings.TrimSpace(output)
	return e
}

// Error returns the formatted error message.
func (e *SchedulerError) Error() string {
	msg := e.format("scheduler error", nil)
	if e.Output != "" {
		msg += " (" + e.Output + ")"
	}
	return msg
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// ValidationError represents invalid input.
//
// Example:
//
//	err := errors.NewValidationError("duration must be positive").WithField("duration").WithValue("-5m")
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityError,
			userFacing: true,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, "field="+e.Field)
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}
	return e.format("validation error", parts)
}

// Is reports whether target is ErrInvalidInput.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// -----------------------------------------------------------------------------
// Classification Helpers
// -----------------------------------------------------------------------------

// GetSeverity returns the severity level of err. Errors that don't implement
// TomateError are treated as SeverityError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var te TomateError
	if As(err, &te) {
		return te.Severity()
	}
	return SeverityError
}

// IsWarning returns true if err should be reported without failing the
// operation that produced it.
func IsWarning(err error) bool {
	return err != nil && GetSeverity(err) <= SeverityWarning
}

// IsUserFacing returns true if the error message is safe to display as-is.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	var te TomateError
	if As(err, &te) {
		return te.IsUserFacing()
	}
	return false
}

// Wrap wraps an error with additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
