package apperrors

import (
	"context"
	"errors"
	"fmt"
)

// Application exit codes define the standard exit statuses for the application.
// These codes are used to signal the outcome of the program execution to the OS.
const (
	ExitSuccess       = 0   // Indicates successful execution.
	ExitErrorGeneric  = 1   // Indicates a generic error.
	ExitErrorTimeout  = 2   // Indicates the batch exceeded --timeout.
	ExitErrorConfig   = 4   // Indicates a configuration error.
	ExitErrorInput    = 5   // Indicates an invalid input token.
	ExitErrorCanceled = 130 // Indicates the operation was canceled (e.g., SIGINT).
)

// ConfigError represents a user configuration error, such as a non-numeric
// threshold in the environment or a malformed config file. The application
// cannot start when one is returned.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the error message for a ConfigError.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
//
// Parameters:
//   - format: A format string (see fmt.Sprintf).
//   - a: Arguments to be formatted into the string.
//
// Returns:
//   - error: A new ConfigError instance containing the formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// ValidationError represents an input token that could not be parsed as a
// non-negative integer. Field holds the offending token verbatim so the
// message can name it.
type ValidationError struct {
	// Field is the raw token that failed validation.
	Field string
	// Position is the 1-based position of the token among the inputs.
	Position int
	// Message describes the expected format.
	Message string
}

// Error returns a message naming the offending token and the expected format.
func (e ValidationError) Error() string {
	if e.Position > 0 {
		return fmt.Sprintf("'%s' is not a valid number (argument %d): %s", e.Field, e.Position, e.Message)
	}
	return fmt.Sprintf("'%s' is not a valid number: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError for the token at position.
func NewValidationError(token string, position int) error {
	return ValidationError{
		Field:    token,
		Position: position,
		Message:  "expected a non-negative base-10 integer",
	}
}

// WrapError wraps an error with additional context using fmt.Errorf and %w.
// This allows the wrapped error to be unwrapped with errors.Unwrap() and
// checked with errors.Is() and errors.As().
//
// Parameters:
//   - err: The error to wrap.
//   - format: A format string for the context message.
//   - args: Arguments for the format string.
//
// Returns:
//   - error: The wrapped error, or nil if err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsContextError checks if the error is a context cancellation or deadline exceeded error.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// ExitCodeFor maps an error to the exit code the process should return.
// A nil error maps to ExitSuccess.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var configErr ConfigError
	if errors.As(err, &configErr) {
		return ExitErrorConfig
	}
	var validationErr ValidationError
	if errors.As(err, &validationErr) {
		return ExitErrorInput
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ExitErrorTimeout
	}
	if IsContextError(err) {
		return ExitErrorCanceled
	}
	return ExitErrorGeneric
}
