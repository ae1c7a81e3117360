package errors

import (
	"fmt"
	"time"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// ExitCode is the recommended process exit code for this error.
	ExitCode int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, exitCode int) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		ExitCode:  exitCode,
		Retryable: IsRetryableCode(code),
	}
}

// Wrap converts any error into an AppError. A nil error stays nil, an
// AppError anywhere in the chain is returned as-is, anything else becomes
// an internal error with err as its cause.
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return Internal(err)
}

// --- Definition Errors ---

// Validation creates a new AppError for an invalid pipeline definition.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeValidation, Message: message,
		ExitCode: ExitValidation, Retryable: false,
	}
}

// ValidationIssues creates a new AppError aggregating all problems found
// in a pipeline definition, one issue per line.
func ValidationIssues(issues []string) *AppError {
	msg := "invalid pipeline definition"
	if len(issues) == 1 {
		msg = issues[0]
	}
	return &AppError{
		Code: ErrCodeValidation, Message: msg,
		ExitCode: ExitValidation, Retryable: false,
		Details: map[string]any{"issues": issues},
	}
}

// MissingField creates a new AppError for a missing required field.
func MissingField(field string) *AppError {
	return &AppError{
		Code: ErrCodeMissingField, Message: fmt.Sprintf("missing required field: %s", field),
		ExitCode: ExitValidation, Retryable: false,
		Details: map[string]any{"field": field},
	}
}

// InvalidFormat creates a new AppError for an invalid field format.
func InvalidFormat(field, expectedFormat string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidFormat, Message: fmt.Sprintf("invalid format for %s, expected %s", field, expectedFormat),
		ExitCode: ExitValidation, Retryable: false,
		Details: map[string]any{"field": field, "expected_format": expectedFormat},
	}
}

// --- Execution Errors ---

// Launch creates a new AppError for a command that could not be started.
func Launch(executable string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeLaunch, Message: fmt.Sprintf("cannot launch %q", executable),
		ExitCode: ExitFailure, Retryable: false,
		Details: map[string]any{"executable": executable}, Cause: cause,
	}
}

// Timeout creates a new AppError for a command that exceeded its deadline.
func Timeout(operation string, limit time.Duration) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: fmt.Sprintf("%s did not finish within %s", operation, limit),
		ExitCode: ExitFailure, Retryable: true,
		Details: map[string]any{"operation": operation, "timeout": limit.String()},
	}
}

// StageFailed creates a new AppError for a stage whose command exited non-zero.
func StageFailed(stage string, exitCode int) *AppError {
	return &AppError{
		Code: ErrCodeStageFailed, Message: fmt.Sprintf("stage %q failed with exit code %d", stage, exitCode),
		ExitCode: ExitFailure, Retryable: true,
		Details: map[string]any{"stage": stage, "exit_code": exitCode},
	}
}

// Cancelled creates a new AppError for an operation interrupted by run
// cancellation.
func Cancelled(operation string) *AppError {
	return &AppError{
		Code: ErrCodeCancelled, Message: fmt.Sprintf("%s was cancelled", operation),
		ExitCode: ExitFailure, Retryable: false,
		Details: map[string]any{"operation": operation},
	}
}

// --- Environment Errors ---

// Provisioning creates a new AppError for a requirement that could not be
// made available.
func Provisioning(requirement, reason string) *AppError {
	return &AppError{
		Code: ErrCodeProvisioning, Message: fmt.Sprintf("cannot provision %q: %s", requirement, reason),
		ExitCode: ExitFailure, Retryable: false,
		Details: map[string]any{"requirement": requirement},
	}
}

// --- Internal Errors ---

// Internal creates a new AppError for an unexpected internal error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "an unexpected error occurred",
		ExitCode: ExitFailure, Retryable: false, Cause: cause,
	}
}
