package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Definition errors (nothing was executed)
const (
	// ErrCodeValidation indicates the pipeline definition is invalid:
	// cyclic or dangling dependencies, duplicate stage names, bad manifests.
	ErrCodeValidation ErrorCode = "VALIDATION"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
	// ErrCodeInvalidFormat indicates a field has an invalid format.
	ErrCodeInvalidFormat ErrorCode = "INVALID_FORMAT"
)

// Execution errors
const (
	// ErrCodeLaunch indicates a command could not be started at all:
	// the executable is missing or not runnable.
	ErrCodeLaunch ErrorCode = "LAUNCH_FAILED"
	// ErrCodeTimeout indicates a command exceeded its execution deadline.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeStageFailed indicates a stage command exited non-zero.
	ErrCodeStageFailed ErrorCode = "STAGE_FAILED"
	// ErrCodeCancelled indicates the surrounding run was cancelled.
	ErrCodeCancelled ErrorCode = "CANCELLED"
)

// Environment errors
const (
	// ErrCodeProvisioning indicates a required tool could not be installed
	// or its check still fails after installation.
	ErrCodeProvisioning ErrorCode = "PROVISIONING_FAILED"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Process exit codes. A run exits zero only when every stage succeeded.
// Definition problems get a distinct code so callers can tell "your
// pipeline is broken" apart from "your build is broken".
const (
	ExitSuccess    = 0
	ExitFailure    = 1
	ExitValidation = 2
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeTimeout:     true,
	ErrCodeStageFailed: true,
	ErrCodeLaunch:      false,
	ErrCodeValidation:  false,
	ErrCodeCancelled:   false,
	ErrCodeInternal:    false,
}

// IsRetryableCode returns true if the error code indicates an error that
// a re-run of the same command might not reproduce.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}

// IsRetryable reports whether err carries a retryable error code.
// Non-structured errors are never retryable.
func IsRetryable(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Retryable
	}
	return false
}

// ExitCodeFor returns the process exit code for err: ExitSuccess for nil,
// the error's own exit code for structured errors, ExitFailure otherwise.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if appErr, ok := AsAppError(err); ok && appErr.ExitCode != 0 {
		return appErr.ExitCode
	}
	return ExitFailure
}
