// Package errors provides unified error handling for pipeline tooling.
// It implements structured error types with machine-readable codes,
// process exit code mapping, and retryable detection.
package errors
