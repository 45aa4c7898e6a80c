// Package errors provides unified error handling for the streamclipper
// service: structured error types with machine-readable codes, HTTP status
// mapping, and retryable detection.
package errors
