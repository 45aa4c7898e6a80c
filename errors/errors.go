package errors

import (
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
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

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// --- Common Error Constructors ---

// NotFound creates a new AppError for a resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		HTTPStatus: http.StatusNotFound, Retryable: false, Details: details,
	}
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false, Details: details,
	}
}

// MissingField creates a new AppError for a missing required field.
func MissingField(field string) *AppError {
	return &AppError{
		Code: ErrCodeMissingField, Message: fmt.Sprintf("Missing required field: %s", field),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"field": field},
	}
}

// InvalidRange creates a new AppError for a clip range where end <= start
// or the start is negative.
func InvalidRange(startTime, endTime float64) *AppError {
	return &AppError{
		Code: ErrCodeInvalidRange, Message: "End time must be greater than start time and start time must not be negative.",
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"start_time": startTime, "end_time": endTime},
	}
}

// RangeNotFound creates a new AppError for a time range beyond the captured data.
func RangeNotFound(startTime, endTime float64) *AppError {
	return &AppError{
		Code: ErrCodeRangeNotFound, Message: "No captured segments cover the requested time range.",
		HTTPStatus: http.StatusNotFound, Retryable: false,
		Details: map[string]any{"start_time": startTime, "end_time": endTime},
	}
}

// AlreadyInProgress creates a new AppError for a duplicate in-flight operation.
func AlreadyInProgress(operation, id string) *AppError {
	return &AppError{
		Code: ErrCodeAlreadyInProgress, Message: fmt.Sprintf("A %s is already in progress for this object.", operation),
		HTTPStatus: http.StatusConflict, Retryable: false,
		Details: map[string]any{"operation": operation, "id": id},
	}
}

// PreconditionFailed creates a new AppError for a missing external tool.
func PreconditionFailed(reason string) *AppError {
	return &AppError{
		Code: ErrCodePreconditionFailed, Message: reason,
		HTTPStatus: http.StatusPreconditionFailed, Retryable: false,
	}
}

// ProcessFailed creates a new AppError for an external process that exited
// non-zero. The process's diagnostic output is attached as a detail.
func ProcessFailed(tool string, exitCode int, diagnostics string) *AppError {
	return &AppError{
		Code: ErrCodeProcessFailed, Message: fmt.Sprintf("The %s process failed with exit code %d.", tool, exitCode),
		HTTPStatus: http.StatusInternalServerError, Retryable: false,
		Details: map[string]any{"tool": tool, "exit_code": exitCode, "diagnostics": diagnostics},
	}
}

// StopTimedOut creates a new AppError for a graceful stop that exceeded its bound.
func StopTimedOut(id string, timeoutSeconds float64) *AppError {
	return &AppError{
		Code: ErrCodeStopTimedOut, Message: "The capture process did not exit within the stop deadline.",
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true,
		Details: map[string]any{"id": id, "timeout_seconds": timeoutSeconds},
	}
}

// Timeout creates a new AppError for a request that timed out.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: "The request took too long. Please try again.",
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true,
		Details: map[string]any{"operation": operation},
	}
}

// Internal creates a new AppError for an internal server error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred. Please try again or contact support.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}

// ExternalServiceError creates a new AppError for an error from an external service.
func ExternalServiceError(service string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeExternalService, Message: fmt.Sprintf("The %s service encountered an error. Please try again.", service),
		HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"service": service}, Cause: cause,
	}
}
