package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
	// ErrCodeInvalidRange indicates a clip time range with end <= start or a negative start.
	ErrCodeInvalidRange ErrorCode = "INVALID_RANGE"
)

// Resource errors
const (
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeRangeNotFound indicates a requested time range entirely beyond the captured data.
	ErrCodeRangeNotFound ErrorCode = "RANGE_NOT_FOUND"
	// ErrCodeAlreadyInProgress indicates an operation is already running for the same object.
	ErrCodeAlreadyInProgress ErrorCode = "ALREADY_IN_PROGRESS"
	// ErrCodePreconditionFailed indicates a required external tool is not installed or usable.
	ErrCodePreconditionFailed ErrorCode = "PRECONDITION_FAILED"
)

// Process/environment errors
const (
	// ErrCodeProcessFailed indicates an external process exited non-zero.
	ErrCodeProcessFailed ErrorCode = "PROCESS_FAILED"
	// ErrCodeStopTimedOut indicates a graceful stop exceeded its deadline.
	ErrCodeStopTimedOut ErrorCode = "STOP_TIMED_OUT"
	// ErrCodeTimeout indicates the request timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeExternalService indicates an error from an external service.
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeTimeout:         true,
	ErrCodeStopTimedOut:    true,
	ErrCodeExternalService: true,
	ErrCodeProcessFailed:   false,
	ErrCodeInternal:        false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
