package errors_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/streamclipper/streamclipper/errors"
)

func TestInvalidRange(t *testing.T) {
	err := errors.InvalidRange(120, 60)
	if err.Code != errors.ErrCodeInvalidRange {
		t.Fatalf("expected INVALID_RANGE, got %s", err.Code)
	}
	if err.HTTPStatus != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", err.HTTPStatus)
	}
	if err.Details["start_time"] != 120.0 {
		t.Fatalf("expected start_time detail, got %v", err.Details["start_time"])
	}
}

func TestProcessFailedCarriesDiagnostics(t *testing.T) {
	err := errors.ProcessFailed("ffmpeg", 1, "moov atom not found")
	if err.Code != errors.ErrCodeProcessFailed {
		t.Fatalf("expected PROCESS_FAILED, got %s", err.Code)
	}
	if err.Details["diagnostics"] != "moov atom not found" {
		t.Fatalf("diagnostics not attached: %v", err.Details)
	}
	if err.Retryable {
		t.Fatal("process failures must not be marked retryable")
	}
}

func TestStopTimedOutIsRetryable(t *testing.T) {
	err := errors.StopTimedOut("abc123", 10)
	if !err.Retryable {
		t.Fatal("expected STOP_TIMED_OUT to be retryable")
	}
	if err.HTTPStatus != http.StatusGatewayTimeout {
		t.Fatalf("expected status 504, got %d", err.HTTPStatus)
	}
}

func TestAlreadyInProgressStatus(t *testing.T) {
	err := errors.AlreadyInProgress("transcription", "clip1")
	if err.HTTPStatus != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", err.HTTPStatus)
	}
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := errors.Internal(cause)
	if err.Unwrap() != cause {
		t.Fatal("expected Unwrap to return the cause")
	}
}

func TestAsAppError(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", errors.NotFound("session", "s1"))
	appErr, ok := errors.AsAppError(wrapped)
	if !ok {
		t.Fatal("expected AsAppError to find the AppError")
	}
	if appErr.Code != errors.ErrCodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %s", appErr.Code)
	}
	if errors.CodeOf(fmt.Errorf("plain")) != errors.ErrCodeInternal {
		t.Fatal("expected CodeOf to default to INTERNAL_ERROR")
	}
}

func TestToResponse(t *testing.T) {
	resp := errors.RangeNotFound(400, 450).ToResponse()
	if resp.Error.Code != errors.ErrCodeRangeNotFound {
		t.Fatalf("expected RANGE_NOT_FOUND, got %s", resp.Error.Code)
	}
	if resp.Error.Message == "" {
		t.Fatal("expected a human-readable message")
	}
}
