package process_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/streamclipper/streamclipper/process"
)

func waitDone(t *testing.T, h process.Handle, timeout time.Duration) {
	t.Helper()
	select {
	case <-h.Done():
	case <-time.After(timeout):
		t.Fatal("process did not exit in time")
	}
}

func TestStartCompletes(t *testing.T) {
	var out bytes.Buffer
	h, err := process.Start(context.Background(), process.Command{
		Binary: "sh",
		Args:   []string{"-c", "echo captured"},
	}, &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	waitDone(t, h, 5*time.Second)

	if h.ExitCode() != 0 {
		t.Fatalf("expected exit code 0, got %d", h.ExitCode())
	}
	if h.Err() != nil {
		t.Fatalf("unexpected wait error: %v", h.Err())
	}
	if !strings.Contains(out.String(), "captured") {
		t.Fatalf("expected streamed output, got %q", out.String())
	}
}

func TestStartNonZeroExit(t *testing.T) {
	h, err := process.Start(context.Background(), process.Command{
		Binary: "sh",
		Args:   []string{"-c", "exit 3"},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	waitDone(t, h, 5*time.Second)

	if h.ExitCode() != 3 {
		t.Fatalf("expected exit code 3, got %d", h.ExitCode())
	}
	if h.Err() == nil {
		t.Fatal("expected wait error on non-zero exit")
	}
}

func TestStartTerminate(t *testing.T) {
	h, err := process.Start(context.Background(), process.Command{
		Binary:      "sleep",
		Args:        []string{"30"},
		GracePeriod: time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := h.Terminate(); err != nil {
		t.Fatalf("terminate: %v", err)
	}

	waitDone(t, h, 5*time.Second)

	if h.ExitCode() == 0 {
		t.Fatal("expected non-zero exit code after SIGTERM")
	}
}

func TestStartMissingBinary(t *testing.T) {
	if _, err := process.Start(context.Background(), process.Command{Binary: "definitely-not-a-binary-xyz"}, nil); err == nil {
		t.Fatal("expected error for missing binary")
	}
}
