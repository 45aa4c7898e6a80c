package media_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	apperrors "github.com/streamclipper/streamclipper/errors"
	"github.com/streamclipper/streamclipper/manifest"
	"github.com/streamclipper/streamclipper/media"
	"github.com/streamclipper/streamclipper/process"
	"github.com/streamclipper/streamclipper/store"
)

// fakeRunner records invocations and simulates ffmpeg by creating the output
// file (the last argument) on success.
type fakeRunner struct {
	calls    [][]string
	lists    []string // concat list contents captured before cleanup
	failWith *process.Result
}

func (f *fakeRunner) Run(_ context.Context, cmd process.Command) (*process.Result, error) {
	f.calls = append(f.calls, cmd.Args)
	for i, a := range cmd.Args {
		if a == "-i" && i+1 < len(cmd.Args) && strings.HasSuffix(cmd.Args[i+1], ".txt") {
			if data, err := os.ReadFile(cmd.Args[i+1]); err == nil {
				f.lists = append(f.lists, string(data))
			}
		}
	}
	if f.failWith != nil {
		return f.failWith, fmt.Errorf("exit status %d", f.failWith.ExitCode)
	}
	out := cmd.Args[len(cmd.Args)-1]
	if strings.Contains(out, string(filepath.Separator)) {
		if err := os.WriteFile(out, []byte("media"), 0o644); err != nil {
			return nil, err
		}
	}
	return &process.Result{ExitCode: 0}, nil
}

func newFixture(t *testing.T, segmentCount int) (*store.Memory, *fakeRunner, *media.Service) {
	t.Helper()
	st := store.NewMemory()
	st.Root = t.TempDir()
	paths, err := st.CreateSession(store.Session{
		SessionID:       "sess1",
		SourceURL:       "https://example.com/live",
		CreatedAt:       time.Now().UTC(),
		Status:          store.SessionCompleted,
		SegmentDuration: 60,
	})
	if err != nil {
		t.Fatal(err)
	}
	var entries []string
	for i := 0; i < segmentCount; i++ {
		p := filepath.Join(paths.Segments, fmt.Sprintf("segment_%03d.ts", i))
		if err := os.WriteFile(p, []byte("ts"), 0o644); err != nil {
			t.Fatal(err)
		}
		entries = append(entries, p)
	}
	if segmentCount > 0 {
		if err := manifest.Write(paths.Segments, entries); err != nil {
			t.Fatal(err)
		}
	}
	runner := &fakeRunner{}
	return st, runner, media.New(st, runner, "ffmpeg")
}

func hasArgPair(args []string, flag, value string) bool {
	for i, a := range args {
		if a == flag && i+1 < len(args) && args[i+1] == value {
			return true
		}
	}
	return false
}

func TestCreateClipSpansBoundary(t *testing.T) {
	st, runner, svc := newFixture(t, 5)

	clip, err := svc.CreateClip(context.Background(), media.ClipRequest{
		SessionID: "sess1",
		Name:      "highlight",
		StartTime: 50,
		EndTime:   130,
	})
	if err != nil {
		t.Fatalf("CreateClip: %v", err)
	}

	if len(runner.calls) != 1 {
		t.Fatalf("expected one ffmpeg invocation, got %d", len(runner.calls))
	}
	args := runner.calls[0]
	if !hasArgPair(args, "-ss", "50") || !hasArgPair(args, "-to", "130") {
		t.Fatalf("expected seek 50 / cutoff 130, got %v", args)
	}
	if !hasArgPair(args, "-c", "copy") {
		t.Fatalf("expected stream copy, got %v", args)
	}

	// The window must cover segments 0-2: 130s reaches into the third segment.
	if len(runner.lists) != 1 {
		t.Fatal("expected concat list captured")
	}
	for _, seg := range []string{"segment_000.ts", "segment_001.ts", "segment_002.ts"} {
		if !strings.Contains(runner.lists[0], seg) {
			t.Fatalf("concat list missing %s:\n%s", seg, runner.lists[0])
		}
	}
	if strings.Contains(runner.lists[0], "segment_003.ts") {
		t.Fatal("concat list includes a segment beyond the window")
	}

	if clip.Duration != 80 {
		t.Fatalf("expected duration 80, got %v", clip.Duration)
	}
	if _, err := os.Stat(clip.Path); err != nil {
		t.Fatalf("expected clip file: %v", err)
	}
	if _, err := st.GetClip(clip.ClipID); err != nil {
		t.Fatalf("expected clip metadata persisted: %v", err)
	}
}

func TestCreateClipDefaultNameFromRange(t *testing.T) {
	_, _, svc := newFixture(t, 5)

	clip, err := svc.CreateClip(context.Background(), media.ClipRequest{
		SessionID: "sess1",
		StartTime: 50,
		EndTime:   130,
	})
	if err != nil {
		t.Fatalf("CreateClip: %v", err)
	}
	if clip.Name != "clip_50_130" {
		t.Fatalf("expected range-derived name, got %q", clip.Name)
	}

	clip, err = svc.CreateClip(context.Background(), media.ClipRequest{
		SessionID: "sess1",
		StartTime: 12.5,
		EndTime:   47,
	})
	if err != nil {
		t.Fatalf("CreateClip: %v", err)
	}
	if clip.Name != "clip_12.5_47" {
		t.Fatalf("expected fractional seconds kept, got %q", clip.Name)
	}
}

func TestCreateClipInvalidRangeBeforeAnyWork(t *testing.T) {
	_, runner, svc := newFixture(t, 5)

	_, err := svc.CreateClip(context.Background(), media.ClipRequest{
		SessionID: "sess1",
		StartTime: 120,
		EndTime:   60,
	})
	if apperrors.CodeOf(err) != apperrors.ErrCodeInvalidRange {
		t.Fatalf("expected INVALID_RANGE, got %v", err)
	}
	if len(runner.calls) != 0 {
		t.Fatal("range validation must run before any ffmpeg invocation")
	}
}

func TestCreateClipRangeBeyondCapture(t *testing.T) {
	_, _, svc := newFixture(t, 5)

	_, err := svc.CreateClip(context.Background(), media.ClipRequest{
		SessionID: "sess1",
		StartTime: 400,
		EndTime:   450,
	})
	if apperrors.CodeOf(err) != apperrors.ErrCodeRangeNotFound {
		t.Fatalf("expected RANGE_NOT_FOUND, got %v", err)
	}
}

func TestCreateClipUnknownSession(t *testing.T) {
	_, _, svc := newFixture(t, 5)

	_, err := svc.CreateClip(context.Background(), media.ClipRequest{
		SessionID: "ghost",
		StartTime: 0,
		EndTime:   10,
	})
	if apperrors.CodeOf(err) != apperrors.ErrCodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestCreateClipProcessFailureLeavesNoArtifacts(t *testing.T) {
	st, runner, svc := newFixture(t, 5)
	runner.failWith = &process.Result{ExitCode: 1, Stderr: []byte("moov atom not found")}

	_, err := svc.CreateClip(context.Background(), media.ClipRequest{
		SessionID: "sess1",
		StartTime: 0,
		EndTime:   30,
	})
	if apperrors.CodeOf(err) != apperrors.ErrCodeProcessFailed {
		t.Fatalf("expected PROCESS_FAILED, got %v", err)
	}
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Details["diagnostics"] != "moov atom not found" {
		t.Fatalf("expected ffmpeg diagnostics attached, got %v", appErr.Details)
	}

	clips, _ := st.ListClips()
	if len(clips) != 0 {
		t.Fatal("no clip metadata may be persisted on failure")
	}
}

func TestExportSession(t *testing.T) {
	_, runner, svc := newFixture(t, 3)

	out, err := svc.ExportSession(context.Background(), "sess1")
	if err != nil {
		t.Fatalf("ExportSession: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("expected export file: %v", err)
	}
	args := runner.calls[0]
	if !hasArgPair(args, "-c:a", "aac") || !hasArgPair(args, "-c:v", "copy") {
		t.Fatalf("expected copy video / aac audio, got %v", args)
	}
}

func TestCreateCompilation(t *testing.T) {
	st, runner, svc := newFixture(t, 3)
	paths, _ := st.Paths("sess1")
	for i, id := range []string{"c1", "c2"} {
		p := filepath.Join(paths.Clips, id+".mp4")
		if err := os.WriteFile(p, []byte("mp4"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := st.SaveClip(store.Clip{
			ClipID: id, SessionID: "sess1", Duration: float64(10 * (i + 1)),
			Path: p, CreatedAt: time.Now(),
		}); err != nil {
			t.Fatal(err)
		}
	}

	comp, err := svc.CreateCompilation(context.Background(), media.CompilationRequest{
		Name:    "best of",
		ClipIDs: []string{"c1", "c2"},
	})
	if err != nil {
		t.Fatalf("CreateCompilation: %v", err)
	}
	if comp.Duration != 30 {
		t.Fatalf("expected summed duration 30, got %v", comp.Duration)
	}
	if len(runner.lists) != 1 || !strings.Contains(runner.lists[0], "c1.mp4") || !strings.Contains(runner.lists[0], "c2.mp4") {
		t.Fatalf("expected both clips in concat list, got %v", runner.lists)
	}
	if _, err := st.GetCompilation(comp.CompilationID); err != nil {
		t.Fatalf("expected compilation persisted: %v", err)
	}
}

func TestCreateCompilationRequiresClips(t *testing.T) {
	_, _, svc := newFixture(t, 1)
	_, err := svc.CreateCompilation(context.Background(), media.CompilationRequest{Name: "empty"})
	if apperrors.CodeOf(err) != apperrors.ErrCodeMissingField {
		t.Fatalf("expected MISSING_FIELD, got %v", err)
	}
}

func TestCaptureArgs(t *testing.T) {
	args := media.CaptureArgs("https://example.com/live", "/lib/s/segments", 60)
	want := []string{
		"-i", "https://example.com/live",
		"-c:v", "copy",
		"-c:a", "copy",
		"-f", "segment",
		"-segment_time", "60",
		"-segment_list", "/lib/s/segments/segments.txt",
		"-segment_format", "mpegts",
		"-reset_timestamps", "1",
		"/lib/s/segments/segment_%03d.ts",
	}
	if len(args) != len(want) {
		t.Fatalf("expected %d args, got %v", len(want), args)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Fatalf("arg %d: expected %q, got %q", i, want[i], args[i])
		}
	}
}
