package manifest_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/streamclipper/streamclipper/errors"
	"github.com/streamclipper/streamclipper/manifest"
)

func entries(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("/lib/s/segments/segment_%03d.ts", i)
	}
	return out
}

func TestResolveWindowSpansSegmentBoundary(t *testing.T) {
	// 5 segments of 60s each (300s captured). [50, 130) needs segments 0-2:
	// segment 0 for the trimmed head, segment 2 because 130 > 120.
	w, err := manifest.ResolveWindow(entries(5), 50, 130, 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.StartIndex != 0 {
		t.Fatalf("expected start index 0, got %d", w.StartIndex)
	}
	if len(w.Segments) != 3 {
		t.Fatalf("expected 3 segments, got %d: %v", len(w.Segments), w.Segments)
	}
	if w.SeekOffset != 50 {
		t.Fatalf("expected seek offset 50, got %v", w.SeekOffset)
	}
	if w.Cutoff != 130 {
		t.Fatalf("expected cutoff 130, got %v", w.Cutoff)
	}
}

func TestResolveWindowMidSession(t *testing.T) {
	w, err := manifest.ResolveWindow(entries(5), 125, 185, 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.StartIndex != 2 {
		t.Fatalf("expected start index 2, got %d", w.StartIndex)
	}
	if len(w.Segments) != 2 {
		t.Fatalf("expected segments 2-3, got %v", w.Segments)
	}
	if w.SeekOffset != 5 {
		t.Fatalf("expected seek offset 5, got %v", w.SeekOffset)
	}
	if w.Cutoff != 65 {
		t.Fatalf("expected cutoff 65, got %v", w.Cutoff)
	}
}

func TestResolveWindowBeyondCapturedData(t *testing.T) {
	_, err := manifest.ResolveWindow(entries(5), 400, 450, 60)
	if err == nil {
		t.Fatal("expected error for range beyond captured data")
	}
	if apperrors.CodeOf(err) != apperrors.ErrCodeRangeNotFound {
		t.Fatalf("expected RANGE_NOT_FOUND, got %s", apperrors.CodeOf(err))
	}
}

func TestResolveWindowClampsTail(t *testing.T) {
	// End beyond the captured data, start within: clamp, don't fail.
	w, err := manifest.ResolveWindow(entries(5), 290, 600, 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.StartIndex != 4 || len(w.Segments) != 1 {
		t.Fatalf("expected only segment 4, got start=%d segments=%v", w.StartIndex, w.Segments)
	}
}

func TestResolveWindowInvalidRange(t *testing.T) {
	cases := []struct {
		name       string
		start, end float64
	}{
		{"end equals start", 60, 60},
		{"end before start", 120, 60},
		{"negative start", -5, 30},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := manifest.ResolveWindow(entries(5), tc.start, tc.end, 60)
			if apperrors.CodeOf(err) != apperrors.ErrCodeInvalidRange {
				t.Fatalf("expected INVALID_RANGE, got %v", err)
			}
		})
	}
}

func writeSegmentFiles(t *testing.T, dir string, indices ...int) {
	t.Helper()
	for _, i := range indices {
		name := filepath.Join(dir, fmt.Sprintf("segment_%03d.ts", i))
		if err := os.WriteFile(name, []byte("ts"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestRegenerateSortsByIndex(t *testing.T) {
	dir := t.TempDir()
	// Written out of order; 10 after 2 exercises numeric (not lexical) sort.
	writeSegmentFiles(t, dir, 10, 0, 2, 1)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := manifest.Regenerate(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"segment_000.ts", "segment_001.ts", "segment_002.ts", "segment_010.ts"}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %v", len(want), got)
	}
	for i, w := range want {
		if filepath.Base(got[i]) != w {
			t.Fatalf("entry %d: expected %s, got %s", i, w, got[i])
		}
	}
}

func TestReadRegeneratesMissingManifest(t *testing.T) {
	dir := t.TempDir()
	writeSegmentFiles(t, dir, 0, 1)

	got, err := manifest.Read(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %v", got)
	}
	// The recovery path persists the regenerated manifest.
	if _, err := os.Stat(manifest.Path(dir)); err != nil {
		t.Fatalf("expected regenerated manifest on disk: %v", err)
	}
}

func TestReadResolvesRelativeEntries(t *testing.T) {
	dir := t.TempDir()
	writeSegmentFiles(t, dir, 0)
	if err := manifest.Write(dir, []string{"segment_000.ts"}); err != nil {
		t.Fatal(err)
	}

	got, err := manifest.Read(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0] != filepath.Join(dir, "segment_000.ts") {
		t.Fatalf("expected absolute path, got %s", got[0])
	}
}

func TestRegenerateEmptyDirFails(t *testing.T) {
	if _, err := manifest.Regenerate(t.TempDir()); err == nil {
		t.Fatal("expected error for directory without segments")
	}
}
