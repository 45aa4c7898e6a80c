// Package manifest manages a capture session's segment manifest: the ordered
// list of fixed-duration media segment files written during capture, and the
// arithmetic that maps wall-clock time ranges onto segment windows.
package manifest

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	apperrors "github.com/streamclipper/streamclipper/errors"
)

// FileName is the manifest file written by the transcoder in segment mode.
const FileName = "segments.txt"

var segmentNamePattern = regexp.MustCompile(`segment_(\d+)\.ts$`)

// Path returns the manifest path inside a segments directory.
func Path(segmentsDir string) string {
	return filepath.Join(segmentsDir, FileName)
}

// SegmentIndex extracts the numeric index embedded in a segment file name.
func SegmentIndex(name string) (int, bool) {
	m := segmentNamePattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Read returns the manifest entries as absolute segment paths. A missing
// manifest is regenerated from the segment files present on disk; this is the
// recovery path for captures whose transcoder never flushed the list.
func Read(segmentsDir string) ([]string, error) {
	data, err := os.ReadFile(Path(segmentsDir))
	if os.IsNotExist(err) {
		return Regenerate(segmentsDir)
	}
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", Path(segmentsDir), err)
	}

	var entries []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !filepath.IsAbs(line) {
			line = filepath.Join(segmentsDir, filepath.Base(line))
		}
		entries = append(entries, line)
	}
	return entries, nil
}

// Regenerate rebuilds the manifest deterministically from the segment files on
// disk, sorted by embedded segment index, and writes it back.
func Regenerate(segmentsDir string) ([]string, error) {
	dirEntries, err := os.ReadDir(segmentsDir)
	if err != nil {
		return nil, fmt.Errorf("manifest: read segments dir %s: %w", segmentsDir, err)
	}

	type indexed struct {
		index int
		path  string
	}
	var segments []indexed
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".ts") {
			continue
		}
		idx, ok := SegmentIndex(de.Name())
		if !ok {
			continue
		}
		segments = append(segments, indexed{index: idx, path: filepath.Join(segmentsDir, de.Name())})
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("manifest: no segment files found in %s", segmentsDir)
	}

	sort.Slice(segments, func(i, j int) bool { return segments[i].index < segments[j].index })

	entries := make([]string, len(segments))
	for i, s := range segments {
		entries[i] = s.path
	}
	if err := Write(segmentsDir, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Write persists the manifest entries, one path per line.
func Write(segmentsDir string, entries []string) error {
	content := strings.Join(entries, "\n") + "\n"
	if err := os.WriteFile(Path(segmentsDir), []byte(content), 0o644); err != nil {
		return fmt.Errorf("manifest: write %s: %w", Path(segmentsDir), err)
	}
	return nil
}

// Window is the resolved segment subset covering a requested time range,
// with the in-segment trim parameters for the transcoder.
type Window struct {
	// StartIndex is the index of the first selected segment.
	StartIndex int
	// Segments are the selected manifest entries in capture order.
	Segments []string
	// SeekOffset is the seek into the first selected segment, in seconds.
	SeekOffset float64
	// Cutoff is the end time relative to the start of the selected window, in seconds.
	Cutoff float64
}

// ResolveWindow maps [startTime, endTime) in seconds onto the segments that
// cover it. Segment n covers [n*D, (n+1)*D) where D is segmentDuration; the
// selection spans floor(startTime/D) up to (exclusive) ceil(endTime/D),
// clamped to the available entries. The mapping assumes the transcoder emitted
// segments at exactly the configured duration; boundary drift from variable
// keyframe intervals is a known accuracy limitation and is not compensated.
func ResolveWindow(entries []string, startTime, endTime, segmentDuration float64) (*Window, error) {
	if endTime <= startTime || startTime < 0 {
		return nil, apperrors.InvalidRange(startTime, endTime)
	}
	if segmentDuration <= 0 {
		return nil, apperrors.InvalidInput("segment_duration", "segment duration must be positive")
	}

	startIndex := int(math.Floor(startTime / segmentDuration))
	endIndex := int(math.Ceil(endTime / segmentDuration)) // exclusive

	if endIndex > len(entries) {
		endIndex = len(entries)
	}
	if startIndex >= endIndex {
		return nil, apperrors.RangeNotFound(startTime, endTime)
	}

	return &Window{
		StartIndex: startIndex,
		Segments:   entries[startIndex:endIndex],
		SeekOffset: math.Mod(startTime, segmentDuration),
		Cutoff:     endTime - float64(startIndex)*segmentDuration,
	}, nil
}
