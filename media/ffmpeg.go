// Package media drives the ffmpeg tool: capture invocations in segment mode,
// clip extraction over segment windows, audio extraction for speech
// recognition, session export, and clip compilations.
package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/streamclipper/streamclipper/manifest"
)

// DefaultBinary is used when no ffmpeg path is configured.
const DefaultBinary = "ffmpeg"

// SegmentFilePattern is the printf-style segment file name handed to ffmpeg.
const SegmentFilePattern = "segment_%03d.ts"

// CaptureArgs builds the capture invocation: copy both elementary streams into
// fixed-duration MPEG-TS segments and maintain the segment manifest.
// reset_timestamps keeps each segment independently seekable.
func CaptureArgs(sourceURL, segmentsDir string, segmentDuration int) []string {
	return []string{
		"-i", sourceURL,
		"-c:v", "copy",
		"-c:a", "copy",
		"-f", "segment",
		"-segment_time", strconv.Itoa(segmentDuration),
		"-segment_list", manifest.Path(segmentsDir),
		"-segment_format", "mpegts",
		"-reset_timestamps", "1",
		filepath.Join(segmentsDir, SegmentFilePattern),
	}
}

// clipArgs builds the clip extraction invocation: concat the selected
// segments, then trim with a stream-copy seek and cutoff relative to the
// start of the window.
func clipArgs(listPath string, seekOffset, cutoff float64, outPath string) []string {
	return []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-ss", formatSeconds(seekOffset),
		"-to", formatSeconds(cutoff),
		"-c", "copy",
		"-y", outPath,
	}
}

// AudioExtractArgs builds the invocation converting any input into the mono
// 16 kHz PCM WAV the speech recognizer expects.
func AudioExtractArgs(inputPath, outPath string) []string {
	return []string{
		"-i", inputPath,
		"-vn",
		"-ar", "16000",
		"-ac", "1",
		"-c:a", "pcm_s16le",
		"-y", outPath,
	}
}

// sessionAudioArgs builds the invocation extracting the speech-recognition
// WAV straight from a concat of captured segments.
func sessionAudioArgs(listPath, outPath string) []string {
	return []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-vn",
		"-ar", "16000",
		"-ac", "1",
		"-c:a", "pcm_s16le",
		"-y", outPath,
	}
}

// exportArgs builds the whole-session export: concat all segments into a
// single MP4. Video is stream-copied; audio is re-encoded to AAC because
// MP4 cannot carry arbitrary TS audio codecs.
func exportArgs(listPath, outPath string) []string {
	return []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c:v", "copy",
		"-c:a", "aac",
		"-strict", "experimental",
		"-y", outPath,
	}
}

// concatCopyArgs builds a pure stream-copy concat, used for compilations of
// already-encoded clips.
func concatCopyArgs(listPath, outPath string) []string {
	return []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-y", outPath,
	}
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// writeConcatList writes an ffmpeg concat demuxer file listing the given
// media files. The caller removes it when the invocation finishes.
func writeConcatList(dir string, files []string) (string, error) {
	f, err := os.CreateTemp(dir, "filelist_*.txt")
	if err != nil {
		return "", fmt.Errorf("media: create concat list: %w", err)
	}
	defer f.Close()
	for _, p := range files {
		// Single quotes inside paths need the concat demuxer's escape form.
		escaped := strings.ReplaceAll(p, "'", `'\''`)
		if _, err := fmt.Fprintf(f, "file '%s'\n", escaped); err != nil {
			os.Remove(f.Name())
			return "", fmt.Errorf("media: write concat list: %w", err)
		}
	}
	return f.Name(), nil
}
