package store

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"regexp"
	"strings"
	"time"
)

const (
	metadataFile = "metadata.json"
	captureLog   = "capture_logs.txt"

	segmentsDir     = "segments"
	clipsDir        = "clips"
	transcriptsDir  = "transcripts"
	compilationsDir = "compilations"
)

var unsafeNameChars = regexp.MustCompile(`[^a-z0-9]`)

// NewID returns an 8-byte random hex token used for session and clip ids.
func NewID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		panic("store: read random: " + err.Error())
	}
	return hex.EncodeToString(b)
}

// SanitizeName maps a display name onto a filesystem-safe directory name:
// lowercased, every character outside [a-z0-9] replaced with an underscore.
// The replacement is per character so existing library trees resolve to the
// same directories.
func SanitizeName(name string) string {
	return unsafeNameChars.ReplaceAllString(strings.ToLower(name), "_")
}

// sourceDirName picks the per-source directory: the sanitized display name
// when one is given, otherwise the first 10 hex chars of the URL's md5.
func sourceDirName(displayName, sourceURL string) string {
	if displayName != "" {
		return SanitizeName(displayName)
	}
	sum := md5.Sum([]byte(sourceURL))
	return hex.EncodeToString(sum[:])[:10]
}

// timestampDirName renders a session start time as a directory name:
// RFC 3339 with milliseconds, ':' and '.' replaced so the name is portable.
func timestampDirName(t time.Time) string {
	s := t.UTC().Format("2006-01-02T15:04:05.000Z")
	s = strings.ReplaceAll(s, ":", "-")
	return strings.ReplaceAll(s, ".", "-")
}
