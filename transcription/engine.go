// Package transcription turns captured media into searchable transcripts. It
// defines the speech-to-text engine contract and the coordinator that
// serializes transcription runs per object id.
//
// # Backends
//
//   - transcription/whisper: the Whisper CLI invoked as a child process
package transcription

import "context"

// Request holds parameters for one transcription run.
type Request struct {
	// AudioPath is the mono 16 kHz PCM WAV to transcribe.
	AudioPath string
	// Language is the expected language of the audio (e.g. "en").
	Language string
	// Model is the engine model size to use.
	Model string
}

// Result is the structured output of a transcription run.
type Result struct {
	// Text is the full transcription text.
	Text string `json:"text"`
	// Segments are the time-aligned speech segments.
	Segments []Segment `json:"segments,omitempty"`
	// Language is the detected or specified language.
	Language string `json:"language,omitempty"`
}

// Segment is a time-aligned portion of a transcript.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Engine is the interface speech-to-text backends implement.
type Engine interface {
	Name() string
	// Available reports whether the backend is installed and usable.
	Available(ctx context.Context) bool
	Transcribe(ctx context.Context, req Request) (*Result, error)
}
