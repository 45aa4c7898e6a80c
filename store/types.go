package store

import "time"

// SessionStatus is the lifecycle status persisted in a session's metadata.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
)

// Session is one capture run.
type Session struct {
	SessionID       string        `json:"sessionId"`
	SourceURL       string        `json:"sourceUrl"`
	DisplayName     string        `json:"displayName,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	Status          SessionStatus `json:"status"`
	SegmentDuration int           `json:"segmentDurationSeconds"`
	AutoTranscribe  bool          `json:"autoTranscribe,omitempty"`
}

// SessionInfo is a session listing entry with computed storage details.
type SessionInfo struct {
	Session
	Path        string `json:"path"`
	Size        int64  `json:"size"`
	DisplaySize string `json:"displaySize"`
}

// Clip is a derived artifact extracted from a session's segments.
// Immutable after creation.
type Clip struct {
	ClipID    string    `json:"clipId"`
	SessionID string    `json:"sessionId"`
	Name      string    `json:"name"`
	StartTime float64   `json:"startTime"`
	EndTime   float64   `json:"endTime"`
	Duration  float64   `json:"duration"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"createdAt"`
}

// Compilation is a concatenation of existing clips.
type Compilation struct {
	CompilationID string    `json:"compilationId"`
	Name          string    `json:"name"`
	ClipIDs       []string  `json:"clipIds"`
	Duration      float64   `json:"duration"`
	Path          string    `json:"path"`
	CreatedAt     time.Time `json:"createdAt"`
}

// SpeechSegment is one time-aligned portion of a transcript. Distinct from a
// media segment despite the shared name; the overlap is inherited from the
// speech-recognition domain.
type SpeechSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is the structured speech-to-text output for a session or clip,
// keyed by the id of the object it describes.
type Transcript struct {
	TranscriptionID string          `json:"transcriptionId"`
	Text            string          `json:"text"`
	Segments        []SpeechSegment `json:"segments"`
	Language        string          `json:"language,omitempty"`
	SearchText      string          `json:"searchText"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// HistoryEntry records one distinct source URL ever captured.
// Updated, not replaced, on every new capture of the same URL.
type HistoryEntry struct {
	URL         string    `json:"url"`
	DisplayName string    `json:"displayName,omitempty"`
	AddedAt     time.Time `json:"addedAt"`
	LastUsedAt  time.Time `json:"lastUsedAt"`
	UseCount    int       `json:"useCount"`
	IsFavorite  bool      `json:"isFavorite"`
}

// SessionPaths is the directory layout owned by one session.
type SessionPaths struct {
	Root         string
	Segments     string
	Clips        string
	Transcripts  string
	Compilations string
	Metadata     string
	CaptureLog   string
}
