// Package store persists capture metadata: sessions, clips, compilations,
// transcripts, and the source URL history. The canonical implementation (FS)
// keeps everything as JSON sidecar files inside the media library so the
// library stays portable and inspectable; Memory backs tests.
package store

// Store is the metadata persistence contract. Implementations must return a
// NOT_FOUND AppError for ids and URLs they do not know.
type Store interface {
	// CreateSession allocates the session's directory tree and persists its
	// initial metadata.
	CreateSession(s Session) (SessionPaths, error)
	GetSession(sessionID string) (Session, error)
	// Paths resolves the directory layout owned by an existing session.
	Paths(sessionID string) (SessionPaths, error)
	// PatchSession merges updates into the session's persisted metadata and
	// returns the result. The session id itself cannot be changed.
	PatchSession(sessionID string, updates map[string]any) (Session, error)
	SetSessionStatus(sessionID string, status SessionStatus) error
	// ListSessions returns all sessions, newest first, with on-disk sizes.
	ListSessions() ([]SessionInfo, error)
	// DeleteSession removes the session and everything derived from it:
	// segments, clips, transcripts, and compilations.
	DeleteSession(sessionID string) error

	SaveClip(c Clip) error
	GetClip(clipID string) (Clip, error)
	ListClips() ([]Clip, error)

	SaveCompilation(c Compilation) error
	GetCompilation(compilationID string) (Compilation, error)
	ListCompilations() ([]Compilation, error)

	// SaveTranscript stores a transcript under its owning session. The
	// transcript id may belong to the session itself or to one of its clips.
	SaveTranscript(ownerSessionID string, t Transcript) error
	GetTranscript(id string) (Transcript, error)
	ListTranscripts() ([]Transcript, error)

	History() ([]HistoryEntry, error)
	// TouchHistory records a capture of url: existing entries are updated in
	// place (use count, last used), never duplicated.
	TouchHistory(url, displayName string) error
	SetFavorite(url string, favorite bool) error
	RemoveHistory(url string) error
}
