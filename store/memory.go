package store

import (
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	apperrors "github.com/streamclipper/streamclipper/errors"
)

// Memory is an in-memory Store for tests. When Root is set, CreateSession
// materializes the session directories under it so file-producing code paths
// can run against a real filesystem.
type Memory struct {
	Root string

	mu           sync.Mutex
	sessions     map[string]Session
	paths        map[string]SessionPaths
	clips        map[string]Clip
	compilations map[string]Compilation
	compOwners   map[string]string // compilation id -> owning session id
	transcripts  map[string]Transcript
	owners       map[string]string // transcript id -> owning session id
	history      []HistoryEntry
}

func NewMemory() *Memory {
	return &Memory{
		sessions:     make(map[string]Session),
		paths:        make(map[string]SessionPaths),
		clips:        make(map[string]Clip),
		compilations: make(map[string]Compilation),
		compOwners:   make(map[string]string),
		transcripts:  make(map[string]Transcript),
		owners:       make(map[string]string),
	}
}

func (m *Memory) CreateSession(s Session) (SessionPaths, error) {
	paths := sessionPaths(filepath.Join(m.Root, s.SessionID))
	if m.Root != "" {
		for _, dir := range []string{paths.Segments, paths.Clips, paths.Transcripts, paths.Compilations} {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return SessionPaths{}, err
			}
		}
	}
	m.mu.Lock()
	m.sessions[s.SessionID] = s
	m.paths[s.SessionID] = paths
	m.mu.Unlock()
	return paths, nil
}

func (m *Memory) GetSession(sessionID string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return Session{}, apperrors.NotFound("session", sessionID)
	}
	return s, nil
}

func (m *Memory) Paths(sessionID string) (SessionPaths, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.paths[sessionID]
	if !ok {
		return SessionPaths{}, apperrors.NotFound("session", sessionID)
	}
	return p, nil
}

func (m *Memory) PatchSession(sessionID string, updates map[string]any) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return Session{}, apperrors.NotFound("session", sessionID)
	}
	if v, ok := updates["displayName"].(string); ok {
		s.DisplayName = v
	}
	if v, ok := updates["status"].(string); ok {
		s.Status = SessionStatus(v)
	}
	if v, ok := updates["autoTranscribe"].(bool); ok {
		s.AutoTranscribe = v
	}
	m.sessions[sessionID] = s
	return s, nil
}

func (m *Memory) SetSessionStatus(sessionID string, status SessionStatus) error {
	_, err := m.PatchSession(sessionID, map[string]any{"status": string(status)})
	return err
}

func (m *Memory) ListSessions() ([]SessionInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SessionInfo, 0, len(m.sessions))
	for id, s := range m.sessions {
		out = append(out, SessionInfo{Session: s, Path: m.paths[id].Root})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) DeleteSession(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sessionID]; !ok {
		return apperrors.NotFound("session", sessionID)
	}
	if m.Root != "" {
		_ = os.RemoveAll(m.paths[sessionID].Root)
	}
	delete(m.sessions, sessionID)
	delete(m.paths, sessionID)
	for id, c := range m.clips {
		if c.SessionID == sessionID {
			delete(m.clips, id)
		}
	}
	for id, owner := range m.compOwners {
		if owner == sessionID {
			delete(m.compilations, id)
			delete(m.compOwners, id)
		}
	}
	for id, owner := range m.owners {
		if owner == sessionID {
			delete(m.transcripts, id)
			delete(m.owners, id)
		}
	}
	return nil
}

func (m *Memory) SaveClip(c Clip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[c.SessionID]; !ok {
		return apperrors.NotFound("session", c.SessionID)
	}
	m.clips[c.ClipID] = c
	return nil
}

func (m *Memory) GetClip(clipID string) (Clip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clips[clipID]
	if !ok {
		return Clip{}, apperrors.NotFound("clip", clipID)
	}
	return c, nil
}

func (m *Memory) ListClips() ([]Clip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Clip, 0, len(m.clips))
	for _, c := range m.clips {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) SaveCompilation(c Compilation) error {
	if len(c.ClipIDs) == 0 {
		return apperrors.MissingField("clipIds")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.compilations[c.CompilationID] = c
	// Compilations live under the session owning their first clip, so the
	// delete cascade reaches them the same way it does on disk.
	if first, ok := m.clips[c.ClipIDs[0]]; ok {
		m.compOwners[c.CompilationID] = first.SessionID
	}
	return nil
}

func (m *Memory) GetCompilation(compilationID string) (Compilation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.compilations[compilationID]
	if !ok {
		return Compilation{}, apperrors.NotFound("compilation", compilationID)
	}
	return c, nil
}

func (m *Memory) ListCompilations() ([]Compilation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Compilation, 0, len(m.compilations))
	for _, c := range m.compilations {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) SaveTranscript(ownerSessionID string, t Transcript) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[ownerSessionID]; !ok {
		return apperrors.NotFound("session", ownerSessionID)
	}
	m.transcripts[t.TranscriptionID] = t
	m.owners[t.TranscriptionID] = ownerSessionID
	return nil
}

func (m *Memory) GetTranscript(id string) (Transcript, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transcripts[id]
	if !ok {
		return Transcript{}, apperrors.NotFound("transcript", id)
	}
	return t, nil
}

func (m *Memory) ListTranscripts() ([]Transcript, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Transcript, 0, len(m.transcripts))
	for _, t := range m.transcripts {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) History() ([]HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]HistoryEntry, len(m.history))
	copy(out, m.history)
	return out, nil
}

func (m *Memory) TouchHistory(url, displayName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	for i := range m.history {
		if m.history[i].URL == url {
			m.history[i].UseCount++
			m.history[i].LastUsedAt = now
			if displayName != "" {
				m.history[i].DisplayName = displayName
			}
			return nil
		}
	}
	m.history = append(m.history, HistoryEntry{
		URL:         url,
		DisplayName: displayName,
		AddedAt:     now,
		LastUsedAt:  now,
		UseCount:    1,
	})
	return nil
}

func (m *Memory) SetFavorite(url string, favorite bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.history {
		if m.history[i].URL == url {
			m.history[i].IsFavorite = favorite
			return nil
		}
	}
	return apperrors.NotFound("history entry", url)
}

func (m *Memory) RemoveHistory(url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.history {
		if m.history[i].URL == url {
			m.history = append(m.history[:i], m.history[i+1:]...)
			return nil
		}
	}
	return apperrors.NotFound("history entry", url)
}

var _ Store = (*Memory)(nil)
var _ Store = (*FS)(nil)
