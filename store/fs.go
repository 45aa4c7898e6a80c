package store

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	apperrors "github.com/streamclipper/streamclipper/errors"
)

const historyFile = "history.json"

// FS is the filesystem-backed Store. Layout under the library root:
//
//	<library>/<source>/<timestamp>/metadata.json
//	<library>/<source>/<timestamp>/capture_logs.txt
//	<library>/<source>/<timestamp>/segments/
//	<library>/<source>/<timestamp>/clips/<id>.mp4 + <id>_metadata.json
//	<library>/<source>/<timestamp>/transcripts/<id>_transcript.json
//	<library>/<source>/<timestamp>/compilations/<id>.mp4 + <id>_metadata.json
//
// History lives outside the library in <data>/history.json. Session roots are
// discovered by scanning, so a library copied from another machine works
// without migration.
type FS struct {
	baseDir string
	dataDir string

	mu    sync.Mutex
	index map[string]string // session id -> session root
}

// NewFS creates the library and data directories if needed.
func NewFS(baseDir, dataDir string) (*FS, error) {
	for _, dir := range []string{baseDir, dataDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create %s: %w", dir, err)
		}
	}
	return &FS{baseDir: baseDir, dataDir: dataDir, index: make(map[string]string)}, nil
}

func sessionPaths(root string) SessionPaths {
	return SessionPaths{
		Root:         root,
		Segments:     filepath.Join(root, segmentsDir),
		Clips:        filepath.Join(root, clipsDir),
		Transcripts:  filepath.Join(root, transcriptsDir),
		Compilations: filepath.Join(root, compilationsDir),
		Metadata:     filepath.Join(root, metadataFile),
		CaptureLog:   filepath.Join(root, captureLog),
	}
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("store: write %s: %w", path, err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("store: parse %s: %w", path, err)
	}
	return nil
}

func (f *FS) CreateSession(s Session) (SessionPaths, error) {
	root := filepath.Join(f.baseDir, sourceDirName(s.DisplayName, s.SourceURL), timestampDirName(s.CreatedAt))
	paths := sessionPaths(root)
	for _, dir := range []string{paths.Segments, paths.Clips, paths.Transcripts, paths.Compilations} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return SessionPaths{}, fmt.Errorf("store: create session dirs: %w", err)
		}
	}
	if err := writeJSON(paths.Metadata, s); err != nil {
		return SessionPaths{}, err
	}
	f.mu.Lock()
	f.index[s.SessionID] = root
	f.mu.Unlock()
	return paths, nil
}

// sessionRoots lists every directory in the library that carries session
// metadata. Two levels deep: source dir, then timestamp dir.
func (f *FS) sessionRoots() ([]string, error) {
	sources, err := os.ReadDir(f.baseDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: read library: %w", err)
	}
	var roots []string
	for _, src := range sources {
		if !src.IsDir() {
			continue
		}
		sessions, err := os.ReadDir(filepath.Join(f.baseDir, src.Name()))
		if err != nil {
			continue
		}
		for _, sess := range sessions {
			if !sess.IsDir() {
				continue
			}
			root := filepath.Join(f.baseDir, src.Name(), sess.Name())
			if _, err := os.Stat(filepath.Join(root, metadataFile)); err == nil {
				roots = append(roots, root)
			}
		}
	}
	return roots, nil
}

func (f *FS) resolveRoot(sessionID string) (string, error) {
	f.mu.Lock()
	root, ok := f.index[sessionID]
	f.mu.Unlock()
	if ok {
		if _, err := os.Stat(filepath.Join(root, metadataFile)); err == nil {
			return root, nil
		}
	}

	roots, err := f.sessionRoots()
	if err != nil {
		return "", err
	}
	for _, root := range roots {
		var s Session
		if err := readJSON(filepath.Join(root, metadataFile), &s); err != nil {
			continue
		}
		if s.SessionID == sessionID {
			f.mu.Lock()
			f.index[sessionID] = root
			f.mu.Unlock()
			return root, nil
		}
	}
	return "", apperrors.NotFound("session", sessionID)
}

func (f *FS) Paths(sessionID string) (SessionPaths, error) {
	root, err := f.resolveRoot(sessionID)
	if err != nil {
		return SessionPaths{}, err
	}
	return sessionPaths(root), nil
}

func (f *FS) GetSession(sessionID string) (Session, error) {
	root, err := f.resolveRoot(sessionID)
	if err != nil {
		return Session{}, err
	}
	var s Session
	if err := readJSON(filepath.Join(root, metadataFile), &s); err != nil {
		return Session{}, fmt.Errorf("store: read session metadata: %w", err)
	}
	return s, nil
}

func (f *FS) PatchSession(sessionID string, updates map[string]any) (Session, error) {
	root, err := f.resolveRoot(sessionID)
	if err != nil {
		return Session{}, err
	}
	path := filepath.Join(root, metadataFile)

	f.mu.Lock()
	defer f.mu.Unlock()

	// Merge into the raw document so fields this version does not model
	// survive a patch from an older library.
	doc := make(map[string]any)
	if err := readJSON(path, &doc); err != nil {
		return Session{}, fmt.Errorf("store: read session metadata: %w", err)
	}
	for k, v := range updates {
		if k == "sessionId" {
			continue
		}
		doc[k] = v
	}
	if err := writeJSON(path, doc); err != nil {
		return Session{}, err
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return Session{}, fmt.Errorf("store: remarshal session metadata: %w", err)
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return Session{}, fmt.Errorf("store: decode session metadata: %w", err)
	}
	return s, nil
}

func (f *FS) SetSessionStatus(sessionID string, status SessionStatus) error {
	_, err := f.PatchSession(sessionID, map[string]any{"status": string(status)})
	return err
}

func dirSize(root string) int64 {
	var total int64
	_ = filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}

func (f *FS) ListSessions() ([]SessionInfo, error) {
	roots, err := f.sessionRoots()
	if err != nil {
		return nil, err
	}
	infos := make([]SessionInfo, 0, len(roots))
	for _, root := range roots {
		var s Session
		if err := readJSON(filepath.Join(root, metadataFile), &s); err != nil {
			continue
		}
		size := dirSize(root)
		infos = append(infos, SessionInfo{
			Session:     s,
			Path:        root,
			Size:        size,
			DisplaySize: humanize.IBytes(uint64(size)),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].CreatedAt.After(infos[j].CreatedAt) })
	return infos, nil
}

func (f *FS) DeleteSession(sessionID string) error {
	root, err := f.resolveRoot(sessionID)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(root); err != nil {
		return fmt.Errorf("store: delete session %s: %w", sessionID, err)
	}
	f.mu.Lock()
	delete(f.index, sessionID)
	f.mu.Unlock()
	return nil
}

func metadataSidecar(dir, id string) string {
	return filepath.Join(dir, id+"_metadata.json")
}

func (f *FS) SaveClip(c Clip) error {
	paths, err := f.Paths(c.SessionID)
	if err != nil {
		return err
	}
	return writeJSON(metadataSidecar(paths.Clips, c.ClipID), c)
}

func (f *FS) GetClip(clipID string) (Clip, error) {
	roots, err := f.sessionRoots()
	if err != nil {
		return Clip{}, err
	}
	for _, root := range roots {
		path := metadataSidecar(filepath.Join(root, clipsDir), clipID)
		var c Clip
		if err := readJSON(path, &c); err == nil {
			return c, nil
		}
	}
	return Clip{}, apperrors.NotFound("clip", clipID)
}

func (f *FS) ListClips() ([]Clip, error) {
	clips, err := collectSidecars[Clip](f, clipsDir)
	if err != nil {
		return nil, err
	}
	sort.Slice(clips, func(i, j int) bool { return clips[i].CreatedAt.After(clips[j].CreatedAt) })
	return clips, nil
}

func (f *FS) SaveCompilation(c Compilation) error {
	// A compilation may span sessions; it lives with the session owning the
	// first clip.
	if len(c.ClipIDs) == 0 {
		return apperrors.MissingField("clipIds")
	}
	first, err := f.GetClip(c.ClipIDs[0])
	if err != nil {
		return err
	}
	paths, err := f.Paths(first.SessionID)
	if err != nil {
		return err
	}
	return writeJSON(metadataSidecar(paths.Compilations, c.CompilationID), c)
}

func (f *FS) GetCompilation(compilationID string) (Compilation, error) {
	roots, err := f.sessionRoots()
	if err != nil {
		return Compilation{}, err
	}
	for _, root := range roots {
		path := metadataSidecar(filepath.Join(root, compilationsDir), compilationID)
		var c Compilation
		if err := readJSON(path, &c); err == nil {
			return c, nil
		}
	}
	return Compilation{}, apperrors.NotFound("compilation", compilationID)
}

func (f *FS) ListCompilations() ([]Compilation, error) {
	comps, err := collectSidecars[Compilation](f, compilationsDir)
	if err != nil {
		return nil, err
	}
	sort.Slice(comps, func(i, j int) bool { return comps[i].CreatedAt.After(comps[j].CreatedAt) })
	return comps, nil
}

// collectSidecars reads every *_metadata.json under the named subdirectory of
// every session.
func collectSidecars[T any](f *FS, subdir string) ([]T, error) {
	roots, err := f.sessionRoots()
	if err != nil {
		return nil, err
	}
	var out []T
	for _, root := range roots {
		entries, err := os.ReadDir(filepath.Join(root, subdir))
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), "_metadata.json") {
				continue
			}
			var v T
			if err := readJSON(filepath.Join(root, subdir, e.Name()), &v); err != nil {
				continue
			}
			out = append(out, v)
		}
	}
	return out, nil
}

func transcriptSidecar(dir, id string) string {
	return filepath.Join(dir, id+"_transcript.json")
}

func (f *FS) SaveTranscript(ownerSessionID string, t Transcript) error {
	paths, err := f.Paths(ownerSessionID)
	if err != nil {
		return err
	}
	return writeJSON(transcriptSidecar(paths.Transcripts, t.TranscriptionID), t)
}

func (f *FS) GetTranscript(id string) (Transcript, error) {
	roots, err := f.sessionRoots()
	if err != nil {
		return Transcript{}, err
	}
	for _, root := range roots {
		path := transcriptSidecar(filepath.Join(root, transcriptsDir), id)
		var t Transcript
		if err := readJSON(path, &t); err == nil {
			return t, nil
		}
	}
	return Transcript{}, apperrors.NotFound("transcript", id)
}

func (f *FS) ListTranscripts() ([]Transcript, error) {
	roots, err := f.sessionRoots()
	if err != nil {
		return nil, err
	}
	var out []Transcript
	for _, root := range roots {
		dir := filepath.Join(root, transcriptsDir)
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), "_transcript.json") {
				continue
			}
			var t Transcript
			if err := readJSON(filepath.Join(dir, e.Name()), &t); err == nil {
				out = append(out, t)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *FS) historyPath() string {
	return filepath.Join(f.dataDir, historyFile)
}

// readHistory must be called with f.mu held.
func (f *FS) readHistory() ([]HistoryEntry, error) {
	var entries []HistoryEntry
	err := readJSON(f.historyPath(), &entries)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: read history: %w", err)
	}
	return entries, nil
}

func (f *FS) History() ([]HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readHistory()
}

func (f *FS) TouchHistory(url, displayName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.readHistory()
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for i := range entries {
		if entries[i].URL != url {
			continue
		}
		entries[i].UseCount++
		entries[i].LastUsedAt = now
		if displayName != "" {
			entries[i].DisplayName = displayName
		}
		return writeJSON(f.historyPath(), entries)
	}
	entries = append(entries, HistoryEntry{
		URL:         url,
		DisplayName: displayName,
		AddedAt:     now,
		LastUsedAt:  now,
		UseCount:    1,
	})
	return writeJSON(f.historyPath(), entries)
}

func (f *FS) SetFavorite(url string, favorite bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.readHistory()
	if err != nil {
		return err
	}
	for i := range entries {
		if entries[i].URL == url {
			entries[i].IsFavorite = favorite
			return writeJSON(f.historyPath(), entries)
		}
	}
	return apperrors.NotFound("history entry", url)
}

func (f *FS) RemoveHistory(url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.readHistory()
	if err != nil {
		return err
	}
	for i := range entries {
		if entries[i].URL == url {
			entries = append(entries[:i], entries[i+1:]...)
			return writeJSON(f.historyPath(), entries)
		}
	}
	return apperrors.NotFound("history entry", url)
}
