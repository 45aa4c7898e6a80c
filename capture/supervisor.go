// Package capture supervises live-stream capture sessions: it spawns the
// transcoder in segment mode, tracks active sessions in memory, reconciles
// persisted session status on process exit, and kicks off auto-transcription.
package capture

import (
	"context"
	"os"
	"sort"
	"sync"
	"time"

	apperrors "github.com/streamclipper/streamclipper/errors"
	"github.com/streamclipper/streamclipper/logger"
	"github.com/streamclipper/streamclipper/media"
	"github.com/streamclipper/streamclipper/process"
	"github.com/streamclipper/streamclipper/store"
)

// Transcriber starts a session transcription. Implemented by the
// transcription coordinator; injected to avoid a package cycle.
type Transcriber interface {
	TranscribeSession(ctx context.Context, sessionID string) error
}

// Config tunes the supervisor.
type Config struct {
	// FFmpegPath is the transcoder binary. Defaults to "ffmpeg".
	FFmpegPath string
	// SegmentDuration is the segment length in seconds. Defaults to 60.
	SegmentDuration int
	// StopTimeout bounds how long Stop waits for the process to exit.
	// Defaults to 30s.
	StopTimeout time.Duration
	// StopGracePeriod is the SIGTERM-to-SIGKILL delay. Defaults to 10s.
	StopGracePeriod time.Duration
}

func (c *Config) ApplyDefaults() {
	if c.FFmpegPath == "" {
		c.FFmpegPath = media.DefaultBinary
	}
	if c.SegmentDuration <= 0 {
		c.SegmentDuration = 60
	}
	if c.StopTimeout <= 0 {
		c.StopTimeout = 30 * time.Second
	}
	if c.StopGracePeriod <= 0 {
		c.StopGracePeriod = 10 * time.Second
	}
}

// Options are the per-capture knobs from the start request.
type Options struct {
	DisplayName     string
	SegmentDuration int
	AutoTranscribe  bool
}

// ActiveCapture is a snapshot entry for one running session. ElapsedSeconds
// is computed at snapshot time, not stored.
type ActiveCapture struct {
	SessionID      string    `json:"sessionId"`
	SourceURL      string    `json:"sourceUrl"`
	DisplayName    string    `json:"displayName,omitempty"`
	StartTime      time.Time `json:"startTime"`
	ElapsedSeconds float64   `json:"elapsedSeconds"`
}

type activeEntry struct {
	session   store.Session
	handle    process.Handle
	startedAt time.Time
	logFile   *os.File

	mu            sync.Mutex
	stopRequested bool
}

func (e *activeEntry) markStopRequested() {
	e.mu.Lock()
	e.stopRequested = true
	e.mu.Unlock()
}

func (e *activeEntry) wasStopRequested() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopRequested
}

// Supervisor owns the active-capture registry. The registry and the persisted
// status field can diverge only if the owning program crashes; in that case
// the on-disk status stays "active" until reconciled manually.
type Supervisor struct {
	store   store.Store
	starter process.Starter
	cfg     Config
	log     *logger.Logger

	transcriber Transcriber

	mu     sync.Mutex
	active map[string]*activeEntry
}

func New(st store.Store, starter process.Starter, cfg Config) *Supervisor {
	cfg.ApplyDefaults()
	return &Supervisor{
		store:   st,
		starter: starter,
		cfg:     cfg,
		log:     logger.WithComponent("capture"),
		active:  make(map[string]*activeEntry),
	}
}

// SetTranscriber wires the auto-transcribe hook. Must be called before the
// first Start; captures started without it skip auto-transcription.
func (s *Supervisor) SetTranscriber(t Transcriber) { s.transcriber = t }

// Start begins capturing sourceURL and returns the new session once the
// transcoder has been spawned. It does not wait for the capture to finish.
func (s *Supervisor) Start(sourceURL string, opts Options) (store.Session, error) {
	if sourceURL == "" {
		return store.Session{}, apperrors.MissingField("sourceUrl")
	}
	segmentDuration := opts.SegmentDuration
	if segmentDuration <= 0 {
		segmentDuration = s.cfg.SegmentDuration
	}

	session := store.Session{
		SessionID:       store.NewID(),
		SourceURL:       sourceURL,
		DisplayName:     opts.DisplayName,
		CreatedAt:       time.Now().UTC(),
		Status:          store.SessionActive,
		SegmentDuration: segmentDuration,
		AutoTranscribe:  opts.AutoTranscribe,
	}

	paths, err := s.store.CreateSession(session)
	if err != nil {
		return store.Session{}, err
	}
	if err := s.store.TouchHistory(sourceURL, opts.DisplayName); err != nil {
		s.log.WithError(err).Warn("history update failed", logger.Fields(logger.FieldSourceURL, sourceURL))
	}

	logFile, err := os.OpenFile(paths.CaptureLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		_ = s.store.SetSessionStatus(session.SessionID, store.SessionFailed)
		return store.Session{}, apperrors.Internal(err)
	}

	// The capture must outlive the request that started it.
	handle, err := s.starter.Start(context.Background(), process.Command{
		Binary:      s.cfg.FFmpegPath,
		Args:        media.CaptureArgs(sourceURL, paths.Segments, segmentDuration),
		GracePeriod: s.cfg.StopGracePeriod,
	}, logFile)
	if err != nil {
		logFile.Close()
		_ = s.store.SetSessionStatus(session.SessionID, store.SessionFailed)
		return store.Session{}, apperrors.ProcessFailed("ffmpeg", -1, err.Error()).WithCause(err)
	}

	entry := &activeEntry{
		session:   session,
		handle:    handle,
		startedAt: time.Now(),
		logFile:   logFile,
	}
	s.mu.Lock()
	s.active[session.SessionID] = entry
	s.mu.Unlock()

	go s.watch(entry)

	s.log.Info("capture started", logger.Fields(
		logger.FieldSessionID, session.SessionID,
		logger.FieldSourceURL, sourceURL,
		"segment_duration", segmentDuration,
	))
	return session, nil
}

// watch waits for the transcoder to exit, then reconciles registry and
// persisted status and fires auto-transcription.
func (s *Supervisor) watch(entry *activeEntry) {
	<-entry.handle.Done()
	entry.logFile.Close()

	id := entry.session.SessionID
	s.mu.Lock()
	delete(s.active, id)
	s.mu.Unlock()

	// A requested stop ends the capture by signal, so a non-zero exit code
	// after Stop still counts as a completed capture.
	status := store.SessionFailed
	if entry.wasStopRequested() || entry.handle.ExitCode() == 0 {
		status = store.SessionCompleted
	}
	if err := s.store.SetSessionStatus(id, status); err != nil {
		s.log.WithError(err).Error("status reconcile failed", logger.Fields(logger.FieldSessionID, id))
	}

	s.log.Info("capture ended", logger.Fields(
		logger.FieldSessionID, id,
		logger.FieldExitCode, entry.handle.ExitCode(),
		logger.FieldStatus, string(status),
	))

	// Any exit triggers auto-transcription: a crashed capture's partial
	// segments are still usable, and the manifest regenerates from disk.
	if entry.session.AutoTranscribe && s.transcriber != nil {
		// Fire-and-forget: the caller that started the capture is long gone.
		go func() {
			if err := s.transcriber.TranscribeSession(context.Background(), id); err != nil {
				s.log.WithError(err).Error("auto-transcription failed", logger.Fields(logger.FieldSessionID, id))
			}
		}()
	}
}

// Stop gracefully terminates an active capture and blocks until the process
// has exited, bounded by the configured stop timeout.
func (s *Supervisor) Stop(sessionID string) error {
	s.mu.Lock()
	entry, ok := s.active[sessionID]
	s.mu.Unlock()
	if !ok {
		return apperrors.NotFound("active capture", sessionID)
	}

	entry.markStopRequested()
	if err := entry.handle.Terminate(); err != nil {
		s.log.WithError(err).Warn("terminate signal failed", logger.Fields(logger.FieldSessionID, sessionID))
	}

	select {
	case <-entry.handle.Done():
	case <-time.After(s.cfg.StopTimeout):
		return apperrors.StopTimedOut(sessionID, s.cfg.StopTimeout.Seconds())
	}

	// watch removes the entry as well; doing it here guarantees the session
	// is gone from Active before Stop returns.
	s.mu.Lock()
	delete(s.active, sessionID)
	s.mu.Unlock()
	return nil
}

// IsActive reports whether a session is currently capturing.
func (s *Supervisor) IsActive(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[sessionID]
	return ok
}

// Active returns a snapshot of all running captures, oldest first.
func (s *Supervisor) Active() []ActiveCapture {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	out := make([]ActiveCapture, 0, len(s.active))
	for _, e := range s.active {
		out = append(out, ActiveCapture{
			SessionID:      e.session.SessionID,
			SourceURL:      e.session.SourceURL,
			DisplayName:    e.session.DisplayName,
			StartTime:      e.startedAt.UTC(),
			ElapsedSeconds: now.Sub(e.startedAt).Seconds(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

// Shutdown terminates every active capture and waits for them to exit or for
// the context to be done.
func (s *Supervisor) Shutdown(ctx context.Context) {
	s.mu.Lock()
	entries := make([]*activeEntry, 0, len(s.active))
	for _, e := range s.active {
		entries = append(entries, e)
	}
	s.mu.Unlock()

	for _, e := range entries {
		e.markStopRequested()
		_ = e.handle.Terminate()
	}
	for _, e := range entries {
		select {
		case <-e.handle.Done():
		case <-ctx.Done():
			return
		}
	}
}
