package transcription

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	apperrors "github.com/streamclipper/streamclipper/errors"
	"github.com/streamclipper/streamclipper/logger"
	"github.com/streamclipper/streamclipper/store"
)

// Status is the lifecycle state reported for a transcription id.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusNotFound  Status = "not_found"
)

// StatusInfo is the poll response for one transcription id.
type StatusInfo struct {
	Status         Status     `json:"status"`
	StartTime      *time.Time `json:"startTime,omitempty"`
	ElapsedSeconds float64    `json:"elapsedSeconds,omitempty"`
	Error          string     `json:"error,omitempty"`
}

// Audio extracts speech-recognition WAVs. Implemented by the media service.
type Audio interface {
	ExtractAudio(ctx context.Context, inputPath, outPath string) error
	ExtractSessionAudio(ctx context.Context, sessionID, outPath string) error
}

// StartRequest names the object to transcribe. Exactly one id must be set;
// that id becomes the transcription id.
type StartRequest struct {
	SessionID string
	ClipID    string
}

type runningEntry struct {
	startedAt time.Time
}

type failedEntry struct {
	message string
	at      time.Time
}

// Coordinator serializes transcription runs: at most one running per object
// id. Completions and failures are observed by polling Status; failures are
// retained so they stay distinguishable from never-requested ids.
type Coordinator struct {
	store  store.Store
	audio  Audio
	engine Engine
	log    *logger.Logger

	mu      sync.Mutex
	running map[string]runningEntry
	failed  map[string]failedEntry
}

func NewCoordinator(st store.Store, audio Audio, engine Engine) *Coordinator {
	return &Coordinator{
		store:   st,
		audio:   audio,
		engine:  engine,
		log:     logger.WithComponent("transcription"),
		running: make(map[string]runningEntry),
		failed:  make(map[string]failedEntry),
	}
}

// Start begins transcribing a session or a clip. The audio intermediate is
// extracted synchronously; the engine itself runs asynchronously and Start
// returns once it has been launched.
func (c *Coordinator) Start(ctx context.Context, req StartRequest) (string, error) {
	if (req.SessionID == "") == (req.ClipID == "") {
		return "", apperrors.InvalidInput("sessionId/clipId", "exactly one of sessionId or clipId must be provided")
	}
	if !c.engine.Available(ctx) {
		return "", apperrors.PreconditionFailed("the transcription engine is not installed or not runnable")
	}

	// Resolve the object first so unknown ids fail before any state change.
	var id, ownerSessionID, clipPath string
	if req.SessionID != "" {
		session, err := c.store.GetSession(req.SessionID)
		if err != nil {
			return "", err
		}
		id, ownerSessionID = session.SessionID, session.SessionID
	} else {
		clip, err := c.store.GetClip(req.ClipID)
		if err != nil {
			return "", err
		}
		id, ownerSessionID, clipPath = clip.ClipID, clip.SessionID, clip.Path
	}

	paths, err := c.store.Paths(ownerSessionID)
	if err != nil {
		return "", err
	}

	// Insert-then-maybe-remove on a single id must be atomic with respect to
	// concurrent starts and the completion callback.
	c.mu.Lock()
	if _, ok := c.running[id]; ok {
		c.mu.Unlock()
		return "", apperrors.AlreadyInProgress("transcription", id)
	}
	c.running[id] = runningEntry{startedAt: time.Now()}
	delete(c.failed, id)
	c.mu.Unlock()

	audioPath := filepath.Join(paths.Transcripts, id+".wav")
	if clipPath != "" {
		err = c.audio.ExtractAudio(ctx, clipPath, audioPath)
	} else {
		err = c.audio.ExtractSessionAudio(ctx, ownerSessionID, audioPath)
	}
	if err != nil {
		c.finish(id, "", err)
		return "", err
	}

	go c.transcribe(id, ownerSessionID, audioPath)

	c.log.Info("transcription started", logger.Fields("transcription_id", id))
	return id, nil
}

// transcribe runs the engine to completion and persists the outcome.
func (c *Coordinator) transcribe(id, ownerSessionID, audioPath string) {
	defer os.Remove(audioPath)

	result, err := c.engine.Transcribe(context.Background(), Request{AudioPath: audioPath})
	if err != nil {
		c.finish(id, "", err)
		return
	}

	transcript := store.Transcript{
		TranscriptionID: id,
		Text:            result.Text,
		Segments:        toSpeechSegments(result.Segments),
		Language:        result.Language,
		SearchText:      strings.ToLower(result.Text),
		CreatedAt:       time.Now().UTC(),
	}
	if err := c.store.SaveTranscript(ownerSessionID, transcript); err != nil {
		c.finish(id, "", err)
		return
	}
	c.finish(id, string(StatusCompleted), nil)
}

// finish removes the id from the running table and records a failure if any.
// A failed run leaves any previously persisted transcript untouched.
func (c *Coordinator) finish(id, outcome string, err error) {
	c.mu.Lock()
	delete(c.running, id)
	if err != nil {
		c.failed[id] = failedEntry{message: err.Error(), at: time.Now()}
	}
	c.mu.Unlock()

	if err != nil {
		c.log.WithError(err).Error("transcription failed", logger.Fields("transcription_id", id))
		return
	}
	c.log.Info("transcription finished", logger.Fields("transcription_id", id, logger.FieldStatus, outcome))
}

// Status reports the state of a transcription id: running, completed (a
// persisted transcript exists), failed (last run failed), or not found.
func (c *Coordinator) Status(id string) StatusInfo {
	c.mu.Lock()
	if entry, ok := c.running[id]; ok {
		start := entry.startedAt.UTC()
		c.mu.Unlock()
		return StatusInfo{
			Status:         StatusRunning,
			StartTime:      &start,
			ElapsedSeconds: time.Since(entry.startedAt).Seconds(),
		}
	}
	failure, failedOK := c.failed[id]
	c.mu.Unlock()

	if _, err := c.store.GetTranscript(id); err == nil {
		return StatusInfo{Status: StatusCompleted}
	}
	if failedOK {
		return StatusInfo{Status: StatusFailed, Error: failure.message}
	}
	return StatusInfo{Status: StatusNotFound}
}

// TranscribeSession is the auto-transcription hook used by the capture
// supervisor.
func (c *Coordinator) TranscribeSession(ctx context.Context, sessionID string) error {
	_, err := c.Start(ctx, StartRequest{SessionID: sessionID})
	return err
}

// EngineAvailable reports whether the configured engine is usable.
func (c *Coordinator) EngineAvailable(ctx context.Context) bool {
	return c.engine.Available(ctx)
}

func toSpeechSegments(in []Segment) []store.SpeechSegment {
	out := make([]store.SpeechSegment, len(in))
	for i, s := range in {
		out[i] = store.SpeechSegment{Start: s.Start, End: s.End, Text: strings.TrimSpace(s.Text)}
	}
	return out
}
