package media

import (
	"context"
	"os"
	"path/filepath"
	"time"

	apperrors "github.com/streamclipper/streamclipper/errors"
	"github.com/streamclipper/streamclipper/logger"
	"github.com/streamclipper/streamclipper/manifest"
	"github.com/streamclipper/streamclipper/process"
	"github.com/streamclipper/streamclipper/store"
)

// Service runs ffmpeg against the library: clip extraction, audio extraction,
// session export, and compilations.
type Service struct {
	store  store.Store
	runner process.Runner
	binary string
	log    *logger.Logger
}

func New(st store.Store, runner process.Runner, ffmpegPath string) *Service {
	if ffmpegPath == "" {
		ffmpegPath = DefaultBinary
	}
	return &Service{
		store:  st,
		runner: runner,
		binary: ffmpegPath,
		log:    logger.WithComponent("media"),
	}
}

// Binary returns the configured ffmpeg path.
func (s *Service) Binary() string { return s.binary }

// CheckAvailable verifies the ffmpeg binary is runnable.
func (s *Service) CheckAvailable(ctx context.Context) error {
	if _, err := s.runner.Run(ctx, process.Command{Binary: s.binary, Args: []string{"-version"}}); err != nil {
		return apperrors.PreconditionFailed("ffmpeg is not installed or not runnable").WithCause(err)
	}
	return nil
}

// run executes one ffmpeg invocation, mapping failure to PROCESS_FAILED with
// the tail of ffmpeg's diagnostics attached.
func (s *Service) run(ctx context.Context, args []string) error {
	result, err := s.runner.Run(ctx, process.Command{Binary: s.binary, Args: args})
	if err == nil {
		return nil
	}
	exitCode := -1
	var diagnostics string
	if result != nil {
		exitCode = result.ExitCode
		diagnostics = tail(result.Stderr, 2000)
	}
	return apperrors.ProcessFailed("ffmpeg", exitCode, diagnostics).WithCause(err)
}

// tail returns the last n bytes of b as a string. ffmpeg front-loads banner
// noise; the actionable diagnostics are at the end.
func tail(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[len(b)-n:])
}

// ClipRequest describes a clip to extract from a session's captured segments.
type ClipRequest struct {
	SessionID string
	Name      string
	StartTime float64
	EndTime   float64
}

// CreateClip extracts [StartTime, EndTime) from the session's segments into a
// standalone MP4 and persists the clip's metadata. The range is validated
// before any filesystem access; nothing is persisted on failure.
func (s *Service) CreateClip(ctx context.Context, req ClipRequest) (store.Clip, error) {
	if req.EndTime <= req.StartTime || req.StartTime < 0 {
		return store.Clip{}, apperrors.InvalidRange(req.StartTime, req.EndTime)
	}

	session, err := s.store.GetSession(req.SessionID)
	if err != nil {
		return store.Clip{}, err
	}
	paths, err := s.store.Paths(req.SessionID)
	if err != nil {
		return store.Clip{}, err
	}

	entries, err := manifest.Read(paths.Segments)
	if err != nil {
		return store.Clip{}, apperrors.RangeNotFound(req.StartTime, req.EndTime).WithCause(err)
	}
	window, err := manifest.ResolveWindow(entries, req.StartTime, req.EndTime, float64(session.SegmentDuration))
	if err != nil {
		return store.Clip{}, err
	}

	clipID := store.NewID()
	outPath := filepath.Join(paths.Clips, clipID+".mp4")

	listPath, err := writeConcatList(paths.Clips, window.Segments)
	if err != nil {
		return store.Clip{}, err
	}
	defer os.Remove(listPath)

	start := time.Now()
	if err := s.run(ctx, clipArgs(listPath, window.SeekOffset, window.Cutoff, outPath)); err != nil {
		os.Remove(outPath)
		s.log.WithError(err).Error("clip extraction failed", logger.Fields(
			logger.FieldSessionID, req.SessionID,
			"start_time", req.StartTime,
			"end_time", req.EndTime,
		))
		return store.Clip{}, err
	}

	name := req.Name
	if name == "" {
		name = "clip_" + formatSeconds(req.StartTime) + "_" + formatSeconds(req.EndTime)
	}
	clip := store.Clip{
		ClipID:    clipID,
		SessionID: req.SessionID,
		Name:      name,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Duration:  req.EndTime - req.StartTime,
		Path:      outPath,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.SaveClip(clip); err != nil {
		os.Remove(outPath)
		return store.Clip{}, err
	}

	s.log.Info("clip created", logger.Fields(
		logger.FieldClipID, clipID,
		logger.FieldSessionID, req.SessionID,
		"segments", len(window.Segments),
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return clip, nil
}

// ExtractAudio converts a media file into the mono 16 kHz WAV used for
// speech recognition.
func (s *Service) ExtractAudio(ctx context.Context, inputPath, outPath string) error {
	if err := s.run(ctx, AudioExtractArgs(inputPath, outPath)); err != nil {
		os.Remove(outPath)
		return err
	}
	return nil
}

// ExtractSessionAudio produces the speech-recognition WAV for a whole
// session, reconstructing the manifest if needed.
func (s *Service) ExtractSessionAudio(ctx context.Context, sessionID, outPath string) error {
	paths, err := s.store.Paths(sessionID)
	if err != nil {
		return err
	}
	entries, err := manifest.Read(paths.Segments)
	if err != nil {
		return apperrors.NotFound("captured segments", sessionID).WithCause(err)
	}
	listPath, err := writeConcatList(paths.Root, entries)
	if err != nil {
		return err
	}
	defer os.Remove(listPath)

	if err := s.run(ctx, sessionAudioArgs(listPath, outPath)); err != nil {
		os.Remove(outPath)
		return err
	}
	return nil
}

// ExportSession concatenates all of a session's segments into a single MP4
// under the session root and returns its path.
func (s *Service) ExportSession(ctx context.Context, sessionID string) (string, error) {
	paths, err := s.store.Paths(sessionID)
	if err != nil {
		return "", err
	}
	entries, err := manifest.Read(paths.Segments)
	if err != nil {
		return "", apperrors.NotFound("captured segments", sessionID).WithCause(err)
	}

	listPath, err := writeConcatList(paths.Root, entries)
	if err != nil {
		return "", err
	}
	defer os.Remove(listPath)

	outPath := filepath.Join(paths.Root, "session_"+sessionID+".mp4")
	if err := s.run(ctx, exportArgs(listPath, outPath)); err != nil {
		os.Remove(outPath)
		return "", err
	}

	s.log.Info("session exported", logger.Fields(
		logger.FieldSessionID, sessionID,
		"segments", len(entries),
	))
	return outPath, nil
}

// CompilationRequest describes a compilation of existing clips, stitched in
// the order given.
type CompilationRequest struct {
	Name    string
	ClipIDs []string
}

// CreateCompilation concatenates the named clips into one MP4 and persists the
// compilation's metadata alongside the session owning the first clip.
func (s *Service) CreateCompilation(ctx context.Context, req CompilationRequest) (store.Compilation, error) {
	if len(req.ClipIDs) == 0 {
		return store.Compilation{}, apperrors.MissingField("clipIds")
	}

	var (
		files    []string
		duration float64
	)
	for _, id := range req.ClipIDs {
		clip, err := s.store.GetClip(id)
		if err != nil {
			return store.Compilation{}, err
		}
		files = append(files, clip.Path)
		duration += clip.Duration
	}

	first, err := s.store.GetClip(req.ClipIDs[0])
	if err != nil {
		return store.Compilation{}, err
	}
	paths, err := s.store.Paths(first.SessionID)
	if err != nil {
		return store.Compilation{}, err
	}

	compID := store.NewID()
	outPath := filepath.Join(paths.Compilations, compID+".mp4")

	listPath, err := writeConcatList(paths.Compilations, files)
	if err != nil {
		return store.Compilation{}, err
	}
	defer os.Remove(listPath)

	if err := s.run(ctx, concatCopyArgs(listPath, outPath)); err != nil {
		os.Remove(outPath)
		return store.Compilation{}, err
	}

	name := req.Name
	if name == "" {
		name = "compilation_" + compID
	}
	comp := store.Compilation{
		CompilationID: compID,
		Name:          name,
		ClipIDs:       req.ClipIDs,
		Duration:      duration,
		Path:          outPath,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.store.SaveCompilation(comp); err != nil {
		os.Remove(outPath)
		return store.Compilation{}, err
	}

	s.log.Info("compilation created", logger.Fields(
		"compilation_id", compID,
		"clips", len(req.ClipIDs),
	))
	return comp, nil
}
