// Command streamclipper runs the capture service: an HTTP API over live-stream
// capture, clip extraction, transcription, and the media library.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/streamclipper/streamclipper/api"
	"github.com/streamclipper/streamclipper/capture"
	"github.com/streamclipper/streamclipper/config"
	"github.com/streamclipper/streamclipper/logger"
	"github.com/streamclipper/streamclipper/media"
	"github.com/streamclipper/streamclipper/process"
	"github.com/streamclipper/streamclipper/search"
	"github.com/streamclipper/streamclipper/server"
	"github.com/streamclipper/streamclipper/store"
	"github.com/streamclipper/streamclipper/streamstatus"
	"github.com/streamclipper/streamclipper/transcription"
	"github.com/streamclipper/streamclipper/transcription/whisper"
	"github.com/streamclipper/streamclipper/version"
)

const serviceName = "streamclipper"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run() error {
	var cfg config.Config
	if err := config.LoadConfig(serviceName, &cfg); err != nil {
		return err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.Init(cfg.Logging)
	log := logger.GetGlobalLogger()

	st, err := store.NewFS(cfg.Library.Path, cfg.Library.DataDir)
	if err != nil {
		return err
	}
	settings, err := config.NewSettingsStore(cfg.Library.DataDir)
	if err != nil {
		return err
	}
	// User preferences fill in whatever the config file leaves unset.
	prefs, err := settings.Load()
	if err != nil {
		return err
	}

	segmentDuration := cfg.Capture.SegmentDuration
	if segmentDuration == 0 {
		segmentDuration = prefs.DefaultSegmentDuration
	}
	whisperCfg := cfg.Whisper
	if whisperCfg.Model == "" {
		whisperCfg.Model = prefs.WhisperModel
	}
	checkInterval := cfg.StreamCheck.Interval
	if checkInterval == 0 {
		checkInterval = prefs.StreamCheckInterval
	}

	runner := process.DefaultRunner()
	mediaSvc := media.New(st, runner, cfg.Capture.FFmpegPath)
	supervisor := capture.New(st, process.DefaultStarter(), capture.Config{
		FFmpegPath:      cfg.Capture.FFmpegPath,
		SegmentDuration: segmentDuration,
		StopTimeout:     time.Duration(cfg.Capture.StopTimeout) * time.Second,
		StopGracePeriod: time.Duration(cfg.Capture.StopGracePeriod) * time.Second,
	})

	engine := whisper.New(whisperCfg, runner)
	coordinator := transcription.NewCoordinator(st, mediaSvc, engine)
	supervisor.SetTranscriber(coordinator)

	poller := streamstatus.New(st, streamstatus.Config{
		Interval: time.Duration(checkInterval) * time.Second,
		Timeout:  time.Duration(cfg.StreamCheck.Timeout) * time.Second,
	})

	srv := server.New(cfg.Server, log)
	srv.ApplyMiddleware()
	api.New(st, supervisor, mediaSvc, coordinator, search.New(st), poller, settings).Register(srv.GinEngine())

	ctx := context.Background()
	if err := mediaSvc.CheckAvailable(ctx); err != nil {
		log.Warn("ffmpeg unavailable; captures and clips will fail", map[string]interface{}{"error": err.Error()})
	}
	if !engine.Available(ctx) {
		log.Warn("whisper unavailable; transcription is disabled")
	}

	poller.Start()
	if err := srv.Start(ctx); err != nil {
		poller.Stop()
		return err
	}
	log.Info("service ready", map[string]interface{}{
		"addr":    srv.Addr(),
		"library": cfg.Library.Path,
		"version": version.Short(),
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	poller.Stop()
	// Active captures are stopped gracefully so their last segments flush.
	supervisor.Shutdown(shutdownCtx)
	if err := srv.Stop(shutdownCtx); err != nil {
		return err
	}
	return nil
}
