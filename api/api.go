// Package api registers the HTTP routes and handlers for the capture, clip,
// transcription, history, stream-status, search, and settings surfaces.
package api

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/streamclipper/streamclipper/capture"
	"github.com/streamclipper/streamclipper/config"
	"github.com/streamclipper/streamclipper/logger"
	"github.com/streamclipper/streamclipper/media"
	"github.com/streamclipper/streamclipper/search"
	"github.com/streamclipper/streamclipper/store"
	"github.com/streamclipper/streamclipper/streamstatus"
	"github.com/streamclipper/streamclipper/transcription"
	"github.com/streamclipper/streamclipper/version"
)

// Handlers carries the wired service dependencies for all routes.
type Handlers struct {
	store       store.Store
	supervisor  *capture.Supervisor
	media       *media.Service
	coordinator *transcription.Coordinator
	search      *search.Service
	streams     *streamstatus.Poller
	settings    *config.SettingsStore
	log         *logger.Logger
}

func New(
	st store.Store,
	supervisor *capture.Supervisor,
	mediaSvc *media.Service,
	coordinator *transcription.Coordinator,
	searchSvc *search.Service,
	streams *streamstatus.Poller,
	settings *config.SettingsStore,
) *Handlers {
	return &Handlers{
		store:       st,
		supervisor:  supervisor,
		media:       mediaSvc,
		coordinator: coordinator,
		search:      searchSvc,
		streams:     streams,
		settings:    settings,
		log:         logger.WithComponent("api"),
	}
}

// Register mounts every route on the engine.
func (h *Handlers) Register(r *gin.Engine) {
	r.GET("/health", h.health)

	capt := r.Group("/capture")
	{
		capt.POST("/start", h.startCapture)
		capt.POST("/stop", h.stopCapture)
		capt.GET("/status", h.captureStatus)
		capt.GET("/:sessionId/logs", h.captureLogs)
	}

	caps := r.Group("/captures")
	{
		caps.GET("", h.listCaptures)
		caps.PATCH("/:sessionId", h.patchCapture)
		caps.DELETE("/:sessionId", h.deleteCapture)
		caps.POST("/:sessionId/export", h.exportCapture)
	}

	med := r.Group("/media")
	{
		med.GET("/clips", h.listClips)
		med.POST("/clips/create", h.createClip)
		med.GET("/clips/:clipId/download", h.downloadClip)
		med.GET("/clips/stream/:clipId", h.streamClip)
		med.GET("/compilations", h.listCompilations)
		med.POST("/compilations", h.createCompilation)
		med.GET("/compilations/:compilationId/download", h.downloadCompilation)
	}

	tr := r.Group("/transcription")
	{
		tr.POST("/start", h.startTranscription)
		tr.GET("/status/:id", h.transcriptionStatus)
		tr.GET("/list", h.listTranscripts)
		tr.GET("/clip/:clipId", h.clipTranscript)
		tr.GET("/:sessionId", h.sessionTranscript)
	}

	hist := r.Group("/history")
	{
		hist.GET("", h.history)
		hist.POST("/favorite", h.setFavorite)
		hist.DELETE("", h.removeHistory)
	}

	streams := r.Group("/streams")
	{
		streams.GET("/status", h.streamStatuses)
		streams.GET("/live", h.liveStreams)
		streams.POST("/refresh", h.refreshStreams)
		streams.POST("/check", h.checkStream)
	}

	srch := r.Group("/search")
	{
		srch.GET("/transcripts", h.searchTranscripts)
		srch.GET("/media", h.searchMedia)
	}

	r.GET("/settings", h.getSettings)
	r.PATCH("/settings", h.patchSettings)
}

// health reports service liveness plus external tool availability so clients
// can surface missing installs before a capture or transcription fails.
func (h *Handlers) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthProbeTimeout)
	defer cancel()
	c.JSON(200, gin.H{
		"status":  "ok",
		"version": version.Get(),
		"ffmpeg":  h.media.CheckAvailable(ctx) == nil,
		"whisper": h.coordinator.EngineAvailable(ctx),
	})
}
