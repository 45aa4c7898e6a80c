package api

import (
	"os"

	"github.com/gin-gonic/gin"

	"github.com/streamclipper/streamclipper/capture"
	apperrors "github.com/streamclipper/streamclipper/errors"
	"github.com/streamclipper/streamclipper/logger"
	"github.com/streamclipper/streamclipper/server"
)

type startCaptureRequest struct {
	SourceURL       string `json:"sourceUrl"`
	DisplayName     string `json:"displayName"`
	SegmentDuration int    `json:"segmentDuration"`
	AutoTranscribe  bool   `json:"autoTranscribe"`
}

func (h *Handlers) startCapture(c *gin.Context) {
	var req startCaptureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, apperrors.InvalidInput("body", err.Error()))
		return
	}

	session, err := h.supervisor.Start(req.SourceURL, capture.Options{
		DisplayName:     req.DisplayName,
		SegmentDuration: req.SegmentDuration,
		AutoTranscribe:  req.AutoTranscribe,
	})
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondCreated(c, gin.H{"sessionId": session.SessionID, "session": session})
}

type stopCaptureRequest struct {
	SessionID string `json:"sessionId"`
}

func (h *Handlers) stopCapture(c *gin.Context) {
	var req stopCaptureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, apperrors.InvalidInput("body", err.Error()))
		return
	}
	if req.SessionID == "" {
		server.RespondWithError(c, apperrors.MissingField("sessionId"))
		return
	}
	if err := h.supervisor.Stop(req.SessionID); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, gin.H{"success": true, "sessionId": req.SessionID})
}

func (h *Handlers) captureStatus(c *gin.Context) {
	active := h.supervisor.Active()
	server.RespondOK(c, gin.H{"activeCaptures": active, "count": len(active)})
}

// captureLogs returns the raw transcoder log for a session. The log exists
// from the moment the capture starts, so an empty file is a valid response.
func (h *Handlers) captureLogs(c *gin.Context) {
	sessionID := c.Param("sessionId")
	paths, err := h.store.Paths(sessionID)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	data, err := os.ReadFile(paths.CaptureLog)
	if err != nil {
		if os.IsNotExist(err) {
			server.RespondOK(c, gin.H{"sessionId": sessionID, "logs": ""})
			return
		}
		server.RespondWithError(c, apperrors.Internal(err))
		return
	}
	server.RespondOK(c, gin.H{"sessionId": sessionID, "logs": string(data)})
}

func (h *Handlers) listCaptures(c *gin.Context) {
	sessions, err := h.store.ListSessions()
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, gin.H{"sessions": sessions, "count": len(sessions)})
}

func (h *Handlers) patchCapture(c *gin.Context) {
	sessionID := c.Param("sessionId")
	var updates map[string]any
	if err := c.ShouldBindJSON(&updates); err != nil {
		server.RespondWithError(c, apperrors.InvalidInput("body", err.Error()))
		return
	}
	session, err := h.store.PatchSession(sessionID, updates)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, session)
}

// deleteCapture removes a session and everything derived from it. Sessions
// still capturing must be stopped first.
func (h *Handlers) deleteCapture(c *gin.Context) {
	sessionID := c.Param("sessionId")
	if h.supervisor.IsActive(sessionID) {
		server.RespondWithError(c, apperrors.PreconditionFailed("session is currently capturing; stop it first"))
		return
	}
	if err := h.store.DeleteSession(sessionID); err != nil {
		server.RespondWithError(c, err)
		return
	}
	h.log.Info("session deleted", logger.Fields(logger.FieldSessionID, sessionID))
	server.RespondNoContent(c)
}

func (h *Handlers) exportCapture(c *gin.Context) {
	sessionID := c.Param("sessionId")
	path, err := h.media.ExportSession(c.Request.Context(), sessionID)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, gin.H{"sessionId": sessionID, "path": path})
}
