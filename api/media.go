package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	apperrors "github.com/streamclipper/streamclipper/errors"
	"github.com/streamclipper/streamclipper/media"
	"github.com/streamclipper/streamclipper/server"
)

type createClipRequest struct {
	SessionID string  `json:"sessionId"`
	Name      string  `json:"name"`
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
}

func (h *Handlers) createClip(c *gin.Context) {
	var req createClipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, apperrors.InvalidInput("body", err.Error()))
		return
	}
	if req.SessionID == "" {
		server.RespondWithError(c, apperrors.MissingField("sessionId"))
		return
	}

	clip, err := h.media.CreateClip(c.Request.Context(), media.ClipRequest{
		SessionID: req.SessionID,
		Name:      req.Name,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondCreated(c, gin.H{"clipId": clip.ClipID, "clip": clip})
}

func (h *Handlers) listClips(c *gin.Context) {
	clips, err := h.store.ListClips()
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, gin.H{"clips": clips, "count": len(clips)})
}

// downloadClip serves the clip file as an attachment.
func (h *Handlers) downloadClip(c *gin.Context) {
	clip, err := h.store.GetClip(c.Param("clipId"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	if _, err := os.Stat(clip.Path); err != nil {
		server.RespondWithError(c, apperrors.NotFound("clip file", clip.ClipID))
		return
	}
	c.FileAttachment(clip.Path, clip.Name+filepath.Ext(clip.Path))
}

// streamClip serves the clip for in-browser playback. http.ServeFile handles
// Range requests, which video elements rely on for seeking.
func (h *Handlers) streamClip(c *gin.Context) {
	clip, err := h.store.GetClip(c.Param("clipId"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	if _, err := os.Stat(clip.Path); err != nil {
		server.RespondWithError(c, apperrors.NotFound("clip file", clip.ClipID))
		return
	}
	c.Header("Content-Type", "video/mp4")
	http.ServeFile(c.Writer, c.Request, clip.Path)
}

type createCompilationRequest struct {
	Name    string   `json:"name"`
	ClipIDs []string `json:"clipIds"`
}

func (h *Handlers) createCompilation(c *gin.Context) {
	var req createCompilationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, apperrors.InvalidInput("body", err.Error()))
		return
	}

	comp, err := h.media.CreateCompilation(c.Request.Context(), media.CompilationRequest{
		Name:    req.Name,
		ClipIDs: req.ClipIDs,
	})
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondCreated(c, gin.H{"compilationId": comp.CompilationID, "compilation": comp})
}

func (h *Handlers) listCompilations(c *gin.Context) {
	comps, err := h.store.ListCompilations()
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, gin.H{"compilations": comps, "count": len(comps)})
}

func (h *Handlers) downloadCompilation(c *gin.Context) {
	comp, err := h.store.GetCompilation(c.Param("compilationId"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	if _, err := os.Stat(comp.Path); err != nil {
		server.RespondWithError(c, apperrors.NotFound("compilation file", comp.CompilationID))
		return
	}
	c.FileAttachment(comp.Path, comp.Name+filepath.Ext(comp.Path))
}
