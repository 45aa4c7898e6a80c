package api

import (
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/streamclipper/streamclipper/errors"
	"github.com/streamclipper/streamclipper/search"
	"github.com/streamclipper/streamclipper/server"
)

const healthProbeTimeout = 5 * time.Second

func (h *Handlers) history(c *gin.Context) {
	entries, err := h.store.History()
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, gin.H{"history": entries, "count": len(entries)})
}

type favoriteRequest struct {
	URL      string `json:"url"`
	Favorite bool   `json:"favorite"`
}

func (h *Handlers) setFavorite(c *gin.Context) {
	var req favoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, apperrors.InvalidInput("body", err.Error()))
		return
	}
	if req.URL == "" {
		server.RespondWithError(c, apperrors.MissingField("url"))
		return
	}
	if err := h.store.SetFavorite(req.URL, req.Favorite); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, gin.H{"success": true})
}

func (h *Handlers) removeHistory(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		server.RespondWithError(c, apperrors.MissingField("url"))
		return
	}
	if err := h.store.RemoveHistory(url); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondNoContent(c)
}

func (h *Handlers) streamStatuses(c *gin.Context) {
	statuses := h.streams.Statuses()
	server.RespondOK(c, gin.H{"streams": statuses, "count": len(statuses)})
}

func (h *Handlers) liveStreams(c *gin.Context) {
	live := h.streams.Live()
	server.RespondOK(c, gin.H{"streams": live, "count": len(live)})
}

func (h *Handlers) refreshStreams(c *gin.Context) {
	statuses := h.streams.Refresh(c.Request.Context())
	server.RespondOK(c, gin.H{"streams": statuses, "count": len(statuses)})
}

type checkStreamRequest struct {
	URL string `json:"url"`
}

func (h *Handlers) checkStream(c *gin.Context) {
	var req checkStreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, apperrors.InvalidInput("body", err.Error()))
		return
	}
	status, err := h.streams.Check(c.Request.Context(), req.URL)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, status)
}

func (h *Handlers) searchTranscripts(c *gin.Context) {
	matches, err := h.search.Transcripts(c.Query("q"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, gin.H{"results": matches, "count": len(matches)})
}

func (h *Handlers) searchMedia(c *gin.Context) {
	query := search.MediaQuery{
		Query:    c.Query("q"),
		Streamer: c.Query("streamer"),
	}
	var err error
	if query.From, err = parseTimeParam(c.Query("from")); err != nil {
		server.RespondWithError(c, apperrors.InvalidInput("from", "must be an RFC 3339 timestamp"))
		return
	}
	if query.To, err = parseTimeParam(c.Query("to")); err != nil {
		server.RespondWithError(c, apperrors.InvalidInput("to", "must be an RFC 3339 timestamp"))
		return
	}

	results, err := h.search.Media(query)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, results)
}

func parseTimeParam(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, value)
}

func (h *Handlers) getSettings(c *gin.Context) {
	settings, err := h.settings.Load()
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, settings)
}

func (h *Handlers) patchSettings(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		server.RespondWithError(c, apperrors.InvalidInput("body", err.Error()))
		return
	}
	settings, err := h.settings.Patch(body)
	if err != nil {
		server.RespondWithError(c, apperrors.InvalidInput("body", err.Error()))
		return
	}
	server.RespondOK(c, settings)
}
