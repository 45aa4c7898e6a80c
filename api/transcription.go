package api

import (
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/streamclipper/streamclipper/errors"
	"github.com/streamclipper/streamclipper/server"
	"github.com/streamclipper/streamclipper/store"
	"github.com/streamclipper/streamclipper/transcription"
)

type startTranscriptionRequest struct {
	SessionID string `json:"sessionId"`
	ClipID    string `json:"clipId"`
}

func (h *Handlers) startTranscription(c *gin.Context) {
	var req startTranscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, apperrors.InvalidInput("body", err.Error()))
		return
	}

	id, err := h.coordinator.Start(c.Request.Context(), transcription.StartRequest{
		SessionID: req.SessionID,
		ClipID:    req.ClipID,
	})
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondAccepted(c, gin.H{"transcriptionId": id})
}

func (h *Handlers) transcriptionStatus(c *gin.Context) {
	server.RespondOK(c, h.coordinator.Status(c.Param("id")))
}

func (h *Handlers) listTranscripts(c *gin.Context) {
	transcripts, err := h.store.ListTranscripts()
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, gin.H{"transcripts": transcripts, "count": len(transcripts)})
}

func (h *Handlers) sessionTranscript(c *gin.Context) {
	transcript, err := h.store.GetTranscript(c.Param("sessionId"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, transcript)
}

// clipTranscript returns the clip's own transcript when one was produced, and
// otherwise derives one from the owning session's transcript by keeping the
// speech segments overlapping the clip's time range.
func (h *Handlers) clipTranscript(c *gin.Context) {
	clipID := c.Param("clipId")
	if transcript, err := h.store.GetTranscript(clipID); err == nil {
		server.RespondOK(c, gin.H{"transcript": transcript, "derived": false})
		return
	}

	clip, err := h.store.GetClip(clipID)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	sessionTranscript, err := h.store.GetTranscript(clip.SessionID)
	if err != nil {
		server.RespondWithError(c, apperrors.NotFound("transcript", clipID))
		return
	}

	derived := deriveClipTranscript(clipID, sessionTranscript, clip.StartTime, clip.EndTime)
	server.RespondOK(c, gin.H{"transcript": derived, "derived": true})
}

// deriveClipTranscript keeps the segments of a session transcript that overlap
// [start, end). Segment times stay session-relative so they line up with the
// clip's recorded startTime and endTime.
func deriveClipTranscript(clipID string, t store.Transcript, start, end float64) store.Transcript {
	var (
		segments []store.SpeechSegment
		texts    []string
	)
	for _, seg := range t.Segments {
		if seg.End > start && seg.Start < end {
			segments = append(segments, seg)
			texts = append(texts, seg.Text)
		}
	}
	text := strings.Join(texts, " ")
	return store.Transcript{
		TranscriptionID: clipID,
		Text:            text,
		Segments:        segments,
		Language:        t.Language,
		SearchText:      strings.ToLower(text),
		CreatedAt:       t.CreatedAt,
	}
}
