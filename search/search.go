// Package search answers queries over the library: transcript full-text
// search with per-segment matches, and media search over session and clip
// metadata with optional filters.
package search

import (
	"strings"
	"time"

	apperrors "github.com/streamclipper/streamclipper/errors"
	"github.com/streamclipper/streamclipper/store"
)

type Service struct {
	store store.Store
}

func New(st store.Store) *Service {
	return &Service{store: st}
}

// SegmentMatch is one speech segment containing the query.
type SegmentMatch struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// TranscriptMatch is one transcript containing the query.
type TranscriptMatch struct {
	TranscriptionID string         `json:"transcriptionId"`
	Language        string         `json:"language,omitempty"`
	Matches         []SegmentMatch `json:"matches"`
}

// Transcripts searches every persisted transcript's search-text blob. The
// query is matched case-insensitively; each hit lists the speech segments
// containing it.
func (s *Service) Transcripts(query string) ([]TranscriptMatch, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, apperrors.MissingField("q")
	}

	transcripts, err := s.store.ListTranscripts()
	if err != nil {
		return nil, err
	}

	var out []TranscriptMatch
	for _, t := range transcripts {
		if !strings.Contains(t.SearchText, q) {
			continue
		}
		match := TranscriptMatch{TranscriptionID: t.TranscriptionID, Language: t.Language}
		for _, seg := range t.Segments {
			if strings.Contains(strings.ToLower(seg.Text), q) {
				match.Matches = append(match.Matches, SegmentMatch(seg))
			}
		}
		out = append(out, match)
	}
	return out, nil
}

// MediaQuery filters the media search. Zero values mean "no filter"; at least
// one of Query/Streamer must be set or a time bound given.
type MediaQuery struct {
	Query    string
	Streamer string
	From     time.Time
	To       time.Time
}

func (q MediaQuery) empty() bool {
	return q.Query == "" && q.Streamer == "" && q.From.IsZero() && q.To.IsZero()
}

// MediaResults are the sessions and clips matching a media query.
type MediaResults struct {
	Sessions []store.SessionInfo `json:"sessions"`
	Clips    []store.Clip        `json:"clips"`
}

// Media searches session and clip metadata.
func (s *Service) Media(q MediaQuery) (MediaResults, error) {
	if q.empty() {
		return MediaResults{}, apperrors.InvalidInput("query", "at least one search filter is required")
	}
	query := strings.ToLower(strings.TrimSpace(q.Query))
	streamer := strings.ToLower(strings.TrimSpace(q.Streamer))

	sessions, err := s.store.ListSessions()
	if err != nil {
		return MediaResults{}, err
	}
	results := MediaResults{Sessions: []store.SessionInfo{}, Clips: []store.Clip{}}

	matched := make(map[string]bool)
	for _, info := range sessions {
		if !s.sessionMatches(info.Session, query, streamer, q.From, q.To) {
			continue
		}
		results.Sessions = append(results.Sessions, info)
		matched[info.SessionID] = true
	}

	clips, err := s.store.ListClips()
	if err != nil {
		return MediaResults{}, err
	}
	for _, clip := range clips {
		if query != "" && strings.Contains(strings.ToLower(clip.Name), query) {
			results.Clips = append(results.Clips, clip)
			continue
		}
		// Clips of a matching session match when no name query is given.
		if query == "" && matched[clip.SessionID] {
			results.Clips = append(results.Clips, clip)
		}
	}
	return results, nil
}

func (s *Service) sessionMatches(session store.Session, query, streamer string, from, to time.Time) bool {
	if streamer != "" && !strings.Contains(strings.ToLower(session.DisplayName), streamer) {
		return false
	}
	if query != "" &&
		!strings.Contains(strings.ToLower(session.DisplayName), query) &&
		!strings.Contains(strings.ToLower(session.SourceURL), query) {
		return false
	}
	if !from.IsZero() && session.CreatedAt.Before(from) {
		return false
	}
	if !to.IsZero() && session.CreatedAt.After(to) {
		return false
	}
	return true
}
