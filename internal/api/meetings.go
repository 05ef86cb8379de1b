package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/MilynDsilva/consultrooms/internal/service"
	"github.com/MilynDsilva/consultrooms/internal/utils"
)

// MeetingHandler handles meeting creation, joining and roster lookups
type MeetingHandler struct {
	sessions SessionServicer
}

// NewMeetingHandler creates a meeting handler over the session registry
func NewMeetingHandler(sessions SessionServicer) *MeetingHandler {
	return &MeetingHandler{sessions: sessions}
}

type createRequest struct {
	Title string `json:"title"`
}

type joinRequest struct {
	Title string `json:"title"`
	Name  string `json:"name"`
}

// CreateMeeting handles POST /api/create
func (h *MeetingHandler) CreateMeeting(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &service.ValidationError{Field: "title"})
		return
	}
	defer r.Body.Close()

	meeting, err := h.sessions.CreateMeeting(r.Context(), req.Title)
	if err != nil {
		log.Error().Err(err).
			Str("module", "api.meetings").
			Str("title", utils.SanitizeLogString(req.Title)).
			Msg("create meeting failed")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"meeting": meeting})
}

// JoinMeeting handles POST /api/join; joining an unknown title creates
// the meeting first
func (h *MeetingHandler) JoinMeeting(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &service.ValidationError{Field: "title"})
		return
	}
	defer r.Body.Close()

	info, err := h.sessions.JoinMeeting(r.Context(), req.Title, req.Name)
	if err != nil {
		log.Error().Err(err).
			Str("module", "api.meetings").
			Str("title", utils.SanitizeLogString(req.Title)).
			Msg("join meeting failed")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"JoinInfo": info,
		"Roster":   info.Meeting.Attendees,
	})
}

// Roster handles GET /api/roster/{title}
func (h *MeetingHandler) Roster(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	title := strings.TrimPrefix(r.URL.Path, "/api/roster/")
	if title == "" || strings.Contains(title, "/") {
		writeError(w, &service.ValidationError{Field: "title"})
		return
	}

	meeting, err := h.sessions.GetMeeting(r.Context(), title)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"roster": meeting.Attendees})
}
