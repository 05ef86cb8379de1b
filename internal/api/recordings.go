package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/MilynDsilva/consultrooms/internal/models"
	"github.com/MilynDsilva/consultrooms/internal/service"
	"github.com/MilynDsilva/consultrooms/internal/utils"
)

// RecordingHandler handles capture pipeline start and stop requests
type RecordingHandler struct {
	recorder RecordingServicer
}

// NewRecordingHandler creates a recording handler over the recorder service
func NewRecordingHandler(recorder RecordingServicer) *RecordingHandler {
	return &RecordingHandler{recorder: recorder}
}

type recordStartRequest struct {
	Title string `json:"title"`
	Mode  string `json:"mode"`
}

type recordStopRequest struct {
	Title string `json:"title"`
}

// Start handles POST /api/record/start
func (h *RecordingHandler) Start(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req recordStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &service.ValidationError{Field: "title"})
		return
	}
	defer r.Body.Close()

	if req.Title == "" {
		writeError(w, &service.ValidationError{Field: "title"})
		return
	}

	mode, err := models.ParseRecordingMode(req.Mode)
	if err != nil {
		writeError(w, &service.ValidationError{Field: "mode"})
		return
	}

	pipeline, err := h.recorder.Start(r.Context(), req.Title, mode)
	if err != nil {
		log.Error().Err(err).
			Str("module", "api.recordings").
			Str("title", utils.SanitizeLogString(req.Title)).
			Msg("start recording failed")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message":    "recording started",
		"pipelineId": pipeline.PipelineID,
	})
}

// Stop handles POST /api/record/stop
func (h *RecordingHandler) Stop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req recordStopRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &service.ValidationError{Field: "title"})
		return
	}
	defer r.Body.Close()

	if req.Title == "" {
		writeError(w, &service.ValidationError{Field: "title"})
		return
	}

	if err := h.recorder.Stop(r.Context(), req.Title); err != nil {
		log.Error().Err(err).
			Str("module", "api.recordings").
			Str("title", utils.SanitizeLogString(req.Title)).
			Msg("stop recording failed")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "recording stopped"})
}
