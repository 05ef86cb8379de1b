// Package api provides the HTTP handlers for the consultrooms API
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/MilynDsilva/consultrooms/internal/models"
	"github.com/MilynDsilva/consultrooms/internal/provider"
	"github.com/MilynDsilva/consultrooms/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Str("module", "api").Msg("failed to encode response")
	}
}

// writeError maps the service error taxonomy onto HTTP status codes:
// unknown title 404, validation and state conflicts 400, upstream
// provider failures and everything else 500
func writeError(w http.ResponseWriter, err error) {
	var (
		validation *service.ValidationError
		conflict   *service.ConflictError
		upstream   *provider.UpstreamError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrMeetingNotFound):
		status = http.StatusNotFound
	case errors.As(err, &validation):
		status = http.StatusBadRequest
	case errors.As(err, &conflict):
		status = http.StatusBadRequest
	case errors.As(err, &upstream):
		status = http.StatusInternalServerError
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}
