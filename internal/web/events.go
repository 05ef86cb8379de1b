package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/r3labs/sse/v2"
	"github.com/rs/zerolog/log"

	"github.com/MilynDsilva/consultrooms/internal/models"
	"github.com/MilynDsilva/consultrooms/internal/service"
	"github.com/MilynDsilva/consultrooms/internal/utils"
)

// EventsHandler streams join/leave notifications for one meeting to a
// connected client. Each connection gets its own presence subscription
// and notification dispatcher; toasts arrive as "notify" events and
// their scheduled removals as "expire" events keyed by notification ID.
type EventsHandler struct {
	bridge   *service.Bridge
	server   *sse.Server
	toastTTL time.Duration
}

// NewEventsHandler creates the SSE fan-out handler
func NewEventsHandler(bridge *service.Bridge, toastTTL time.Duration) *EventsHandler {
	server := sse.New()
	server.AutoReplay = false
	server.AutoStream = false

	return &EventsHandler{
		bridge:   bridge,
		server:   server,
		toastTTL: toastTTL,
	}
}

// ServeHTTP handles GET /api/events/{title}?attendee={selfAttendeeID}
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	title := strings.TrimPrefix(r.URL.Path, "/api/events/")
	if title == "" || strings.Contains(title, "/") {
		writeJSONError(w, http.StatusBadRequest, "missing meeting title")
		return
	}
	selfAttendeeID := r.URL.Query().Get("attendee")

	streamID := uuid.NewString()
	h.server.CreateStream(streamID)
	defer h.server.RemoveStream(streamID)

	dispatcher := NewDispatcher(h.toastTTL,
		func(n models.Notification) {
			data, err := json.Marshal(n)
			if err != nil {
				log.Error().Err(err).Str("module", "web.events").Msg("failed to encode notification")
				return
			}
			h.server.Publish(streamID, &sse.Event{Event: []byte("notify"), Data: data})
		},
		func(id uint64) {
			h.server.Publish(streamID, &sse.Event{
				Event: []byte("expire"),
				Data:  []byte(strconv.FormatUint(id, 10)),
			})
		},
	)

	sub, err := h.bridge.Subscribe(r.Context(), title, selfAttendeeID, dispatcher)
	if err != nil {
		if err == models.ErrMeetingNotFound {
			writeJSONError(w, http.StatusNotFound, "unknown meeting title")
			return
		}
		log.Error().Err(err).
			Str("module", "web.events").
			Str("title", utils.SanitizeLogString(title)).
			Msg("presence subscription failed")
		writeJSONError(w, http.StatusInternalServerError, "subscription failed")
		return
	}
	defer sub.Close()

	// Route this connection to its private stream
	q := r.URL.Query()
	q.Set("stream", streamID)
	r.URL.RawQuery = q.Encode()

	h.server.ServeHTTP(w, r)
}

// Shutdown closes all SSE streams
func (h *EventsHandler) Shutdown() {
	h.server.Close()
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
