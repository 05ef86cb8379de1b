package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/MilynDsilva/consultrooms/internal/models"
	"github.com/MilynDsilva/consultrooms/internal/utils"
)

// presence webhook event types delivered by the media provider
const (
	eventAttendeeJoined = "meeting.attendee_joined"
	eventAttendeeLeft   = "meeting.attendee_left"
)

// PresenceWebhookEvent is the envelope the provider posts on presence
// changes
type PresenceWebhookEvent struct {
	Event   string          `json:"event"`
	Payload PresencePayload `json:"payload"`
}

// PresencePayload identifies the meeting and attendee of a presence change
type PresencePayload struct {
	Title          string `json:"title"`
	AttendeeID     string `json:"attendee_id"`
	ExternalUserID string `json:"external_user_id"`
}

// WebhookHandler processes presence webhook events from the media provider
type WebhookHandler struct {
	presence    PresenceDeliverer
	secretToken string
}

// NewWebhookHandler creates a webhook handler; an empty secret disables
// signature verification
func NewWebhookHandler(presence PresenceDeliverer, secretToken string) *WebhookHandler {
	return &WebhookHandler{
		presence:    presence,
		secretToken: secretToken,
	}
}

// ServeHTTP handles POST /webhook/presence
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.secretToken != "" {
		if !h.verifySignature(r) {
			log.Warn().Str("module", "api.webhook").Msg("invalid webhook signature")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
	} else {
		log.Warn().Str("module", "api.webhook").Msg("webhook verification disabled - PROVIDER_WEBHOOK_SECRET_TOKEN not set")
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1048576)) // 1MB limit
	if err != nil {
		http.Error(w, "Error reading request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var event PresenceWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	if event.Payload.Title == "" || event.Payload.AttendeeID == "" {
		http.Error(w, "Missing title or attendee_id", http.StatusBadRequest)
		return
	}

	switch event.Event {
	case eventAttendeeJoined:
		h.deliver(event, true)
	case eventAttendeeLeft:
		h.deliver(event, false)
	default:
		// Unsupported event types are acknowledged but ignored
		log.Info().
			Str("module", "api.webhook").
			Str("event", utils.SanitizeLogString(event.Event)).
			Msg("unsupported webhook event type")
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *WebhookHandler) deliver(event PresenceWebhookEvent, present bool) {
	h.presence.Deliver(event.Payload.Title, models.PresenceEvent{
		AttendeeID:     event.Payload.AttendeeID,
		ExternalUserID: event.Payload.ExternalUserID,
		Present:        present,
	})
}

// verifySignature validates the x-cr-signature header against an
// HMAC-SHA256 hash of "v0:<timestamp>:<body>" computed with the shared
// webhook secret
func (h *WebhookHandler) verifySignature(r *http.Request) bool {
	signatureHeader := r.Header.Get("x-cr-signature")
	if signatureHeader == "" {
		return false
	}

	parts := strings.SplitN(signatureHeader, "=", 2)
	if len(parts) != 2 || parts[0] != "v0" {
		return false
	}
	received := parts[1]

	timestamp := r.Header.Get("x-cr-request-timestamp")
	if timestamp == "" {
		return false
	}

	var body []byte
	if r.Body != nil {
		var err error
		body, err = io.ReadAll(r.Body)
		if err != nil {
			return false
		}
		// Restore the body so the handler can read it again
		r.Body = io.NopCloser(strings.NewReader(string(body)))
	}

	message := fmt.Sprintf("v0:%s:%s", timestamp, string(body))
	mac := hmac.New(sha256.New, []byte(h.secretToken))
	mac.Write([]byte(message))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(received))
}
