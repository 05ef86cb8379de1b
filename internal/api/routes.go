package api

import (
	"net/http"
)

// SetupRoutes configures the HTTP routes for the API
func SetupRoutes(sessions SessionServicer, recorder RecordingServicer, presence PresenceDeliverer, events http.Handler, webhookSecret string) *http.ServeMux {
	mux := http.NewServeMux()

	// Health check endpoints
	mux.HandleFunc("/health", HealthHandler)
	mux.HandleFunc("/health/live", HealthHandler)
	mux.HandleFunc("/health/ready", HealthHandler)

	// Session management endpoints
	meetingHandler := NewMeetingHandler(sessions)
	mux.HandleFunc("/api/create", meetingHandler.CreateMeeting)
	mux.HandleFunc("/api/join", meetingHandler.JoinMeeting)
	mux.HandleFunc("/api/roster/", meetingHandler.Roster)

	// Recording endpoints
	recordingHandler := NewRecordingHandler(recorder)
	mux.HandleFunc("/api/record/start", recordingHandler.Start)
	mux.HandleFunc("/api/record/stop", recordingHandler.Stop)

	// Provider presence webhook
	mux.Handle("/webhook/presence", NewWebhookHandler(presence, webhookSecret))

	// Client notification stream
	if events != nil {
		mux.Handle("/api/events/", events)
	}

	return mux
}
