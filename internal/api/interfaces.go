package api

import (
	"context"

	"github.com/MilynDsilva/consultrooms/internal/models"
)

// SessionServicer defines the session registry operations needed by
// the API handlers
type SessionServicer interface {
	CreateMeeting(ctx context.Context, title string) (*models.Meeting, error)
	GetMeeting(ctx context.Context, title string) (*models.Meeting, error)
	JoinMeeting(ctx context.Context, title, displayName string) (*models.JoinInfo, error)
}

// RecordingServicer defines the recording state machine operations
// needed by the API handlers
type RecordingServicer interface {
	Start(ctx context.Context, title string, mode models.RecordingMode) (*models.RecordingPipeline, error)
	Stop(ctx context.Context, title string) error
}

// PresenceDeliverer accepts provider presence events for fan-out
type PresenceDeliverer interface {
	Deliver(title string, event models.PresenceEvent)
}
