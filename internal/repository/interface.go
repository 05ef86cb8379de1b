// Package repository defines interfaces for meeting and roster storage
package repository

import (
	"context"

	"github.com/MilynDsilva/consultrooms/internal/models"
)

// Repository is the process-scoped session store: meetings keyed by
// title, each carrying its roster and recording state. Implementations
// must be safe for concurrent use; roster mutations for one title are
// atomic with respect to concurrent joins and presence-driven removals.
type Repository interface {
	// Meeting operations
	SaveMeeting(ctx context.Context, meeting *models.Meeting) error
	GetMeeting(ctx context.Context, title string) (*models.Meeting, error)
	ListMeetings(ctx context.Context) ([]*models.Meeting, error)
	DeleteMeeting(ctx context.Context, title string) error

	// Roster operations
	Roster(ctx context.Context, title string) (models.Roster, error)
	SetAttendee(ctx context.Context, title, attendeeID, displayName string) error
	// RemoveAttendee is a no-op when the attendee is already absent
	RemoveAttendee(ctx context.Context, title, attendeeID string) error

	// Recording state; a nil pipeline means Idle
	Recording(ctx context.Context, title string) (*models.RecordingPipeline, error)
	SetRecording(ctx context.Context, title string, pipeline *models.RecordingPipeline) error
}
