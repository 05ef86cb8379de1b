// Package memory provides an in-memory implementation of the session store
package memory

import (
	"context"
	"sync"

	"github.com/MilynDsilva/consultrooms/internal/models"
)

// meetingState holds everything tracked for one title. The roster map
// is owned exclusively by the repository; accessors hand out copies.
type meetingState struct {
	Title             string
	ExternalMeetingID string
	MediaRegion       string
	Attendees         models.Roster
	Recording         *models.RecordingPipeline
}

// Repository implements the session store with in-memory storage.
// All data is ephemeral and lives for the process lifetime.
type Repository struct {
	meetings map[string]*meetingState
	mu       sync.RWMutex
}

// NewRepository creates a new in-memory repository
func NewRepository() *Repository {
	return &Repository{
		meetings: make(map[string]*meetingState),
	}
}

// SaveMeeting stores or refreshes the meeting record for its title.
// An existing roster and recording state are preserved on re-save so a
// repeated create cannot wipe attendee bookkeeping.
func (r *Repository) SaveMeeting(ctx context.Context, meeting *models.Meeting) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, exists := r.meetings[meeting.Title]
	if !exists {
		state = &meetingState{
			Title:             meeting.Title,
			ExternalMeetingID: meeting.ExternalMeetingID,
			MediaRegion:       meeting.MediaRegion,
			Attendees:         make(models.Roster),
		}
		for id, name := range meeting.Attendees {
			state.Attendees[id] = name
		}
		r.meetings[meeting.Title] = state
		return nil
	}

	state.ExternalMeetingID = meeting.ExternalMeetingID
	if meeting.MediaRegion != "" {
		state.MediaRegion = meeting.MediaRegion
	}
	return nil
}

// GetMeeting retrieves a meeting by title
func (r *Repository) GetMeeting(ctx context.Context, title string) (*models.Meeting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.meetings[title]
	if !ok {
		return nil, models.ErrMeetingNotFound
	}
	return state.toMeeting(), nil
}

// ListMeetings returns all stored meetings
func (r *Repository) ListMeetings(ctx context.Context) ([]*models.Meeting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	meetings := make([]*models.Meeting, 0, len(r.meetings))
	for _, state := range r.meetings {
		meetings = append(meetings, state.toMeeting())
	}
	return meetings, nil
}

// DeleteMeeting removes a meeting by title
func (r *Repository) DeleteMeeting(ctx context.Context, title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.meetings[title]; !ok {
		return models.ErrMeetingNotFound
	}
	delete(r.meetings, title)
	return nil
}

// Roster returns a copy of the attendee mapping for a meeting. An
// existing meeting with no attendees yields an empty map, not an error.
func (r *Repository) Roster(ctx context.Context, title string) (models.Roster, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.meetings[title]
	if !ok {
		return nil, models.ErrMeetingNotFound
	}

	roster := make(models.Roster, len(state.Attendees))
	for id, name := range state.Attendees {
		roster[id] = name
	}
	return roster, nil
}

// SetAttendee records a display name for an attendee ID
func (r *Repository) SetAttendee(ctx context.Context, title, attendeeID, displayName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.meetings[title]
	if !ok {
		return models.ErrMeetingNotFound
	}
	state.Attendees[attendeeID] = displayName
	return nil
}

// RemoveAttendee drops an attendee from the roster; removing an absent
// attendee is a no-op so redelivered leave events stay harmless
func (r *Repository) RemoveAttendee(ctx context.Context, title, attendeeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.meetings[title]
	if !ok {
		return models.ErrMeetingNotFound
	}
	delete(state.Attendees, attendeeID)
	return nil
}

// Recording returns the current capture pipeline state, nil when idle
func (r *Repository) Recording(ctx context.Context, title string) (*models.RecordingPipeline, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.meetings[title]
	if !ok {
		return nil, models.ErrMeetingNotFound
	}
	if state.Recording == nil {
		return nil, nil
	}
	copied := *state.Recording
	return &copied, nil
}

// SetRecording replaces the capture pipeline state; nil clears it
func (r *Repository) SetRecording(ctx context.Context, title string, pipeline *models.RecordingPipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.meetings[title]
	if !ok {
		return models.ErrMeetingNotFound
	}
	if pipeline == nil {
		state.Recording = nil
		return nil
	}
	copied := *pipeline
	state.Recording = &copied
	return nil
}

// toMeeting converts internal state to a detached Meeting model
func (s *meetingState) toMeeting() *models.Meeting {
	meeting := models.NewMeeting(s.Title, s.ExternalMeetingID, s.MediaRegion)
	for id, name := range s.Attendees {
		meeting.Attendees[id] = name
	}
	if s.Recording != nil {
		copied := *s.Recording
		meeting.Recording = &copied
	}
	return meeting
}
