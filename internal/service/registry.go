package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/MilynDsilva/consultrooms/internal/models"
	"github.com/MilynDsilva/consultrooms/internal/provider"
	"github.com/MilynDsilva/consultrooms/internal/repository"
	"github.com/MilynDsilva/consultrooms/internal/utils"
)

// Registry owns meeting records and enforces idempotent creation: the
// first create or join for a title provisions a provider-side session,
// every later call reuses it.
type Registry struct {
	repo        repository.Repository
	provider    provider.MediaProvider
	mediaRegion string
	locks       *titleLocks
}

// NewRegistry creates a session registry backed by the given store and
// media provider
func NewRegistry(repo repository.Repository, prov provider.MediaProvider, mediaRegion string) *Registry {
	return &Registry{
		repo:        repo,
		provider:    prov,
		mediaRegion: mediaRegion,
		locks:       newTitleLocks(),
	}
}

// CreateMeeting returns the meeting for a title, provisioning it on
// first call. Safe under concurrent first-callers: the per-title lock
// makes the create-or-fetch sequence mutually exclusive, so the
// provider sees at most one create per title.
func (r *Registry) CreateMeeting(ctx context.Context, title string) (*models.Meeting, error) {
	if title == "" {
		return nil, &ValidationError{Field: "title"}
	}

	unlock := r.locks.Lock(title)
	defer unlock()

	return r.ensureMeeting(ctx, title)
}

// GetMeeting retrieves an existing meeting by title
func (r *Registry) GetMeeting(ctx context.Context, title string) (*models.Meeting, error) {
	return r.repo.GetMeeting(ctx, title)
}

// JoinMeeting ensures the meeting exists, mints a fresh attendee from
// the provider and records the display name on the roster. Every call
// creates a new attendee, even for a returning display name. The title
// lock is held across the provider round trip and the roster write so
// the ensured meeting cannot be evicted mid-join.
func (r *Registry) JoinMeeting(ctx context.Context, title, displayName string) (*models.JoinInfo, error) {
	if title == "" {
		return nil, &ValidationError{Field: "title"}
	}

	unlock := r.locks.Lock(title)
	defer unlock()

	meeting, err := r.ensureMeeting(ctx, title)
	if err != nil {
		return nil, err
	}

	// Per-join identity; not stable across reconnects
	externalUserID := fmt.Sprintf("%s#%s", uuid.NewString()[:8], displayName)

	identity, err := r.provider.CreateAttendee(ctx, meeting.ExternalMeetingID, externalUserID)
	if err != nil {
		return nil, err
	}

	if err := r.repo.SetAttendee(ctx, title, identity.AttendeeID, displayName); err != nil {
		return nil, err
	}

	log.Info().
		Str("module", "service.registry").
		Str("title", utils.SanitizeLogString(title)).
		Str("attendee", identity.AttendeeID).
		Msg("attendee joined")

	meeting, err = r.repo.GetMeeting(ctx, title)
	if err != nil {
		return nil, err
	}

	return &models.JoinInfo{
		Meeting: meeting,
		Attendee: &models.Attendee{
			AttendeeID:     identity.AttendeeID,
			ExternalUserID: identity.ExternalUserID,
			JoinToken:      identity.JoinToken,
			DisplayName:    displayName,
		},
	}, nil
}

// EvictIdle removes meetings that have no attendees and no active
// recording. Returns the number of meetings evicted.
func (r *Registry) EvictIdle(ctx context.Context) (int, error) {
	meetings, err := r.repo.ListMeetings(ctx)
	if err != nil {
		return 0, err
	}

	evicted := 0
	for _, meeting := range meetings {
		unlock := r.locks.Lock(meeting.Title)

		// Re-check under the lock; a join may have raced the listing
		current, err := r.repo.GetMeeting(ctx, meeting.Title)
		if err == nil && !current.HasAttendees() && !current.IsRecording() {
			if err := r.repo.DeleteMeeting(ctx, meeting.Title); err == nil {
				evicted++
				log.Info().
					Str("module", "service.registry").
					Str("title", utils.SanitizeLogString(meeting.Title)).
					Msg("evicted idle meeting")
			}
		}
		unlock()
	}
	return evicted, nil
}

// ensureMeeting implements create-or-fetch; callers must hold the
// title lock
func (r *Registry) ensureMeeting(ctx context.Context, title string) (*models.Meeting, error) {
	meeting, err := r.repo.GetMeeting(ctx, title)
	if err == nil {
		return meeting, nil
	}
	if err != models.ErrMeetingNotFound {
		return nil, err
	}

	session, err := r.provider.CreateMeeting(ctx, r.mediaRegion, uuid.NewString())
	if err != nil {
		return nil, err
	}

	meeting = models.NewMeeting(title, session.MeetingID, session.MediaRegion)
	if meeting.MediaRegion == "" {
		meeting.MediaRegion = r.mediaRegion
	}
	if err := r.repo.SaveMeeting(ctx, meeting); err != nil {
		return nil, err
	}

	log.Info().
		Str("module", "service.registry").
		Str("title", utils.SanitizeLogString(title)).
		Str("external_meeting_id", session.MeetingID).
		Msg("created meeting")

	return meeting, nil
}
