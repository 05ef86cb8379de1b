// Package models defines the core domain types for consultation rooms
package models

import "errors"

// ErrMeetingNotFound is returned for lookups with an unknown title
var ErrMeetingNotFound = errors.New("meeting not found")

// Attendee represents one joined participant instance within a meeting.
// A returning user who rejoins receives a fresh Attendee; attendee
// identifiers are minted by the media provider, not by this service.
type Attendee struct {
	AttendeeID     string `json:"AttendeeId"`
	ExternalUserID string `json:"ExternalUserId"`
	JoinToken      string `json:"JoinToken,omitempty"`
	DisplayName    string `json:"DisplayName,omitempty"`
}

// Roster maps attendee IDs to display names for a meeting
type Roster map[string]string

// Meeting represents a consultation room identified by a caller-supplied
// title and bound 1:1 to a provider-side media session
type Meeting struct {
	Title             string             `json:"Title"`
	ExternalMeetingID string             `json:"ExternalMeetingId"`
	MediaRegion       string             `json:"MediaRegion"`
	Attendees         Roster             `json:"Attendees"`
	Recording         *RecordingPipeline `json:"Recording,omitempty"`
}

// NewMeeting constructs a meeting with a fully-initialized roster so
// callers never need to lazily create the attendee map.
func NewMeeting(title, externalMeetingID, mediaRegion string) *Meeting {
	return &Meeting{
		Title:             title,
		ExternalMeetingID: externalMeetingID,
		MediaRegion:       mediaRegion,
		Attendees:         make(Roster),
	}
}

// HasAttendees returns true if any attendee is currently on the roster
func (m *Meeting) HasAttendees() bool {
	return len(m.Attendees) > 0
}

// IsRecording returns true if a capture pipeline is active or in transition
func (m *Meeting) IsRecording() bool {
	return m.Recording != nil && m.Recording.Status != RecordingStatusIdle
}

// JoinInfo bundles everything a client needs to attach to the media session
type JoinInfo struct {
	Meeting  *Meeting  `json:"Meeting"`
	Attendee *Attendee `json:"Attendee"`
}
