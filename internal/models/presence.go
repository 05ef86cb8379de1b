package models

// PresenceEvent is a provider-delivered signal that an attendee has
// become reachable or unreachable within a meeting
type PresenceEvent struct {
	AttendeeID     string `json:"attendee_id"`
	ExternalUserID string `json:"external_user_id"`
	Present        bool   `json:"present"`
}

// NotificationKind distinguishes join and leave toasts
type NotificationKind string

const (
	NotificationJoin  NotificationKind = "join"
	NotificationLeave NotificationKind = "leave"
)

// Notification is one transient join/leave toast surfaced to clients.
// ID is monotonic per dispatcher so expiry can target an entry by
// identifier rather than by queue position.
type Notification struct {
	ID      uint64           `json:"id"`
	Kind    NotificationKind `json:"kind"`
	Message string           `json:"message"`
}
