package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/MilynDsilva/consultrooms/internal/models"
	"github.com/MilynDsilva/consultrooms/internal/repository"
	"github.com/MilynDsilva/consultrooms/internal/utils"
)

// unknownName labels attendees whose display name never reached this
// client's snapshot before they left
const unknownName = "Someone"

// NotificationSink receives the join/leave notifications produced by
// presence reconciliation for one subscribed client
type NotificationSink interface {
	Notify(kind models.NotificationKind, message string)
}

// Bridge consumes provider presence events and reconciles them against
// the roster store. Each subscription gets a bounded channel and a
// single consumer goroutine, so events for one meeting are processed
// in delivery order, decoupled from the HTTP request cycle.
type Bridge struct {
	repo      repository.Repository
	queueSize int

	mu   sync.RWMutex
	subs map[string][]*Subscription
}

// NewBridge creates a presence bridge over the given session store
func NewBridge(repo repository.Repository, queueSize int) *Bridge {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Bridge{
		repo:      repo,
		queueSize: queueSize,
		subs:      make(map[string][]*Subscription),
	}
}

// Subscription is one client's view of a meeting's presence stream.
// The local roster snapshot is eventually consistent: each join event
// triggers a full authoritative re-fetch rather than incremental
// patching, because the authoritative name for an attendee is only
// known server-side.
type Subscription struct {
	bridge *Bridge
	title  string
	selfID string
	sink   NotificationSink

	events   chan models.PresenceEvent
	done     chan struct{}
	stopOnce sync.Once
	snapshot models.Roster
}

// Subscribe attaches a notification sink to a meeting's presence
// stream. The self attendee ID suppresses the client's own join toast.
func (b *Bridge) Subscribe(ctx context.Context, title, selfAttendeeID string, sink NotificationSink) (*Subscription, error) {
	snapshot, err := b.repo.Roster(ctx, title)
	if err != nil {
		return nil, err
	}

	sub := &Subscription{
		bridge:   b,
		title:    title,
		selfID:   selfAttendeeID,
		sink:     sink,
		events:   make(chan models.PresenceEvent, b.queueSize),
		done:     make(chan struct{}),
		snapshot: snapshot,
	}

	b.mu.Lock()
	b.subs[title] = append(b.subs[title], sub)
	b.mu.Unlock()

	go sub.run()

	log.Info().
		Str("module", "service.presence").
		Str("title", utils.SanitizeLogString(title)).
		Str("self", selfAttendeeID).
		Msg("presence subscription opened")

	return sub, nil
}

// Deliver routes a presence event to every subscription of the
// meeting. Sends block until the subscription consumes or closes, so
// per-subscription ordering is preserved.
func (b *Bridge) Deliver(title string, event models.PresenceEvent) {
	b.mu.RLock()
	subs := b.subs[title]
	b.mu.RUnlock()

	for _, sub := range subs {
		select {
		case sub.events <- event:
		case <-sub.done:
		}
	}

	// Leave events reconcile the authoritative roster once, regardless
	// of how many clients are subscribed; removal is idempotent.
	if !event.Present {
		if err := b.repo.RemoveAttendee(context.Background(), title, event.AttendeeID); err != nil && err != models.ErrMeetingNotFound {
			log.Error().Err(err).
				Str("module", "service.presence").
				Str("title", utils.SanitizeLogString(title)).
				Msg("failed to remove departed attendee from roster")
		}
	}
}

// Close stops the subscription's consumer loop and detaches it
func (s *Subscription) Close() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.bridge.detach(s)
	})
}

func (b *Bridge) detach(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[sub.title] = lo.Without(b.subs[sub.title], sub)
	if len(b.subs[sub.title]) == 0 {
		delete(b.subs, sub.title)
	}
}

// run is the single-consumer reconciliation loop; processing errors
// are logged and never terminate the loop
func (s *Subscription) run() {
	for {
		select {
		case <-s.done:
			return
		case event := <-s.events:
			if event.Present {
				s.handleJoin(event)
			} else {
				s.handleLeave(event)
			}
		}
	}
}

// handleJoin re-fetches the authoritative roster, toasts every newly
// appearing attendee other than self and replaces the local snapshot
func (s *Subscription) handleJoin(event models.PresenceEvent) {
	roster, err := s.bridge.repo.Roster(context.Background(), s.title)
	if err != nil {
		log.Error().Err(err).
			Str("module", "service.presence").
			Str("title", utils.SanitizeLogString(s.title)).
			Msg("roster re-fetch failed; keeping previous snapshot")
		return
	}

	joined := lo.Filter(lo.Keys(roster), func(id string, _ int) bool {
		_, seen := s.snapshot[id]
		return !seen && id != s.selfID
	})

	for _, id := range joined {
		name := roster[id]
		if name == "" {
			name = unknownName
		}
		s.sink.Notify(models.NotificationJoin, name+" joined the meeting")
	}

	s.snapshot = roster
}

// handleLeave names the attendee from the possibly-stale local
// snapshot. Snapshot removal is idempotent; a redelivered leave event
// announces "Someone" but never errors.
func (s *Subscription) handleLeave(event models.PresenceEvent) {
	name := s.snapshot[event.AttendeeID]
	if name == "" {
		name = unknownName
	}

	s.sink.Notify(models.NotificationLeave, name+" left the meeting")
	delete(s.snapshot, event.AttendeeID)
}
