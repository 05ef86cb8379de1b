package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/MilynDsilva/consultrooms/internal/models"
	"github.com/MilynDsilva/consultrooms/internal/repository/memory"
	"github.com/MilynDsilva/consultrooms/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chanSink collects notifications on a channel so tests can wait for
// the asynchronous reconciliation loop
type chanSink struct {
	ch chan models.Notification
}

func newChanSink() *chanSink {
	return &chanSink{ch: make(chan models.Notification, 16)}
}

func (s *chanSink) Notify(kind models.NotificationKind, message string) {
	s.ch <- models.Notification{Kind: kind, Message: message}
}

func (s *chanSink) next(t *testing.T) models.Notification {
	t.Helper()
	select {
	case n := <-s.ch:
		return n
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
		return models.Notification{}
	}
}

func (s *chanSink) expectNone(t *testing.T) {
	t.Helper()
	select {
	case n := <-s.ch:
		t.Fatalf("unexpected notification: %+v", n)
	case <-time.After(100 * time.Millisecond):
	}
}

func setupBridge(t *testing.T) (*service.Bridge, *memory.Repository) {
	repo := memory.NewRepository()
	require.NoError(t, repo.SaveMeeting(context.Background(), models.NewMeeting("ROOM1", "ext-1", "eu-central-1")))
	return service.NewBridge(repo, 16), repo
}

func TestJoinEmitsToastForNewAttendee(t *testing.T) {
	bridge, repo := setupBridge(t)
	ctx := context.Background()

	require.NoError(t, repo.SetAttendee(ctx, "ROOM1", "att-self", "Me"))

	sink := newChanSink()
	sub, err := bridge.Subscribe(ctx, "ROOM1", "att-self", sink)
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, repo.SetAttendee(ctx, "ROOM1", "att-alice", "Alice"))
	bridge.Deliver("ROOM1", models.PresenceEvent{AttendeeID: "att-alice", Present: true})

	n := sink.next(t)
	assert.Equal(t, models.NotificationJoin, n.Kind)
	assert.Equal(t, "Alice joined the meeting", n.Message)
}

func TestOwnJoinIsSuppressed(t *testing.T) {
	bridge, repo := setupBridge(t)
	ctx := context.Background()

	sink := newChanSink()
	sub, err := bridge.Subscribe(ctx, "ROOM1", "att-self", sink)
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, repo.SetAttendee(ctx, "ROOM1", "att-self", "Me"))
	bridge.Deliver("ROOM1", models.PresenceEvent{AttendeeID: "att-self", Present: true})

	sink.expectNone(t)
}

func TestLeaveUsesLocalSnapshotName(t *testing.T) {
	bridge, repo := setupBridge(t)
	ctx := context.Background()

	require.NoError(t, repo.SetAttendee(ctx, "ROOM1", "att-bob", "Bob"))

	sink := newChanSink()
	sub, err := bridge.Subscribe(ctx, "ROOM1", "att-self", sink)
	require.NoError(t, err)
	defer sub.Close()

	bridge.Deliver("ROOM1", models.PresenceEvent{AttendeeID: "att-bob", Present: false})

	n := sink.next(t)
	assert.Equal(t, models.NotificationLeave, n.Kind)
	assert.Equal(t, "Bob left the meeting", n.Message)

	// The authoritative roster is reconciled too
	assert.Eventually(t, func() bool {
		roster, err := repo.Roster(ctx, "ROOM1")
		if err != nil {
			return false
		}
		_, present := roster["att-bob"]
		return !present
	}, time.Second, 10*time.Millisecond)
}

func TestLeaveForUnknownAttendee(t *testing.T) {
	bridge, _ := setupBridge(t)

	sink := newChanSink()
	sub, err := bridge.Subscribe(context.Background(), "ROOM1", "att-self", sink)
	require.NoError(t, err)
	defer sub.Close()

	bridge.Deliver("ROOM1", models.PresenceEvent{AttendeeID: "att-ghost", Present: false})

	n := sink.next(t)
	assert.Equal(t, "Someone left the meeting", n.Message)
}

func TestDuplicateLeaveIsHarmless(t *testing.T) {
	bridge, repo := setupBridge(t)
	ctx := context.Background()

	require.NoError(t, repo.SetAttendee(ctx, "ROOM1", "att-bob", "Bob"))

	sink := newChanSink()
	sub, err := bridge.Subscribe(ctx, "ROOM1", "att-self", sink)
	require.NoError(t, err)
	defer sub.Close()

	bridge.Deliver("ROOM1", models.PresenceEvent{AttendeeID: "att-bob", Present: false})
	bridge.Deliver("ROOM1", models.PresenceEvent{AttendeeID: "att-bob", Present: false})

	first := sink.next(t)
	assert.Equal(t, "Bob left the meeting", first.Message)
	second := sink.next(t)
	assert.Equal(t, "Someone left the meeting", second.Message)

	roster, err := repo.Roster(ctx, "ROOM1")
	require.NoError(t, err)
	assert.NotContains(t, roster, "att-bob")
}

func TestRosterFetchFailureKeepsLoopAlive(t *testing.T) {
	bridge, repo := setupBridge(t)
	ctx := context.Background()

	sink := newChanSink()
	sub, err := bridge.Subscribe(ctx, "ROOM1", "att-self", sink)
	require.NoError(t, err)
	defer sub.Close()

	// Deleting the meeting makes the re-fetch fail; the loop must log
	// and keep consuming
	require.NoError(t, repo.DeleteMeeting(ctx, "ROOM1"))
	bridge.Deliver("ROOM1", models.PresenceEvent{AttendeeID: "att-x", Present: true})
	sink.expectNone(t)

	require.NoError(t, repo.SaveMeeting(ctx, models.NewMeeting("ROOM1", "ext-1", "eu-central-1")))
	require.NoError(t, repo.SetAttendee(ctx, "ROOM1", "att-carol", "Carol"))
	bridge.Deliver("ROOM1", models.PresenceEvent{AttendeeID: "att-carol", Present: true})

	n := sink.next(t)
	assert.Equal(t, "Carol joined the meeting", n.Message)
}

func TestSubscribeUnknownMeeting(t *testing.T) {
	bridge := service.NewBridge(memory.NewRepository(), 16)

	_, err := bridge.Subscribe(context.Background(), "MISSING", "att-self", newChanSink())
	assert.ErrorIs(t, err, service.ErrNotFound)
}
