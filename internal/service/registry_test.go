package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/MilynDsilva/consultrooms/internal/models"
	"github.com/MilynDsilva/consultrooms/internal/provider"
	"github.com/MilynDsilva/consultrooms/internal/repository/memory"
	"github.com/MilynDsilva/consultrooms/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider is an in-memory stand-in for the media provider
type fakeProvider struct {
	mu        sync.Mutex
	meetings  int
	attendees int
	pipelines int
	deleted   []string

	failCreateMeeting  bool
	failCreateAttendee bool
	failCreatePipeline bool
	failDeletePipeline bool

	// When set, CreateAttendee signals attendeeEntered and blocks
	// until attendeeRelease is closed
	attendeeEntered chan struct{}
	attendeeRelease chan struct{}
}

func (f *fakeProvider) CreateMeeting(ctx context.Context, mediaRegion, clientRequestToken string) (*provider.MeetingSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreateMeeting {
		return nil, &provider.UpstreamError{Op: "create meeting", Err: fmt.Errorf("boom")}
	}
	f.meetings++
	return &provider.MeetingSession{
		MeetingID:   fmt.Sprintf("ext-meeting-%d", f.meetings),
		MediaRegion: mediaRegion,
	}, nil
}

func (f *fakeProvider) CreateAttendee(ctx context.Context, meetingID, externalUserID string) (*provider.AttendeeIdentity, error) {
	if f.attendeeEntered != nil {
		f.attendeeEntered <- struct{}{}
		<-f.attendeeRelease
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreateAttendee {
		return nil, &provider.UpstreamError{Op: "create attendee", Err: fmt.Errorf("boom")}
	}
	f.attendees++
	return &provider.AttendeeIdentity{
		AttendeeID:     fmt.Sprintf("att-%d", f.attendees),
		ExternalUserID: externalUserID,
		JoinToken:      fmt.Sprintf("jt-%d", f.attendees),
	}, nil
}

func (f *fakeProvider) CreateCapturePipeline(ctx context.Context, req provider.CapturePipelineRequest) (*provider.CapturePipeline, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreatePipeline {
		return nil, &provider.UpstreamError{Op: "create capture pipeline", Err: fmt.Errorf("boom")}
	}
	f.pipelines++
	return &provider.CapturePipeline{PipelineID: fmt.Sprintf("pipe-%d", f.pipelines)}, nil
}

func (f *fakeProvider) DeleteCapturePipeline(ctx context.Context, pipelineID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDeletePipeline {
		return &provider.UpstreamError{Op: "delete capture pipeline", Err: fmt.Errorf("boom")}
	}
	f.deleted = append(f.deleted, pipelineID)
	return nil
}

func (f *fakeProvider) meetingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.meetings
}

func newTestRegistry() (*service.Registry, *memory.Repository, *fakeProvider) {
	repo := memory.NewRepository()
	prov := &fakeProvider{}
	return service.NewRegistry(repo, prov, "eu-central-1"), repo, prov
}

func TestCreateMeetingIsIdempotent(t *testing.T) {
	registry, _, prov := newTestRegistry()
	ctx := context.Background()

	first, err := registry.CreateMeeting(ctx, "CONSULT1")
	require.NoError(t, err)

	second, err := registry.CreateMeeting(ctx, "CONSULT1")
	require.NoError(t, err)

	assert.Equal(t, first.ExternalMeetingID, second.ExternalMeetingID)
	assert.Equal(t, 1, prov.meetingCount(), "provider must see exactly one create")
}

func TestConcurrentFirstCreators(t *testing.T) {
	registry, _, prov := newTestRegistry()
	ctx := context.Background()

	ids := make([]string, 16)
	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			meeting, err := registry.CreateMeeting(ctx, "CONSULT1")
			require.NoError(t, err)
			ids[n] = meeting.ExternalMeetingID
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, prov.meetingCount(), "concurrent first-callers must not double-create")
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestCreateMeetingValidation(t *testing.T) {
	registry, _, _ := newTestRegistry()

	_, err := registry.CreateMeeting(context.Background(), "")
	var validation *service.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "title", validation.Field)
}

func TestCreateMeetingUpstreamFailure(t *testing.T) {
	registry, repo, prov := newTestRegistry()
	prov.failCreateMeeting = true

	_, err := registry.CreateMeeting(context.Background(), "CONSULT1")
	var upstream *provider.UpstreamError
	require.ErrorAs(t, err, &upstream)

	// Nothing must be stored for a failed create
	_, err = repo.GetMeeting(context.Background(), "CONSULT1")
	assert.ErrorIs(t, err, models.ErrMeetingNotFound)
}

func TestJoinMintsDistinctAttendees(t *testing.T) {
	registry, repo, _ := newTestRegistry()
	ctx := context.Background()

	_, err := registry.CreateMeeting(ctx, "ROOM1")
	require.NoError(t, err)

	alice, err := registry.JoinMeeting(ctx, "ROOM1", "Alice")
	require.NoError(t, err)
	bob, err := registry.JoinMeeting(ctx, "ROOM1", "Bob")
	require.NoError(t, err)
	aliceAgain, err := registry.JoinMeeting(ctx, "ROOM1", "Alice")
	require.NoError(t, err)

	assert.NotEqual(t, alice.Attendee.AttendeeID, bob.Attendee.AttendeeID)
	assert.NotEqual(t, alice.Attendee.AttendeeID, aliceAgain.Attendee.AttendeeID,
		"a returning display name still mints a new attendee")

	roster, err := repo.Roster(ctx, "ROOM1")
	require.NoError(t, err)
	assert.Len(t, roster, 3)
	assert.Equal(t, "Alice", roster[alice.Attendee.AttendeeID])
	assert.Equal(t, "Bob", roster[bob.Attendee.AttendeeID])
}

func TestJoinImplicitlyCreatesMeeting(t *testing.T) {
	registry, repo, prov := newTestRegistry()
	ctx := context.Background()

	info, err := registry.JoinMeeting(ctx, "MISSING_ROOM", "X")
	require.NoError(t, err)
	assert.Equal(t, 1, prov.meetingCount())
	assert.NotEmpty(t, info.Meeting.ExternalMeetingID)

	roster, err := repo.Roster(ctx, "MISSING_ROOM")
	require.NoError(t, err)
	assert.Equal(t, "X", roster[info.Attendee.AttendeeID])
}

func TestEvictIdle(t *testing.T) {
	registry, repo, _ := newTestRegistry()
	ctx := context.Background()

	_, err := registry.CreateMeeting(ctx, "EMPTY")
	require.NoError(t, err)
	_, err = registry.JoinMeeting(ctx, "OCCUPIED", "Alice")
	require.NoError(t, err)
	_, err = registry.CreateMeeting(ctx, "TAPED")
	require.NoError(t, err)
	require.NoError(t, repo.SetRecording(ctx, "TAPED", &models.RecordingPipeline{
		PipelineID: "pipe-1",
		Status:     models.RecordingStatusRecording,
	}))

	evicted, err := registry.EvictIdle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, evicted)

	_, err = repo.GetMeeting(ctx, "EMPTY")
	assert.ErrorIs(t, err, models.ErrMeetingNotFound)
	_, err = repo.GetMeeting(ctx, "OCCUPIED")
	assert.NoError(t, err)
	_, err = repo.GetMeeting(ctx, "TAPED")
	assert.NoError(t, err)
}

func TestEvictIdleDoesNotInterruptJoin(t *testing.T) {
	repo := memory.NewRepository()
	prov := &fakeProvider{
		attendeeEntered: make(chan struct{}),
		attendeeRelease: make(chan struct{}),
	}
	registry := service.NewRegistry(repo, prov, "eu-central-1")
	ctx := context.Background()

	_, err := registry.CreateMeeting(ctx, "ROOM1")
	require.NoError(t, err)

	joined := make(chan error, 1)
	var info *models.JoinInfo
	go func() {
		var err error
		info, err = registry.JoinMeeting(ctx, "ROOM1", "Alice")
		joined <- err
	}()

	// The join is now parked inside the provider attendee mint with
	// the empty meeting ensured; a sweep here must not remove it
	<-prov.attendeeEntered
	evictDone := make(chan int, 1)
	go func() {
		evicted, err := registry.EvictIdle(ctx)
		require.NoError(t, err)
		evictDone <- evicted
	}()

	close(prov.attendeeRelease)
	require.NoError(t, <-joined)
	assert.Equal(t, 0, <-evictDone, "a meeting being joined is not idle")

	roster, err := repo.Roster(ctx, "ROOM1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", roster[info.Attendee.AttendeeID])
}
