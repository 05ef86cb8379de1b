package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/MilynDsilva/consultrooms/internal/models"
	"github.com/MilynDsilva/consultrooms/internal/provider"
	"github.com/MilynDsilva/consultrooms/internal/repository"
	"github.com/MilynDsilva/consultrooms/internal/utils"
)

// Recorder drives the per-meeting recording state machine:
//
//	Idle -> Starting -> Recording -> Stopping -> Idle
//
// At most one non-idle pipeline exists per meeting. Transitions for a
// title are serialized through the registry's per-title locks, so
// recording mutations never interleave with meeting creation for the
// same title.
type Recorder struct {
	registry   *Registry
	repo       repository.Repository
	provider   provider.MediaProvider
	sinkBucket string
}

// NewRecorder creates a recording controller. All recordings land in
// the single configured sink bucket.
func NewRecorder(registry *Registry, repo repository.Repository, prov provider.MediaProvider, sinkBucket string) *Recorder {
	return &Recorder{
		registry:   registry,
		repo:       repo,
		provider:   prov,
		sinkBucket: sinkBucket,
	}
}

// Start begins recording a meeting in the given mode. Requires the
// meeting to exist and its recording status to be Idle. On provider
// failure the status reverts to Idle and the upstream error surfaces.
func (r *Recorder) Start(ctx context.Context, title string, mode models.RecordingMode) (*models.RecordingPipeline, error) {
	unlock := r.registry.locks.Lock(title)
	defer unlock()

	meeting, err := r.repo.GetMeeting(ctx, title)
	if err != nil {
		return nil, err
	}

	current, err := r.repo.Recording(ctx, title)
	if err != nil {
		return nil, err
	}
	if current != nil && current.Status != models.RecordingStatusIdle {
		return nil, &ConflictError{Reason: "already recording"}
	}

	starting := &models.RecordingPipeline{Mode: mode, Status: models.RecordingStatusStarting}
	if err := r.repo.SetRecording(ctx, title, starting); err != nil {
		return nil, err
	}

	pipeline, err := r.provider.CreateCapturePipeline(ctx, provider.CapturePipelineRequest{
		MeetingID:  meeting.ExternalMeetingID,
		SinkBucket: r.sinkBucket,
		Artifacts:  provider.ArtifactsForMode(mode == models.RecordingModeGrid),
	})
	if err != nil {
		// Nothing was started upstream; back to Idle
		if clearErr := r.repo.SetRecording(ctx, title, nil); clearErr != nil {
			log.Error().Err(clearErr).
				Str("module", "service.recorder").
				Str("title", utils.SanitizeLogString(title)).
				Msg("failed to clear recording state after start failure")
		}
		return nil, err
	}

	active := &models.RecordingPipeline{
		PipelineID: pipeline.PipelineID,
		Mode:       mode,
		Status:     models.RecordingStatusRecording,
	}
	if err := r.repo.SetRecording(ctx, title, active); err != nil {
		return nil, err
	}

	log.Info().
		Str("module", "service.recorder").
		Str("title", utils.SanitizeLogString(title)).
		Str("pipeline", pipeline.PipelineID).
		Str("mode", mode.String()).
		Msg("recording started")

	return active, nil
}

// Stop ends an active recording. Requires status Recording. If the
// provider deletion fails, the status reverts to Recording with the
// pipeline handle intact so the caller can retry the stop.
func (r *Recorder) Stop(ctx context.Context, title string) error {
	unlock := r.registry.locks.Lock(title)
	defer unlock()

	current, err := r.repo.Recording(ctx, title)
	if err != nil {
		return err
	}
	if current == nil || current.Status != models.RecordingStatusRecording {
		return &ConflictError{Reason: "not recording"}
	}

	stopping := &models.RecordingPipeline{
		PipelineID: current.PipelineID,
		Mode:       current.Mode,
		Status:     models.RecordingStatusStopping,
	}
	if err := r.repo.SetRecording(ctx, title, stopping); err != nil {
		return err
	}

	if err := r.provider.DeleteCapturePipeline(ctx, current.PipelineID); err != nil {
		// Keep the handle and revert so a retry targets the same pipeline
		reverted := &models.RecordingPipeline{
			PipelineID: current.PipelineID,
			Mode:       current.Mode,
			Status:     models.RecordingStatusRecording,
		}
		if revertErr := r.repo.SetRecording(ctx, title, reverted); revertErr != nil {
			log.Error().Err(revertErr).
				Str("module", "service.recorder").
				Str("title", utils.SanitizeLogString(title)).
				Msg("failed to revert recording state after stop failure")
		}
		return err
	}

	if err := r.repo.SetRecording(ctx, title, nil); err != nil {
		return err
	}

	log.Info().
		Str("module", "service.recorder").
		Str("title", utils.SanitizeLogString(title)).
		Str("pipeline", current.PipelineID).
		Msg("recording stopped")

	return nil
}
