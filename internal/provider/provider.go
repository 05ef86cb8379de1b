// Package provider defines the capability interface for the external
// real-time media/signaling provider and its HTTP client implementation.
// The provider owns actual audio/video transport; this service only
// coordinates sessions on top of it.
package provider

import (
	"context"
	"fmt"
)

// MeetingSession is the provider-side handle for a created meeting
type MeetingSession struct {
	MeetingID   string `json:"MeetingId"`
	MediaRegion string `json:"MediaRegion"`
}

// AttendeeIdentity is the provider-side handle for a minted attendee
type AttendeeIdentity struct {
	AttendeeID     string `json:"AttendeeId"`
	ExternalUserID string `json:"ExternalUserId"`
	JoinToken      string `json:"JoinToken"`
}

// CapturePipeline is the provider-side handle for a recording job
type CapturePipeline struct {
	PipelineID string `json:"MediaPipelineId"`
	Status     string `json:"Status,omitempty"`
}

// StreamState enables or disables capture of an individual stream
type StreamState string

const (
	StreamEnabled  StreamState = "Enabled"
	StreamDisabled StreamState = "Disabled"
)

// ArtifactsConfig selects which media artifacts a capture pipeline produces
type ArtifactsConfig struct {
	Audio           AudioArtifact            `json:"Audio"`
	Video           StreamArtifact           `json:"Video"`
	Content         StreamArtifact           `json:"Content"`
	CompositedVideo *CompositedVideoArtifact `json:"CompositedVideo,omitempty"`
}

// AudioArtifact configures audio capture
type AudioArtifact struct {
	MuxType string `json:"MuxType"`
}

// StreamArtifact configures per-stream video or content capture
type StreamArtifact struct {
	State   StreamState `json:"State"`
	MuxType string      `json:"MuxType,omitempty"`
}

// CompositedVideoArtifact configures a single tiled view of all
// participants, with the active content presenter prioritized
type CompositedVideoArtifact struct {
	Layout             string `json:"Layout"`
	Resolution         string `json:"Resolution"`
	ContentShareLayout string `json:"ContentShareLayout"`
}

// CapturePipelineRequest describes a pipeline creation call
type CapturePipelineRequest struct {
	MeetingID  string          `json:"SourceArn"`
	SinkBucket string          `json:"SinkArn"`
	Artifacts  ArtifactsConfig `json:"ArtifactsConfiguration"`
}

// MediaProvider is the coordination-relevant surface of the external
// signaling/media service. All calls are long-latency I/O and honor
// context cancellation; failures are returned as *UpstreamError.
type MediaProvider interface {
	CreateMeeting(ctx context.Context, mediaRegion, clientRequestToken string) (*MeetingSession, error)
	CreateAttendee(ctx context.Context, meetingID, externalUserID string) (*AttendeeIdentity, error)
	CreateCapturePipeline(ctx context.Context, req CapturePipelineRequest) (*CapturePipeline, error)
	DeleteCapturePipeline(ctx context.Context, pipelineID string) error
}

// UpstreamError wraps a failed or timed-out provider call. The core
// never retries these; retry policy belongs to the caller.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
