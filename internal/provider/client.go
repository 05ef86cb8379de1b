package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pkg/errors"

	"github.com/MilynDsilva/consultrooms/internal/config"
)

// audio mux for composited captures; per-stream captures mux each
// stream with the originating attendee
const (
	muxAudioOnly         = "AudioOnly"
	muxAudioWithActive   = "AudioWithActiveSpeakerVideo"
	gridLayout           = "GridView"
	gridResolution       = "FHD"
	presenterOnlyContent = "PresenterOnly"
)

// APIClient handles interactions with the media provider's REST API
type APIClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

var _ MediaProvider = (*APIClient)(nil)

// NewAPIClient creates a provider client from configuration. The HTTP
// client carries a hard timeout so a hung provider call surfaces as an
// UpstreamError instead of leaking the request goroutine.
func NewAPIClient(cfg config.ProviderConfig) *APIClient {
	return &APIClient{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
	}
}

// CreateMeeting requests a new provider-side media session. The
// clientRequestToken makes the call idempotent on the provider side.
func (c *APIClient) CreateMeeting(ctx context.Context, mediaRegion, clientRequestToken string) (*MeetingSession, error) {
	payload := map[string]string{
		"MediaRegion":        mediaRegion,
		"ClientRequestToken": clientRequestToken,
	}

	var session MeetingSession
	if err := c.post(ctx, "/meetings", payload, &session); err != nil {
		return nil, &UpstreamError{Op: "create meeting", Err: err}
	}
	return &session, nil
}

// CreateAttendee mints a new attendee scoped to the given meeting
func (c *APIClient) CreateAttendee(ctx context.Context, meetingID, externalUserID string) (*AttendeeIdentity, error) {
	payload := map[string]string{
		"ExternalUserId": externalUserID,
	}

	path := fmt.Sprintf("/meetings/%s/attendees", meetingID)
	var identity AttendeeIdentity
	if err := c.post(ctx, path, payload, &identity); err != nil {
		return nil, &UpstreamError{Op: "create attendee", Err: err}
	}
	return &identity, nil
}

// CreateCapturePipeline starts a provider-managed recording job
func (c *APIClient) CreateCapturePipeline(ctx context.Context, req CapturePipelineRequest) (*CapturePipeline, error) {
	var pipeline CapturePipeline
	if err := c.post(ctx, "/media-capture-pipelines", req, &pipeline); err != nil {
		return nil, &UpstreamError{Op: "create capture pipeline", Err: err}
	}
	return &pipeline, nil
}

// DeleteCapturePipeline tears down a recording job
func (c *APIClient) DeleteCapturePipeline(ctx context.Context, pipelineID string) error {
	path := fmt.Sprintf("/media-capture-pipelines/%s", pipelineID)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return &UpstreamError{Op: "delete capture pipeline", Err: err}
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &UpstreamError{Op: "delete capture pipeline", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &UpstreamError{
			Op:  "delete capture pipeline",
			Err: errors.Errorf("provider API error (status %d): %s", resp.StatusCode, string(body)),
		}
	}
	return nil
}

// post sends a JSON request and decodes the JSON response into out
func (c *APIClient) post(ctx context.Context, path string, payload any, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "failed to encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to make request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("provider API error (status %d): %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "failed to parse response")
	}
	return nil
}

func (c *APIClient) setHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")
}

// ArtifactsForMode maps a recording mode to the provider artifact
// configuration.
//
//   - Raw: individually muxed audio, video and content streams, each
//     captured separately.
//   - Grid: audio captured separately; individual video/content streams
//     disabled; one composited view tiling all participants, with the
//     active screen-share presenter prioritized.
func ArtifactsForMode(grid bool) ArtifactsConfig {
	if grid {
		return ArtifactsConfig{
			Audio:   AudioArtifact{MuxType: muxAudioOnly},
			Video:   StreamArtifact{State: StreamDisabled},
			Content: StreamArtifact{State: StreamDisabled},
			CompositedVideo: &CompositedVideoArtifact{
				Layout:             gridLayout,
				Resolution:         gridResolution,
				ContentShareLayout: presenterOnlyContent,
			},
		}
	}
	return ArtifactsConfig{
		Audio:   AudioArtifact{MuxType: muxAudioWithActive},
		Video:   StreamArtifact{State: StreamEnabled, MuxType: "VideoOnly"},
		Content: StreamArtifact{State: StreamEnabled, MuxType: "ContentOnly"},
	}
}
