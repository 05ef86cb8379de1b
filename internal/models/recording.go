package models

import (
	"encoding/json"
	"fmt"
)

// RecordingMode selects the artifact configuration for a capture pipeline
type RecordingMode int

const (
	// RecordingModeRaw captures individually muxed audio, video and
	// content-share streams
	RecordingModeRaw RecordingMode = iota
	// RecordingModeGrid captures audio separately plus a single
	// composited view tiling all participants
	RecordingModeGrid
)

// String returns the string representation of a recording mode
func (m RecordingMode) String() string {
	return [...]string{"raw", "grid"}[m]
}

// ParseRecordingMode maps the wire value ("raw"|"grid") to a RecordingMode
func ParseRecordingMode(s string) (RecordingMode, error) {
	switch s {
	case "raw":
		return RecordingModeRaw, nil
	case "grid":
		return RecordingModeGrid, nil
	default:
		return 0, fmt.Errorf("unknown recording mode %q", s)
	}
}

// MarshalJSON encodes the mode as its wire value
func (m RecordingMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON decodes the mode from its wire value
func (m *RecordingMode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	mode, err := ParseRecordingMode(s)
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// RecordingStatus represents the capture pipeline lifecycle.
// Idle means no pipeline exists for the meeting.
type RecordingStatus int

const (
	RecordingStatusIdle RecordingStatus = iota
	RecordingStatusStarting
	RecordingStatusRecording
	RecordingStatusStopping
)

// String returns the string representation of a recording status
func (s RecordingStatus) String() string {
	return [...]string{"idle", "starting", "recording", "stopping"}[s]
}

// ParseRecordingStatus maps a status string back to a RecordingStatus
func ParseRecordingStatus(s string) (RecordingStatus, error) {
	switch s {
	case "idle":
		return RecordingStatusIdle, nil
	case "starting":
		return RecordingStatusStarting, nil
	case "recording":
		return RecordingStatusRecording, nil
	case "stopping":
		return RecordingStatusStopping, nil
	default:
		return 0, fmt.Errorf("unknown recording status %q", s)
	}
}

// MarshalJSON encodes the status as its string form
func (s RecordingStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes the status from its string form
func (s *RecordingStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	status, err := ParseRecordingStatus(raw)
	if err != nil {
		return err
	}
	*s = status
	return nil
}

// RecordingPipeline tracks the provider-managed recording job for a meeting
type RecordingPipeline struct {
	PipelineID string          `json:"PipelineId"`
	Mode       RecordingMode   `json:"Mode"`
	Status     RecordingStatus `json:"Status"`
}
