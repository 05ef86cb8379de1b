// Package service provides the coordination logic for consultation
// rooms: session registry, recording control and presence reconciliation
package service

import (
	"fmt"

	"github.com/MilynDsilva/consultrooms/internal/models"
)

// ErrNotFound is returned for operations against an unknown meeting title
var ErrNotFound = models.ErrMeetingNotFound

// ConflictError signals a recording state-machine violation, e.g.
// starting a recording that is already running
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return e.Reason
}

// ValidationError signals a missing or malformed request field
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing or invalid field: %s", e.Field)
}
