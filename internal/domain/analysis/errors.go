package analysis

import (
	"errors"
	"fmt"
)

// ErrPermissionDenied indicates the acting role is not allowed to run
// AI analysis. No network calls are made in this case.
var ErrPermissionDenied = errors.New("analysis requires security team or admin access")

// ErrNoIncident indicates analysis was requested without an incident.
var ErrNoIncident = errors.New("no incident selected for analysis")

// ErrInFlight indicates an analysis for the same incident is already
// running. Duplicates are rejected, not queued.
var ErrInFlight = errors.New("analysis already in progress for this incident")

// ErrHistoryDisabled indicates the read endpoints were called on a
// deployment that runs without an analysis history repository.
var ErrHistoryDisabled = errors.New("analysis history is not configured")

// ServiceError is a terminal failure from the classification service.
// Error() returns only the detail so callers can surface it verbatim.
type ServiceError struct {
	StatusCode int
	Detail     string
}

func (e *ServiceError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("incident analysis service returned status %d", e.StatusCode)
}
