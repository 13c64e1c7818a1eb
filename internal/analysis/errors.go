package analysis

import (
	"errors"
	"fmt"
	"time"
)

// ErrAnalysisInFlight is returned when SubmitAnalysis or Reset is invoked
// while another analysis cycle is still running.
var ErrAnalysisInFlight = errors.New("an analysis cycle is already in flight")

// PollTransportError represents an aborted polling loop: the consecutive
// transport failure budget was exhausted before a terminal status arrived.
type PollTransportError struct {
	Attempts int
	Cause    error
}

func (e *PollTransportError) Error() string {
	return fmt.Sprintf("status polling aborted after attempt %d: %v", e.Attempts, e.Cause)
}

func (e *PollTransportError) Unwrap() error {
	return e.Cause
}

// JobFailedError represents a backend-reported analysis failure.
type JobFailedError struct {
	JobID   string
	Message string
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("analysis job %s failed: %s", e.JobID, e.Message)
}

// TimeoutError represents an exhausted attempt ceiling without the job ever
// reaching a terminal status.
type TimeoutError struct {
	Attempts int
	Interval time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("analysis timed out: no terminal status after %d polls every %s", e.Attempts, e.Interval)
}
