package recommender

import "fmt"

// NetworkError represents a transport-level failure reaching the backend.
type NetworkError struct {
	Op    string
	Cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: backend unreachable: %v", e.Op, e.Cause)
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// SubmissionError represents a rejected analysis submission.
type SubmissionError struct {
	StatusCode int
	Message    string
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submission rejected (status %d): %s", e.StatusCode, e.Message)
}

// APIError represents a non-2xx response from any other backend endpoint.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("bad status: %s", e.Status)
	}
	return fmt.Sprintf("bad status: %s: %s", e.Status, e.Message)
}
