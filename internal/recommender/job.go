package recommender

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
)

// Status is the backend-reported lifecycle phase of an analysis job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the job has finished, successfully or not.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// SubmitRequest carries the inputs for one analysis. Either CVFile or
// CVText must be set; JobDescription is always required.
type SubmitRequest struct {
	CVFile         string
	CVText         string
	JobDescription string
}

// JobSubmission is the backend acknowledgement of an accepted analysis.
type JobSubmission struct {
	JobID     string `json:"job_id"`
	Status    Status `json:"status"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}

// JobStatus is a point-in-time snapshot of a running job.
type JobStatus struct {
	JobID              string `json:"job_id"`
	Status             Status `json:"status"`
	ProgressPercentage int    `json:"progress_percentage"`
	CurrentStep        string `json:"current_step"`
	CreatedAt          string `json:"created_at"`
	UpdatedAt          string `json:"updated_at"`
	Error              string `json:"error"`
}

// SubmitAnalysis uploads the CV and job description and returns the accepted
// job. Inputs are sent as-is. Validation belongs to the callers.
func (c *Client) SubmitAnalysis(ctx context.Context, req *SubmitRequest) (*JobSubmission, error) {
	build := func(w *multipart.Writer) error {
		if req.CVFile != "" {
			if err := writeFilePart(w, "cv_file", req.CVFile); err != nil {
				return err
			}
		}

		if req.CVText != "" {
			if err := writeField(w, "cv_text", req.CVText); err != nil {
				return err
			}
		}

		return writeField(w, "job_description", req.JobDescription)
	}

	var submission JobSubmission
	if err := c.postMultipart(ctx, AnalyzePath, build, &submission); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return nil, &SubmissionError{StatusCode: apiErr.StatusCode, Message: apiErr.Message}
		}
		return nil, err
	}

	return &submission, nil
}

// JobStatus fetches a single status snapshot for the given job.
func (c *Client) JobStatus(ctx context.Context, jobID string) (*JobStatus, error) {
	var status JobStatus
	if err := c.getJSON(ctx, fmt.Sprintf("%s/%s", StatusPath, jobID), &status); err != nil {
		return nil, err
	}

	return &status, nil
}

func writeField(w *multipart.Writer, key, value string) error {
	field, err := w.CreateFormField(key)
	if err != nil {
		return err
	}

	_, err = io.WriteString(field, value)

	return err
}

func writeFilePart(w *multipart.Writer, key, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	part, err := w.CreateFormFile(key, filepath.Base(path))
	if err != nil {
		return err
	}

	_, err = io.Copy(part, file)

	return err
}
