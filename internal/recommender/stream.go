package recommender

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// StreamEvent is one progress frame from the server-sent events endpoint.
// The backend emits one frame per second until the job reaches a terminal
// status.
type StreamEvent struct {
	JobID    string `json:"job_id"`
	Status   Status `json:"status"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`
	Error    string `json:"error"`
}

// StreamProgress follows the progress stream of a job, invoking fn for every
// received frame. It returns once the job reports a terminal status, the
// handler returns an error, or the stream ends.
func (c *Client) StreamProgress(ctx context.Context, jobID string, fn func(StreamEvent) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s%s/%s", c.BaseURL, StreamPath, jobID), nil)
	if err != nil {
		return err
	}

	req = c.setHeaders(req)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	// The client-wide timeout would cut long streams short, so streaming
	// uses its own client and relies on ctx for cancellation.
	streamClient := &http.Client{Transport: c.HTTPClient.Transport}

	c.logger.Debug("open progress stream", zap.String("url", req.URL.String()))
	resp, err := streamClient.Do(req)
	if err != nil {
		return &NetworkError{Op: fmt.Sprintf("GET %s", req.URL.Path), Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return c.apiError(resp, data)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}

		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}

		var event StreamEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			return fmt.Errorf("decoding stream event: %w", err)
		}

		// A frame without a job id carries only a server-side error,
		// e.g. an unknown job.
		if event.JobID == "" && event.Error != "" {
			return fmt.Errorf("stream error: %s", event.Error)
		}

		if err := fn(event); err != nil {
			return err
		}

		if event.Status.Terminal() {
			return nil
		}
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}

	return nil
}
