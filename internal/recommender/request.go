package recommender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const contentType = "application/json"

// apiErrorBody covers both error shapes the backend produces: plain
// validation failures carry `detail`, the custom handler carries
// `error` + `message`.
type apiErrorBody struct {
	Detail  string         `json:"detail"`
	Err     string         `json:"error"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

func (c *Client) getJSON(ctx context.Context, path string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}

	req = c.setHeaders(req)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.request(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return c.apiError(resp, data)
	}

	if target == nil {
		return nil
	}

	if err := json.Unmarshal(data, target); err != nil {
		return err
	}

	return nil
}

func (c *Client) postMultipart(ctx context.Context, path string, build func(*multipart.Writer) error, target interface{}) error {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	if err := build(w); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, &b)
	if err != nil {
		return err
	}

	req = c.setHeaders(req)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.request(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return c.apiError(resp, data)
	}

	if target == nil {
		return nil
	}

	return json.Unmarshal(data, target)
}

func (c *Client) request(req *http.Request) (*http.Response, error) {
	c.logger.Debug("make request",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.String("request_id", req.Header.Get("X-Request-ID")),
	)
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: fmt.Sprintf("%s %s", req.Method, req.URL.Path), Cause: err}
	}

	return resp, nil
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())

	return req
}

// apiError turns a non-2xx response into an APIError, preferring the
// server-provided message over the bare HTTP status.
func (c *Client) apiError(resp *http.Response, data []byte) error {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
	}

	var body apiErrorBody
	if err := json.Unmarshal(data, &body); err == nil {
		switch {
		case body.Detail != "":
			apiErr.Message = body.Detail
		case body.Message != "":
			apiErr.Message = body.Message
		case body.Err != "":
			apiErr.Message = body.Err
		}
	}

	return apiErr
}
