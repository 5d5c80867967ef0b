package polyglot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/google/uuid"

	"github.com/vnmchuo/polyglot-tts/internal/job"
)

type submitResponse struct {
	JobID     string `json:"job_id"`
	StatusURL string `json:"status_url"`
}

// Submit creates a synthesis job. The request is sent once; every failure is
// reported as a *job.SubmissionError. After repeated failures the API is
// assumed down and submissions fail fast with gobreaker.ErrOpenState until
// the breaker lets a trial request through.
func (c *Client) Submit(ctx context.Context, req job.Request) (job.Handle, error) {
	res, err := c.submitBreaker.Execute(func() (interface{}, error) {
		return c.submit(ctx, req)
	})
	if err != nil {
		return job.Handle{}, &job.SubmissionError{Err: err}
	}
	return res.(job.Handle), nil
}

func (c *Client) submit(ctx context.Context, req job.Request) (job.Handle, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("gender", string(req.Gender)); err != nil {
		return job.Handle{}, err
	}
	if err := mw.WriteField("text", req.Text); err != nil {
		return job.Handle{}, err
	}
	if err := mw.Close(); err != nil {
		return job.Handle{}, err
	}

	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+submitPath, &body)
	if err != nil {
		return job.Handle{}, err
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	httpReq.Header.Set("Accept", audioMIME)
	httpReq.Header.Set("X-Request-ID", uuid.New().String())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return job.Handle{}, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return job.Handle{}, statusError(resp)
	}

	var sr submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return job.Handle{}, fmt.Errorf("decode submit response: %w", err)
	}
	if sr.JobID == "" || sr.StatusURL == "" {
		return job.Handle{}, errors.New("API response did not contain 'job_id' or 'status_url'")
	}

	return job.Handle{ID: sr.JobID, StatusURL: sr.StatusURL}, nil
}
