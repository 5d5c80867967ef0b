package polyglot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/vnmchuo/polyglot-tts/internal/job"
)

type statusResponse struct {
	Status json.RawMessage `json:"status"`
}

// rawStatus returns the wire value of the status field. Strings are
// unquoted; any other JSON value is kept as its JSON text.
func rawStatus(v json.RawMessage) string {
	if len(v) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return string(v)
}

// Status fetches the current state of a job. Transport failures, non-2xx
// answers and bodies that are not a JSON object are returned as errors. A
// missing or non-string status decodes to job.StateUnknown; the raw body is
// returned alongside every decoded status.
func (c *Client) Status(ctx context.Context, h job.Handle) (job.Status, []byte, error) {
	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolve(h.StatusURL), nil)
	if err != nil {
		return job.Status{}, nil, err
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return job.Status{}, nil, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return job.Status{}, nil, statusError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return job.Status{}, nil, fmt.Errorf("read status response: %w", err)
	}

	var sr statusResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return job.Status{}, body, fmt.Errorf("decode status response: %w", err)
	}

	return job.ParseStatus(rawStatus(sr.Status)), body, nil
}
