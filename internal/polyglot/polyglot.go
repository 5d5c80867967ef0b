// Package polyglot talks to the Polyglot TTS job API: job submission,
// status checks and result download.
package polyglot

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/vnmchuo/polyglot-tts/internal/job"
)

const (
	submitPath = "/polyglot-tts/submit"
	resultPath = "/polyglot-tts/result/"

	audioMIME = "audio/wav"
	audioExt  = ".wav"

	// chunkSize bounds memory use while streaming artifacts to disk.
	chunkSize = 8192

	// maxErrorBody caps how much of an error response is kept for messages.
	maxErrorBody = 4096

	// submitTrip consecutive failed submissions open the submit breaker.
	submitTrip = 3
)

type Client struct {
	baseURL        string
	outputDir      string
	requestTimeout time.Duration
	httpClient     *http.Client
	submitBreaker  *gobreaker.CircuitBreaker
}

type Options struct {
	BaseURL        string
	OutputDir      string
	RequestTimeout time.Duration
	// HTTPClient overrides the default traced client.
	HTTPClient *http.Client
}

var _ job.Client = (*Client)(nil)

func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = "."
	}
	return &Client{
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		outputDir:      outputDir,
		requestTimeout: opts.RequestTimeout,
		httpClient:     hc,
		submitBreaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "polyglot-submit",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= submitTrip
			},
		}),
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// resolve turns a server-provided locator into a URL. Absolute URLs are used
// verbatim; anything else is appended to the base URL.
func (c *Client) resolve(locator string) string {
	if u, err := url.Parse(locator); err == nil && u.IsAbs() {
		return locator
	}
	if !strings.HasPrefix(locator, "/") {
		locator = "/" + locator
	}
	return c.baseURL + locator
}

// ArtifactPath returns where the artifact of jobID is stored.
func (c *Client) ArtifactPath(jobID string) string {
	return joinArtifact(c.outputDir, jobID)
}

// statusError describes a non-2xx response.
func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return fmt.Errorf("polyglot api error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}
