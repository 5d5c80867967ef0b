package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/vnmchuo/polyglot-tts/internal/job"
	"github.com/vnmchuo/polyglot-tts/internal/log"
	"github.com/vnmchuo/polyglot-tts/internal/polyglot"
	"github.com/vnmchuo/polyglot-tts/pkg/ratelimit"
)

// Runner executes one job lifecycle.
type Runner interface {
	Run(ctx context.Context, req job.Request, observe job.Observer) (*job.Artifact, error)
}

// ArtifactStore locates downloaded artifacts by job id.
type ArtifactStore interface {
	ArtifactPath(jobID string) string
}

type Handler struct {
	runner    Runner
	artifacts ArtifactStore
	limiter   *ratelimit.Limiter
	logger    zerolog.Logger
}

// NewHandler wires the job endpoints. limiter may be nil to disable throttling.
func NewHandler(runner Runner, artifacts ArtifactStore, limiter *ratelimit.Limiter) *Handler {
	return &Handler{
		runner:    runner,
		artifacts: artifacts,
		limiter:   limiter,
		logger:    log.WithComponent("server"),
	}
}

type submitRequest struct {
	Gender   string `json:"gender"`
	Text     string `json:"text"`
	Language string `json:"language"`
}

type artifactResponse struct {
	JobID string `json:"job_id"`
	Size  int64  `json:"size"`
	URL   string `json:"url"`
}

// HandleSubmit runs one job and streams its progress as Server-Sent Events.
// The stream ends with either an "artifact" or an "error" event.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body submitRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := job.NewRequest(body.Gender, body.Text, body.Language)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	if h.limiter != nil {
		allowed, err := h.limiter.Allow(ctx, clientID(r), req.TextLength())
		if err != nil {
			h.logger.Warn().Err(err).Msg("rate limiter unavailable")
		}
		if err != nil || !allowed {
			w.Header().Set("Retry-After", "60")
			writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	send := func(event string, v any) {
		data, err := json.Marshal(v)
		if err != nil {
			h.logger.Error().Err(err).Str("event", event).Msg("encode event")
			return
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
		flusher.Flush()
	}

	artifact, err := h.runner.Run(ctx, req, func(ev job.Event) {
		send(string(ev.Level), ev)
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		send("error", map[string]string{"error": err.Error()})
		return
	}

	send("artifact", artifactResponse{
		JobID: artifact.JobID,
		Size:  artifact.Size,
		URL:   "/v1/artifacts/" + artifact.JobID,
	})
}

// HandleArtifact serves a previously downloaded WAV file.
func (h *Handler) HandleArtifact(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if !polyglot.ValidJobID(jobID) {
		writeJSONError(w, http.StatusBadRequest, "invalid job id")
		return
	}

	path := h.artifacts.ArtifactPath(jobID)
	if _, err := os.Stat(path); err != nil {
		writeJSONError(w, http.StatusNotFound, "artifact not found")
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", jobID+".wav"))
	http.ServeFile(w, r, path)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func clientID(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
