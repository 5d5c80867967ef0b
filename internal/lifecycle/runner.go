// Package lifecycle runs one Polyglot TTS job end to end: submit, poll until
// complete, download the artifact.
package lifecycle

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vnmchuo/polyglot-tts/internal/job"
	"github.com/vnmchuo/polyglot-tts/internal/log"
	"github.com/vnmchuo/polyglot-tts/internal/metrics"
)

type Runner struct {
	client job.Client
	poller *Poller
	tracer trace.Tracer
	logger zerolog.Logger
}

func NewRunner(client job.Client, maxWait time.Duration, tracer trace.Tracer) *Runner {
	return &Runner{
		client: client,
		poller: NewPoller(client, maxWait),
		tracer: tracer,
		logger: log.WithComponent("lifecycle"),
	}
}

// Run executes a single job. It returns the downloaded artifact, or the
// terminal error of whichever stage failed. Nothing is retried here.
func (r *Runner) Run(ctx context.Context, req job.Request, observe job.Observer) (*job.Artifact, error) {
	start := time.Now()

	ctx, span := r.tracer.Start(ctx, "tts.job")
	defer span.End()
	span.SetAttributes(
		attribute.String("gender", string(req.Gender)),
		attribute.String("language", req.Language),
		attribute.Int("text_length", req.TextLength()),
	)

	artifact, err := r.run(ctx, req, observe, span)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.RecordJob(outcome(err), time.Since(start), 0)
		return nil, err
	}

	metrics.RecordJob("success", time.Since(start), artifact.Size)
	return artifact, nil
}

func (r *Runner) run(ctx context.Context, req job.Request, observe job.Observer, span trace.Span) (*job.Artifact, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	submitCtx, submitSpan := r.tracer.Start(ctx, "tts.submit")
	h, err := r.client.Submit(submitCtx, req)
	endSpan(submitSpan, err)
	if err != nil {
		r.logger.Error().Err(err).Msg("submit failed")
		return nil, err
	}

	span.SetAttributes(attribute.String("job_id", h.ID))
	logger := r.logger.With().Str("job_id", h.ID).Logger()
	ctx = logger.WithContext(ctx)
	logger.Info().Str("status_url", h.StatusURL).Msg("job submitted")
	observe.Emit(job.SubmittedEvent(h.ID))

	interval := job.Interval(req.Language, req.TextLength())
	observe.Emit(job.IntervalEvent(h.ID, interval))

	pollCtx, pollSpan := r.tracer.Start(ctx, "tts.poll")
	pollSpan.SetAttributes(attribute.Int64("interval_seconds", int64(interval/time.Second)))
	err = r.poller.PollUntilComplete(pollCtx, h, interval, observe)
	endSpan(pollSpan, err)
	if err != nil {
		return nil, err
	}

	retrieveCtx, retrieveSpan := r.tracer.Start(ctx, "tts.retrieve")
	artifact, err := r.client.Retrieve(retrieveCtx, h.ID)
	endSpan(retrieveSpan, err)
	if err != nil {
		logger.Error().Err(err).Msg("download failed")
		return nil, err
	}

	logger.Info().Str("path", artifact.Path).Int64("bytes", artifact.Size).Msg("artifact saved")
	observe.Emit(job.DownloadedEvent(artifact))
	return artifact, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func outcome(err error) string {
	var (
		subErr     *job.SubmissionError
		timeoutErr *job.TimeoutError
		unknownErr *job.UnknownStatusError
		dlErr      *job.DownloadError
		emptyErr   *job.EmptyArtifactError
	)
	switch {
	case errors.As(err, &subErr):
		return "submission_error"
	case errors.As(err, &timeoutErr):
		return "timeout"
	case errors.As(err, &unknownErr):
		return "unknown_status"
	case errors.As(err, &dlErr):
		return "download_error"
	case errors.As(err, &emptyErr):
		return "empty_artifact"
	case errors.Is(err, job.ErrEmptyText), errors.Is(err, job.ErrInvalidGender):
		return "invalid_request"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
