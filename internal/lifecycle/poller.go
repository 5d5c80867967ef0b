package lifecycle

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/vnmchuo/polyglot-tts/internal/job"
	"github.com/vnmchuo/polyglot-tts/internal/log"
	"github.com/vnmchuo/polyglot-tts/internal/metrics"
)

// Poller waits for a submitted job to finish.
type Poller struct {
	checker job.StatusChecker
	maxWait time.Duration
	clock   Clock
	logger  zerolog.Logger
}

func NewPoller(checker job.StatusChecker, maxWait time.Duration) *Poller {
	return &Poller{
		checker: checker,
		maxWait: maxWait,
		clock:   RealClock{},
		logger:  log.WithComponent("poller"),
	}
}

// PollUntilComplete checks the job status every interval until the job is
// complete. It returns nil on completion, *job.TimeoutError once more than
// maxWait has elapsed, and *job.UnknownStatusError on an unrecognised status.
// Failed status checks are reported as warnings and retried.
func (p *Poller) PollUntilComplete(ctx context.Context, h job.Handle, interval time.Duration, observe job.Observer) error {
	logger := p.logger.With().Str("job_id", h.ID).Logger()
	start := p.clock.Now()

	for {
		elapsed := p.clock.Now().Sub(start)
		if elapsed > p.maxWait {
			logger.Error().Dur("elapsed", elapsed).Dur("limit", p.maxWait).Msg("job timed out")
			return &job.TimeoutError{JobID: h.ID, Elapsed: elapsed, Limit: p.maxWait}
		}

		status, body, err := p.checker.Status(ctx, h)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			metrics.RecordPoll(metrics.PollError)
			logger.Warn().Err(err).Dur("elapsed", elapsed).Msg("status check failed, retrying")
			observe.Emit(job.RetryEvent(h.ID, err, elapsed, interval))
			if err := p.sleep(ctx, interval); err != nil {
				return err
			}
			continue
		}

		switch status.State {
		case job.StateComplete:
			metrics.RecordPoll(metrics.PollComplete)
			logger.Info().Dur("elapsed", elapsed).Msg("job complete")
			observe.Emit(job.CompleteEvent(h.ID, elapsed))
			return nil
		case job.StateProcessing:
			metrics.RecordPoll(metrics.PollProcessing)
			logger.Debug().Dur("elapsed", elapsed).Msg("job processing")
			observe.Emit(job.ProcessingEvent(h.ID, elapsed, interval))
			if err := p.sleep(ctx, interval); err != nil {
				return err
			}
		default:
			metrics.RecordPoll(metrics.PollUnknown)
			logger.Error().Str("status", status.Raw).Msg("unknown job status")
			return &job.UnknownStatusError{JobID: h.ID, Value: status.Raw, Body: body}
		}
	}
}

func (p *Poller) sleep(ctx context.Context, d time.Duration) error {
	t := p.clock.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
