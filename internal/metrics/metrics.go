// Package metrics exposes Prometheus instrumentation for job runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polyglot_tts_jobs_total",
		Help: "Job runs by terminal outcome.",
	}, []string{"outcome"})

	statusPollsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polyglot_tts_status_polls_total",
		Help: "Status checks by result.",
	}, []string{"result"})

	jobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polyglot_tts_job_duration_seconds",
		Help:    "Wall time from submission to downloaded artifact.",
		Buckets: []float64{10, 30, 60, 120, 300, 600, 1200, 2400, 5400},
	})

	artifactBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polyglot_tts_artifact_bytes",
		Help:    "Size of downloaded artifacts.",
		Buckets: prometheus.ExponentialBuckets(16*1024, 4, 8),
	})
)

// Poll results.
const (
	PollProcessing = "processing"
	PollComplete   = "complete"
	PollUnknown    = "unknown"
	PollError      = "error"
)

func RecordPoll(result string) {
	statusPollsTotal.WithLabelValues(result).Inc()
}

// RecordJob records the terminal outcome of a run. size is ignored unless
// the run succeeded.
func RecordJob(outcome string, d time.Duration, size int64) {
	jobsTotal.WithLabelValues(outcome).Inc()
	if outcome != "success" {
		return
	}
	jobDuration.Observe(d.Seconds())
	artifactBytes.Observe(float64(size))
}
