package job

import (
	"fmt"
	"time"
)

// Level classifies progress events for rendering.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelSuccess Level = "success"
)

// Event is one progress report emitted during a job run. Message is ready
// for display as-is.
type Event struct {
	Time     time.Time     `json:"time"`
	Level    Level         `json:"level"`
	JobID    string        `json:"job_id,omitempty"`
	Message  string        `json:"message"`
	Elapsed  time.Duration `json:"elapsed,omitempty"`
	Interval time.Duration `json:"interval,omitempty"`
}

// Observer receives progress events. Calls happen on the job's goroutine.
type Observer func(Event)

// Emit delivers ev to o. A nil Observer drops the event.
func (o Observer) Emit(ev Event) {
	if o == nil {
		return
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}
	o(ev)
}

func SubmittedEvent(jobID string) Event {
	return Event{
		Level:   LevelSuccess,
		JobID:   jobID,
		Message: fmt.Sprintf("Job submitted successfully! Job ID: %s", jobID),
	}
}

func IntervalEvent(jobID string, interval time.Duration) Event {
	return Event{
		Level:    LevelInfo,
		JobID:    jobID,
		Message:  fmt.Sprintf("Using a polling interval of %s.", interval),
		Interval: interval,
	}
}

func ProcessingEvent(jobID string, elapsed, interval time.Duration) Event {
	return Event{
		Level:    LevelInfo,
		JobID:    jobID,
		Message:  fmt.Sprintf("Status: 'processing'... Total time: %s (checking every %s)", formatSeconds(elapsed), interval),
		Elapsed:  elapsed,
		Interval: interval,
	}
}

func RetryEvent(jobID string, err error, elapsed, interval time.Duration) Event {
	return Event{
		Level:    LevelWarning,
		JobID:    jobID,
		Message:  fmt.Sprintf("Error checking status: %v. Retrying in %s... (Total time: %s)", err, interval, formatSeconds(elapsed)),
		Elapsed:  elapsed,
		Interval: interval,
	}
}

func CompleteEvent(jobID string, elapsed time.Duration) Event {
	return Event{
		Level:   LevelSuccess,
		JobID:   jobID,
		Message: fmt.Sprintf("Job complete! (Total time: %s)", formatSeconds(elapsed)),
		Elapsed: elapsed,
	}
}

func DownloadedEvent(a *Artifact) Event {
	return Event{
		Level:   LevelSuccess,
		JobID:   a.JobID,
		Message: fmt.Sprintf("Audio saved to %s (%d bytes)", a.Path, a.Size),
	}
}
