package job

import (
	"fmt"
	"time"
)

// SubmissionError is returned when the job could not be created.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("error submitting job: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// TimeoutError is returned when a job did not complete within the wait ceiling.
type TimeoutError struct {
	JobID   string
	Elapsed time.Duration
	Limit   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("job %s timed out after %s (limit %s)", e.JobID, formatSeconds(e.Elapsed), e.Limit)
}

// UnknownStatusError is returned when the server reports a status the client
// does not understand. It is never retried.
type UnknownStatusError struct {
	JobID string
	Value string
	Body  []byte
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("job %s: unknown status %q, full response: %s", e.JobID, e.Value, e.Body)
}

// DownloadError is returned on transport or disk failures while fetching
// the artifact.
type DownloadError struct {
	JobID string
	Err   error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("error downloading result of job %s: %v", e.JobID, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// EmptyArtifactError is returned when the server answered with success but
// an empty body.
type EmptyArtifactError struct {
	JobID string
	Path  string
}

func (e *EmptyArtifactError) Error() string {
	return fmt.Sprintf("downloaded file for job %s is empty; the job may have failed silently on the server", e.JobID)
}
