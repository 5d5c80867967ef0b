package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnmchuo/polyglot-tts/internal/job"
)

// fakeClock advances its time by the full duration whenever a timer is
// created, so sleeps return immediately.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) NewTimer(d time.Duration) Timer {
	c.mu.Lock()
	c.now = c.now.Add(d)
	fired := c.now
	c.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- fired
	return &firedTimer{ch: ch}
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type firedTimer struct {
	ch chan time.Time
}

func (t *firedTimer) C() <-chan time.Time { return t.ch }
func (t *firedTimer) Stop() bool          { return false }

type statusReply struct {
	raw string
	err error
}

// scriptedChecker replays a fixed sequence of replies; the last one repeats.
type scriptedChecker struct {
	replies []statusReply
	calls   int
	onCall  func(call int)
}

func (s *scriptedChecker) Status(ctx context.Context, h job.Handle) (job.Status, []byte, error) {
	i := s.calls
	if i >= len(s.replies) {
		i = len(s.replies) - 1
	}
	s.calls++
	if s.onCall != nil {
		s.onCall(s.calls)
	}
	r := s.replies[i]
	if r.err != nil {
		return job.Status{}, nil, r.err
	}
	body := []byte(`{"status":"` + r.raw + `"}`)
	return job.ParseStatus(r.raw), body, nil
}

func newTestPoller(checker job.StatusChecker, maxWait time.Duration) (*Poller, *fakeClock) {
	p := NewPoller(checker, maxWait)
	clock := newFakeClock()
	p.clock = clock
	return p, clock
}

type eventRecorder struct {
	events []job.Event
}

func (r *eventRecorder) observe(ev job.Event) { r.events = append(r.events, ev) }

func (r *eventRecorder) count(level job.Level) int {
	n := 0
	for _, ev := range r.events {
		if ev.Level == level {
			n++
		}
	}
	return n
}

var handle = job.Handle{ID: "job-1", StatusURL: "/polyglot-tts/status/job-1"}

func TestPoll_ProcessingThenComplete(t *testing.T) {
	checker := &scriptedChecker{replies: []statusReply{{raw: "processing"}, {raw: "processing"}, {raw: "complete"}}}
	p, _ := newTestPoller(checker, time.Hour)
	rec := &eventRecorder{}

	err := p.PollUntilComplete(context.Background(), handle, 30*time.Second, rec.observe)
	require.NoError(t, err)

	assert.Equal(t, 3, checker.calls)
	assert.Equal(t, 2, rec.count(job.LevelInfo))
	assert.Equal(t, 1, rec.count(job.LevelSuccess))
	assert.Equal(t, 0, rec.count(job.LevelWarning))

	last := rec.events[len(rec.events)-1]
	assert.Equal(t, 60*time.Second, last.Elapsed)
	assert.Contains(t, last.Message, "Job complete")
}

func TestPoll_IntervalDoesNotChangeCallCount(t *testing.T) {
	for _, interval := range []time.Duration{10 * time.Second, 45 * time.Second} {
		checker := &scriptedChecker{replies: []statusReply{{raw: "processing"}, {raw: "processing"}, {raw: "complete"}}}
		p, _ := newTestPoller(checker, time.Hour)

		require.NoError(t, p.PollUntilComplete(context.Background(), handle, interval, nil))
		assert.Equal(t, 3, checker.calls)
	}
}

func TestPoll_UnknownStatusStopsImmediately(t *testing.T) {
	checker := &scriptedChecker{replies: []statusReply{{raw: "processing"}, {raw: "pending-review"}, {raw: "complete"}}}
	p, _ := newTestPoller(checker, time.Hour)

	err := p.PollUntilComplete(context.Background(), handle, 10*time.Second, nil)

	var unknownErr *job.UnknownStatusError
	require.True(t, errors.As(err, &unknownErr), "got %v", err)
	assert.Equal(t, "pending-review", unknownErr.Value)
	assert.Equal(t, "job-1", unknownErr.JobID)
	assert.Contains(t, string(unknownErr.Body), "pending-review")
	assert.Equal(t, 2, checker.calls)
}

func TestPoll_Timeout(t *testing.T) {
	checker := &scriptedChecker{replies: []statusReply{{raw: "processing"}}}
	p, _ := newTestPoller(checker, 25*time.Second)

	err := p.PollUntilComplete(context.Background(), handle, 10*time.Second, nil)

	var timeoutErr *job.TimeoutError
	require.True(t, errors.As(err, &timeoutErr), "got %v", err)
	assert.GreaterOrEqual(t, timeoutErr.Elapsed, 25*time.Second)
	assert.Equal(t, "job-1", timeoutErr.JobID)
	assert.Equal(t, 3, checker.calls)
}

func TestPoll_TimeoutCheckedBeforeStatusCall(t *testing.T) {
	var clock *fakeClock
	checker := &scriptedChecker{replies: []statusReply{{raw: "processing"}}}
	// The status call itself hangs past the ceiling.
	checker.onCall = func(int) { clock.Advance(2 * time.Hour) }

	p, c := newTestPoller(checker, time.Hour)
	clock = c

	err := p.PollUntilComplete(context.Background(), handle, 10*time.Second, nil)

	var timeoutErr *job.TimeoutError
	require.True(t, errors.As(err, &timeoutErr), "got %v", err)
	assert.Equal(t, 1, checker.calls)
	assert.GreaterOrEqual(t, timeoutErr.Elapsed, time.Hour)
}

func TestPoll_TransientErrorIsRetried(t *testing.T) {
	checker := &scriptedChecker{replies: []statusReply{{err: errors.New("connection reset by peer")}, {raw: "complete"}}}
	p, _ := newTestPoller(checker, time.Hour)
	rec := &eventRecorder{}

	err := p.PollUntilComplete(context.Background(), handle, 10*time.Second, rec.observe)
	require.NoError(t, err)

	assert.Equal(t, 2, checker.calls)
	assert.Equal(t, 1, rec.count(job.LevelWarning))
	assert.Equal(t, 1, rec.count(job.LevelSuccess))
	assert.Contains(t, rec.events[0].Message, "connection reset by peer")
}

func TestPoll_EveryIterationChecksStatus(t *testing.T) {
	unavailable := statusReply{err: errors.New("polyglot api error (status 503): busy")}
	checker := &scriptedChecker{replies: []statusReply{
		unavailable, unavailable, unavailable, unavailable, unavailable,
		{raw: "complete"},
	}}
	p, _ := newTestPoller(checker, time.Hour)
	rec := &eventRecorder{}

	err := p.PollUntilComplete(context.Background(), handle, 10*time.Second, rec.observe)
	require.NoError(t, err)

	assert.Equal(t, 6, checker.calls)
	assert.Equal(t, 5, rec.count(job.LevelWarning))
	assert.Equal(t, 1, rec.count(job.LevelSuccess))
}

func TestPoll_FailingChecksRunUntilTimeout(t *testing.T) {
	checker := &scriptedChecker{replies: []statusReply{{err: errors.New("no route to host")}}}
	p, _ := newTestPoller(checker, 100*time.Second)
	rec := &eventRecorder{}

	err := p.PollUntilComplete(context.Background(), handle, 10*time.Second, rec.observe)

	var timeoutErr *job.TimeoutError
	require.True(t, errors.As(err, &timeoutErr), "got %v", err)
	// Checks at 0s, 10s, ... 100s; the ceiling is exceeded at 110s.
	assert.Equal(t, 11, checker.calls)
	assert.Equal(t, 11, rec.count(job.LevelWarning))
}

func TestPoll_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	checker := &scriptedChecker{replies: []statusReply{{raw: "processing"}}}
	checker.onCall = func(int) { cancel() }

	p := NewPoller(checker, time.Hour)

	err := p.PollUntilComplete(ctx, handle, time.Hour, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, checker.calls)
}
