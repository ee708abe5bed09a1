package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"podcast-agent/shared/config"
	"podcast-agent/shared/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMetrics string

func (m fakeMetrics) GetSummary() string { return string(m) }

type fakeAgent struct {
	mu       sync.Mutex
	runs     int
	initErr  error
	runFunc  func(run int, events *AgentEvents) error
	initDone bool
}

func (a *fakeAgent) Name() string { return "Fake Agent" }

func (a *fakeAgent) Initialize() error {
	a.initDone = true
	return a.initErr
}

func (a *fakeAgent) RunOnce(ctx context.Context, events *AgentEvents) error {
	a.mu.Lock()
	a.runs++
	run := a.runs
	a.mu.Unlock()
	if a.runFunc == nil {
		return nil
	}
	return a.runFunc(run, events)
}

// steppingClock advances by step on every read
type steppingClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.t
	c.t = c.t.Add(c.step)
	return now
}

func newTestScheduler(t *testing.T, agent Agent) *Scheduler {
	t.Helper()
	cfg := &config.Config{Schedule: "0 6 * * *", Timezone: "UTC"}
	s, err := New(cfg, agent, logging.Discard())
	require.NoError(t, err)
	return s
}

func TestNewRejectsBadSchedule(t *testing.T) {
	cfg := &config.Config{Schedule: "every morning", Timezone: "UTC"}
	_, err := New(cfg, &fakeAgent{}, logging.Discard())
	assert.Error(t, err)
}

func TestNextRun(t *testing.T) {
	s := newTestScheduler(t, &fakeAgent{})

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "Before the daily time",
			now:  time.Date(2026, 2, 10, 5, 0, 0, 0, time.UTC),
			want: time.Date(2026, 2, 10, 6, 0, 0, 0, time.UTC),
		},
		{
			name: "Exactly at the daily time",
			now:  time.Date(2026, 2, 10, 6, 0, 0, 0, time.UTC),
			want: time.Date(2026, 2, 11, 6, 0, 0, 0, time.UTC),
		},
		{
			name: "After the daily time",
			now:  time.Date(2026, 2, 10, 23, 30, 0, 0, time.UTC),
			want: time.Date(2026, 2, 11, 6, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(s.NextRun(tt.now)), "NextRun(%v) = %v", tt.now, s.NextRun(tt.now))
		})
	}
}

func TestStartKeepsLoopingAfterFailures(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	agent := &fakeAgent{}
	agent.runFunc = func(run int, events *AgentEvents) error {
		switch run {
		case 1:
			panic("browser crashed")
		case 2:
			return errors.New("not authenticated")
		default:
			cancel()
			return nil
		}
	}

	s := newTestScheduler(t, agent)
	clock := &steppingClock{t: time.Date(2026, 2, 10, 5, 0, 0, 0, time.UTC), step: time.Hour}
	s.now = clock.Now
	s.tick = time.Millisecond

	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after cancellation")
	}

	assert.True(t, agent.initDone)
	assert.Equal(t, 3, agent.runs)
}

func TestStartInitializeError(t *testing.T) {
	s := newTestScheduler(t, &fakeAgent{initErr: errors.New("no config")})
	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize agent")
}

func TestWaitUntilCancelled(t *testing.T) {
	s := newTestScheduler(t, &fakeAgent{})
	s.tick = 10 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := s.waitUntil(ctx, time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunOnceRecordsOutcome(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		agent := &fakeAgent{runFunc: func(_ int, events *AgentEvents) error {
			events.OnSuccess(fakeMetrics("2 sources added"), time.Second)
			return nil
		}}
		s := newTestScheduler(t, agent)

		require.NoError(t, s.RunOnce(context.Background()))
		assert.True(t, s.Monitor().IsHealthy())
		assert.Contains(t, s.Monitor().GetStatusSummary(), "2 sources added")
	})

	t.Run("Failure", func(t *testing.T) {
		agent := &fakeAgent{runFunc: func(int, *AgentEvents) error { return errors.New("boom") }}
		s := newTestScheduler(t, agent)

		err := s.RunOnce(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Fake Agent run failed")
		assert.False(t, s.Monitor().IsHealthy())
		assert.Equal(t, 1, s.Monitor().ConsecutiveFailures())
	})

	t.Run("Failure reported by the agent", func(t *testing.T) {
		agent := &fakeAgent{runFunc: func(_ int, events *AgentEvents) error {
			err := errors.New("no sources added")
			events.OnCriticalFailure(err, time.Second)
			return err
		}}
		s := newTestScheduler(t, agent)

		require.Error(t, s.RunOnce(context.Background()))
		assert.Equal(t, 1, s.Monitor().ConsecutiveFailures())
		assert.Contains(t, s.Monitor().GetStatusSummary(), "critical failure: no sources added")
	})

	t.Run("Cancelled", func(t *testing.T) {
		agent := &fakeAgent{runFunc: func(int, *AgentEvents) error { return context.Canceled }}
		s := newTestScheduler(t, agent)

		require.Error(t, s.RunOnce(context.Background()))
		assert.Zero(t, s.Monitor().ConsecutiveFailures())
		assert.True(t, s.Monitor().IsHealthy())
	})

	t.Run("Panic", func(t *testing.T) {
		agent := &fakeAgent{runFunc: func(int, *AgentEvents) error { panic("nil page") }}
		s := newTestScheduler(t, agent)

		err := s.RunOnce(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "panicked")
	})
}
