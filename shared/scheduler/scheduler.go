package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"podcast-agent/shared/config"
	"podcast-agent/shared/monitoring"

	"github.com/robfig/cron/v3"
)

// Metrics defines the common interface for agent metrics
type Metrics interface {
	// GetSummary returns a human-readable summary of the run
	GetSummary() string
}

// AgentEvents provides callbacks for monitoring agent execution
type AgentEvents struct {
	OnSuccess         func(metrics Metrics, duration time.Duration)
	OnPartialFailure  func(err error, duration time.Duration)
	OnCriticalFailure func(err error, duration time.Duration)
}

// Agent defines the interface that all agents must implement
type Agent interface {
	Name() string
	RunOnce(ctx context.Context, events *AgentEvents) error
	Initialize() error
}

// DefaultTick is how long the loop sleeps between clock checks
const DefaultTick = 60 * time.Second

// Scheduler runs an agent once per day at a fixed wall-clock time
type Scheduler struct {
	config   *config.Config
	monitor  *monitoring.Monitor
	agent    Agent
	schedule cron.Schedule
	log      *slog.Logger

	tick time.Duration
	now  func() time.Time
}

func New(cfg *config.Config, agent Agent, logger *slog.Logger) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(cfg.CronSpec())
	if err != nil {
		return nil, fmt.Errorf("failed to parse schedule %q: %w", cfg.Schedule, err)
	}

	return &Scheduler{
		config:   cfg,
		monitor:  monitoring.NewMonitor(logger),
		agent:    agent,
		schedule: schedule,
		log:      logger,
		tick:     DefaultTick,
		now:      time.Now,
	}, nil
}

// Monitor returns the run health tracker
func (s *Scheduler) Monitor() *monitoring.Monitor {
	return s.monitor
}

// NextRun returns the first scheduled time strictly after t
func (s *Scheduler) NextRun(t time.Time) time.Time {
	return s.schedule.Next(t)
}

// Start runs the agent every day until ctx is cancelled. A failed or panicking run
// is logged and the loop keeps going.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.agent.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize agent: %w", err)
	}

	if s.config.Monitoring.HealthPort > 0 {
		monitoring.NewHealthServer(s.monitor, s.config.Monitoring.HealthPort, s.log).Start(ctx)
	}

	s.log.Info("Scheduler started", "agent", s.agent.Name(), "schedule", s.config.CronSpec())

	for {
		next := s.NextRun(s.now())
		s.monitor.RecordNextRun(next)
		s.log.Info("Next run scheduled", "agent", s.agent.Name(), "at", next.Format(time.RFC3339), "in", next.Sub(s.now()).Round(time.Second))

		if err := s.waitUntil(ctx, next); err != nil {
			s.log.Info("Scheduler stopped", "agent", s.agent.Name())
			return err
		}

		if err := s.RunOnce(ctx); err != nil {
			s.log.Error("Error running scheduled job", "agent", s.agent.Name(), "error", err)
		}
	}
}

// waitUntil sleeps in coarse increments so that clock jumps and suspends are noticed
func (s *Scheduler) waitUntil(ctx context.Context, target time.Time) error {
	for {
		remaining := target.Sub(s.now())
		if remaining <= 0 {
			return nil
		}

		timer := time.NewTimer(min(remaining, s.tick))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// RunOnce executes the agent a single time and records the outcome
func (s *Scheduler) RunOnce(ctx context.Context) (err error) {
	startTime := time.Now()
	agentName := s.agent.Name()

	s.log.Info("Starting run", "agent", agentName)

	// An agent that reported its own outcome is not recorded a second time
	var reported bool
	events := &AgentEvents{
		OnSuccess: func(metrics Metrics, duration time.Duration) {
			reported = true
			s.monitor.RecordSuccess(metrics.GetSummary(), duration)
		},
		OnPartialFailure: func(err error, duration time.Duration) {
			s.monitor.RecordPartialFailure(fmt.Errorf("%s partial failure: %w", agentName, err), duration)
		},
		OnCriticalFailure: func(err error, duration time.Duration) {
			reported = true
			s.monitor.RecordCriticalFailure(fmt.Errorf("%s critical failure: %w", agentName, err), duration)
		},
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", agentName, r)
			s.monitor.RecordCriticalFailure(err, time.Since(startTime))
		}
	}()

	if err := s.agent.RunOnce(ctx, events); err != nil {
		duration := time.Since(startTime)
		if !reported && !errors.Is(err, context.Canceled) {
			s.monitor.RecordCriticalFailure(fmt.Errorf("%s failed: %w", agentName, err), duration)
		}
		return fmt.Errorf("%s run failed: %w", agentName, err)
	}

	return nil
}
