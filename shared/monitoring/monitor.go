package monitoring

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type Monitor struct {
	mu             sync.RWMutex
	log            *slog.Logger
	lastRunSuccess bool
	lastRunTime    time.Time
	lastSummary    string
	nextRunTime    time.Time
	failures       int
}

func NewMonitor(logger *slog.Logger) *Monitor {
	return &Monitor{log: logger}
}

func (m *Monitor) RecordSuccess(summary string, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = true
	m.lastRunTime = time.Now()
	m.lastSummary = summary
	m.failures = 0
	m.mu.Unlock()

	m.log.Info("✅ Run completed successfully", "summary", summary, "duration", duration.Round(time.Millisecond))
}

func (m *Monitor) RecordPartialFailure(err error, duration time.Duration) {
	// Don't change health status for partial failures
	m.mu.Lock()
	m.lastSummary = err.Error()
	m.mu.Unlock()

	m.log.Warn("⚠️  PARTIAL FAILURE", "error", err, "duration", duration.Round(time.Millisecond))
}

func (m *Monitor) RecordCriticalFailure(err error, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = false
	m.lastRunTime = time.Now()
	m.lastSummary = err.Error()
	m.failures++
	m.mu.Unlock()

	m.log.Error("🚨 CRITICAL FAILURE", "error", err, "duration", duration.Round(time.Millisecond))
}

// RecordNextRun remembers when the scheduler will fire next
func (m *Monitor) RecordNextRun(next time.Time) {
	m.mu.Lock()
	m.nextRunTime = next
	m.mu.Unlock()
}

// ConsecutiveFailures counts critical failures since the last successful run
func (m *Monitor) ConsecutiveFailures() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.failures
}

func (m *Monitor) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRunTime.IsZero() {
		return true // No runs yet, assume healthy
	}
	return m.lastRunSuccess
}

func (m *Monitor) GetStatusSummary() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var status string
	switch {
	case m.lastRunTime.IsZero():
		status = "No runs yet"
	case m.lastRunSuccess:
		status = fmt.Sprintf("✅ Last run: %s", m.lastRunTime.Format("Jan 2 15:04"))
	default:
		status = fmt.Sprintf("❌ Last run failed: %s", m.lastRunTime.Format("Jan 2 15:04"))
	}

	if m.lastSummary != "" && !m.lastRunTime.IsZero() {
		status += " (" + m.lastSummary + ")"
	}
	if m.failures > 1 {
		status += fmt.Sprintf(", %d failures in a row", m.failures)
	}
	if !m.nextRunTime.IsZero() {
		status += fmt.Sprintf(", next run: %s", m.nextRunTime.Format("Jan 2 15:04"))
	}
	return status
}
