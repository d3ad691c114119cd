package workflow

import (
	"context"

	"tagtrack/internal/counters"
	"tagtrack/internal/logging"
	"tagtrack/internal/processor"
	"tagtrack/internal/store"
)

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running         bool
	LastError       string
	LastOutcome     *processor.Outcome
	Stats           store.Stats
	ProcessorRuns   int64
	PendingTriggers int
}

// Status returns the latest workflow information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	summary := StatusSummary{Running: m.running, PendingTriggers: len(m.triggers)}
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	if m.lastOutcome != nil {
		snapshot := *m.lastOutcome
		summary.LastOutcome = &snapshot
	}
	m.mu.RUnlock()

	stats, err := m.store.Stats(ctx)
	if err != nil {
		m.logger.Warn("failed to read store stats", logging.Error(err))
	}
	summary.Stats = stats
	if m.counter != nil {
		runs, err := m.counter.Get(ctx, counters.ProcessorRuns)
		if err != nil {
			m.logger.Warn("failed to read run counter", logging.Error(err))
		}
		summary.ProcessorRuns = runs
	}
	return summary
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastOutcome(outcome processor.Outcome) {
	m.mu.Lock()
	m.lastOutcome = &outcome
	m.mu.Unlock()
}
