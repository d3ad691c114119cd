package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"tagtrack/internal/counters"
	"tagtrack/internal/ingest"
	"tagtrack/internal/logging"
	"tagtrack/internal/notifications"
	"tagtrack/internal/processor"
)

// Start begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	go m.run(runCtx)
	return nil
}

// Stop terminates background processing and waits for completion.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()

	wait := m.pollInterval
	if err := m.sweep(ctx); err != nil {
		wait = m.retryDelay
	}
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-m.triggers:
			_, _ = m.runPass(ctx, id)
		case <-time.After(wait):
			wait = m.pollInterval
			if err := m.sweep(ctx); err != nil {
				wait = m.retryDelay
			}
		}
	}
}

// sweep processes pending batches oldest first.
func (m *Manager) sweep(ctx context.Context) error {
	pending, err := m.store.PendingImports(ctx, sweepBatchSize)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		m.setLastError(err)
		logging.ErrorWithContext(m.logger, "failed to fetch pending imports", "pending_fetch_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check database access"),
		)
		return err
	}
	for _, batch := range pending {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, _ = m.runPass(ctx, batch.ID)
	}
	return nil
}

func (m *Manager) runPass(ctx context.Context, importID string) (processor.Outcome, error) {
	ctx = logging.WithCorrelationID(ctx, uuid.NewString())
	ctx = logging.WithImportID(ctx, importID)
	logger := logging.WithContext(ctx, m.logger)

	if m.counter != nil {
		if runs, err := m.counter.Incr(ctx, counters.ProcessorRuns); err != nil {
			logging.WarnWithContext(logger, "failed to increment run counter", "counter_failed", logging.Error(err))
		} else {
			logger.Debug("processing pass", logging.Int64("run", runs))
		}
	}

	started := time.Now()
	outcome, err := m.processor.Process(ctx, importID)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return outcome, err
		}
		m.setLastError(err)
		logging.ErrorWithContext(logger, "processing pass failed", "process_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorKind, ingest.KindOf(err)),
			logging.String(logging.FieldErrorHint, "batch stays pending and will be retried on the next sweep"),
		)
		if notifyErr := m.notifier.Publish(ctx, notifications.EventError, notifications.Payload{
			"context": "processing import " + importID,
			"error":   err.Error(),
		}); notifyErr != nil {
			logger.Warn("error notification failed", logging.Error(notifyErr))
		}
		return outcome, err
	}
	m.setLastOutcome(outcome)
	logger.Debug("processing pass finished", logging.Duration("elapsed", time.Since(started)))
	return outcome, nil
}
