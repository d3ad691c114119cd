package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"tagtrack/internal/config"
	"tagtrack/internal/counters"
	"tagtrack/internal/logging"
	"tagtrack/internal/notifications"
	"tagtrack/internal/processor"
	"tagtrack/internal/store"
)

const sweepBatchSize = 50

// Processor runs one pass over a batch.
type Processor interface {
	Process(ctx context.Context, importID string) (processor.Outcome, error)
}

// Store is the persistence the Manager reads.
type Store interface {
	PendingImports(ctx context.Context, limit int) ([]*store.ImportBatch, error)
	Stats(ctx context.Context) (store.Stats, error)
}

// Manager coordinates processing passes.
type Manager struct {
	store        Store
	processor    Processor
	counter      counters.Counter
	notifier     notifications.Service
	logger       *slog.Logger
	pollInterval time.Duration
	retryDelay   time.Duration
	triggers     chan string

	mu          sync.RWMutex
	running     bool
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	lastErr     error
	lastOutcome *processor.Outcome
}

// NewManager constructs a workflow manager.
func NewManager(cfg *config.Config, st Store, proc Processor, counter counters.Counter, notifier notifications.Service, logger *slog.Logger) *Manager {
	if notifier == nil {
		notifier = notifications.NewService(nil)
	}
	return &Manager{
		store:        st,
		processor:    proc,
		counter:      counter,
		notifier:     notifier,
		logger:       logging.NewComponentLogger(logger, "workflow"),
		pollInterval: cfg.PollInterval(),
		retryDelay:   cfg.ErrorRetryInterval(),
		triggers:     make(chan string, cfg.Workflow.TriggerBuffer),
	}
}

// Trigger queues importID for immediate processing without blocking. When the
// buffer is full the id is left to the next sweep.
func (m *Manager) Trigger(importID string) {
	select {
	case m.triggers <- importID:
	default:
		m.logger.Debug("trigger buffer full; deferring to sweep",
			logging.String(logging.FieldImportID, importID))
	}
}

// ProcessNow runs one pass synchronously, outside the background loop.
func (m *Manager) ProcessNow(ctx context.Context, importID string) (processor.Outcome, error) {
	return m.runPass(ctx, importID)
}
