package workflow_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tagtrack/internal/counters"
	"tagtrack/internal/logging"
	"tagtrack/internal/notifications"
	"tagtrack/internal/processor"
	"tagtrack/internal/store"
	"tagtrack/internal/testsupport"
	"tagtrack/internal/workflow"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (r *recordingNotifier) Publish(_ context.Context, event notifications.Event, _ notifications.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingNotifier) snapshot() []notifications.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notifications.Event(nil), r.events...)
}

type failingProcessor struct{}

func (failingProcessor) Process(context.Context, string) (processor.Outcome, error) {
	return processor.Outcome{}, errors.New("boom")
}

func newManager(t *testing.T) (*workflow.Manager, *store.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	proc := processor.New(st, nil, logging.NewNop())
	mgr := workflow.NewManager(cfg, st, proc, counters.NewStoreCounter(st), nil, logging.NewNop())
	return mgr, st
}

func waitForStatus(t *testing.T, st *store.Store, id string, want store.Status) *store.ImportBatch {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		batch, err := st.GetImport(context.Background(), id)
		if err != nil {
			t.Fatalf("GetImport: %v", err)
		}
		if batch.Status == want {
			return batch
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("import %s did not reach %s", id, want)
	return nil
}

func TestManagerProcessesTriggeredImport(t *testing.T) {
	mgr, st := newManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer mgr.Stop()

	batch := testsupport.NewImport(t, st, []any{
		testsupport.TagItem("Tag 1", 10, 20, 5, 1700000000000),
		testsupport.TagItem("Tag 2", 11, 21, 5, 1700000000000),
	})
	mgr.Trigger(batch.ID)

	done := waitForStatus(t, st, batch.ID, store.StatusFull)
	if done.Processed != 2 {
		t.Fatalf("expected 2 processed, got %d", done.Processed)
	}
}

func TestManagerSweepsPendingOnStart(t *testing.T) {
	mgr, st := newManager(t)
	batch := testsupport.NewImport(t, st, []any{testsupport.TagItem("Tag 3", 1, 2, 3, 1700000000000)})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer mgr.Stop()

	waitForStatus(t, st, batch.ID, store.StatusFull)
}

func TestManagerStartTwiceFails(t *testing.T) {
	mgr, _ := newManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer mgr.Stop()
	if err := mgr.Start(ctx); err == nil {
		t.Fatal("expected second Start to fail")
	}
	if !mgr.Status(ctx).Running {
		t.Fatal("expected manager to report running")
	}
	mgr.Stop()
	if mgr.Status(ctx).Running {
		t.Fatal("expected manager to report stopped")
	}
}

func TestProcessNowCountsRuns(t *testing.T) {
	mgr, st := newManager(t)
	ctx := context.Background()
	batch := testsupport.NewImport(t, st, []any{testsupport.TagItem("Tag 4", 1, 2, 3, 1700000000000)})

	outcome, err := mgr.ProcessNow(ctx, batch.ID)
	if err != nil {
		t.Fatalf("ProcessNow: %v", err)
	}
	if outcome.Status != store.StatusFull {
		t.Fatalf("expected full, got %s", outcome.Status)
	}
	if _, err := mgr.ProcessNow(ctx, batch.ID); err != nil {
		t.Fatalf("second ProcessNow: %v", err)
	}

	summary := mgr.Status(ctx)
	if summary.ProcessorRuns != 2 {
		t.Fatalf("expected 2 runs, got %d", summary.ProcessorRuns)
	}
	if summary.Stats.Locations != 1 {
		t.Fatalf("expected 1 location, got %d", summary.Stats.Locations)
	}
	if summary.LastOutcome == nil || summary.LastOutcome.ImportID != batch.ID {
		t.Fatalf("unexpected last outcome: %+v", summary.LastOutcome)
	}
}

func TestProcessNowFailureNotifies(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	notifier := &recordingNotifier{}
	mgr := workflow.NewManager(cfg, st, failingProcessor{}, nil, notifier, logging.NewNop())

	if _, err := mgr.ProcessNow(context.Background(), "missing"); err == nil {
		t.Fatal("expected error")
	}
	events := notifier.snapshot()
	if len(events) != 1 || events[0] != notifications.EventError {
		t.Fatalf("unexpected events: %v", events)
	}
	if mgr.Status(context.Background()).LastError != "boom" {
		t.Fatal("expected last error to be recorded")
	}
}

func TestTriggerNeverBlocks(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.TriggerBuffer = 1
	st := testsupport.MustOpenStore(t, cfg)
	mgr := workflow.NewManager(cfg, st, failingProcessor{}, nil, nil, logging.NewNop())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			mgr.Trigger("id")
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Trigger blocked on a full buffer")
	}
	if got := mgr.Status(context.Background()).PendingTriggers; got != 1 {
		t.Fatalf("expected 1 pending trigger, got %d", got)
	}
}
