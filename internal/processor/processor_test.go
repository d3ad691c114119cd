package processor_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"tagtrack/internal/ingest"
	"tagtrack/internal/locations"
	"tagtrack/internal/logging"
	"tagtrack/internal/notifications"
	"tagtrack/internal/processor"
	"tagtrack/internal/store"
	"tagtrack/internal/testsupport"
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

func setup(t *testing.T) (*processor.Processor, *store.Store, *recordingNotifier) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	notifier := &recordingNotifier{}
	return processor.New(st, notifier, logging.NewNop()), st, notifier
}

func tagItems(n int, offset float64) []any {
	items := make([]any, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, testsupport.TagItem("Tag 1", 10+offset+float64(i), 20, 5, 1700000000000+int64(i)))
	}
	return items
}

func TestDecideStatusTable(t *testing.T) {
	tests := []struct {
		expected, processed, duplicates, errors int
		want                                    store.Status
	}{
		{3, 3, 0, 0, store.StatusFull},
		{0, 0, 0, 0, store.StatusFull},
		{3, 0, 3, 0, store.StatusDuplicate},
		{3, 2, 1, 0, store.StatusPartial},
		{3, 1, 0, 2, store.StatusPartial},
		{3, 2, 0, 0, store.StatusPartial},
		{3, 0, 0, 1, store.StatusError},
		{3, 0, 2, 1, store.StatusError},
		{3, 0, 0, 0, store.StatusError},
	}
	for _, tt := range tests {
		if got := processor.DecideStatus(tt.expected, tt.processed, tt.duplicates, tt.errors); got != tt.want {
			t.Fatalf("DecideStatus(%d,%d,%d,%d) = %s, want %s", tt.expected, tt.processed, tt.duplicates, tt.errors, got, tt.want)
		}
	}
}

func TestProcessEndToEndExample(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	proc := processor.New(st, nil, logging.NewNop())
	gk := ingest.NewGatekeeper(st, nil, "", logging.NewNop())
	ctx := context.Background()

	res, err := gk.Submit(ctx, ingest.Submission{
		Content: json.RawMessage(`[{"name":"Tag 1","location":{"latitude":10,"longitude":20,"horizontalAccuracy":5,"timeStamp":1700000000000}}]`),
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Status != ingest.StatusOK || res.ItemsCount != 1 {
		t.Fatalf("unexpected submit result: %+v", res)
	}

	outcome, err := proc.Process(ctx, res.ImportID)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if outcome.Processed != 1 || outcome.Duplicates != 0 || outcome.Errors != 0 || outcome.Status != store.StatusFull {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}

	batch, err := st.GetImport(ctx, res.ImportID)
	if err != nil {
		t.Fatalf("GetImport: %v", err)
	}
	if batch.Status != store.StatusFull || batch.Processed != 1 {
		t.Fatalf("unexpected stored batch: %+v", batch)
	}
	records, err := st.LocationsByImport(ctx, res.ImportID)
	if err != nil {
		t.Fatalf("LocationsByImport: %v", err)
	}
	if len(records) != 1 || records[0].SubjectTag != "Tag 1" || records[0].BatteryStatus != 1 {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestProcessDecisionTableCases(t *testing.T) {
	proc, st, notifier := setup(t)
	ctx := context.Background()

	full := testsupport.NewImport(t, st, tagItems(3, 0))
	outcome, err := proc.Process(ctx, full.ID)
	if err != nil || outcome.Status != store.StatusFull || outcome.Processed != 3 {
		t.Fatalf("full case: %+v %v", outcome, err)
	}

	// Same observations in a different order hash to a different batch.
	seen := tagItems(3, 0)
	seen[0], seen[2] = seen[2], seen[0]
	dup := testsupport.NewImport(t, st, seen)
	outcome, err = proc.Process(ctx, dup.ID)
	if err != nil || outcome.Status != store.StatusDuplicate || outcome.Duplicates != 3 {
		t.Fatalf("duplicate case: %+v %v", outcome, err)
	}

	mixed := append(tagItems(2, 30), tagItems(1, 0)[0])
	partial := testsupport.NewImport(t, st, mixed)
	outcome, err = proc.Process(ctx, partial.ID)
	if err != nil || outcome.Status != store.StatusPartial || outcome.Processed != 2 || outcome.Duplicates != 1 {
		t.Fatalf("partial case: %+v %v", outcome, err)
	}

	bad := testsupport.NewImport(t, st, []any{testsupport.TagItem("Tag 2", 95, 20, 5, 1700000000000)})
	outcome, err = proc.Process(ctx, bad.ID)
	if err != nil || outcome.Status != store.StatusError || outcome.Errors != 1 {
		t.Fatalf("error case: %+v %v", outcome, err)
	}
	if !strings.Contains(outcome.ErrorMessage, "Latitude") {
		t.Fatalf("expected latitude failure in message, got %q", outcome.ErrorMessage)
	}
	stored, err := st.GetImport(ctx, bad.ID)
	if err != nil {
		t.Fatalf("GetImport: %v", err)
	}
	if stored.ErrorMessage != outcome.ErrorMessage {
		t.Fatalf("error message not persisted: %q", stored.ErrorMessage)
	}

	if len(notifier.events) != 2 || notifier.events[0] != notifications.EventImportPartial || notifier.events[1] != notifications.EventImportError {
		t.Fatalf("unexpected notifications: %v", notifier.events)
	}
}

func TestProcessIsIdempotent(t *testing.T) {
	proc, st, _ := setup(t)
	ctx := context.Background()
	batch := testsupport.NewImport(t, st, tagItems(2, 0))

	first, err := proc.Process(ctx, batch.ID)
	if err != nil || first.Status != store.StatusFull {
		t.Fatalf("first pass: %+v %v", first, err)
	}
	before, _ := st.Stats(ctx)

	again, err := proc.Process(ctx, batch.ID)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if !again.Skipped || again.Status != store.StatusFull || again.Processed != 0 {
		t.Fatalf("expected skipped pass, got %+v", again)
	}
	after, _ := st.Stats(ctx)
	if after.Locations != before.Locations {
		t.Fatalf("re-run added records: %d -> %d", before.Locations, after.Locations)
	}
}

// insertStoredItem writes the record an interrupted pass over batch would
// have left behind for item index.
func insertStoredItem(t *testing.T, st *store.Store, batch *store.ImportBatch, index int) {
	t.Helper()
	var items []any
	if err := json.Unmarshal(batch.RawContent, &items); err != nil {
		t.Fatalf("decode batch content: %v", err)
	}
	obs, skip := locations.ParseItem(items[index], batch.CreatedAt)
	if skip != locations.SkipNone {
		t.Fatalf("item %d skipped: %s", index, skip)
	}
	if err := st.InsertLocation(context.Background(), obs.Record(batch.ID)); err != nil {
		t.Fatalf("InsertLocation: %v", err)
	}
}

func TestProcessResumesInterruptedPass(t *testing.T) {
	proc, st, notifier := setup(t)
	ctx := context.Background()
	batch := testsupport.NewImport(t, st, tagItems(3, 0))
	insertStoredItem(t, st, batch, 0)

	outcome, err := proc.Process(ctx, batch.ID)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if outcome.Status != store.StatusFull || outcome.Processed != 3 || outcome.Duplicates != 0 {
		t.Fatalf("resumed pass: %+v", outcome)
	}
	records, err := st.LocationsByImport(ctx, batch.ID)
	if err != nil {
		t.Fatalf("LocationsByImport: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if len(notifier.events) != 0 {
		t.Fatalf("unexpected notifications: %v", notifier.events)
	}
}

func TestProcessResumedPassStillCountsInBatchRepeats(t *testing.T) {
	proc, st, _ := setup(t)
	item := testsupport.TagItem("Tag 6", 1, 2, 3, 1700000000000)
	other := testsupport.TagItem("Tag 6", 4, 5, 3, 1700000001000)
	batch := testsupport.NewImport(t, st, []any{item, item, other})
	insertStoredItem(t, st, batch, 0)

	outcome, err := proc.Process(context.Background(), batch.ID)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if outcome.Processed != 2 || outcome.Duplicates != 1 || outcome.Status != store.StatusPartial {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
}

func TestProcessEmptyArrayFinishesFull(t *testing.T) {
	proc, st, notifier := setup(t)
	ctx := context.Background()
	batch := testsupport.NewImport(t, st, []any{})
	if batch.ItemCount != 0 {
		t.Fatalf("expected zero items, got %d", batch.ItemCount)
	}

	outcome, err := proc.Process(ctx, batch.ID)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if outcome.Status != store.StatusFull || outcome.Processed != 0 || outcome.Duplicates != 0 || outcome.Errors != 0 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	stored, err := st.GetImport(ctx, batch.ID)
	if err != nil {
		t.Fatalf("GetImport: %v", err)
	}
	if stored.Status != store.StatusFull {
		t.Fatalf("expected stored status full, got %s", stored.Status)
	}
	if len(notifier.events) != 0 {
		t.Fatalf("unexpected notifications: %v", notifier.events)
	}
}

func TestProcessCrossBatchDedup(t *testing.T) {
	proc, st, _ := setup(t)
	ctx := context.Background()

	obs := testsupport.TagItem("Tag 1", 10, 20, 5, 1700000000000)
	x := testsupport.NewImport(t, st, []any{obs})
	y := testsupport.NewImport(t, st, map[string]any{"name": "Tag 1", "location": obs["location"], "source": "other"})

	if _, err := proc.Process(ctx, x.ID); err != nil {
		t.Fatalf("Process x: %v", err)
	}
	outcome, err := proc.Process(ctx, y.ID)
	if err != nil {
		t.Fatalf("Process y: %v", err)
	}
	if outcome.Status != store.StatusDuplicate {
		t.Fatalf("expected duplicate for batch y, got %+v", outcome)
	}

	records, err := st.LocationsByTag(ctx, "Tag 1", 10, 0)
	if err != nil {
		t.Fatalf("LocationsByTag: %v", err)
	}
	if len(records) != 1 || records[0].ImportID != x.ID {
		t.Fatalf("expected exactly one record from batch x, got %+v", records)
	}
}

func TestProcessInBatchRepeatCountsAsDuplicate(t *testing.T) {
	proc, st, _ := setup(t)
	item := testsupport.TagItem("Tag 3", 1, 2, 3, 1700000000000)
	batch := testsupport.NewImport(t, st, []any{item, item})

	outcome, err := proc.Process(context.Background(), batch.ID)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if outcome.Processed != 1 || outcome.Duplicates != 1 || outcome.Status != store.StatusPartial {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
}

func TestProcessIgnoresInvalidItems(t *testing.T) {
	proc, st, _ := setup(t)
	batch := testsupport.NewImport(t, st, []any{
		testsupport.TagItem("Tag 4", 1, 2, 3, 1700000000000),
		map[string]any{"name": "AirPods", "location": map[string]any{"latitude": 1.0, "longitude": 2.0}},
		map[string]any{"name": "Tag 5"},
	})
	outcome, err := proc.Process(context.Background(), batch.ID)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	// Skipped items count toward itemCount but not toward any outcome bucket.
	if outcome.Processed != 1 || outcome.Ignored != 2 || outcome.Status != store.StatusPartial {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
}

func TestProcessTextContentAndParseFailure(t *testing.T) {
	proc, st, _ := setup(t)
	ctx := context.Background()

	text, _ := json.Marshal(tagItems(1, 50))
	good := testsupport.NewImport(t, st, string(text))
	outcome, err := proc.Process(ctx, good.ID)
	if err != nil {
		t.Fatalf("Process text: %v", err)
	}
	if outcome.Processed != 1 {
		t.Fatalf("expected text content to be parsed, got %+v", outcome)
	}

	broken := testsupport.NewImport(t, st, "[{not json")
	outcome, err = proc.Process(ctx, broken.ID)
	if err != nil {
		t.Fatalf("Process broken: %v", err)
	}
	if !outcome.ParseFailed {
		t.Fatalf("expected parse failure, got %+v", outcome)
	}
	stored, err := st.GetImport(ctx, broken.ID)
	if err != nil {
		t.Fatalf("GetImport: %v", err)
	}
	if stored.Status != store.StatusPending || stored.ErrorMessage == "" {
		t.Fatalf("parse failure should leave batch pending with message: %+v", stored)
	}
}

func TestProcessUnknownImport(t *testing.T) {
	proc, _, _ := setup(t)
	_, err := proc.Process(context.Background(), "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestConcurrentPassesFinalizeOnce(t *testing.T) {
	proc, st, _ := setup(t)
	batch := testsupport.NewImport(t, st, tagItems(5, 0))

	const passes = 4
	outcomes := make([]processor.Outcome, passes)
	var wg sync.WaitGroup
	for i := 0; i < passes; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := proc.Process(context.Background(), batch.ID)
			if err != nil {
				t.Errorf("pass %d: %v", i, err)
			}
			outcomes[i] = out
		}(i)
	}
	wg.Wait()

	finalized := 0
	for _, out := range outcomes {
		if !out.Skipped {
			finalized++
		}
	}
	if finalized != 1 {
		t.Fatalf("expected exactly one finalizing pass, got %d", finalized)
	}
	stats, err := st.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Locations != 5 {
		t.Fatalf("expected 5 records, got %d", stats.Locations)
	}
}
