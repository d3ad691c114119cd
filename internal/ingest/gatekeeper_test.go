package ingest_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"tagtrack/internal/canonical"
	"tagtrack/internal/ingest"
	"tagtrack/internal/logging"
	"tagtrack/internal/store"
	"tagtrack/internal/testsupport"
)

type recordingTrigger struct {
	ids []string
}

func (r *recordingTrigger) Trigger(id string) { r.ids = append(r.ids, id) }

func newGatekeeper(t *testing.T) (*ingest.Gatekeeper, *store.Store, *recordingTrigger) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	trigger := &recordingTrigger{}
	return ingest.NewGatekeeper(st, trigger, cfg.Ingest.DefaultSource, logging.NewNop()), st, trigger
}

func TestSubmitThenDuplicateInAnyKeyOrder(t *testing.T) {
	gk, st, trigger := newGatekeeper(t)
	ctx := context.Background()

	first, err := gk.Submit(ctx, ingest.Submission{
		Content: json.RawMessage(`[{"name":"Tag 1","location":{"latitude":10,"longitude":20,"horizontalAccuracy":5,"timeStamp":1700000000000}}]`),
	})
	if err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if first.Status != ingest.StatusOK || first.ItemsCount != 1 || first.ImportID == "" {
		t.Fatalf("unexpected first result: %+v", first)
	}
	if first.HashMatch != nil || first.ProvidedHash != "" {
		t.Fatalf("expected no hash match without md5: %+v", first)
	}
	if len(trigger.ids) != 1 || trigger.ids[0] != first.ImportID {
		t.Fatalf("expected trigger for %s, got %v", first.ImportID, trigger.ids)
	}

	second, err := gk.Submit(ctx, ingest.Submission{
		Content: json.RawMessage(`[ {"location":{"timeStamp":1700000000000,"horizontalAccuracy":5,"longitude":20,"latitude":10},"name":"Tag 1"} ]`),
		MD5:     strings.ToUpper(first.ComputedHash),
	})
	if err != nil {
		t.Fatalf("second Submit: %v", err)
	}
	if second.Status != ingest.StatusDuplicated || second.ImportID != first.ImportID {
		t.Fatalf("expected duplicate of %s, got %+v", first.ImportID, second)
	}
	if second.HashMatch == nil || !*second.HashMatch {
		t.Fatalf("expected hash match, got %+v", second)
	}
	if len(trigger.ids) != 1 {
		t.Fatalf("duplicate must not trigger processing, got %v", trigger.ids)
	}

	batch, err := st.GetImport(ctx, first.ImportID)
	if err != nil {
		t.Fatalf("GetImport: %v", err)
	}
	if batch.Source != "api" || batch.Status != store.StatusPending {
		t.Fatalf("unexpected stored batch: %+v", batch)
	}
}

func TestSubmitLegacyHashDuplicate(t *testing.T) {
	gk, st, _ := newGatekeeper(t)
	ctx := context.Background()

	legacy := canonical.FingerprintString("client hashed this differently")
	if err := st.InsertImport(ctx, &store.ImportBatch{ContentHash: legacy, RawContent: []byte(`{"v":1}`), Source: "legacy", ItemCount: 1}); err != nil {
		t.Fatalf("InsertImport: %v", err)
	}

	res, err := gk.Submit(ctx, ingest.Submission{Content: json.RawMessage(`{"v":1}`), MD5: legacy, Source: "app"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Status != ingest.StatusDuplicated {
		t.Fatalf("expected legacy duplicate, got %+v", res)
	}
	if res.HashMatch == nil || *res.HashMatch {
		t.Fatalf("expected hash_match=false, got %+v", res.HashMatch)
	}
}

func TestSubmitIgnoresMalformedProvidedHash(t *testing.T) {
	gk, _, _ := newGatekeeper(t)
	res, err := gk.Submit(context.Background(), ingest.Submission{Content: json.RawMessage(`[1,2,3]`), MD5: "not-a-hash", Source: "cli"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.ProvidedHash != "" || res.HashMatch != nil {
		t.Fatalf("malformed md5 must not be echoed: %+v", res)
	}
	if res.ItemsCount != 3 {
		t.Fatalf("ItemsCount = %d, want 3", res.ItemsCount)
	}
}

func TestSubmitValidation(t *testing.T) {
	gk, st, _ := newGatekeeper(t)
	ctx := context.Background()

	if _, err := gk.Submit(ctx, ingest.Submission{}); !errors.Is(err, ingest.ErrContentRequired) {
		t.Fatalf("expected ErrContentRequired, got %v", err)
	}
	if _, err := gk.Submit(ctx, ingest.Submission{Content: json.RawMessage(`null`)}); !errors.Is(err, ingest.ErrContentRequired) {
		t.Fatalf("expected ErrContentRequired for null, got %v", err)
	}
	_, err := gk.Submit(ctx, ingest.Submission{Content: json.RawMessage(`{}`), Source: strings.Repeat("x", 101)})
	if !ingest.IsValidation(err) {
		t.Fatalf("expected validation error for long source, got %v", err)
	}

	stats, err := st.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalImports() != 0 {
		t.Fatalf("validation failures must not persist batches, got %d", stats.TotalImports())
	}
}

// racingStore loses the insert to a concurrent submitter.
type racingStore struct {
	winner  *store.ImportBatch
	lookups int
}

func (r *racingStore) FindImportByHash(_ context.Context, hash string) (*store.ImportBatch, error) {
	r.lookups++
	if r.lookups == 1 {
		return nil, nil
	}
	return r.winner, nil
}

func (r *racingStore) InsertImport(context.Context, *store.ImportBatch) error {
	return errors.Join(store.ErrUniqueViolation, errors.New("UNIQUE constraint failed: imports.content_hash"))
}

func TestSubmitReinterpretsUniqueViolation(t *testing.T) {
	rs := &racingStore{winner: &store.ImportBatch{ID: "winner", ItemCount: 1}}
	gk := ingest.NewGatekeeper(rs, nil, "", nil)

	res, err := gk.Submit(context.Background(), ingest.Submission{Content: json.RawMessage(`{"a":1}`)})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Status != ingest.StatusDuplicated || res.ImportID != "winner" {
		t.Fatalf("expected duplicate of winner, got %+v", res)
	}
}

type failingStore struct{}

func (failingStore) FindImportByHash(context.Context, string) (*store.ImportBatch, error) {
	return nil, errors.New("disk I/O error")
}

func (failingStore) InsertImport(context.Context, *store.ImportBatch) error { return nil }

func TestSubmitPropagatesStoreFailure(t *testing.T) {
	gk := ingest.NewGatekeeper(failingStore{}, nil, "", nil)
	_, err := gk.Submit(context.Background(), ingest.Submission{Content: json.RawMessage(`{"a":1}`)})
	if err == nil || ingest.IsValidation(err) {
		t.Fatalf("expected internal error, got %v", err)
	}
}
