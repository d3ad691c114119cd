package testsupport

import (
	"context"
	"encoding/json"
	"testing"

	"tagtrack/internal/canonical"
	"tagtrack/internal/config"
	"tagtrack/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewImport inserts a pending batch holding content and returns it.
func NewImport(t testing.TB, st *store.Store, content any) *store.ImportBatch {
	t.Helper()

	raw, err := json.Marshal(content)
	if err != nil {
		t.Fatalf("marshal content: %v", err)
	}
	hash, err := canonical.Fingerprint(json.RawMessage(raw))
	if err != nil {
		t.Fatalf("fingerprint content: %v", err)
	}
	count := 1
	var items []any
	if json.Unmarshal(raw, &items) == nil {
		count = len(items)
	}
	batch := &store.ImportBatch{
		ContentHash: hash,
		RawContent:  raw,
		Source:      "test",
		ItemCount:   count,
	}
	if err := st.InsertImport(context.Background(), batch); err != nil {
		t.Fatalf("store.InsertImport: %v", err)
	}
	return batch
}
