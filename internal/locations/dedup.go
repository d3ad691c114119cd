package locations

import (
	"context"
	"fmt"
)

// ExistenceChecker looks up stored location hashes and the batch that owns them.
type ExistenceChecker interface {
	LocationOwner(ctx context.Context, locationHash string) (string, bool, error)
}

// Deduplicator answers whether an observation was already stored.
type Deduplicator struct {
	store ExistenceChecker
}

// NewDeduplicator wraps the store lookup.
func NewDeduplicator(st ExistenceChecker) *Deduplicator {
	return &Deduplicator{store: st}
}

// Exists reports whether locationHash is stored. Only store failures are errors.
func (d *Deduplicator) Exists(ctx context.Context, locationHash string) (bool, error) {
	_, exists, err := d.Owner(ctx, locationHash)
	return exists, err
}

// Owner reports whether locationHash is stored and which import wrote it.
func (d *Deduplicator) Owner(ctx context.Context, locationHash string) (string, bool, error) {
	owner, exists, err := d.store.LocationOwner(ctx, locationHash)
	if err != nil {
		return "", false, fmt.Errorf("dedupe check: %w", err)
	}
	return owner, exists, nil
}
