package store

import (
	"context"
	"database/sql"
	"errors"
)

// IncrCounter atomically adds one to the named counter and returns the new value.
func (s *Store) IncrCounter(ctx context.Context, name string) (int64, error) {
	ctx = ensureContext(ctx)
	var value int64
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx,
			`INSERT INTO counters (name, value, updated_at) VALUES (?, 1, ?)
             ON CONFLICT(name) DO UPDATE SET value = value + 1, updated_at = excluded.updated_at
             RETURNING value`,
			name, formatTime(s.now()),
		).Scan(&value)
	})
	if err != nil {
		return 0, wrap("increment counter", err)
	}
	return value, nil
}

// GetCounter returns the named counter, zero when it was never incremented.
func (s *Store) GetCounter(ctx context.Context, name string) (int64, error) {
	var value int64
	err := s.db.QueryRowContext(ensureContext(ctx),
		"SELECT value FROM counters WHERE name = ?", name,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, wrap("get counter", err)
	}
	return value, nil
}

// Counters returns every stored counter.
func (s *Store) Counters(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), "SELECT name, value FROM counters ORDER BY name")
	if err != nil {
		return nil, wrap("list counters", err)
	}
	defer rows.Close()
	out := make(map[string]int64)
	for rows.Next() {
		var (
			name  string
			value int64
		)
		if err := rows.Scan(&name, &value); err != nil {
			return nil, wrap("scan counter", err)
		}
		out[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("iterate counters", err)
	}
	return out, nil
}
