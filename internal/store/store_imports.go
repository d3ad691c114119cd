package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// InsertImport persists a new pending batch. ID, CreatedAt, and Status are
// assigned when empty. A content hash collision returns an error matching
// ErrUniqueViolation and leaves the table unchanged.
func (s *Store) InsertImport(ctx context.Context, batch *ImportBatch) error {
	if batch == nil {
		return errors.New("insert import: nil batch")
	}
	if batch.ID == "" {
		batch.ID = uuid.NewString()
	}
	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = s.now().UTC()
	}
	if batch.Status == "" {
		batch.Status = StatusPending
	}
	batch.UpdatedAt = batch.CreatedAt
	timestamp := formatTime(batch.CreatedAt)

	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO imports (
            id, content_hash, raw_content, source, item_count, status,
            error_message, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		batch.ID,
		batch.ContentHash,
		string(batch.RawContent),
		batch.Source,
		batch.ItemCount,
		batch.Status,
		nullableString(batch.ErrorMessage),
		timestamp,
		timestamp,
	)
	return wrap("insert import", err)
}

// FindImportByHash returns the batch with the given content hash, or nil.
func (s *Store) FindImportByHash(ctx context.Context, contentHash string) (*ImportBatch, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		"SELECT "+importColumns+" FROM imports WHERE content_hash = ?",
		strings.ToLower(contentHash),
	)
	batch, err := scanImport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("find import by hash", err)
	}
	return batch, nil
}

// GetImport fetches a batch by id. Missing ids return ErrNotFound.
func (s *Store) GetImport(ctx context.Context, id string) (*ImportBatch, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		"SELECT "+importColumns+" FROM imports WHERE id = ?", id)
	batch, err := scanImport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("import %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, wrap("get import", err)
	}
	return batch, nil
}

// LatestImport returns the most recently created batch, or nil when none exist.
func (s *Store) LatestImport(ctx context.Context) (*ImportBatch, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		"SELECT "+importColumns+" FROM imports ORDER BY created_at DESC, rowid DESC LIMIT 1")
	batch, err := scanImport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("latest import", err)
	}
	return batch, nil
}

// MarkImportResult writes a terminal status and its counts. The update only
// applies while the batch is still pending; the return value reports whether
// this call performed the transition.
func (s *Store) MarkImportResult(ctx context.Context, id string, result ImportResult) (bool, error) {
	if !result.Status.IsTerminal() {
		return false, fmt.Errorf("mark import result: status %q is not terminal", result.Status)
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE imports
            SET status = ?, processed = ?, duplicates = ?, errors = ?,
                error_message = ?, updated_at = ?
          WHERE id = ? AND status = ?`,
		result.Status,
		result.Processed,
		result.Duplicates,
		result.Errors,
		nullableString(result.ErrorMessage),
		formatTime(s.now()),
		id,
		StatusPending,
	)
	if err != nil {
		return false, wrap("mark import result", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, wrap("mark import result", err)
	}
	return affected > 0, nil
}

// MarkParseFailure records why a pending batch could not be decoded. The
// batch stays pending for manual inspection.
func (s *Store) MarkParseFailure(ctx context.Context, id, message string) error {
	_, err := s.execWithRetry(
		ctx,
		"UPDATE imports SET error_message = ?, updated_at = ? WHERE id = ? AND status = ?",
		message,
		formatTime(s.now()),
		id,
		StatusPending,
	)
	return wrap("mark parse failure", err)
}

// PendingImports lists pending batches without a recorded parse failure,
// oldest first.
func (s *Store) PendingImports(ctx context.Context, limit int) ([]*ImportBatch, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ensureContext(ctx),
		"SELECT "+importColumns+` FROM imports
          WHERE status = ? AND (error_message IS NULL OR error_message = '')
          ORDER BY created_at, rowid LIMIT ?`,
		StatusPending, limit,
	)
	if err != nil {
		return nil, wrap("pending imports", err)
	}
	defer rows.Close()
	return collectImports(rows)
}

// ListImports returns batches newest first, optionally filtered by status.
func (s *Store) ListImports(ctx context.Context, opts ListOptions) ([]*ImportBatch, error) {
	query := "SELECT " + importColumns + " FROM imports"
	args := make([]any, 0, len(opts.Statuses)+1)
	if len(opts.Statuses) > 0 {
		query += " WHERE status IN (" + makePlaceholders(len(opts.Statuses)) + ")"
		for _, status := range opts.Statuses {
			args = append(args, status)
		}
	}
	query += " ORDER BY created_at DESC, rowid DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, wrap("list imports", err)
	}
	defer rows.Close()
	return collectImports(rows)
}

func collectImports(rows *sql.Rows) ([]*ImportBatch, error) {
	var batches []*ImportBatch
	for rows.Next() {
		batch, err := scanImport(rows)
		if err != nil {
			return nil, wrap("scan import", err)
		}
		batches = append(batches, batch)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("iterate imports", err)
	}
	return batches, nil
}

// Stats counts batches per status and stored locations.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	ctx = ensureContext(ctx)
	stats := Stats{Imports: make(map[Status]int, len(allStatuses))}
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(1) FROM imports GROUP BY status")
	if err != nil {
		return stats, wrap("import stats", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return stats, wrap("scan import stats", err)
		}
		stats.Imports[Status(status)] = count
	}
	if err := rows.Err(); err != nil {
		return stats, wrap("iterate import stats", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM locations").Scan(&stats.Locations); err != nil {
		return stats, wrap("location stats", err)
	}
	return stats, nil
}
