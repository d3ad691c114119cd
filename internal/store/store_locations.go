package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocationOwner reports whether a record with the hash is stored and which
// import contributed it. Absence is not an error. The owner is empty when the
// record outlived its batch.
func (s *Store) LocationOwner(ctx context.Context, locationHash string) (string, bool, error) {
	var owner sql.NullString
	err := s.db.QueryRowContext(ensureContext(ctx),
		"SELECT import_id FROM locations WHERE location_hash = ? LIMIT 1",
		strings.ToLower(locationHash),
	).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrap("location owner", err)
	}
	return owner.String, true, nil
}

// InsertLocation persists a record, assigning ID and CreatedAt when empty.
// A location hash collision returns an error matching ErrUniqueViolation.
func (s *Store) InsertLocation(ctx context.Context, record *LocationRecord) error {
	if record == nil {
		return errors.New("insert location: nil record")
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = s.now().UTC()
	}
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO locations (
            id, subject_tag, latitude, longitude, accuracy, observed_at,
            battery_status, is_inaccurate, location_hash, import_id, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.SubjectTag,
		record.Latitude,
		record.Longitude,
		record.Accuracy,
		record.ObservedAt.UnixMilli(),
		record.BatteryStatus,
		boolToInt(record.IsInaccurate),
		record.LocationHash,
		nullableString(record.ImportID),
		formatTime(record.CreatedAt),
	)
	return wrap("insert location", err)
}

// LatestPerTag returns the newest record for every subject tag.
func (s *Store) LatestPerTag(ctx context.Context) ([]*LocationRecord, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		"SELECT "+locationColumns+` FROM (
            SELECT l.*, ROW_NUMBER() OVER (
                PARTITION BY subject_tag ORDER BY observed_at DESC, created_at DESC
            ) AS rn FROM locations l
        ) WHERE rn = 1 ORDER BY subject_tag`,
	)
	if err != nil {
		return nil, wrap("latest per tag", err)
	}
	defer rows.Close()
	return collectLocations(rows)
}

// LocationsByTag returns a page of records for one tag, newest observation
// first.
func (s *Store) LocationsByTag(ctx context.Context, tag string, limit, offset int) ([]*LocationRecord, error) {
	limit, offset = pageBounds(limit, offset)
	rows, err := s.db.QueryContext(ensureContext(ctx),
		"SELECT "+locationColumns+` FROM locations
          WHERE subject_tag = ? ORDER BY observed_at DESC, created_at DESC LIMIT ? OFFSET ?`,
		tag, limit, offset,
	)
	if err != nil {
		return nil, wrap("locations by tag", err)
	}
	defer rows.Close()
	return collectLocations(rows)
}

// LocationsBetween returns a page of records across all tags observed within
// [from, to], newest observation first.
func (s *Store) LocationsBetween(ctx context.Context, from, to time.Time, limit, offset int) ([]*LocationRecord, error) {
	limit, offset = pageBounds(limit, offset)
	rows, err := s.db.QueryContext(ensureContext(ctx),
		"SELECT "+locationColumns+` FROM locations
          WHERE observed_at BETWEEN ? AND ?
          ORDER BY observed_at DESC, subject_tag, created_at DESC LIMIT ? OFFSET ?`,
		from.UnixMilli(), to.UnixMilli(), limit, offset,
	)
	if err != nil {
		return nil, wrap("locations between", err)
	}
	defer rows.Close()
	return collectLocations(rows)
}

func pageBounds(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// LocationsByImport returns the records a batch contributed.
func (s *Store) LocationsByImport(ctx context.Context, importID string) ([]*LocationRecord, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		"SELECT "+locationColumns+" FROM locations WHERE import_id = ? ORDER BY observed_at DESC",
		importID,
	)
	if err != nil {
		return nil, wrap("locations by import", err)
	}
	defer rows.Close()
	return collectLocations(rows)
}

// CountLocationsByHash returns how many records carry the hash (0 or 1).
func (s *Store) CountLocationsByHash(ctx context.Context, locationHash string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ensureContext(ctx),
		"SELECT COUNT(1) FROM locations WHERE location_hash = ?", locationHash,
	).Scan(&count)
	if err != nil {
		return 0, wrap("count locations", err)
	}
	return count, nil
}

func collectLocations(rows *sql.Rows) ([]*LocationRecord, error) {
	var records []*LocationRecord
	for rows.Next() {
		record, err := scanLocation(rows)
		if err != nil {
			return nil, wrap("scan location", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("iterate locations", err)
	}
	return records, nil
}
