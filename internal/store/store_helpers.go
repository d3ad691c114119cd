package store

import (
	"database/sql"
	"errors"
	"time"
)

// Fixed-width so lexical order in SQLite matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const importColumns = "id, content_hash, raw_content, source, item_count, status, error_message, processed, duplicates, errors, created_at, updated_at"

const locationColumns = "id, subject_tag, latitude, longitude, accuracy, observed_at, battery_status, is_inaccurate, location_hash, import_id, created_at"

type rowScanner interface{ Scan(dest ...any) error }

func scanImport(scanner rowScanner) (*ImportBatch, error) {
	var (
		batch        ImportBatch
		raw          string
		statusStr    string
		errorMessage sql.NullString
		createdRaw   string
		updatedRaw   string
	)
	if err := scanner.Scan(
		&batch.ID,
		&batch.ContentHash,
		&raw,
		&batch.Source,
		&batch.ItemCount,
		&statusStr,
		&errorMessage,
		&batch.Processed,
		&batch.Duplicates,
		&batch.Errors,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	batch.RawContent = []byte(raw)
	batch.Status = Status(statusStr)
	batch.ErrorMessage = errorMessage.String
	if created, err := parseTimeString(createdRaw); err == nil {
		batch.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		batch.UpdatedAt = updated
	}
	return &batch, nil
}

func scanLocation(scanner rowScanner) (*LocationRecord, error) {
	var (
		record       LocationRecord
		observedMS   int64
		isInaccurate int
		importID     sql.NullString
		createdRaw   string
	)
	if err := scanner.Scan(
		&record.ID,
		&record.SubjectTag,
		&record.Latitude,
		&record.Longitude,
		&record.Accuracy,
		&observedMS,
		&record.BatteryStatus,
		&isInaccurate,
		&record.LocationHash,
		&importID,
		&createdRaw,
	); err != nil {
		return nil, err
	}
	record.ObservedAt = time.UnixMilli(observedMS).UTC()
	record.IsInaccurate = isInaccurate != 0
	record.ImportID = importID.String
	if created, err := parseTimeString(createdRaw); err == nil {
		record.CreatedAt = created
	}
	return &record, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
