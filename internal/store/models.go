package store

import (
	"encoding/json"
	"strings"
	"time"
)

// Status represents the lifecycle of an import batch.
type Status string

const (
	StatusPending   Status = "pending"
	StatusFull      Status = "full"
	StatusPartial   Status = "partial"
	StatusDuplicate Status = "duplicate"
	StatusError     Status = "error"
)

var allStatuses = []Status{
	StatusPending,
	StatusFull,
	StatusPartial,
	StatusDuplicate,
	StatusError,
}

// AllStatuses returns every known batch status in lifecycle order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus normalizes value and reports whether it names a known status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == normalized {
			return normalized, true
		}
	}
	return "", false
}

// IsTerminal reports whether no further processing follows this status.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusFull, StatusPartial, StatusDuplicate, StatusError:
		return true
	}
	return false
}

// ImportBatch is one submitted payload and its processing outcome.
type ImportBatch struct {
	ID           string
	ContentHash  string
	RawContent   json.RawMessage
	Source       string
	ItemCount    int
	Status       Status
	ErrorMessage string
	Processed    int
	Duplicates   int
	Errors       int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ImportResult carries the counts written with a terminal status.
type ImportResult struct {
	Status       Status
	Processed    int
	Duplicates   int
	Errors       int
	ErrorMessage string
}

// LocationRecord is one deduplicated observation extracted from a batch.
type LocationRecord struct {
	ID            string
	SubjectTag    string
	Latitude      float64
	Longitude     float64
	Accuracy      float64
	ObservedAt    time.Time
	BatteryStatus int
	IsInaccurate  bool
	LocationHash  string
	ImportID      string
	CreatedAt     time.Time
}

// ListOptions filters ListImports.
type ListOptions struct {
	Statuses []Status
	Limit    int
}

// Stats summarizes store contents.
type Stats struct {
	Imports   map[Status]int
	Locations int
}

// TotalImports sums batches across every status.
func (s Stats) TotalImports() int {
	total := 0
	for _, count := range s.Imports {
		total += count
	}
	return total
}
