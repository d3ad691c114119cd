package api

import (
	"time"

	"tagtrack/internal/ingest"
	"tagtrack/internal/locations"
	"tagtrack/internal/processor"
	"tagtrack/internal/store"
	"tagtrack/internal/workflow"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

// FromImportBatch converts a stored batch to its API representation.
func FromImportBatch(batch *store.ImportBatch) ImportBatch {
	if batch == nil {
		return ImportBatch{}
	}
	return ImportBatch{
		ID:           batch.ID,
		ContentHash:  batch.ContentHash,
		Source:       batch.Source,
		ItemCount:    batch.ItemCount,
		Status:       string(batch.Status),
		ErrorMessage: batch.ErrorMessage,
		Processed:    batch.Processed,
		Duplicates:   batch.Duplicates,
		Errors:       batch.Errors,
		CreatedAt:    formatTime(batch.CreatedAt),
		UpdatedAt:    formatTime(batch.UpdatedAt),
	}
}

// FromLocation converts a stored observation.
func FromLocation(record *store.LocationRecord) Location {
	if record == nil {
		return Location{}
	}
	return Location{
		ID:            record.ID,
		Tag:           record.SubjectTag,
		Latitude:      record.Latitude,
		Longitude:     record.Longitude,
		Accuracy:      record.Accuracy,
		ObservedAt:    formatTime(record.ObservedAt),
		BatteryStatus: record.BatteryStatus,
		IsInaccurate:  record.IsInaccurate,
		LocationHash:  record.LocationHash,
		ImportID:      record.ImportID,
	}
}

// FromLocations converts a slice, never returning nil.
func FromLocations(records []*store.LocationRecord) []Location {
	out := make([]Location, 0, len(records))
	for _, record := range records {
		out = append(out, FromLocation(record))
	}
	return out
}

// FromRecvResult converts a Gatekeeper result.
func FromRecvResult(result ingest.Result, now time.Time) RecvResponse {
	return RecvResponse{
		Status:       string(result.Status),
		ImportID:     result.ImportID,
		ItemsCount:   result.ItemsCount,
		ImportedAt:   formatTime(result.ImportedAt),
		ComputedHash: result.ComputedHash,
		ProvidedHash: result.ProvidedHash,
		HashMatch:    result.HashMatch,
		Timestamp:    formatTime(now),
	}
}

// FromOutcome converts a processing outcome.
func FromOutcome(outcome *processor.Outcome) *ProcessOutcome {
	if outcome == nil {
		return nil
	}
	return &ProcessOutcome{
		ImportID:      outcome.ImportID,
		Status:        string(outcome.Status),
		TotalExpected: outcome.TotalExpected,
		Processed:     outcome.Processed,
		Duplicates:    outcome.Duplicates,
		Errors:        outcome.Errors,
		Ignored:       outcome.Ignored,
		ErrorMessage:  outcome.ErrorMessage,
	}
}

// FromStatusSummary converts workflow diagnostics.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	imports := make(map[string]int, len(summary.Stats.Imports))
	for status, count := range summary.Stats.Imports {
		imports[string(status)] = count
	}
	return WorkflowStatus{
		Running:         summary.Running,
		LastError:       summary.LastError,
		LastOutcome:     FromOutcome(summary.LastOutcome),
		Imports:         imports,
		Locations:       summary.Stats.Locations,
		ProcessorRuns:   summary.ProcessorRuns,
		PendingTriggers: summary.PendingTriggers,
	}
}

// SummarizeBatch counts the tags in a batch payload. Payloads that cannot be
// decoded yield an empty summary.
func SummarizeBatch(batch *store.ImportBatch) ImportSummary {
	summary := ImportSummary{TagList: []string{}}
	if batch == nil {
		return summary
	}
	content, err := ingest.DecodeContent(batch.RawContent)
	if err != nil {
		return summary
	}
	items, err := content.Items()
	if err != nil {
		return summary
	}
	summary.TotalItems = len(items)
	for _, item := range items {
		obs, reason := locations.ParseItem(item, batch.CreatedAt)
		switch reason {
		case locations.SkipInvalidTag:
			continue
		case locations.SkipMissingCoordinates:
			obj, _ := item.(map[string]any)
			name, _ := obj["name"].(string)
			summary.TagList = append(summary.TagList, name)
		default:
			summary.TagList = append(summary.TagList, obs.SubjectTag)
			summary.TagsWithLocation++
		}
		summary.ValidTags++
	}
	locations.SortTags(summary.TagList)
	return summary
}
