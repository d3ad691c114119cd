package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"tagtrack/internal/ingest"
	"tagtrack/internal/locations"
	"tagtrack/internal/logging"
	"tagtrack/internal/notifications"
	"tagtrack/internal/store"
)

const maxReportedItemErrors = 3

// Store is the persistence the Processor needs.
type Store interface {
	GetImport(ctx context.Context, id string) (*store.ImportBatch, error)
	MarkImportResult(ctx context.Context, id string, result store.ImportResult) (bool, error)
	MarkParseFailure(ctx context.Context, id, message string) error
	LocationOwner(ctx context.Context, locationHash string) (string, bool, error)
	InsertLocation(ctx context.Context, record *store.LocationRecord) error
}

// Outcome reports what one pass did. Skipped means the batch was already
// terminal, or another pass finalized it first; ParseFailed means the batch
// was left pending with an error message.
type Outcome struct {
	ImportID      string
	Status        store.Status
	TotalExpected int
	Processed     int
	Duplicates    int
	Errors        int
	Ignored       int
	ErrorMessage  string
	Skipped       bool
	ParseFailed   bool
}

// Processor turns pending batches into location records.
type Processor struct {
	store    Store
	dedup    *locations.Deduplicator
	notifier notifications.Service
	logger   *slog.Logger
}

// New constructs a Processor. notifier may be nil.
func New(st Store, notifier notifications.Service, logger *slog.Logger) *Processor {
	if notifier == nil {
		notifier = notifications.NewService(nil)
	}
	return &Processor{
		store:    st,
		dedup:    locations.NewDeduplicator(st),
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "processor"),
	}
}

// Process runs one pass over the batch.
func (p *Processor) Process(ctx context.Context, importID string) (Outcome, error) {
	ctx = logging.WithImportID(ctx, importID)
	logger := logging.WithContext(ctx, p.logger)
	outcome := Outcome{ImportID: importID}

	batch, err := p.store.GetImport(ctx, importID)
	if err != nil {
		return outcome, fmt.Errorf("load import: %w", err)
	}
	outcome.Status = batch.Status
	if batch.Status.IsTerminal() {
		logger.Debug("import already final", logging.String("status", string(batch.Status)))
		outcome.Skipped = true
		return outcome, nil
	}

	items, err := decodeItems(batch)
	if err != nil {
		message := err.Error()
		if markErr := p.store.MarkParseFailure(ctx, importID, message); markErr != nil {
			return outcome, fmt.Errorf("record parse failure: %w", markErr)
		}
		logging.WarnWithContext(logger, "import content did not parse; left pending", "import_parse_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "inspect raw_content and resubmit corrected data"),
		)
		outcome.ParseFailed = true
		outcome.ErrorMessage = message
		return outcome, nil
	}

	var itemErrs []string
	seen := make(map[string]struct{}, len(items))
	for index, raw := range items {
		obs, skip := locations.ParseItem(raw, batch.CreatedAt)
		if skip != locations.SkipNone {
			outcome.Ignored++
			logger.Debug("item skipped", logging.Int("index", index), logging.String("reason", string(skip)))
			continue
		}
		if err := p.ingestObservation(ctx, obs, importID, seen); err != nil {
			if errors.Is(err, errDuplicate) {
				outcome.Duplicates++
				continue
			}
			outcome.Errors++
			itemErrs = append(itemErrs, fmt.Sprintf("item %d (%s): %v", index, obs.SubjectTag, err))
			logging.WarnWithContext(logger, "item failed", "item_failed",
				logging.Int("index", index),
				logging.String("subject_tag", obs.SubjectTag),
				logging.Error(err),
			)
			continue
		}
		outcome.Processed++
	}

	outcome.TotalExpected = batch.ItemCount
	if outcome.TotalExpected == 0 && len(items) > 0 {
		outcome.TotalExpected = len(items)
	}
	outcome.Status = DecideStatus(outcome.TotalExpected, outcome.Processed, outcome.Duplicates, outcome.Errors)
	if outcome.Errors > 0 {
		outcome.ErrorMessage = summarizeItemErrors(itemErrs, outcome.Errors, len(items))
	}

	changed, err := p.store.MarkImportResult(ctx, importID, store.ImportResult{
		Status:       outcome.Status,
		Processed:    outcome.Processed,
		Duplicates:   outcome.Duplicates,
		Errors:       outcome.Errors,
		ErrorMessage: outcome.ErrorMessage,
	})
	if err != nil {
		return outcome, fmt.Errorf("write import status: %w", err)
	}
	if !changed {
		logger.Info("import finalized by another pass")
		outcome.Skipped = true
		return outcome, nil
	}

	logger.Info("import processed",
		logging.String("status", string(outcome.Status)),
		logging.Int("expected", outcome.TotalExpected),
		logging.Int("processed", outcome.Processed),
		logging.Int("duplicates", outcome.Duplicates),
		logging.Int("errors", outcome.Errors),
		logging.Int("ignored", outcome.Ignored),
	)
	p.notify(ctx, logger, outcome)
	return outcome, nil
}

var errDuplicate = errors.New("duplicate location")

// ingestObservation stores obs unless it is already known. A record owned by
// this batch and not yet seen in this pass was written by an interrupted
// earlier pass and counts as processed.
func (p *Processor) ingestObservation(ctx context.Context, obs locations.Observation, importID string, seen map[string]struct{}) error {
	hash := obs.Hash()
	if _, repeat := seen[hash]; repeat {
		return errDuplicate
	}
	owner, exists, err := p.dedup.Owner(ctx, hash)
	if err != nil {
		return err
	}
	if exists {
		if owner != importID {
			return errDuplicate
		}
		seen[hash] = struct{}{}
		return nil
	}
	if err := obs.Validate(); err != nil {
		return err
	}
	if err := p.store.InsertLocation(ctx, obs.Record(importID)); err != nil {
		if errors.Is(err, store.ErrUniqueViolation) {
			return errDuplicate
		}
		return err
	}
	seen[hash] = struct{}{}
	return nil
}

func decodeItems(batch *store.ImportBatch) ([]any, error) {
	content, err := ingest.DecodeContent(batch.RawContent)
	if err != nil {
		return nil, err
	}
	return content.Items()
}

func summarizeItemErrors(itemErrs []string, failed, total int) string {
	shown := itemErrs
	if len(shown) > maxReportedItemErrors {
		shown = shown[:maxReportedItemErrors]
	}
	message := fmt.Sprintf("%d of %d items failed: %s", failed, total, strings.Join(shown, "; "))
	if extra := len(itemErrs) - len(shown); extra > 0 {
		message += fmt.Sprintf(" (+%d more)", extra)
	}
	return message
}

func (p *Processor) notify(ctx context.Context, logger *slog.Logger, outcome Outcome) {
	var event notifications.Event
	switch outcome.Status {
	case store.StatusPartial:
		event = notifications.EventImportPartial
	case store.StatusError:
		event = notifications.EventImportError
	default:
		return
	}
	payload := notifications.Payload{
		"import_id":     outcome.ImportID,
		"items":         outcome.TotalExpected,
		"processed":     outcome.Processed,
		"duplicates":    outcome.Duplicates,
		"errors":        outcome.Errors,
		"error_message": outcome.ErrorMessage,
	}
	if err := p.notifier.Publish(ctx, event, payload); err != nil {
		logging.WarnWithContext(logger, "notification failed", "notification_failed",
			logging.String("event", string(event)),
			logging.Error(err),
		)
	}
}
