package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"tagtrack/internal/canonical"
	"tagtrack/internal/logging"
	"tagtrack/internal/store"
)

// Store is the persistence the Gatekeeper needs.
type Store interface {
	FindImportByHash(ctx context.Context, contentHash string) (*store.ImportBatch, error)
	InsertImport(ctx context.Context, batch *store.ImportBatch) error
}

// Trigger is notified after a new pending batch is persisted.
type Trigger interface {
	Trigger(importID string)
}

// ResultStatus is the outcome reported to the submitter.
type ResultStatus string

const (
	StatusOK         ResultStatus = "ok"
	StatusDuplicated ResultStatus = "duplicated"
)

// Submission is one inbound batch.
type Submission struct {
	Content json.RawMessage
	MD5     string
	Source  string `validate:"omitempty,max=100"`
}

// Result describes how a submission was handled. ProvidedHash is set only for
// a well-formed caller hash, and HashMatch is nil without one.
type Result struct {
	Status       ResultStatus
	ImportID     string
	ItemsCount   int
	ImportedAt   time.Time
	ComputedHash string
	ProvidedHash string
	HashMatch    *bool
}

// Gatekeeper admits each distinct content at most once.
type Gatekeeper struct {
	store         Store
	trigger       Trigger
	defaultSource string
	validate      *validator.Validate
	logger        *slog.Logger
}

// NewGatekeeper constructs a Gatekeeper. trigger may be nil.
func NewGatekeeper(st Store, trigger Trigger, defaultSource string, logger *slog.Logger) *Gatekeeper {
	if strings.TrimSpace(defaultSource) == "" {
		defaultSource = "api"
	}
	return &Gatekeeper{
		store:         st,
		trigger:       trigger,
		defaultSource: defaultSource,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		logger:        logging.NewComponentLogger(logger, "gatekeeper"),
	}
}

// Submit fingerprints the content and either reports the existing batch or
// persists a new pending one.
func (g *Gatekeeper) Submit(ctx context.Context, sub Submission) (Result, error) {
	content, err := DecodeContent(sub.Content)
	if err != nil {
		return Result{}, err
	}
	sub.Source = strings.TrimSpace(sub.Source)
	if err := g.validate.Struct(sub); err != nil {
		return Result{}, &ValidationError{Field: "source", Err: fmt.Errorf("source must be at most 100 characters")}
	}

	computed, err := canonical.Fingerprint(content.Raw)
	if err != nil {
		return Result{}, &ValidationError{Field: "content", Err: err}
	}
	result := Result{ComputedHash: computed}
	provided := strings.ToLower(strings.TrimSpace(sub.MD5))
	if canonical.IsFingerprint(provided) {
		match := provided == computed
		result.ProvidedHash = provided
		result.HashMatch = &match
	}

	existing, err := g.store.FindImportByHash(ctx, computed)
	if err != nil {
		return Result{}, fmt.Errorf("lookup content hash: %w", err)
	}
	if existing == nil && result.ProvidedHash != "" && result.ProvidedHash != computed {
		existing, err = g.store.FindImportByHash(ctx, result.ProvidedHash)
		if err != nil {
			return Result{}, fmt.Errorf("lookup provided hash: %w", err)
		}
	}
	if existing != nil {
		return g.duplicated(result, existing), nil
	}

	source := sub.Source
	if source == "" {
		source = g.defaultSource
	}
	batch := &store.ImportBatch{
		ContentHash: computed,
		RawContent:  content.Raw,
		Source:      source,
		ItemCount:   content.ItemCount(),
		Status:      store.StatusPending,
	}
	if err := g.store.InsertImport(ctx, batch); err != nil {
		if !errors.Is(err, store.ErrUniqueViolation) {
			return Result{}, fmt.Errorf("persist import: %w", err)
		}
		winner, findErr := g.store.FindImportByHash(ctx, computed)
		if findErr != nil {
			return Result{}, fmt.Errorf("reload raced import: %w", findErr)
		}
		if winner == nil {
			return Result{}, fmt.Errorf("persist import: %w", err)
		}
		return g.duplicated(result, winner), nil
	}

	g.logger.Info("import accepted",
		logging.String(logging.FieldImportID, batch.ID),
		logging.String("content_hash", computed),
		logging.String("source", source),
		logging.String("kind", content.Kind.String()),
		logging.Int("items", batch.ItemCount),
	)
	if g.trigger != nil {
		g.trigger.Trigger(batch.ID)
	}

	result.Status = StatusOK
	result.ImportID = batch.ID
	result.ItemsCount = batch.ItemCount
	result.ImportedAt = batch.CreatedAt
	return result, nil
}

func (g *Gatekeeper) duplicated(result Result, existing *store.ImportBatch) Result {
	g.logger.Info("duplicate import",
		logging.String(logging.FieldImportID, existing.ID),
		logging.String("content_hash", result.ComputedHash),
	)
	result.Status = StatusDuplicated
	result.ImportID = existing.ID
	result.ItemsCount = existing.ItemCount
	result.ImportedAt = existing.CreatedAt
	return result
}
