// Package importer reconciles bulk pantry imports: it validates raw records,
// resolves their category names against existing categories with one lookup,
// and persists the survivors with one bulk insert.
package importer

import (
	"context"
	"time"

	"smart-pantry-api/internal/model"
	"smart-pantry-api/pkg/uid"

	"go.uber.org/zap"
)

// CategoryFinder looks up categories whose names case-insensitively match any of names.
type CategoryFinder interface {
	FindCategoriesByNames(ctx context.Context, names []string) ([]model.Category, error)
}

// ItemBulkInserter persists a batch of items in one call.
type ItemBulkInserter interface {
	BulkInsertItems(ctx context.Context, items []model.PantryItem) error
}

// Store is the subset of the pantry store used by an import.
type Store interface {
	CategoryFinder
	ItemBulkInserter
}

// Recorder observes completed imports.
type Recorder interface {
	ObserveImport(outcome *model.ImportOutcome)
}

// Importer runs the bulk import pipeline. It holds no per-call state and is
// safe for concurrent use.
type Importer struct {
	store    Store
	newID    func() string
	now      func() time.Time
	logger   *zap.Logger
	recorder Recorder
}

// Option configures an Importer.
type Option func(*Importer)

// WithIDSource overrides the identifier generator.
func WithIDSource(fn func() string) Option {
	return func(im *Importer) { im.newID = fn }
}

// WithClock overrides the timestamp source.
func WithClock(fn func() time.Time) Option {
	return func(im *Importer) { im.now = fn }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(im *Importer) { im.logger = l }
}

// WithRecorder sets a recorder notified after each successful import.
func WithRecorder(r Recorder) Option {
	return func(im *Importer) { im.recorder = r }
}

// New creates an importer backed by store.
func New(store Store, opts ...Option) *Importer {
	im := &Importer{
		store:  store,
		newID:  uid.New,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Import validates, resolves and inserts records, returning the aggregated outcome.
//
// Per-record problems are reported in the outcome. An error is returned only when
// a store call fails, in which case nothing from the batch is considered imported.
// Errors are ordered by stage: validation rejections first, then unknown categories.
func (im *Importer) Import(ctx context.Context, records []model.RawImportRecord) (*model.ImportOutcome, error) {
	candidates, invalid := validate(records)

	matched, unknown, err := resolve(ctx, im.store, candidates)
	if err != nil {
		return nil, err
	}

	items, err := im.materialize(ctx, matched)
	if err != nil {
		return nil, err
	}

	errs := make([]model.ImportError, 0, len(invalid)+len(unknown))
	errs = append(errs, invalid...)
	errs = append(errs, unknown...)

	outcome := &model.ImportOutcome{
		SuccessCount:  len(items),
		FailedCount:   len(errs),
		Errors:        errs,
		ImportedItems: items,
	}

	im.logger.Info("bulk import completed",
		zap.Int("records", len(records)),
		zap.Int("imported", outcome.SuccessCount),
		zap.Int("failed", outcome.FailedCount),
	)
	if im.recorder != nil {
		im.recorder.ObserveImport(outcome)
	}

	return outcome, nil
}
