package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"smart-pantry-api/internal/config"
	"smart-pantry-api/internal/importer"
	"smart-pantry-api/internal/logging"
	"smart-pantry-api/internal/model"
	"smart-pantry-api/internal/repository"
	"smart-pantry-api/pkg/apierror"
	"smart-pantry-api/pkg/uid"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ItemInput is the body of single-item create and update requests.
type ItemInput struct {
	Name           string `json:"name" validate:"required,max=255"`
	Quantity       *int   `json:"quantity" validate:"required,gte=0"`
	CategoryID     string `json:"categoryId" validate:"required,uuid"`
	ExpirationDate string `json:"expirationDate" validate:"omitempty,pantrydate"`
}

// PantryService handles pantry item business logic.
type PantryService struct {
	store    repository.Store
	importer *importer.Importer
	validate *validator.Validate
	cfg      config.ImportConfig
	newID    func() string
	now      func() time.Time
}

// NewPantryService creates a pantry service. Bulk imports go through im.
func NewPantryService(store repository.Store, im *importer.Importer, cfg config.ImportConfig) *PantryService {
	return &PantryService{
		store:    store,
		importer: im,
		validate: newValidator(),
		cfg:      cfg,
		newID:    uid.New,
		now:      time.Now,
	}
}

// ListItems returns every item, oldest first.
func (s *PantryService) ListItems(ctx context.Context) ([]model.PantryItem, error) {
	items, err := s.store.ListItems(ctx, repository.ItemFilter{Order: repository.OrderByCreated})
	if err != nil {
		return nil, s.internal(ctx, "Failed to fetch items", err)
	}
	return items, nil
}

// ExpiringItems returns items expiring within the configured window,
// already-expired ones included, soonest first.
func (s *PantryService) ExpiringItems(ctx context.Context) ([]model.PantryItem, error) {
	cutoff := s.now().UTC().Add(s.cfg.ExpiringWindow)
	items, err := s.store.ListItems(ctx, repository.ItemFilter{
		ExpiringBefore: &cutoff,
		Order:          repository.OrderByExpiration,
	})
	if err != nil {
		return nil, s.internal(ctx, "Failed to fetch expiring items", err)
	}
	return items, nil
}

// CreateItem validates and stores a single item.
func (s *PantryService) CreateItem(ctx context.Context, in ItemInput) (*model.PantryItem, error) {
	expiration, category, err := s.check(ctx, &in)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	item := model.PantryItem{
		ID:             s.newID(),
		Name:           in.Name,
		Quantity:       *in.Quantity,
		CategoryID:     category.ID,
		ExpirationDate: expiration,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreateItem(ctx, item); err != nil {
		return nil, s.internal(ctx, "Failed to create item", err)
	}

	item.Category = category
	logging.FromContext(ctx).Info("item created", zap.String("item_id", item.ID))
	return &item, nil
}

// UpdateItem overwrites an existing item.
func (s *PantryService) UpdateItem(ctx context.Context, id string, in ItemInput) (*model.PantryItem, error) {
	if !uid.IsValid(id) {
		return nil, apierror.NotFound("Item not found")
	}

	existing, err := s.store.GetItem(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apierror.NotFound("Item not found")
	}
	if err != nil {
		return nil, s.internal(ctx, "Failed to update item", err)
	}

	expiration, category, err := s.check(ctx, &in)
	if err != nil {
		return nil, err
	}

	existing.Name = in.Name
	existing.Quantity = *in.Quantity
	existing.CategoryID = category.ID
	existing.Category = category
	existing.ExpirationDate = expiration
	existing.UpdatedAt = s.now().UTC()

	err = s.store.UpdateItem(ctx, *existing)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apierror.NotFound("Item not found")
	}
	if err != nil {
		return nil, s.internal(ctx, "Failed to update item", err)
	}
	return existing, nil
}

// BulkImport runs the import pipeline over records. A batch larger than the
// configured maximum is rejected without touching the store.
func (s *PantryService) BulkImport(ctx context.Context, records []model.RawImportRecord) (*model.ImportOutcome, error) {
	if len(records) > s.cfg.MaxBatchSize {
		return nil, apierror.BadRequest(fmt.Sprintf("Too many items: maximum is %d per import", s.cfg.MaxBatchSize))
	}

	outcome, err := s.importer.Import(ctx, records)
	if err != nil {
		return nil, s.internal(ctx, "Failed to bulk import items", err)
	}
	return outcome, nil
}

// check validates in and loads its category.
func (s *PantryService) check(ctx context.Context, in *ItemInput) (*time.Time, *model.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validate.Struct(in); err != nil {
		return nil, nil, validationError(err)
	}

	expiration, err := model.ParseDate(in.ExpirationDate)
	if err != nil {
		return nil, nil, apierror.ValidationError("Invalid item",
			apierror.FieldError{Field: "expirationDate", Message: err.Error()})
	}

	category, err := s.store.GetCategory(ctx, in.CategoryID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, apierror.ValidationError("Invalid item",
			apierror.FieldError{Field: "categoryId", Message: "category does not exist"})
	}
	if err != nil {
		return nil, nil, s.internal(ctx, "Failed to load category", err)
	}
	return expiration, category, nil
}

func (s *PantryService) internal(ctx context.Context, msg string, err error) *apierror.Error {
	logging.FromContext(ctx).Error(msg, zap.Error(err))
	return apierror.InternalError(msg)
}
