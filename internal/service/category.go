package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"smart-pantry-api/internal/cache"
	"smart-pantry-api/internal/logging"
	"smart-pantry-api/internal/model"
	"smart-pantry-api/internal/repository"
	"smart-pantry-api/pkg/apierror"
	"smart-pantry-api/pkg/uid"

	"go.uber.org/zap"
)

const categoryListKey = "categories:all"

// CategoryCache serves the category list through a read-through cache.
// Cache faults fall through to the store.
type CategoryCache struct {
	store repository.Store
	cache cache.Cache
	ttl   time.Duration
}

// NewCategoryCache creates a category cache. A nil c disables caching.
func NewCategoryCache(store repository.Store, c cache.Cache, ttl time.Duration) *CategoryCache {
	return &CategoryCache{store: store, cache: c, ttl: ttl}
}

// List returns all categories ordered by name.
func (cc *CategoryCache) List(ctx context.Context) ([]model.Category, error) {
	if cc.cache == nil {
		return cc.store.ListCategories(ctx)
	}

	data, err := cc.cache.Get(ctx, categoryListKey)
	if err == nil {
		var cats []model.Category
		if jsonErr := json.Unmarshal(data, &cats); jsonErr == nil {
			return cats, nil
		}
		logging.FromContext(ctx).Warn("discarding corrupt category cache entry")
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		logging.FromContext(ctx).Warn("category cache unavailable", zap.Error(err))
	}

	cats, err := cc.store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(cats); err == nil {
		if err := cc.cache.Set(ctx, categoryListKey, data, cc.ttl); err != nil {
			logging.FromContext(ctx).Warn("failed to cache categories", zap.Error(err))
		}
	}
	return cats, nil
}

// Invalidate drops the cached list.
func (cc *CategoryCache) Invalidate(ctx context.Context) {
	if cc.cache == nil {
		return
	}
	if err := cc.cache.Delete(ctx, categoryListKey); err != nil {
		logging.FromContext(ctx).Warn("failed to invalidate category cache", zap.Error(err))
	}
}

// CategoryInput is the body of a create-category request.
type CategoryInput struct {
	Name string `json:"name"`
}

// CategoryService handles category business logic.
type CategoryService struct {
	store repository.Store
	cache *CategoryCache
	newID func() string
}

// NewCategoryService creates a category service.
func NewCategoryService(store repository.Store, cc *CategoryCache) *CategoryService {
	return &CategoryService{store: store, cache: cc, newID: uid.New}
}

// List returns all categories.
func (s *CategoryService) List(ctx context.Context) ([]model.Category, error) {
	cats, err := s.cache.List(ctx)
	if err != nil {
		logging.FromContext(ctx).Error("failed to list categories", zap.Error(err))
		return nil, apierror.InternalError("Failed to fetch categories")
	}
	return cats, nil
}

// Create inserts a category, or returns the existing one with the same name.
// created is false when the name already existed.
func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*model.Category, bool, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, false, apierror.ValidationError("Category name is required",
			apierror.FieldError{Field: "name", Message: "is required"})
	}
	if len(name) > 255 {
		return nil, false, apierror.ValidationError("Invalid category",
			apierror.FieldError{Field: "name", Message: "must be at most 255 characters"})
	}

	cat, created, err := s.store.CreateOrGetCategory(ctx, model.Category{ID: s.newID(), Name: name})
	if err != nil {
		logging.FromContext(ctx).Error("failed to create category", zap.Error(err))
		return nil, false, apierror.InternalError("Failed to create category")
	}

	if created {
		s.cache.Invalidate(ctx)
		logging.FromContext(ctx).Info("category created", zap.String("category_id", cat.ID), zap.String("name", cat.Name))
	}
	return &cat, created, nil
}
