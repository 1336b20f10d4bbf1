package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"smart-pantry-api/internal/model"
)

// MemoryStore is an in-process Store for development and tests.
// Data is lost on restart.
type MemoryStore struct {
	mu         sync.RWMutex
	categories map[string]model.Category // by id
	byName     map[string]string         // lower-cased name -> id
	items      map[string]model.PantryItem
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		categories: make(map[string]model.Category),
		byName:     make(map[string]string),
		items:      make(map[string]model.PantryItem),
	}
}

// CreateOrGetCategory stores cat unless a category with the same folded name exists,
// in which case the existing one is returned.
func (s *MemoryStore) CreateOrGetCategory(ctx context.Context, cat model.Category) (model.Category, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := model.FoldName(cat.Name)
	if id, ok := s.byName[key]; ok {
		return s.categories[id], false, nil
	}
	s.categories[cat.ID] = cat
	s.byName[key] = cat.ID
	return cat, true, nil
}

// GetCategory returns a category by id.
func (s *MemoryStore) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

// FindCategoriesByNames returns each matching category once, in the order names first match it.
func (s *MemoryStore) FindCategoriesByNames(ctx context.Context, names []string) ([]model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.Category{}
	seen := make(map[string]struct{})
	for _, n := range names {
		id, ok := s.byName[model.FoldName(n)]
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, s.categories[id])
	}
	return out, nil
}

// ListCategories returns all categories ordered by folded name.
func (s *MemoryStore) ListCategories(ctx context.Context) ([]model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return model.FoldName(out[i].Name) < model.FoldName(out[j].Name)
	})
	return out, nil
}

// CreateItem inserts one item.
func (s *MemoryStore) CreateItem(ctx context.Context, item model.PantryItem) error {
	return s.BulkInsertItems(ctx, []model.PantryItem{item})
}

// BulkInsertItems validates every row before writing any.
func (s *MemoryStore) BulkInsertItems(ctx context.Context, items []model.PantryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, ok := s.items[item.ID]; ok {
			return fmt.Errorf("item %s: %w", item.ID, ErrDuplicate)
		}
		if _, ok := batch[item.ID]; ok {
			return fmt.Errorf("item %s: %w", item.ID, ErrDuplicate)
		}
		if _, ok := s.categories[item.CategoryID]; !ok {
			return fmt.Errorf("item %s references unknown category %s", item.ID, item.CategoryID)
		}
		batch[item.ID] = struct{}{}
	}
	for _, item := range items {
		item.Category = nil
		s.items[item.ID] = item
	}
	return nil
}

// GetItem returns an item with its category attached.
func (s *MemoryStore) GetItem(ctx context.Context, id string) (*model.PantryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	item = s.withCategory(item)
	return &item, nil
}

func (s *MemoryStore) withCategory(item model.PantryItem) model.PantryItem {
	if c, ok := s.categories[item.CategoryID]; ok {
		item.Category = &c
	}
	return item
}

// ListItems returns items matching filter in the requested order.
func (s *MemoryStore) ListItems(ctx context.Context, filter ItemFilter) ([]model.PantryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.PantryItem{}
	for _, item := range s.items {
		if filter.ExpiringBefore != nil {
			if item.ExpirationDate == nil || item.ExpirationDate.After(*filter.ExpiringBefore) {
				continue
			}
		}
		out = append(out, s.withCategory(item))
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if filter.Order == OrderByExpiration && a.ExpirationDate != nil && b.ExpirationDate != nil &&
			!a.ExpirationDate.Equal(*b.ExpirationDate) {
			return a.ExpirationDate.Before(*b.ExpirationDate)
		}
		if filter.Order == OrderByCreated && !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out, nil
}

// UpdateItem replaces a stored item, keeping its creation time.
func (s *MemoryStore) UpdateItem(ctx context.Context, item model.PantryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.items[item.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Name = item.Name
	existing.Quantity = item.Quantity
	existing.CategoryID = item.CategoryID
	existing.ExpirationDate = item.ExpirationDate
	existing.UpdatedAt = item.UpdatedAt
	s.items[item.ID] = existing
	return nil
}

// DeleteExpiredBefore removes items that expired before cutoff.
func (s *MemoryStore) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, item := range s.items {
		if item.ExpirationDate != nil && item.ExpirationDate.Before(cutoff) {
			delete(s.items, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

// Stats reports row counts.
func (s *MemoryStore) Stats(ctx context.Context) (map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"driver":           "memory",
		"total_items":      int64(len(s.items)),
		"total_categories": int64(len(s.categories)),
	}, nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
