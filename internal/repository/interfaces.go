package repository

import (
	"context"
	"errors"
	"time"

	"smart-pantry-api/internal/model"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a write violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate")
)

// ItemOrder selects the sort order of ListItems.
type ItemOrder int

const (
	// OrderByCreated sorts oldest first.
	OrderByCreated ItemOrder = iota
	// OrderByExpiration sorts soonest expiration first.
	OrderByExpiration
)

// ItemFilter narrows ListItems.
type ItemFilter struct {
	// ExpiringBefore keeps only items with an expiration date at or before this instant.
	ExpiringBefore *time.Time
	Order          ItemOrder
}

// Store defines pantry data access methods.
type Store interface {
	// CreateOrGetCategory inserts cat, or returns the existing category whose name
	// matches case-insensitively. created reports whether a row was inserted.
	CreateOrGetCategory(ctx context.Context, cat model.Category) (model.Category, bool, error)

	// GetCategory returns the category with id, or ErrNotFound.
	GetCategory(ctx context.Context, id string) (*model.Category, error)

	// FindCategoriesByNames returns categories matching any of names case-insensitively.
	FindCategoriesByNames(ctx context.Context, names []string) ([]model.Category, error)

	// ListCategories returns all categories ordered by name.
	ListCategories(ctx context.Context) ([]model.Category, error)

	// CreateItem inserts a single item.
	CreateItem(ctx context.Context, item model.PantryItem) error

	// BulkInsertItems inserts all items or none of them.
	BulkInsertItems(ctx context.Context, items []model.PantryItem) error

	// GetItem returns the item with id and its category, or ErrNotFound.
	GetItem(ctx context.Context, id string) (*model.PantryItem, error)

	// ListItems returns items with their categories.
	ListItems(ctx context.Context, filter ItemFilter) ([]model.PantryItem, error)

	// UpdateItem overwrites the mutable fields of an item, or returns ErrNotFound.
	UpdateItem(ctx context.Context, item model.PantryItem) error

	// DeleteExpiredBefore removes items whose expiration date is before cutoff.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Stats returns statistics about the store.
	Stats(ctx context.Context) (map[string]interface{}, error)

	// Close closes the underlying connection.
	Close() error
}
