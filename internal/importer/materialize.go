package importer

import (
	"context"
	"fmt"

	"smart-pantry-api/internal/model"
)

// materialize assigns ids and persists the whole resolved subset in one bulk insert.
// An empty subset issues no store call.
func (im *Importer) materialize(ctx context.Context, rows []resolved) ([]model.PantryItem, error) {
	items := make([]model.PantryItem, 0, len(rows))
	if len(rows) == 0 {
		return items, nil
	}

	now := im.now().UTC()
	for _, r := range rows {
		cat := r.category
		items = append(items, model.PantryItem{
			ID:             im.newID(),
			Name:           r.name,
			Quantity:       r.quantity,
			CategoryID:     cat.ID,
			Category:       &cat,
			ExpirationDate: r.expirationDate,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}

	if err := im.store.BulkInsertItems(ctx, items); err != nil {
		return nil, fmt.Errorf("failed to insert %d items: %w", len(items), err)
	}
	return items, nil
}
