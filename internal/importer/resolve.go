package importer

import (
	"context"
	"fmt"

	"smart-pantry-api/internal/model"
)

// resolved is a candidate bound to an existing category.
type resolved struct {
	candidate
	category model.Category
}

// distinctCategoryNames returns each distinct categoryName once, in first-seen order.
// Deduplication is case-sensitive; the store matches case-insensitively.
func distinctCategoryNames(candidates []candidate) []string {
	seen := make(map[string]struct{}, len(candidates))
	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c.categoryName]; ok {
			continue
		}
		seen[c.categoryName] = struct{}{}
		names = append(names, c.categoryName)
	}
	return names
}

// resolve binds candidates to existing categories with a single store lookup.
// Categories are never created here.
func resolve(ctx context.Context, finder CategoryFinder, candidates []candidate) ([]resolved, []model.ImportError, error) {
	if len(candidates) == 0 {
		return nil, nil, nil
	}

	categories, err := finder.FindCategoriesByNames(ctx, distinctCategoryNames(candidates))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up categories: %w", err)
	}

	byName := make(map[string]model.Category, len(categories))
	for _, cat := range categories {
		key := model.FoldName(cat.Name)
		if _, ok := byName[key]; !ok {
			byName[key] = cat
		}
	}

	out := make([]resolved, 0, len(candidates))
	var rejected []model.ImportError
	for _, c := range candidates {
		cat, ok := byName[model.FoldName(c.categoryName)]
		if !ok {
			rejected = append(rejected, model.ImportError{
				Index:  c.index,
				Item:   c.record,
				Kind:   model.UnknownCategory,
				Reason: fmt.Sprintf("Category %q does not exist", c.categoryName),
			})
			continue
		}
		out = append(out, resolved{candidate: c, category: cat})
	}

	return out, rejected, nil
}
