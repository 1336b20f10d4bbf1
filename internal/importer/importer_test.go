package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"smart-pantry-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore records every call made by the importer.
type fakeStore struct {
	categories []model.Category

	findCalls   [][]string
	insertCalls [][]model.PantryItem
	createCalls int

	findErr   error
	insertErr error
}

func (f *fakeStore) FindCategoriesByNames(ctx context.Context, names []string) ([]model.Category, error) {
	f.findCalls = append(f.findCalls, names)
	if f.findErr != nil {
		return nil, f.findErr
	}
	var out []model.Category
	for _, c := range f.categories {
		for _, n := range names {
			if strings.EqualFold(c.Name, n) {
				out = append(out, c)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeStore) BulkInsertItems(ctx context.Context, items []model.PantryItem) error {
	f.insertCalls = append(f.insertCalls, items)
	return f.insertErr
}

// CreateOrGetCategory is never reachable through the importer; the counter proves it.
func (f *fakeStore) CreateOrGetCategory(ctx context.Context, c model.Category) (model.Category, bool, error) {
	f.createCalls++
	return c, true, nil
}

type countingRecorder struct{ outcomes []*model.ImportOutcome }

func (r *countingRecorder) ObserveImport(o *model.ImportOutcome) { r.outcomes = append(r.outcomes, o) }

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%03d", n)
	}
}

func newTestImporter(store *fakeStore) *Importer {
	fixed := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	return New(store, WithIDSource(sequentialIDs()), WithClock(func() time.Time { return fixed }))
}

func TestImport_MixedBatch(t *testing.T) {
	store := &fakeStore{categories: []model.Category{{ID: "cat-grains", Name: "Grains"}}}
	im := newTestImporter(store)

	records := []model.RawImportRecord{
		{"name": "Bulk Rice", "quantity": 50, "categoryName": "Grains", "expirationDate": "2026-02-01T00:00:00Z"},
		{"name": "Mystery Item", "quantity": 10, "categoryName": "Category_0193abcd"},
		{"quantity": 5, "categoryName": "Grains"},
		{"name": "Bad Quantity Item", "quantity": "loads", "categoryName": "Grains"},
	}

	outcome, err := im.Import(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.SuccessCount)
	assert.Equal(t, 3, outcome.FailedCount)
	assert.Equal(t, len(records), outcome.SuccessCount+outcome.FailedCount)

	require.Len(t, outcome.ImportedItems, 1)
	item := outcome.ImportedItems[0]
	assert.Equal(t, "id-001", item.ID)
	assert.Equal(t, "Bulk Rice", item.Name)
	assert.Equal(t, 50, item.Quantity)
	assert.Equal(t, "cat-grains", item.CategoryID)
	require.NotNil(t, item.Category)
	assert.Equal(t, "Grains", item.Category.Name)

	// Validation rejections come first, then unknown categories.
	require.Len(t, outcome.Errors, 3)
	assert.Equal(t, model.MissingField, outcome.Errors[0].Kind)
	assert.Equal(t, 2, outcome.Errors[0].Index)
	assert.Equal(t, model.InvalidQuantity, outcome.Errors[1].Kind)
	assert.Equal(t, 3, outcome.Errors[1].Index)
	assert.Equal(t, model.UnknownCategory, outcome.Errors[2].Kind)
	assert.Equal(t, 1, outcome.Errors[2].Index)
	assert.Contains(t, outcome.Errors[2].Reason, "Category_0193abcd")

	assert.Len(t, store.findCalls, 1)
	assert.Len(t, store.insertCalls, 1)
	assert.Zero(t, store.createCalls)
}

func TestImport_EmptyBatch(t *testing.T) {
	store := &fakeStore{}
	outcome, err := newTestImporter(store).Import(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 0, outcome.SuccessCount)
	assert.Equal(t, 0, outcome.FailedCount)
	assert.NotNil(t, outcome.Errors)
	assert.Empty(t, outcome.Errors)
	assert.NotNil(t, outcome.ImportedItems)
	assert.Empty(t, outcome.ImportedItems)
	assert.Empty(t, store.findCalls)
	assert.Empty(t, store.insertCalls)
}

func TestImport_AllInvalidSkipsStore(t *testing.T) {
	store := &fakeStore{}
	outcome, err := newTestImporter(store).Import(context.Background(), []model.RawImportRecord{
		{"name": "x"},
		{"name": "y", "quantity": "nope", "categoryName": "Dairy"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, outcome.FailedCount)
	assert.Empty(t, store.findCalls)
	assert.Empty(t, store.insertCalls)
}

func TestImport_UnresolvedOnlySkipsInsert(t *testing.T) {
	store := &fakeStore{}
	outcome, err := newTestImporter(store).Import(context.Background(), []model.RawImportRecord{
		{"name": "Milk", "quantity": 1, "categoryName": "Dairy"},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, outcome.SuccessCount)
	assert.Equal(t, 1, outcome.FailedCount)
	assert.Len(t, store.findCalls, 1)
	assert.Empty(t, store.insertCalls)
	assert.Zero(t, store.createCalls)
}

func TestImport_CaseInsensitiveResolution(t *testing.T) {
	store := &fakeStore{categories: []model.Category{{ID: "cat-dairy", Name: "Dairy"}}}
	outcome, err := newTestImporter(store).Import(context.Background(), []model.RawImportRecord{
		{"name": "Milk", "quantity": 2, "categoryName": "dairy"},
		{"name": "Cheese", "quantity": 1, "categoryName": "DAIRY"},
	})
	require.NoError(t, err)

	require.Equal(t, 2, outcome.SuccessCount)
	for _, item := range outcome.ImportedItems {
		assert.Equal(t, "cat-dairy", item.CategoryID)
	}
	// Distinct spellings are each queried, but in one call.
	require.Len(t, store.findCalls, 1)
	assert.Equal(t, []string{"dairy", "DAIRY"}, store.findCalls[0])
}

func TestImport_SingleLookupForRepeatedNames(t *testing.T) {
	store := &fakeStore{categories: []model.Category{
		{ID: "c1", Name: "Fruits"},
		{ID: "c2", Name: "Vegetables"},
	}}

	var records []model.RawImportRecord
	for i := 0; i < 200; i++ {
		cat := "Fruits"
		if i%2 == 1 {
			cat = "Vegetables"
		}
		records = append(records, model.RawImportRecord{"name": fmt.Sprintf("item %d", i), "quantity": i + 1, "categoryName": cat})
	}

	outcome, err := newTestImporter(store).Import(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, 200, outcome.SuccessCount)
	require.Len(t, store.findCalls, 1)
	assert.Equal(t, []string{"Fruits", "Vegetables"}, store.findCalls[0])
	require.Len(t, store.insertCalls, 1)
	assert.Len(t, store.insertCalls[0], 200)
}

func TestImport_ItemsFollowValidatedOrder(t *testing.T) {
	store := &fakeStore{categories: []model.Category{{ID: "c1", Name: "Pantry"}}}
	outcome, err := newTestImporter(store).Import(context.Background(), []model.RawImportRecord{
		{"name": "first", "quantity": 1, "categoryName": "Pantry"},
		{"name": "skip", "quantity": 1, "categoryName": "Nope"},
		{"name": "second", "quantity": 1, "categoryName": "Pantry"},
	})
	require.NoError(t, err)

	require.Len(t, outcome.ImportedItems, 2)
	assert.Equal(t, "first", outcome.ImportedItems[0].Name)
	assert.Equal(t, "second", outcome.ImportedItems[1].Name)
	assert.Equal(t, "id-001", outcome.ImportedItems[0].ID)
	assert.Equal(t, "id-002", outcome.ImportedItems[1].ID)
}

func TestImport_LookupFailureAborts(t *testing.T) {
	store := &fakeStore{findErr: errors.New("connection refused")}
	outcome, err := newTestImporter(store).Import(context.Background(), []model.RawImportRecord{
		{"name": "Milk", "quantity": 1, "categoryName": "Dairy"},
	})
	assert.Error(t, err)
	assert.Nil(t, outcome)
	assert.Empty(t, store.insertCalls)
}

func TestImport_InsertFailureAborts(t *testing.T) {
	store := &fakeStore{
		categories: []model.Category{{ID: "c1", Name: "Dairy"}},
		insertErr:  errors.New("duplicate key"),
	}
	rec := &countingRecorder{}
	im := New(store, WithRecorder(rec))

	outcome, err := im.Import(context.Background(), []model.RawImportRecord{
		{"name": "Milk", "quantity": 1, "categoryName": "Dairy"},
	})
	assert.ErrorContains(t, err, "duplicate key")
	assert.Nil(t, outcome)
	assert.Empty(t, rec.outcomes)
}

func TestImport_NotifiesRecorder(t *testing.T) {
	store := &fakeStore{categories: []model.Category{{ID: "c1", Name: "Dairy"}}}
	rec := &countingRecorder{}
	im := New(store, WithRecorder(rec))

	_, err := im.Import(context.Background(), []model.RawImportRecord{
		{"name": "Milk", "quantity": 1, "categoryName": "Dairy"},
		{"name": "Eggs"},
	})
	require.NoError(t, err)
	require.Len(t, rec.outcomes, 1)
	assert.Equal(t, 1, rec.outcomes[0].SuccessCount)
	assert.Equal(t, 1, rec.outcomes[0].FailedCount)
}
