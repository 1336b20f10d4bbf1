package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"smart-pantry-api/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockStore(t *testing.T, d dialect) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return newSQLStore(db, d), mock
}

func testItems(n int) []model.PantryItem {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	items := make([]model.PantryItem, n)
	for i := range items {
		items[i] = model.PantryItem{
			ID:         fmt.Sprintf("item-%d", i),
			Name:       fmt.Sprintf("Item %d", i),
			Quantity:   i,
			CategoryID: "cat-1",
			CreatedAt:  now,
			UpdatedAt:  now,
		}
	}
	return items
}

func TestRebind(t *testing.T) {
	pg := newSQLStore(nil, postgresDialect)
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b IN ($2, $3)", pg.rebind("SELECT * FROM t WHERE a = ? AND b IN (?, ?)"))

	lite := newSQLStore(nil, sqliteDialect)
	assert.Equal(t, "a = ?", lite.rebind("a = ?"))
}

func TestFindCategoriesByNames_SingleLowercasedQuery(t *testing.T) {
	store, mock := setupMockStore(t, postgresDialect)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name FROM categories WHERE name_lower IN ($1, $2)`)).
		WithArgs("dairy", "grains").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("c1", "Dairy").AddRow("c2", "Grains"))

	cats, err := store.FindCategoriesByNames(context.Background(), []string{"DAIRY", "Grains"})
	require.NoError(t, err)
	assert.Equal(t, []model.Category{{ID: "c1", Name: "Dairy"}, {ID: "c2", Name: "Grains"}}, cats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindCategoriesByNames_EmptyIssuesNoQuery(t *testing.T) {
	store, mock := setupMockStore(t, sqliteDialect)

	cats, err := store.FindCategoriesByNames(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, cats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkInsertItems_ChunksInOneTransaction(t *testing.T) {
	store, mock := setupMockStore(t, sqliteDialect)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO pantry_items`)).WillReturnResult(sqlmock.NewResult(0, 100))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO pantry_items`)).WillReturnResult(sqlmock.NewResult(0, 50))
	mock.ExpectCommit()

	err := store.BulkInsertItems(context.Background(), testItems(150))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkInsertItems_RollsBackOnFailure(t *testing.T) {
	store, mock := setupMockStore(t, mysqlDialect)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO pantry_items`)).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	err := store.BulkInsertItems(context.Background(), testItems(3))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkInsertItems_EmptyIsNoop(t *testing.T) {
	store, mock := setupMockStore(t, sqliteDialect)
	require.NoError(t, store.BulkInsertItems(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrGetCategory_Created(t *testing.T) {
	store, mock := setupMockStore(t, postgresDialect)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO categories (id, name, name_lower, created_at) VALUES ($1, $2, $3, $4)`)).
		WithArgs("c-new", "Spices", "spices", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	cat, created, err := store.CreateOrGetCategory(context.Background(), model.Category{ID: "c-new", Name: "Spices"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "c-new", cat.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrGetCategory_ConflictReturnsExisting(t *testing.T) {
	store, mock := setupMockStore(t, postgresDialect)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO categories`)).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name FROM categories WHERE name_lower IN ($1)`)).
		WithArgs("spices").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("c-old", "Spices"))

	cat, created, err := store.CreateOrGetCategory(context.Background(), model.Category{ID: "c-new", Name: "spices"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, model.Category{ID: "c-old", Name: "Spices"}, cat)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrGetCategory_OtherErrorPropagates(t *testing.T) {
	store, mock := setupMockStore(t, postgresDialect)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO categories`)).WillReturnError(errors.New("connection reset"))

	_, _, err := store.CreateOrGetCategory(context.Background(), model.Category{ID: "c", Name: "x"})
	assert.ErrorContains(t, err, "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateItem_NotFound(t *testing.T) {
	store, mock := setupMockStore(t, sqliteDialect)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE pantry_items SET`)).WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.UpdateItem(context.Background(), testItems(1)[0])
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCategory_NotFound(t *testing.T) {
	store, mock := setupMockStore(t, sqliteDialect)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name FROM categories WHERE id = ?`)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	_, err := store.GetCategory(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListItems_ExpiringFilter(t *testing.T) {
	store, mock := setupMockStore(t, postgresDialect)
	cutoff := time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC)
	exp := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`WHERE i.expiration_date IS NOT NULL AND i.expiration_date <= \$1 ORDER BY i.expiration_date ASC`).
		WithArgs(cutoff).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "quantity", "category_id", "expiration_date", "created_at", "updated_at", "cid", "cname"}).
			AddRow("i1", "Milk", 2, "c1", exp, now, now, "c1", "Dairy"))

	items, err := store.ListItems(context.Background(), ItemFilter{ExpiringBefore: &cutoff, Order: OrderByExpiration})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Category)
	assert.Equal(t, "Dairy", items[0].Category.Name)
	require.NotNil(t, items[0].ExpirationDate)
	assert.True(t, exp.Equal(*items[0].ExpirationDate))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUniqueViolationDetectors(t *testing.T) {
	assert.True(t, postgresUniqueViolation(fmt.Errorf("wrapped: %w", &pq.Error{Code: "23505"})))
	assert.False(t, postgresUniqueViolation(&pq.Error{Code: "23503"}))
	assert.True(t, mysqlUniqueViolation(&mysql.MySQLError{Number: 1062}))
	assert.False(t, mysqlUniqueViolation(errors.New("other")))
	assert.False(t, sqliteUniqueViolation(errors.New("UNIQUE but not a sqlite error")))
}
