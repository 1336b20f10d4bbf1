package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"smart-pantry-api/internal/model"
)

// insertChunkSize bounds rows per multi-row INSERT.
const insertChunkSize = 100

// dialect captures what differs between the SQL backends.
type dialect struct {
	name string
	// numbered placeholders ($1, $2...) instead of "?"
	numbered          bool
	schema            []string
	isUniqueViolation func(error) bool
	// sizeQuery returns the database size in bytes; empty to skip.
	sizeQuery string
}

// SQLStore implements Store on database/sql. The dialect supplies driver specifics.
type SQLStore struct {
	db *sql.DB
	d  dialect
}

// newSQLStore wraps an open database. Schema creation is left to the caller.
func newSQLStore(db *sql.DB, d dialect) *SQLStore {
	return &SQLStore{db: db, d: d}
}

// migrate creates tables and indexes if they do not exist.
func (s *SQLStore) migrate(ctx context.Context) error {
	for _, stmt := range s.d.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// rebind rewrites "?" placeholders for dialects that number them.
func (s *SQLStore) rebind(query string) string {
	if !s.d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// CreateOrGetCategory inserts cat; on a uniqueness conflict it returns the existing row.
func (s *SQLStore) CreateOrGetCategory(ctx context.Context, cat model.Category) (model.Category, bool, error) {
	_, err := s.db.ExecContext(ctx,
		s.rebind(`INSERT INTO categories (id, name, name_lower, created_at) VALUES (?, ?, ?, ?)`),
		cat.ID, cat.Name, model.FoldName(cat.Name), time.Now().UTC())
	if err == nil {
		return cat, true, nil
	}
	if !s.d.isUniqueViolation(err) {
		return model.Category{}, false, fmt.Errorf("failed to create category: %w", err)
	}

	existing, err := s.FindCategoriesByNames(ctx, []string{cat.Name})
	if err != nil {
		return model.Category{}, false, err
	}
	if len(existing) == 0 {
		return model.Category{}, false, fmt.Errorf("category %q conflicted but was not found: %w", cat.Name, ErrDuplicate)
	}
	return existing[0], false, nil
}

// GetCategory returns a category by id.
func (s *SQLStore) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	var c model.Category
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT id, name FROM categories WHERE id = ?`), id).Scan(&c.ID, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &c, nil
}

// FindCategoriesByNames matches names case-insensitively in one query.
// Names are folded with model.FoldName and compared against name_lower.
func (s *SQLStore) FindCategoriesByNames(ctx context.Context, names []string) ([]model.Category, error) {
	if len(names) == 0 {
		return []model.Category{}, nil
	}

	args := make([]interface{}, len(names))
	for i, n := range names {
		args[i] = model.FoldName(n)
	}
	query := s.rebind(`SELECT id, name FROM categories WHERE name_lower IN (` + placeholders(len(names)) + `)`)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find categories: %w", err)
	}
	defer rows.Close()

	return scanCategories(rows)
}

// ListCategories returns all categories ordered by name.
func (s *SQLStore) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name_lower ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	return scanCategories(rows)
}

func scanCategories(rows *sql.Rows) ([]model.Category, error) {
	out := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateItem inserts one item.
func (s *SQLStore) CreateItem(ctx context.Context, item model.PantryItem) error {
	_, err := s.db.ExecContext(ctx,
		s.rebind(`INSERT INTO pantry_items (id, name, quantity, category_id, expiration_date, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		itemArgs(item)...)
	if err != nil {
		if s.d.isUniqueViolation(err) {
			return fmt.Errorf("failed to create item %s: %w", item.ID, ErrDuplicate)
		}
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

// BulkInsertItems inserts items in one transaction using multi-row INSERTs.
func (s *SQLStore) BulkInsertItems(ctx context.Context, items []model.PantryItem) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	const row = "(?, ?, ?, ?, ?, ?, ?)"
	for start := 0; start < len(items); start += insertChunkSize {
		end := start + insertChunkSize
		if end > len(items) {
			end = len(items)
		}
		chunk := items[start:end]

		values := make([]string, len(chunk))
		args := make([]interface{}, 0, len(chunk)*7)
		for i, item := range chunk {
			values[i] = row
			args = append(args, itemArgs(item)...)
		}

		query := s.rebind(`INSERT INTO pantry_items (id, name, quantity, category_id, expiration_date, created_at, updated_at) VALUES ` +
			strings.Join(values, ", "))
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if s.d.isUniqueViolation(err) {
				err = fmt.Errorf("%w: %v", ErrDuplicate, err)
			}
			return fmt.Errorf("failed to insert items %d-%d: %w", start, end-1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func itemArgs(item model.PantryItem) []interface{} {
	return []interface{}{
		item.ID,
		item.Name,
		item.Quantity,
		item.CategoryID,
		nullTime(item.ExpirationDate),
		item.CreatedAt.UTC(),
		item.UpdatedAt.UTC(),
	}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

const selectItems = `
	SELECT i.id, i.name, i.quantity, i.category_id, i.expiration_date, i.created_at, i.updated_at, c.id, c.name
	FROM pantry_items i
	LEFT JOIN categories c ON c.id = i.category_id`

// GetItem returns one item with its category.
func (s *SQLStore) GetItem(ctx context.Context, id string) (*model.PantryItem, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(selectItems+` WHERE i.id = ?`), id)
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return &items[0], nil
}

// ListItems returns items with their categories.
func (s *SQLStore) ListItems(ctx context.Context, filter ItemFilter) ([]model.PantryItem, error) {
	query := selectItems
	var args []interface{}
	if filter.ExpiringBefore != nil {
		query += ` WHERE i.expiration_date IS NOT NULL AND i.expiration_date <= ?`
		args = append(args, filter.ExpiringBefore.UTC())
	}
	switch filter.Order {
	case OrderByExpiration:
		query += ` ORDER BY i.expiration_date ASC, i.id ASC`
	default:
		query += ` ORDER BY i.created_at ASC, i.id ASC`
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

func scanItems(rows *sql.Rows) ([]model.PantryItem, error) {
	out := []model.PantryItem{}
	for rows.Next() {
		var (
			item       model.PantryItem
			expiration sql.NullTime
			catID      sql.NullString
			catName    sql.NullString
		)
		if err := rows.Scan(&item.ID, &item.Name, &item.Quantity, &item.CategoryID,
			&expiration, &item.CreatedAt, &item.UpdatedAt, &catID, &catName); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		if expiration.Valid {
			t := expiration.Time.UTC()
			item.ExpirationDate = &t
		}
		if catID.Valid {
			item.Category = &model.Category{ID: catID.String, Name: catName.String}
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// UpdateItem overwrites name, quantity, category and expiration date.
func (s *SQLStore) UpdateItem(ctx context.Context, item model.PantryItem) error {
	res, err := s.db.ExecContext(ctx,
		s.rebind(`UPDATE pantry_items SET name = ?, quantity = ?, category_id = ?, expiration_date = ?, updated_at = ? WHERE id = ?`),
		item.Name, item.Quantity, item.CategoryID, nullTime(item.ExpirationDate), item.UpdatedAt.UTC(), item.ID)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExpiredBefore removes items that expired before cutoff.
func (s *SQLStore) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		s.rebind(`DELETE FROM pantry_items WHERE expiration_date IS NOT NULL AND expiration_date < ?`), cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired items: %w", err)
	}
	return res.RowsAffected()
}

// Ping verifies the connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Stats returns row counts, size and pool statistics.
func (s *SQLStore) Stats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})
	stats["driver"] = s.d.name

	var items, categories int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pantry_items`).Scan(&items); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&categories); err != nil {
		return nil, err
	}
	stats["total_items"] = items
	stats["total_categories"] = categories

	if s.d.sizeQuery != "" {
		var size int64
		if err := s.db.QueryRowContext(ctx, s.d.sizeQuery).Scan(&size); err == nil {
			stats["db_size_bytes"] = size
		}
	}

	dbStats := s.db.Stats()
	stats["connections"] = map[string]interface{}{
		"open":     dbStats.OpenConnections,
		"in_use":   dbStats.InUse,
		"idle":     dbStats.Idle,
		"max_open": dbStats.MaxOpenConnections,
	}

	return stats, nil
}

// Close closes the database connection pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Ensure SQLStore implements Store
var _ Store = (*SQLStore)(nil)
