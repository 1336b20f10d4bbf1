package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// name_lower is compared byte-wise so the table's accent-insensitive collation
// cannot merge names the application treats as distinct.
var mysqlDialect = dialect{
	name: "mysql",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS categories (
			id CHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			name_lower VARCHAR(255) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL,
			created_at DATETIME(6) NOT NULL,
			UNIQUE KEY uq_categories_name_lower (name_lower)
		) CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci`,
		`CREATE TABLE IF NOT EXISTS pantry_items (
			id CHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			quantity INT UNSIGNED NOT NULL,
			category_id CHAR(36) NOT NULL,
			expiration_date DATETIME(6) NULL,
			created_at DATETIME(6) NOT NULL,
			updated_at DATETIME(6) NOT NULL,
			KEY idx_items_expiration (expiration_date),
			KEY idx_items_created (created_at),
			CONSTRAINT fk_items_category FOREIGN KEY (category_id) REFERENCES categories(id)
		) CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci`,
	},
	isUniqueViolation: mysqlUniqueViolation,
	sizeQuery: `SELECT COALESCE(SUM(data_length + index_length), 0) FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_name IN ('pantry_items', 'categories')`,
}

func mysqlUniqueViolation(err error) bool {
	var e *mysql.MySQLError
	return errors.As(err, &e) && e.Number == 1062
}

// NewMySQLStore connects to MySQL. The DSN must set parseTime=true.
func NewMySQLStore(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	s := newSQLStore(db, mysqlDialect)
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	zap.L().Info("mysql store initialized")
	return s, nil
}
