package repository

import (
	"context"
	"fmt"

	"smart-pantry-api/internal/config"
)

// Open connects to the store selected by cfg.Type.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		store Store
		err   error
	)
	switch cfg.Type {
	case "postgres", "postgresql":
		var s *SQLStore
		s, err = NewPostgresStore(ctx, cfg.PostgresDSN())
		store = s
	case "mysql":
		var s *SQLStore
		s, err = NewMySQLStore(ctx, cfg.MySQLDSN())
		store = s
	case "mongodb", "mongo":
		var s *MongoStore
		s, err = NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
		store = s
	case "memory":
		store = NewMemoryStore()
	case "sqlite", "":
		var s *SQLStore
		s, err = NewSQLiteStore(ctx, cfg.SQLitePath)
		store = s
	default:
		return nil, fmt.Errorf("unsupported store type %q", cfg.Type)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}
