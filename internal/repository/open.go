package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"shortlify/internal/config"

	"gorm.io/gorm"
)

const badgerMemory = "memory"

// OpenStore selects the link backend from the DATABASE_URL scheme. sqlDB is
// the already-migrated gorm handle and is used when the URL is SQL.
func OpenStore(ctx context.Context, cfg config.Config, sqlDB *gorm.DB, logger *slog.Logger) (LinkStore, error) {
	switch {
	case cfg.IsSQL():
		if sqlDB == nil {
			return nil, fmt.Errorf("sql link store requires a database handle")
		}
		return NewGormStore(sqlDB), nil

	case strings.HasPrefix(cfg.DatabaseURL, "mongodb"):
		db, err := InitMongo(ctx, cfg.DatabaseURL, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		store, err := NewMongoStore(ctx, db)
		if err != nil {
			_ = db.Client().Disconnect(context.Background())
			return nil, err
		}
		return store, nil

	case strings.HasPrefix(cfg.DatabaseURL, "badger://"):
		path := strings.TrimPrefix(cfg.DatabaseURL, "badger://")
		if path == badgerMemory {
			path = ""
		}
		db, err := OpenBadger(path, logger)
		if err != nil {
			return nil, err
		}
		return NewBadgerStore(db), nil
	}

	return nil, fmt.Errorf("unsupported database driver: %s", cfg.DatabaseURL)
}
