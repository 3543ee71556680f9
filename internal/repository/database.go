package repository

import (
	"fmt"
	"log"
	"strings"

	"shortlify/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func InitDB(databaseURL string) (*gorm.DB, error) {
	var dialer gorm.Dialector
	isSQLite := false
	if strings.HasPrefix(databaseURL, "postgres") {
		dialer = postgres.Open(databaseURL)
	} else if strings.HasPrefix(databaseURL, "sqlite") {
		dialer = sqlite.Open(strings.TrimPrefix(databaseURL, "sqlite://"))
		isSQLite = true
	} else {
		return nil, fmt.Errorf("unsupported database driver: %s", databaseURL)
	}

	db, err := gorm.Open(dialer, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if isSQLite {
		// SQLite allows a single writer; serialise on one connection instead
		// of surfacing "database is locked" to callers.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access sql handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

// Migrate brings the schema up to date. Postgres uses the versioned SQL
// migrations, SQLite is auto-migrated from the models.
func Migrate(db *gorm.DB, databaseURL string, sourcePath string) error {
	if strings.HasPrefix(databaseURL, "postgres") {
		return RunMigrations(databaseURL, sourcePath)
	}
	if err := db.AutoMigrate(&models.Link{}, &models.AnalyticsEvent{}, &models.User{}, &models.AuditLog{}); err != nil {
		return fmt.Errorf("failed to auto-migrate: %w", err)
	}
	return nil
}

func RunMigrations(databaseURL string, sourcePath string) error {
	if sourcePath == "" {
		sourcePath = "file://migration"
	}
	m, err := migrate.New(
		sourcePath,
		databaseURL,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run up migrations: %w", err)
	}

	log.Println("Database migrations ran successfully")
	return nil
}
