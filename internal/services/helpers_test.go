package services

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"shortlify/internal/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	url := "sqlite://" + filepath.Join(t.TempDir(), "test.db")
	db, err := repository.InitDB(url)
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db, url, ""))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newGormStore(t *testing.T) repository.LinkStore {
	t.Helper()
	return repository.NewGormStore(setupTestDB(t))
}

func newBadgerStore(t *testing.T) repository.LinkStore {
	t.Helper()
	db, err := repository.OpenBadger("", nil)
	require.NoError(t, err)

	store := repository.NewBadgerStore(db)
	t.Cleanup(func() { store.Close() })
	return store
}

// stubGeo answers every lookup with a fixed location.
type stubGeo struct {
	loc GeoLocation
}

func (g stubGeo) Lookup(string) GeoLocation { return g.loc }

func strPtr(s string) *string { return &s }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
