package repository

import (
	"context"
	"errors"

	"shortlify/internal/models"
)

var (
	// ErrNotFound is returned when no record matches the lookup key.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned by Insert when the short id or alias is taken.
	ErrDuplicate = errors.New("duplicate key")
	// ErrStorage matches every *StorageError.
	ErrStorage = errors.New("storage error")
)

// StorageError wraps a failure of the underlying database or driver.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return "storage: " + e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// LinkStore is the durable keyed storage for link records.
// All implementations must be safe for concurrent use.
type LinkStore interface {
	// FindByShortID returns the record with its events in insertion order.
	FindByShortID(ctx context.Context, shortID string) (*models.Link, error)
	FindByAlias(ctx context.Context, alias string) (*models.Link, error)

	// FindRoute returns the record without reading any of its events.
	FindRoute(ctx context.Context, shortID string) (*models.Link, error)

	// Exists reports whether key is in use as a short id or a custom alias.
	Exists(ctx context.Context, key string) (bool, error)

	// Insert persists a new record. Returns ErrDuplicate if the short id or
	// the custom alias already exists.
	Insert(ctx context.Context, link *models.Link) error

	// RecordClick atomically increments the click count by one and appends
	// the event. Returns ErrNotFound if the record does not exist.
	RecordClick(ctx context.Context, shortID string, event models.AnalyticsEvent) error

	// SetActive is idempotent.
	SetActive(ctx context.Context, shortID string, active bool) error
	Delete(ctx context.Context, shortID string) error
	FindAllByOwner(ctx context.Context, ownerRef string) ([]models.Link, error)

	Close() error
}
