package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"shortlify/internal/models"

	"github.com/dgraph-io/badger/v4"
)

// maxTxnRetries bounds how often a conflicting optimistic transaction is
// replayed before the write is reported as a storage failure.
const maxTxnRetries = 128

type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// OpenBadger opens an embedded database at path, or an in-memory one when
// path is empty.
func OpenBadger(path string, logger *slog.Logger) (*badger.DB, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", path, err)
		}
		opts = badger.DefaultOptions(path).WithSyncWrites(true)
	}
	opts = opts.WithNumVersionsToKeep(1)

	if logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return db, nil
}

// BadgerStore keeps each link as a JSON document under link:<id>. Events
// live under their own keys so routing reads never decode them, and
// secondary keys serve the alias and owner lookups.
type BadgerStore struct {
	db *badger.DB
}

func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

func linkKey(shortID string) []byte { return []byte("link:" + shortID) }

func aliasKey(alias string) []byte { return []byte("alias:" + alias) }

func ownerPrefix(ownerRef string) []byte { return []byte("owner\x00" + ownerRef + "\x00") }

func ownerKey(ownerRef, shortID string) []byte {
	return append(ownerPrefix(ownerRef), shortID...)
}

func eventPrefix(shortID string) []byte { return []byte("event\x00" + shortID + "\x00") }

// Sequence numbers are zero-padded so key order is insertion order.
func eventKey(shortID string, seq int64) []byte {
	return append(eventPrefix(shortID), fmt.Sprintf("%020d", seq)...)
}

// getLink reads the link document alone; Events is left nil.
func getLink(txn *badger.Txn, shortID string) (*models.Link, error) {
	item, err := txn.Get(linkKey(shortID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var link models.Link
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &link)
	}); err != nil {
		return nil, err
	}
	link.Events = nil
	return &link, nil
}

func getLinkWithEvents(txn *badger.Txn, shortID string) (*models.Link, error) {
	link, err := getLink(txn, shortID)
	if err != nil {
		return nil, err
	}
	link.Events, err = loadEvents(txn, shortID)
	if err != nil {
		return nil, err
	}
	return link, nil
}

func loadEvents(txn *badger.Txn, shortID string) ([]models.AnalyticsEvent, error) {
	events := make([]models.AnalyticsEvent, 0)
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	prefix := eventPrefix(shortID)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		var ev models.AnalyticsEvent
		if err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &ev)
		}); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func putLink(txn *badger.Txn, link *models.Link) error {
	doc := *link
	doc.Events = nil
	data, err := json.Marshal(&doc)
	if err != nil {
		return err
	}
	return txn.Set(linkKey(link.ShortID), data)
}

func exists(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *BadgerStore) view(op string, fn func(txn *badger.Txn) error) error {
	err := s.db.View(fn)
	if err == nil || errors.Is(err, ErrNotFound) {
		return err
	}
	return storageErr(op, err)
}

// update replays fn while the optimistic transaction keeps conflicting with
// concurrent writers.
func (s *BadgerStore) update(ctx context.Context, op string, fn func(txn *badger.Txn) error) error {
	for attempt := 0; attempt < maxTxnRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return storageErr(op, err)
		}
		err := s.db.Update(fn)
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicate) {
			return err
		}
		return storageErr(op, err)
	}
	return storageErr(op, badger.ErrConflict)
}

func (s *BadgerStore) FindByShortID(ctx context.Context, shortID string) (*models.Link, error) {
	var link *models.Link
	err := s.view("find_by_short_id", func(txn *badger.Txn) error {
		var err error
		link, err = getLinkWithEvents(txn, shortID)
		return err
	})
	return link, err
}

func (s *BadgerStore) FindRoute(ctx context.Context, shortID string) (*models.Link, error) {
	var link *models.Link
	err := s.view("find_route", func(txn *badger.Txn) error {
		var err error
		link, err = getLink(txn, shortID)
		return err
	})
	return link, err
}

func (s *BadgerStore) Exists(ctx context.Context, key string) (bool, error) {
	var taken bool
	err := s.view("exists", func(txn *badger.Txn) error {
		var err error
		if taken, err = exists(txn, linkKey(key)); err != nil || taken {
			return err
		}
		taken, err = exists(txn, aliasKey(key))
		return err
	})
	return taken, err
}

func (s *BadgerStore) FindByAlias(ctx context.Context, alias string) (*models.Link, error) {
	var link *models.Link
	err := s.view("find_by_alias", func(txn *badger.Txn) error {
		item, err := txn.Get(aliasKey(alias))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		shortID, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		link, err = getLinkWithEvents(txn, string(shortID))
		return err
	})
	return link, err
}

func (s *BadgerStore) Insert(ctx context.Context, link *models.Link) error {
	now := time.Now().UTC()
	if link.CreatedAt.IsZero() {
		link.CreatedAt = now
	}
	link.UpdatedAt = now

	return s.update(ctx, "insert", func(txn *badger.Txn) error {
		taken, err := exists(txn, linkKey(link.ShortID))
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicate
		}
		if link.CustomAlias != nil {
			taken, err := exists(txn, aliasKey(*link.CustomAlias))
			if err != nil {
				return err
			}
			if taken {
				return ErrDuplicate
			}
			if err := txn.Set(aliasKey(*link.CustomAlias), []byte(link.ShortID)); err != nil {
				return err
			}
		}
		if err := txn.Set(ownerKey(link.OwnerRef, link.ShortID), nil); err != nil {
			return err
		}
		return putLink(txn, link)
	})
}

func (s *BadgerStore) RecordClick(ctx context.Context, shortID string, event models.AnalyticsEvent) error {
	return s.update(ctx, "record_click", func(txn *badger.Txn) error {
		link, err := getLink(txn, shortID)
		if err != nil {
			return err
		}
		link.ClickCount++
		link.UpdatedAt = event.Timestamp

		data, err := json.Marshal(event)
		if err != nil {
			return err
		}
		if err := txn.Set(eventKey(shortID, link.ClickCount), data); err != nil {
			return err
		}
		return putLink(txn, link)
	})
}

func (s *BadgerStore) SetActive(ctx context.Context, shortID string, active bool) error {
	return s.update(ctx, "set_active", func(txn *badger.Txn) error {
		link, err := getLink(txn, shortID)
		if err != nil {
			return err
		}
		link.IsActive = active
		link.UpdatedAt = time.Now().UTC()
		return putLink(txn, link)
	})
}

func (s *BadgerStore) Delete(ctx context.Context, shortID string) error {
	return s.update(ctx, "delete", func(txn *badger.Txn) error {
		link, err := getLink(txn, shortID)
		if err != nil {
			return err
		}
		if link.CustomAlias != nil {
			if err := txn.Delete(aliasKey(*link.CustomAlias)); err != nil {
				return err
			}
		}
		if err := txn.Delete(ownerKey(link.OwnerRef, shortID)); err != nil {
			return err
		}
		if err := deleteEvents(txn, shortID); err != nil {
			return err
		}
		return txn.Delete(linkKey(shortID))
	})
}

func (s *BadgerStore) FindAllByOwner(ctx context.Context, ownerRef string) ([]models.Link, error) {
	links := make([]models.Link, 0)
	err := s.view("find_all_by_owner", func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := ownerPrefix(ownerRef)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			shortID := string(it.Item().Key()[len(prefix):])
			link, err := getLinkWithEvents(txn, shortID)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			links = append(links, *link)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return links, nil
}

func deleteEvents(txn *badger.Txn, shortID string) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)

	var keys [][]byte
	prefix := eventPrefix(shortID)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	it.Close()

	for _, key := range keys {
		if err := txn.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
