package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"shortlify/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGormTestStore(t *testing.T) LinkStore {
	url := "sqlite://" + filepath.Join(t.TempDir(), "links.db")
	db, err := InitDB(url)
	require.NoError(t, err)
	require.NoError(t, Migrate(db, url, ""))

	store := NewGormStore(db)
	t.Cleanup(func() { store.Close() })
	return store
}

func newBadgerTestStore(t *testing.T) LinkStore {
	db, err := OpenBadger("", nil)
	require.NoError(t, err)

	store := NewBadgerStore(db)
	t.Cleanup(func() { store.Close() })
	return store
}

func strPtr(s string) *string { return &s }

func newLink(shortID, owner string) *models.Link {
	return &models.Link{
		ShortID:  shortID,
		LongURL:  "https://example.com/" + shortID,
		OwnerRef: owner,
		IsActive: true,
	}
}

func TestGormStore(t *testing.T) {
	runStoreContract(t, newGormTestStore)
}

func TestBadgerStore(t *testing.T) {
	runStoreContract(t, newBadgerTestStore)
}

func runStoreContract(t *testing.T, newStore func(t *testing.T) LinkStore) {
	ctx := context.Background()

	t.Run("Insert and Find", func(t *testing.T) {
		store := newStore(t)
		expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
		link := newLink("abc123", "owner-1")
		link.ExpiresAt = &expires
		require.NoError(t, store.Insert(ctx, link))

		got, err := store.FindByShortID(ctx, "abc123")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/abc123", got.LongURL)
		assert.Equal(t, "owner-1", got.OwnerRef)
		assert.True(t, got.IsActive)
		assert.Equal(t, int64(0), got.ClickCount)
		assert.Empty(t, got.Events)
		require.NotNil(t, got.ExpiresAt)
		assert.True(t, expires.Equal(*got.ExpiresAt))
		assert.Nil(t, got.CustomAlias)
	})

	t.Run("Find Missing", func(t *testing.T) {
		store := newStore(t)
		_, err := store.FindByShortID(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = store.FindByAlias(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Duplicate Short ID", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Insert(ctx, newLink("dup", "o")))
		err := store.Insert(ctx, newLink("dup", "o"))
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("Alias Uniqueness", func(t *testing.T) {
		store := newStore(t)
		first := newLink("promo", "o")
		first.CustomAlias = strPtr("promo")
		require.NoError(t, store.Insert(ctx, first))

		second := newLink("other", "o")
		second.CustomAlias = strPtr("promo")
		assert.ErrorIs(t, store.Insert(ctx, second), ErrDuplicate)

		got, err := store.FindByAlias(ctx, "promo")
		require.NoError(t, err)
		assert.Equal(t, "promo", got.ShortID)
	})

	t.Run("Many Links Without Alias", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Insert(ctx, newLink("aaaaaa", "o")))
		require.NoError(t, store.Insert(ctx, newLink("bbbbbb", "o")))
	})

	t.Run("RecordClick Appends In Order", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Insert(ctx, newLink("click", "o")))

		base := time.Now().UTC()
		for i := 0; i < 3; i++ {
			err := store.RecordClick(ctx, "click", models.AnalyticsEvent{
				Timestamp: base.Add(time.Duration(i) * time.Second),
				SourceIP:  "1.2.3.4",
				UserAgent: "test",
				Referrer:  fmt.Sprintf("r%d", i),
				Country:   strPtr("NL"),
			})
			require.NoError(t, err)
		}

		got, err := store.FindByShortID(ctx, "click")
		require.NoError(t, err)
		assert.Equal(t, int64(3), got.ClickCount)
		require.Len(t, got.Events, 3)
		for i, ev := range got.Events {
			assert.Equal(t, fmt.Sprintf("r%d", i), ev.Referrer)
			require.NotNil(t, ev.Country)
			assert.Equal(t, "NL", *ev.Country)
			assert.Nil(t, ev.City)
		}
	})

	t.Run("FindRoute Skips Events", func(t *testing.T) {
		store := newStore(t)
		link := newLink("route", "o")
		link.CustomAlias = strPtr("route")
		require.NoError(t, store.Insert(ctx, link))
		for i := 0; i < 3; i++ {
			require.NoError(t, store.RecordClick(ctx, "route", models.AnalyticsEvent{Timestamp: time.Now().UTC(), Referrer: "Direct"}))
		}
		require.NoError(t, store.SetActive(ctx, "route", false))

		got, err := store.FindRoute(ctx, "route")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/route", got.LongURL)
		assert.False(t, got.IsActive)
		assert.Equal(t, int64(3), got.ClickCount)
		assert.Empty(t, got.Events)

		_, err = store.FindRoute(ctx, "ghost")
		assert.ErrorIs(t, err, ErrNotFound)

		// events are still readable through the full lookup
		full, err := store.FindByShortID(ctx, "route")
		require.NoError(t, err)
		assert.Len(t, full.Events, 3)
	})

	t.Run("Exists", func(t *testing.T) {
		store := newStore(t)
		link := newLink("plain", "o")
		require.NoError(t, store.Insert(ctx, link))
		aliased := newLink("promo", "o")
		aliased.CustomAlias = strPtr("promo")
		require.NoError(t, store.Insert(ctx, aliased))

		for _, key := range []string{"plain", "promo"} {
			taken, err := store.Exists(ctx, key)
			require.NoError(t, err)
			assert.True(t, taken, key)
		}

		taken, err := store.Exists(ctx, "free")
		require.NoError(t, err)
		assert.False(t, taken)

		require.NoError(t, store.Delete(ctx, "promo"))
		taken, err = store.Exists(ctx, "promo")
		require.NoError(t, err)
		assert.False(t, taken)
	})

	t.Run("RecordClick Missing", func(t *testing.T) {
		store := newStore(t)
		err := store.RecordClick(ctx, "ghost", models.AnalyticsEvent{Timestamp: time.Now(), Referrer: "Direct"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Concurrent RecordClick Loses Nothing", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Insert(ctx, newLink("hot", "o")))

		const k = 40
		var wg sync.WaitGroup
		errs := make(chan error, k)
		for i := 0; i < k; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- store.RecordClick(ctx, "hot", models.AnalyticsEvent{Timestamp: time.Now().UTC(), Referrer: "Direct"})
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			assert.NoError(t, err)
		}

		got, err := store.FindByShortID(ctx, "hot")
		require.NoError(t, err)
		assert.Equal(t, int64(k), got.ClickCount)
		assert.Len(t, got.Events, k)
	})

	t.Run("SetActive Is Idempotent", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Insert(ctx, newLink("flip", "o")))

		require.NoError(t, store.SetActive(ctx, "flip", false))
		require.NoError(t, store.SetActive(ctx, "flip", false))

		got, err := store.FindByShortID(ctx, "flip")
		require.NoError(t, err)
		assert.False(t, got.IsActive)

		assert.ErrorIs(t, store.SetActive(ctx, "ghost", false), ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		store := newStore(t)
		link := newLink("gone", "o")
		link.CustomAlias = strPtr("gone")
		require.NoError(t, store.Insert(ctx, link))
		require.NoError(t, store.RecordClick(ctx, "gone", models.AnalyticsEvent{Timestamp: time.Now(), Referrer: "Direct"}))

		require.NoError(t, store.Delete(ctx, "gone"))
		_, err := store.FindByShortID(ctx, "gone")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, store.Delete(ctx, "gone"), ErrNotFound)

		// the alias is free again
		again := newLink("gone", "o")
		again.CustomAlias = strPtr("gone")
		require.NoError(t, store.Insert(ctx, again))
		got, err := store.FindByShortID(ctx, "gone")
		require.NoError(t, err)
		assert.Empty(t, got.Events)
	})

	t.Run("FindAllByOwner", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Insert(ctx, newLink("mine1", "alice")))
		require.NoError(t, store.Insert(ctx, newLink("mine2", "alice")))
		require.NoError(t, store.Insert(ctx, newLink("theirs", "bob")))

		links, err := store.FindAllByOwner(ctx, "alice")
		require.NoError(t, err)
		ids := []string{}
		for _, l := range links {
			ids = append(ids, l.ShortID)
		}
		assert.ElementsMatch(t, []string{"mine1", "mine2"}, ids)

		links, err = store.FindAllByOwner(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, links)
	})
}

func TestStorageError(t *testing.T) {
	err := storageErr("insert", fmt.Errorf("boom"))
	assert.ErrorIs(t, err, ErrStorage)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "storage: insert: boom", err.Error())
}
