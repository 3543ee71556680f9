package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"shortlify/internal/models"

	"github.com/redis/go-redis/v9"
)

func InitRedis(addr string, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	_, err := rdb.Ping(ctx).Result()
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}

	return rdb, nil
}

// route is the cached subset of a link: only fields that change on
// deactivation or deletion, never the click state.
type route struct {
	LongURL   string     `json:"long_url"`
	OwnerRef  string     `json:"owner_ref"`
	IsActive  bool       `json:"is_active"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// RouteCache is an optional read-through cache for resolution lookups.
// A nil *RouteCache is a valid, always-missing cache.
type RouteCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRouteCache(rdb *redis.Client, ttl time.Duration) *RouteCache {
	if rdb == nil {
		return nil
	}
	return &RouteCache{rdb: rdb, ttl: ttl}
}

func routeKey(shortID string) string {
	return "link:" + shortID
}

// Get returns a link carrying only routing fields. ok is false on a miss.
func (c *RouteCache) Get(ctx context.Context, shortID string) (link *models.Link, ok bool, err error) {
	if c == nil {
		return nil, false, nil
	}
	val, err := c.rdb.Get(ctx, routeKey(shortID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var r route
	if err := json.Unmarshal(val, &r); err != nil {
		return nil, false, err
	}
	return &models.Link{
		ShortID:   shortID,
		LongURL:   r.LongURL,
		OwnerRef:  r.OwnerRef,
		IsActive:  r.IsActive,
		ExpiresAt: r.ExpiresAt,
	}, true, nil
}

func (c *RouteCache) Set(ctx context.Context, link *models.Link) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(route{
		LongURL:   link.LongURL,
		OwnerRef:  link.OwnerRef,
		IsActive:  link.IsActive,
		ExpiresAt: link.ExpiresAt,
	})
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, routeKey(link.ShortID), data, c.ttl).Err()
}

func (c *RouteCache) Invalidate(ctx context.Context, shortID string) error {
	if c == nil {
		return nil
	}
	return c.rdb.Del(ctx, routeKey(shortID)).Err()
}
