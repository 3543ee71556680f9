package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"shortlify/internal/models"
	"shortlify/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DirectReferrer is recorded when a click carries no referrer.
const DirectReferrer = "Direct"

// RequestContext describes the inbound click being resolved.
type RequestContext struct {
	SourceIP  string
	UserAgent string
	Referrer  string
	Now       time.Time
}

type RedirectTarget struct {
	LongURL string
}

// ResolverService turns a short id into its destination, recording the
// click before the redirect is handed out.
type ResolverService struct {
	store  repository.LinkStore
	cache  *repository.RouteCache
	geo    GeoLocator
	logger *slog.Logger
}

func NewResolverService(store repository.LinkStore, cache *repository.RouteCache, geo GeoLocator, logger *slog.Logger) *ResolverService {
	return &ResolverService{
		store:  store,
		cache:  cache,
		geo:    geo,
		logger: logger,
	}
}

func (s *ResolverService) Resolve(ctx context.Context, shortID string, rc RequestContext) (*RedirectTarget, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "ResolverService.Resolve", trace.WithAttributes(attribute.String("short_id", shortID)))
	defer span.End()

	target, err := s.resolve(ctx, shortID, rc)

	outcome := resolveOutcome(err)
	resolutionsTotal.WithLabelValues(outcome).Inc()
	resolutionDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.String("outcome", outcome))
	if outcome == "error" {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return target, err
}

func (s *ResolverService) resolve(ctx context.Context, shortID string, rc RequestContext) (*RedirectTarget, error) {
	if rc.Now.IsZero() {
		rc.Now = time.Now()
	}

	link, cached, err := s.lookup(ctx, shortID)
	if err != nil {
		return nil, err
	}

	// A cached route can predate another request's deactivation, so expiry
	// is only ever decided on a fresh read.
	if cached && link.IsActive && link.Expired(rc.Now) {
		s.invalidate(ctx, shortID)
		if link, err = s.store.FindRoute(ctx, shortID); err != nil {
			return nil, err
		}
	}

	if !link.IsActive {
		return nil, ErrInactive
	}

	if link.Expired(rc.Now) {
		if err := s.store.SetActive(ctx, shortID, false); err != nil && !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("Failed to deactivate expired link", "short_id", shortID, "error", err)
		}
		s.invalidate(ctx, shortID)
		return nil, ErrExpired
	}

	loc := s.geo.Lookup(rc.SourceIP)
	referrer := strings.TrimSpace(rc.Referrer)
	if referrer == "" {
		referrer = DirectReferrer
	}
	event := models.AnalyticsEvent{
		Timestamp: rc.Now,
		SourceIP:  rc.SourceIP,
		UserAgent: rc.UserAgent,
		Referrer:  referrer,
		Country:   loc.Country,
		City:      loc.City,
	}

	if err := s.store.RecordClick(ctx, shortID, event); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Deleted between lookup and write; the cached route is stale.
			s.invalidate(ctx, shortID)
		}
		return nil, err
	}

	return &RedirectTarget{LongURL: link.LongURL}, nil
}

// lookup reads through the route cache. Cache failures degrade to the store.
// cached reports whether the route came from the cache.
func (s *ResolverService) lookup(ctx context.Context, shortID string) (link *models.Link, cached bool, err error) {
	if hit, ok, cacheErr := s.cache.Get(ctx, shortID); cacheErr != nil {
		s.logger.Warn("Route cache read failed", "short_id", shortID, "error", cacheErr)
	} else if ok {
		return hit, true, nil
	}

	link, err = s.store.FindRoute(ctx, shortID)
	if err != nil {
		return nil, false, err
	}
	if err := s.cache.Set(ctx, link); err != nil {
		s.logger.Warn("Route cache write failed", "short_id", shortID, "error", err)
	}
	return link, false, nil
}

func (s *ResolverService) invalidate(ctx context.Context, shortID string) {
	if err := s.cache.Invalidate(ctx, shortID); err != nil {
		s.logger.Warn("Route cache invalidation failed", "short_id", shortID, "error", err)
	}
}

func resolveOutcome(err error) string {
	switch {
	case err == nil:
		return "redirect"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInactive):
		return "inactive"
	case errors.Is(err, ErrExpired):
		return "expired"
	default:
		return "error"
	}
}
