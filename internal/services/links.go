package services

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"time"

	"shortlify/internal/models"
	"shortlify/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// A concurrent creator can take an id between allocation and insert.
// Generated ids are re-drawn this many times before giving up.
const maxInsertAttempts = 3

var longURLPattern = regexp.MustCompile(`^https?://.+\..+`)

type CreateLinkDTO struct {
	LongURL     string
	OwnerRef    string
	CustomAlias string
	ExpiresAt   *time.Time
	IPAddress   string // For Audit Log
}

// LinkService owns the link lifecycle: creation, listing and deletion.
type LinkService struct {
	store               repository.LinkStore
	allocator           *Allocator
	cache               *repository.RouteCache
	auditService        *AuditService
	logger              *slog.Logger
	deleteRequiresOwner bool
}

func NewLinkService(store repository.LinkStore, allocator *Allocator, cache *repository.RouteCache, auditService *AuditService, logger *slog.Logger) *LinkService {
	return &LinkService{
		store:        store,
		allocator:    allocator,
		cache:        cache,
		auditService: auditService,
		logger:       logger,
	}
}

// RequireOwnerOnDelete makes Delete reject requesters other than the owner.
func (s *LinkService) RequireOwnerOnDelete(enabled bool) {
	s.deleteRequiresOwner = enabled
}

// ValidateURL accepts lower-case http(s) URLs whose remainder after the
// scheme has a dot with at least one character on each side.
func ValidateURL(raw string) error {
	if !longURLPattern.MatchString(raw) {
		return ErrInvalidURL
	}
	return nil
}

func (s *LinkService) Create(ctx context.Context, dto CreateLinkDTO) (*models.Link, error) {
	ctx, span := tracer.Start(ctx, "LinkService.Create")
	defer span.End()

	link, err := s.create(ctx, dto)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("short_id", link.ShortID))
	return link, nil
}

func (s *LinkService) create(ctx context.Context, dto CreateLinkDTO) (*models.Link, error) {
	if err := ValidateURL(dto.LongURL); err != nil {
		return nil, err
	}
	if dto.OwnerRef == "" {
		return nil, ErrOwnerRequired
	}

	for attempt := 0; attempt < maxInsertAttempts; attempt++ {
		shortID, err := s.allocator.Allocate(ctx, dto.CustomAlias)
		if err != nil {
			return nil, err
		}

		link := &models.Link{
			ShortID:    shortID,
			LongURL:    dto.LongURL,
			OwnerRef:   dto.OwnerRef,
			IsActive:   true,
			ExpiresAt:  dto.ExpiresAt,
			ClickCount: 0,
		}
		kind := "random"
		if dto.CustomAlias != "" {
			alias := dto.CustomAlias
			link.CustomAlias = &alias
			kind = "alias"
		}

		err = s.store.Insert(ctx, link)
		if errors.Is(err, repository.ErrDuplicate) {
			if dto.CustomAlias != "" {
				return nil, ErrAliasConflict
			}
			continue
		}
		if err != nil {
			s.logger.Error("Failed to persist link", "short_id", shortID, "error", err)
			return nil, err
		}

		link.Events = []models.AnalyticsEvent{}
		linksCreatedTotal.WithLabelValues(kind).Inc()
		s.auditService.LogAction(dto.OwnerRef, "CREATE_LINK", link.ShortID, map[string]interface{}{
			"long_url": dto.LongURL,
		}, dto.IPAddress)
		return link, nil
	}
	return nil, ErrAllocationExhausted
}

// Get returns the stored record without its analytics.
func (s *LinkService) Get(ctx context.Context, shortID string) (*models.Link, error) {
	return s.store.FindRoute(ctx, shortID)
}

func (s *LinkService) ListForOwner(ctx context.Context, ownerRef string) ([]models.Link, error) {
	return s.store.FindAllByOwner(ctx, ownerRef)
}

// Delete permanently removes a link and its analytics. requester is only
// checked when the owner policy is enabled.
func (s *LinkService) Delete(ctx context.Context, shortID, requester, ip string) error {
	ctx, span := tracer.Start(ctx, "LinkService.Delete", trace.WithAttributes(attribute.String("short_id", shortID)))
	defer span.End()

	if s.deleteRequiresOwner {
		link, err := s.store.FindRoute(ctx, shortID)
		if err != nil {
			return err
		}
		if link.OwnerRef != requester {
			return ErrForbidden
		}
	}

	if err := s.store.Delete(ctx, shortID); err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx, shortID); err != nil {
		s.logger.Warn("Failed to invalidate route cache", "short_id", shortID, "error", err)
	}

	s.auditService.LogAction(requester, "DELETE_LINK", shortID, nil, ip)
	return nil
}
