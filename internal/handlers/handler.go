package handlers

import (
	"log/slog"
	"strings"

	"shortlify/internal/config"
	"shortlify/internal/services"
)

type Handler struct {
	cfg              config.Config
	logger           *slog.Logger
	linkService      *services.LinkService
	resolverService  *services.ResolverService
	analyticsService *services.AnalyticsService
	authService      *services.AuthService
	qrService        *services.QRService
}

func NewHandler(
	cfg config.Config,
	logger *slog.Logger,
	linkService *services.LinkService,
	resolverService *services.ResolverService,
	analyticsService *services.AnalyticsService,
	authService *services.AuthService,
	qrService *services.QRService,
) *Handler {
	return &Handler{
		cfg:              cfg,
		logger:           logger,
		linkService:      linkService,
		resolverService:  resolverService,
		analyticsService: analyticsService,
		authService:      authService,
		qrService:        qrService,
	}
}

func (h *Handler) shortURL(shortID string) string {
	return strings.TrimRight(h.cfg.BaseURL, "/") + "/" + shortID
}
