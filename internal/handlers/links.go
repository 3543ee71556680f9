package handlers

import (
	"net/http"
	"time"

	"shortlify/internal/middleware"
	"shortlify/internal/models"
	"shortlify/internal/services"

	"github.com/gin-gonic/gin"
)

type ShortenRequest struct {
	LongURL     string     `json:"longUrl" binding:"required"`
	CustomAlias string     `json:"customAlias,omitempty" binding:"omitempty,alias"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

// ShortenURL creates a link owned by the authenticated caller.
func (h *Handler) ShortenURL(c *gin.Context) {
	var req ShortenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, shortenBindError(err))
		return
	}

	link, err := h.linkService.Create(c.Request.Context(), services.CreateLinkDTO{
		LongURL:     req.LongURL,
		OwnerRef:    middleware.OwnerRef(c),
		CustomAlias: req.CustomAlias,
		ExpiresAt:   req.ExpiresAt,
		IPAddress:   c.ClientIP(),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"shortId":  link.ShortID,
		"shortUrl": h.shortURL(link.ShortID),
	})
}

func (h *Handler) ListURLs(c *gin.Context) {
	links, err := h.linkService.ListForOwner(c.Request.Context(), middleware.OwnerRef(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if links == nil {
		links = []models.Link{}
	}
	c.JSON(http.StatusOK, links)
}

func (h *Handler) GetAnalytics(c *gin.Context) {
	summary, err := h.analyticsService.Summarize(c.Request.Context(), c.Param("shortId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) GetQRCode(c *gin.Context) {
	link, err := h.linkService.Get(c.Request.Context(), c.Param("shortId"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	qrCode, err := h.qrService.GenerateDataURL(services.QROptions{Content: h.shortURL(link.ShortID)})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"qrCode": qrCode})
}

func (h *Handler) DeleteURL(c *gin.Context) {
	err := h.linkService.Delete(c.Request.Context(), c.Param("shortId"), middleware.OwnerRef(c), c.ClientIP())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "URL deleted successfully"})
}
