package handlers

import (
	"net/http"
	"time"

	"shortlify/internal/services"

	"github.com/gin-gonic/gin"
)

// RedirectToURL records the click and sends the visitor on. Nothing is
// served unless the click was persisted.
func (h *Handler) RedirectToURL(c *gin.Context) {
	target, err := h.resolverService.Resolve(c.Request.Context(), c.Param("shortId"), services.RequestContext{
		SourceIP:  c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Referrer:  c.Request.Referer(),
		Now:       time.Now(),
	})
	if err != nil {
		status, msg := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("Resolution failed", "short_id", c.Param("shortId"), "error", err)
			msg = "Error redirecting"
		}
		c.String(status, msg)
		return
	}

	c.Redirect(http.StatusFound, target.LongURL)
}

// PreviewURL shows the destination without following it or counting a click.
func (h *Handler) PreviewURL(c *gin.Context) {
	link, err := h.linkService.Get(c.Request.Context(), c.Param("shortId"))
	if err != nil {
		status, msg := statusFor(err)
		c.String(status, msg)
		return
	}

	c.HTML(http.StatusOK, "preview.html", gin.H{
		"LongURL": link.LongURL,
	})
}
