package handlers

import (
	"errors"
	"net/http"

	"shortlify/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var errInvalidBody = errors.New("invalid request body")

// shortenBindError maps a failed ShortenRequest bind onto the service error
// the same input would have produced.
func shortenBindError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errInvalidBody
	}
	for _, fe := range verrs {
		if fe.StructField() == "CustomAlias" {
			return services.ErrInvalidAlias
		}
	}
	return services.ErrInvalidURL
}

// statusFor maps a service outcome to its HTTP status and client message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrInvalidURL):
		return http.StatusBadRequest, "Invalid URL"
	case errors.Is(err, errInvalidBody):
		return http.StatusBadRequest, "Invalid request body"
	case errors.Is(err, services.ErrInvalidAlias):
		return http.StatusBadRequest, "Invalid custom alias"
	case errors.Is(err, services.ErrAliasConflict):
		return http.StatusConflict, "Custom alias already taken"
	case errors.Is(err, services.ErrAllocationExhausted):
		return http.StatusServiceUnavailable, "Could not allocate a short id, please retry"
	case errors.Is(err, services.ErrOwnerRequired), errors.Is(err, services.ErrInvalidToken):
		return http.StatusUnauthorized, "Please authenticate"
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, services.ErrEmailTaken):
		return http.StatusConflict, "Email already registered"
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, "URL not found"
	case errors.Is(err, services.ErrInactive):
		return http.StatusNotFound, "URL not found or inactive"
	case errors.Is(err, services.ErrExpired):
		return http.StatusGone, "URL has expired"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", "path", c.FullPath(), "error", err)
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"error": msg})
}
