package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Limiter decides per client address whether a request may proceed.
type Limiter interface {
	Allow(ip string) bool
}

func RateLimit(limiter Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
			})
			return
		}
		c.Next()
	}
}
