package handlers

import (
	"embed"
	"html/template"
	"net/http"

	"shortlify/internal/middleware"
	"shortlify/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

//go:embed templates/*.html
var templateFS embed.FS

const serviceName = "shortlify"

func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("alias", func(fl validator.FieldLevel) bool {
			return services.ValidAlias(fl.Field().String())
		})
	}
}

// SetupRouter wires every route. rateLimiter may be nil to disable limiting.
func (h *Handler) SetupRouter(rateLimiter middleware.Limiter) *gin.Engine {
	registerValidators()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(middleware.RequestLogger(h.logger))
	r.Use(middleware.CORS())

	r.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.html")))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	requireAuth := middleware.RequireAuth(h.authService)

	api := r.Group("/api")
	if rateLimiter != nil {
		api.Use(middleware.RateLimit(rateLimiter))
	}
	{
		api.POST("/auth/register", h.RegisterUser)
		api.POST("/auth/login", h.LoginUser)

		api.POST("/shorten", requireAuth, h.ShortenURL)
		api.GET("/urls", requireAuth, h.ListURLs)
		api.GET("/urls/:shortId/analytics", h.GetAnalytics)
		api.GET("/urls/:shortId/qr", h.GetQRCode)

		if h.cfg.DeleteNeedsOwner {
			api.DELETE("/urls/:shortId", requireAuth, h.DeleteURL)
		} else {
			api.DELETE("/urls/:shortId", middleware.OptionalAuth(h.authService), h.DeleteURL)
		}
	}

	r.GET("/preview/:shortId", h.PreviewURL)
	r.GET("/:shortId", h.RedirectToURL)

	return r
}
