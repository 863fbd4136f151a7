// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, CORS,
// security headers, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/francocz/ai-theoretical.org/internal/config"
	"github.com/francocz/ai-theoretical.org/internal/domain"
	"github.com/francocz/ai-theoretical.org/internal/http/handlers"
	"github.com/francocz/ai-theoretical.org/internal/http/middleware"
	"github.com/francocz/ai-theoretical.org/internal/notify"
	"github.com/francocz/ai-theoretical.org/internal/services"
	"github.com/francocz/ai-theoretical.org/internal/storage"
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), edge rate limiting,
// CORS and security headers, health and metrics endpoints, and then mounts
// the submission API.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured request logs
//  4. Recovery: capture panics after logger
//  5. Body size limiter (sized for manuscript uploads)
//  6. Response compression (downloads excluded)
//  7. Metrics
//  8. Edge rate limiter (per IP token bucket; the daily application
//     limits live in the services layer)
//  9. CORS and security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, blobs storage.BlobStore, mailer notify.Mailer, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit: the largest legal request is a
	// manuscript plus a code archive plus form fields.
	r.Use(limitBody(cfg.MaxPDFBytes + cfg.MaxZipBytes + 1<<20))

	// 6) Compress text responses. Manuscript and archive downloads are
	// excluded: PDFs and ZIPs do not compress and must stream untouched.
	r.Use(gzip.Gzip(gzip.DefaultCompression,
		gzip.WithExcludedPathsRegexs([]string{`^/papers/`, `/pdf$`, `/code$`})))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Token-bucket rate limiter per IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "Retry-After"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "Retry-After"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Swagger UI (off by default)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: notify ← config, services ← db/blobs/notify
	emails := &notify.Emails{Mailer: mailer}
	site := &notify.SiteNotifier{BaseURL: cfg.ConsoleURL}

	subLimiter := &services.RateLimiter{
		DB:    db,
		Scope: services.ScopeSubmission,
		Defaults: domain.RateLimitConfig{
			DailyLimit:  cfg.Limits.SubmissionDaily,
			PerKeyLimit: cfg.Limits.SubmissionPerIP,
			Enabled:     true,
			AlertEmail:  cfg.Limits.AlertEmail,
		},
		GlobalMessage: "Daily submission limit reached. Please try again tomorrow.",
		PerKeyMessage: "You have reached the daily submission limit for your address. Please try again tomorrow.",
		Alerts:        emails,
	}
	accLimiter := &services.RateLimiter{
		DB:    db,
		Scope: services.ScopeAuthorAccess,
		Defaults: domain.RateLimitConfig{
			DailyLimit:  cfg.Limits.AccessDaily,
			PerKeyLimit: cfg.Limits.AccessPerEmail,
			Enabled:     true,
			AlertEmail:  cfg.Limits.AlertEmail,
		},
		GlobalMessage: "Daily access request limit reached. Please try again tomorrow.",
		PerKeyMessage: "Too many access requests for this address today. Please try again tomorrow.",
		Alerts:        emails,
	}

	subSvc := &services.SubmissionService{
		DB:          db,
		Blobs:       blobs,
		Emails:      emails,
		Site:        site,
		Limiter:     subLimiter,
		BaseURL:     cfg.PublicBaseURL,
		ConfirmTTL:  cfg.ConfirmTTL,
		MaxPDFBytes: cfg.MaxPDFBytes,
		MaxZipBytes: cfg.MaxZipBytes,
	}
	accessSvc := &services.AccessService{
		DB:       db,
		Emails:   emails,
		Limiter:  accLimiter,
		BaseURL:  cfg.PublicBaseURL,
		GrantTTL: cfg.AccessTTL,
	}

	h := handlers.New(subSvc, accessSvc, blobs, mailer, subLimiter, accLimiter)

	// Public endpoints
	api := r.Group("/api")
	{
		api.POST("/submit", h.SubmitPaper)
		api.GET("/confirm/:token", h.ConfirmSubmission)
		api.POST("/verify-token", h.VerifyToken)
		api.POST("/appeal", h.SubmitAppeal)
		api.GET("/appeal/:token", h.CheckAppeal)

		api.POST("/author-access/request", h.RequestAccess)
		api.GET("/author-access/page/:token", h.AccessPage)
		api.POST("/author-access/withdraw", h.Withdraw)
		api.POST("/author-access/new-version", h.NewVersion)
	}

	// Accepted paper files for the static site
	r.GET("/papers/:file", h.PaperFile)

	// Moderation endpoints (bearer-token protected)
	admin := r.Group("/api", middleware.RequireBearer(cfg.AdminToken))
	{
		admin.GET("/submissions", h.ListSubmissions)
		admin.GET("/submission/:id", h.GetSubmission)
		admin.GET("/submission/:id/pdf", h.DownloadPDF)
		admin.GET("/submission/:id/code", h.DownloadCode)
		admin.POST("/submission/:id/status", h.UpdateSubmissionStatus)
		admin.DELETE("/submission/:id", h.DeleteSubmission)

		admin.GET("/rate-limit", h.SubmissionRateLimit)
		admin.POST("/rate-limit", h.UpdateSubmissionRateLimit)
		admin.GET("/author-access/rate-limit", h.AccessRateLimit)
		admin.POST("/author-access/rate-limit", h.UpdateAccessRateLimit)

		admin.POST("/send-email", h.SendEmail)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
