// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Webhook deliveries exempt from throttling so the messaging platform
//     never sees a 429 and drops the subscription
package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/AI-Automated-Ecommerce/Backend/internal/agent"
	"github.com/AI-Automated-Ecommerce/Backend/internal/config"
	"github.com/AI-Automated-Ecommerce/Backend/internal/http/handlers"
	"github.com/AI-Automated-Ecommerce/Backend/internal/http/middleware"
	"github.com/AI-Automated-Ecommerce/Backend/internal/storage"
	"github.com/AI-Automated-Ecommerce/Backend/internal/worker"
	"gorm.io/gorm"
)

// Deps bundles everything the route handlers need. The caller (main, or a
// test) constructs the services and hands them over; the router never builds
// its own dependencies.
type Deps struct {
	DB        *gorm.DB
	Orders    handlers.OrderService
	Receipts  storage.ReceiptStore
	Processor *agent.Processor
	Pool      *worker.Pool
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), rate limiting,
// CORS and security headers, health and metrics endpoints, and then mounts
// the versioned public API under /api/v*, the JWT-protected admin surface,
// and the messaging webhook pair at the root.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter (larger cap on the receipt-upload route)
//  6. Metrics
//  7. Webhook rate-bypass marker (before the limiter so deliveries skip it)
//  8. Rate limiter (per user/IP)
//  9. CORS, security headers, gzip
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction. Phone numbers ride in nearly
	// every payload on this API, so the PII patterns earn their keep.
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-Hub-Signature-256", // webhook payload signatures
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Body size limits: 1 MiB everywhere except receipt uploads
	uploadCap := int64(cfg.Upload.MaxMB)
	if uploadCap <= 0 {
		uploadCap = 10
	}
	r.Use(limitBody(1<<20, uploadCap<<20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Webhook deliveries must never be throttled; mark them before the
	// limiter runs.
	r.Use(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/webhook") {
			middleware.MarkRateBypass(c)
			return
		}
		c.Next()
	})

	// 8) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
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
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
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
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
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

	// Compress responses; metrics stay uncompressed for scrapers.
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Swagger UI (opt-in)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(deps.DB, deps.Orders, deps.Receipts)

	// Messaging webhook pair at the root: the platform's callback URL is
	// configured once and never versioned with the API.
	wh := &handlers.WebhookHandler{
		DB:          deps.DB,
		Processor:   deps.Processor,
		Pool:        deps.Pool,
		VerifyToken: cfg.Webhook.VerifyToken,
		DedupTTL:    cfg.Webhook.DedupTTL,
	}
	r.GET("/webhook", wh.Verify)
	r.POST("/webhook", wh.Receive)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Catalog
		api.GET("/products", h.ListProducts)

		// Orders
		api.POST("/orders/place", h.PlaceOrder)
		api.GET("/orders/:id", h.GetOrder)
		api.POST("/orders/:id/payment-receipt", h.UploadReceipt)

		// Admin (JWT-protected)
		admin := api.Group("/admin", middleware.RequireJWT(cfg.JWTSecret))
		{
			admin.PUT("/orders/:id/status", h.UpdateOrderStatus)
			admin.GET("/stats", h.DashboardStats)
		}
	}

	// Serve stored receipts when the disk store's public prefix is local.
	if strings.HasPrefix(cfg.Upload.BaseURL, "/") && cfg.Upload.Dir != "" {
		r.Static(cfg.Upload.BaseURL, cfg.Upload.Dir)
	}
}

// limitBody returns a Gin middleware that caps the request body size using
// http.MaxBytesReader. Receipt uploads get uploadMax; everything else gets
// defaultMax. Requests exceeding the cap cause downstream body reads to error.
func limitBody(defaultMax, uploadMax int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := defaultMax
		if strings.HasSuffix(c.FullPath(), "/payment-receipt") {
			limit = uploadMax
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
