// Package httpapi wires the HTTP transport (Gin) to the hatchery, the session
// gate, middleware, and route handlers. It centralizes cross-cutting concerns
// such as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, compression, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Everything except health, metrics, docs and the login flow sits behind
//     the session gate
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

	"github.com/tbourn/go-hatch-backend/internal/auth"
	"github.com/tbourn/go-hatch-backend/internal/config"
	"github.com/tbourn/go-hatch-backend/internal/http/handlers"
	"github.com/tbourn/go-hatch-backend/internal/http/middleware"
)

// Deps are the collaborators the routes are bound to. They are constructed in
// main so tests can substitute fakes.
type Deps struct {
	Hatchery handlers.HatcheryService
	Assets   handlers.AssetLocator
	Sessions *auth.SessionManager
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with cookie/token scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter (uploads)
//  6. Metrics
//  7. CORS and Security headers
//  8. Gzip for JSON and pages (assets and /metrics excluded)
//
// The rate limiter is scoped to the provider-backed generation routes.
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
		QuietPaths:  []string{"/health", "/metrics"},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (image uploads dominate)
	r.Use(limitBody(cfg.MaxUploadBytes))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) CORS posture (safe defaults: allow all if none configured)
	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:            cfg.Security.EnableHSTS,
		HSTSMaxAge:            cfg.Security.HSTSMaxAge,
		EnablePolicy:          true,
		ContentSecurityPolicy: cfg.Security.ContentSecurityPolicy,
		NoStorePaths:          []string{"/", middleware.LoginPath, apiPrefix(cfg.APIBasePath)},
		ImmutablePaths:        []string{"/static/images/", "/static/audio/"},
	}))

	// 8) Compression; images and audio are already compressed
	r.Use(gzip.Gzip(gzip.DefaultCompression,
		gzip.WithExcludedPaths([]string{"/static/", "/metrics"}),
	))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	h := handlers.New(deps.Hatchery)
	pages := handlers.NewAuthHandlers(deps.Sessions, cfg.Storage.StaticRoot, cfg.Auth.SecureCookie)
	assets := handlers.NewAssetHandlers(deps.Assets, cfg.Storage.StaticRoot)

	// Public: liveness, login flow, docs
	r.GET("/health", h.Health)
	r.GET(middleware.LoginPath, pages.LoginPage)
	r.POST(middleware.LoginPath, pages.Login)
	r.GET("/logout", pages.Logout)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Everything else requires a session
	gated := r.Group("", middleware.RequireSession(deps.Sessions))
	gated.GET("/", pages.Index)
	gated.GET("/static/*filepath", assets.ServeStatic)

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP())
	generate := rl.Handler()

	api := groupWithPrefix(gated, cfg.APIBasePath)
	{
		// Eggs
		api.POST("/create-egg", generate, h.CreateEgg)
		api.POST("/analyze-image", generate, h.AnalyzeImage)
		api.GET("/eggs", h.ListEggs)

		// Creatures
		api.GET("/creatures", h.ListCreatures)
		api.GET("/care-questions", h.CareQuestions)
		api.POST("/hatch-creature", generate, h.HatchCreature)
	}
}

// corsMiddleware builds the CORS chain. With no allowlist every origin is
// accepted without credentials; with one, matching origins are echoed and
// credentials (the session cookie) are allowed.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	if len(origins) == 0 {
		return []gin.HandlerFunc{
			// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(cors.Config{
				AllowAllOrigins:  true,
				AllowMethods:     []string{"GET", "POST", "OPTIONS"},
				AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
				ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
				AllowCredentials: false, // must remain false with AllowAllOrigins
				MaxAge:           12 * time.Hour,
			}),
		}
	}

	// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
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

// apiPrefix turns the API base path into a slash-terminated prefix.
func apiPrefix(base string) string {
	if base == "" || base == "/" {
		return "/"
	}
	return strings.TrimSuffix(base, "/") + "/"
}

// groupWithPrefix mounts a subgroup at prefix, treating "/" (or empty) as the
// parent itself.
func groupWithPrefix(g *gin.RouterGroup, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return g
	}
	return g.Group(prefix)
}
