// Package httpapi assembles the Gin engine: the middleware chain, operational
// endpoints and the versioned contacts API.
//
// Every response, framework fallbacks included, is a response envelope.
// Handlers and middleware report failures with middleware.Fail and the error
// boundary renders them.
package httpapi

import (
	"context"
	"errors"
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

	"github.com/tbourn/go-api-response/internal/config"
	"github.com/tbourn/go-api-response/internal/http/handlers"
	"github.com/tbourn/go-api-response/internal/http/middleware"
	"github.com/tbourn/go-api-response/internal/repo"
	"github.com/tbourn/go-api-response/internal/services"
	"github.com/tbourn/go-api-response/response"
)

// maxBodyBytes caps every request body.
const maxBodyBytes = 1 << 20

// quietPaths are probed constantly and kept out of the access log.
var quietPaths = []string{"/health", "/metrics"}

// RegisterRoutes mounts the middleware chain, /health, /metrics, the
// optional Swagger UI and the contacts API under cfg.APIBasePath.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true
	handlers.UseJSONFieldNames()

	r.Use(chain(db, cfg)...)

	r.NoRoute(func(c *gin.Context) { handlers.Fail(c, response.ErrRouteNotFound) })
	r.NoMethod(func(c *gin.Context) { handlers.Fail(c, response.ErrMethodNotAllowed) })

	r.GET("/health", func(c *gin.Context) {
		middleware.BuilderFrom(c).RespondWithMessageAndPayload(gin.H{"status": "ok"}).Render(c)
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	mountContacts(groupWithPrefix(r, cfg.APIBasePath), db, cfg)
}

// chain returns the global middleware in mount order. Each step relies on
// the ones before it:
//
//   - tracing first, so the request span covers everything;
//   - request id, envelope builder and identity before the access log, which
//     reports all three;
//   - gzip before anything that writes a body;
//   - recovery and the error boundary before handlers that may fail;
//   - idempotency before the rate limiter, which lets replays through.
func chain(db *gorm.DB, cfg config.Config) []gin.HandlerFunc {
	limiter := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByCaller())

	return []gin.HandlerFunc{
		otelgin.Middleware(cfg.OTEL.ServiceName),
		middleware.RequestID(),
		middleware.Responder(cfg.DebugEnabled(), response.DefaultClassifier()),
		middleware.Identity(),
		middleware.RedactingLogger(middleware.RedactOptions{
			MaskHeaders: []string{"X-API-Key"},
			SkipPaths:   quietPaths,
		}),
		gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})),
		middleware.Recovery(),
		middleware.ErrorHandler(),
		limitBody(maxBodyBytes),
		middleware.Metrics(),
		middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, idempotencyLookup(db)),
		limiter.Handler(),
		corsMiddleware(cfg.CORS),
		middleware.SecurityHeaders(middleware.SecurityOptions{
			EnableHSTS:   cfg.Security.EnableHSTS,
			HSTSMaxAge:   cfg.Security.HSTSMaxAge,
			NoStore:      cfg.Security.NoStore,
			EnablePolicy: true,
			HTMLPrefixes: []string{"/swagger/"},
		}),
	}
}

// mountContacts wires the contact service and its routes onto api.
func mountContacts(api *gin.RouterGroup, db *gorm.DB, cfg config.Config) {
	svc := services.NewContactService(db, repo.Contacts{})
	if cfg.ExportMaxRows > 0 {
		svc.ExportMaxRows = cfg.ExportMaxRows
	}
	if cfg.IdempotencyTTL > 0 {
		svc.IdempotencyTTL = cfg.IdempotencyTTL
	}
	h := handlers.New(svc)

	api.Use(middleware.RequireUser(cfg.AuthRequired))

	// Export negotiates CSV or JSON itself.
	api.GET("/contacts/export", middleware.Negotiate("text/csv", "application/json"), h.ExportContacts)

	contacts := api.Group("/contacts", middleware.Negotiate("application/json"))
	contacts.POST("", h.CreateContact)
	contacts.GET("", h.ListContacts)
	contacts.GET("/:id", h.GetContact)
	contacts.PUT("/:id", h.UpdateContact)
	contacts.DELETE("/:id", h.DeleteContact)
	contacts.POST("/:id/restore", h.RestoreContact)
}

// corsMiddleware allows any origin when none are configured, otherwise only
// the listed ones. Credentials are never allowed.
func corsMiddleware(c config.CORSConfig) gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization",
			middleware.HeaderUserID, middleware.HeaderIdempotencyKey, "X-Request-ID",
		},
		ExposeHeaders: []string{"X-Request-ID", "Content-Length", "ETag", "Idempotent-Replayed", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(c.AllowedOrigins) == 0 {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = c.AllowedOrigins
	}
	return cors.New(cc)
}

// idempotencyLookup reports whether a live record exists for (owner, key).
// A miss is not an error.
func idempotencyLookup(db *gorm.DB) middleware.IdempotencyLookup {
	return func(ctx context.Context, ownerID, key string, now time.Time) (bool, error) {
		_, err := repo.GetIdempotency(ctx, db, ownerID, key, now)
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, repo.ErrNotFound):
			return false, nil
		default:
			return false, err
		}
	}
}

// limitBody caps request bodies at maxBytes; reads past the cap fail and
// surface as malformed requests.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
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
