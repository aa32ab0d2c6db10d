package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-api-response/internal/config"
	"github.com/tbourn/go-api-response/internal/http/middleware"
	"github.com/tbourn/go-api-response/internal/repo"
)

// --- test DB helper (pure-Go sqlite, no CGO) ---
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func testConfig() config.Config {
	return config.Config{
		APIBasePath:       "/api/v1",
		AppEnv:            "production",
		DebugEnvironments: []string{"local"},
		RateRPS:           100,
		RateBurst:         50,
		ExportMaxRows:     100,
		IdempotencyTTL:    time.Hour,
		CORS:              config.CORSConfig{AllowedOrigins: nil}, // triggers AllowAllOrigins branch
		Security:          config.SecurityConfig{EnableHSTS: false, HSTSMaxAge: 0, NoStore: true},
		OTEL:              config.OTELConfig{ServiceName: "test-svc"},
	}
}

func newTestRouter(t *testing.T, cfg config.Config) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	db := newTestDB(t)
	RegisterRoutes(r, db, cfg)
	return r, db
}

func serve(r http.Handler, method, path string, body io.Reader, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func envelopeOf(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid envelope %q: %v", w.Body.String(), err)
	}
	return body
}

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	r, _ := newTestRouter(t, testConfig())

	// /health works and uses the envelope
	w := serve(r, http.MethodGet, "/health", nil, map[string]string{"Origin": "https://app.test"})
	if w.Code != http.StatusOK || envelopeOf(t, w)["success"] != true {
		t.Fatalf("GET /health = %d %s", w.Code, w.Body.String())
	}
	// No configured origins: any cross-origin caller gets "*".
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}
	if got := w.Header().Get("Cache-Control"); !strings.Contains(got, "no-store") {
		t.Fatalf("expected no-store, got %q", got)
	}

	// /metrics is wired
	w = serve(r, http.MethodGet, "/metrics", nil, nil)
	if w.Code != http.StatusOK || len(w.Body.Bytes()) == 0 {
		t.Fatalf("GET /metrics bad: code=%d len=%d", w.Code, w.Body.Len())
	}

	// NoRoute → route-not-found envelope
	w = serve(r, http.MethodGet, "/nope", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}
	if body := envelopeOf(t, w); body["success"] != false || body["message"] != "Not found" {
		t.Fatalf("unexpected 404 body: %v", body)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("404 envelope missing X-Request-ID")
	}

	// NoMethod → method-not-allowed envelope (POST /health)
	w = serve(r, http.MethodPost, "/health", nil, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("POST /health expected 403, got %d", w.Code)
	}
	if msg := envelopeOf(t, w)["message"]; msg != "Method not found" {
		t.Fatalf("unexpected NoMethod message %v", msg)
	}
}

func TestRegisterRoutes_CORSWithOrigins(t *testing.T) {
	cfg := testConfig()
	cfg.APIBasePath = "/api/v2"
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"https://app.test"}}
	r, _ := newTestRouter(t, cfg)

	w := serve(r, http.MethodGet, "/health", nil, map[string]string{"Origin": "https://app.test"})
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.test" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}
	if expose := w.Header().Get("Access-Control-Expose-Headers"); !strings.Contains(strings.ToLower(expose), "x-request-id") {
		t.Fatalf("X-Request-ID not exposed: %q", expose)
	}

	// The base path moved with the config.
	w = serve(r, http.MethodGet, "/api/v2/contacts", nil, map[string]string{"Origin": "https://app.test"})
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/v2/contacts = %d", w.Code)
	}

	// Unlisted origins are refused by the CORS layer.
	w = serve(r, http.MethodGet, "/health", nil, map[string]string{"Origin": "https://evil.test"})
	if w.Code != http.StatusForbidden || w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("foreign origin: %d %q", w.Code, w.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestRegisterRoutes_ContactLifecycle(t *testing.T) {
	r, _ := newTestRouter(t, testConfig())
	user := map[string]string{middleware.HeaderUserID: "u1"}

	w := serve(r, http.MethodPost, "/api/v1/contacts", strings.NewReader(`{"name":"ada lovelace","email":"ada@example.com"}`), user)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	id := envelopeOf(t, w)["payload"].(map[string]any)["id"].(string)

	w = serve(r, http.MethodGet, "/api/v1/contacts/"+id, nil, user)
	if w.Code != http.StatusOK {
		t.Fatalf("get: %d %s", w.Code, w.Body.String())
	}

	w = serve(r, http.MethodGet, "/api/v1/contacts/"+id, nil, map[string]string{middleware.HeaderUserID: "u2"})
	if w.Code != http.StatusForbidden || envelopeOf(t, w)["message"] != "Access denied" {
		t.Fatalf("foreign get: %d %s", w.Code, w.Body.String())
	}

	w = serve(r, http.MethodGet, "/api/v1/contacts/export", nil, user)
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv") {
		t.Fatalf("export: %d %q", w.Code, w.Header().Get("Content-Type"))
	}

	w = serve(r, http.MethodDelete, "/api/v1/contacts/"+id, nil, user)
	if w.Code != http.StatusAccepted {
		t.Fatalf("delete: %d %s", w.Code, w.Body.String())
	}
}

func TestRegisterRoutes_NotAcceptable(t *testing.T) {
	r, _ := newTestRouter(t, testConfig())

	w := serve(r, http.MethodGet, "/api/v1/contacts", nil, map[string]string{"Accept": "text/html"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for non-JSON Accept, got %d", w.Code)
	}
	if msg := envelopeOf(t, w)["message"]; msg != "Unauthorized request" {
		t.Fatalf("unexpected message %v", msg)
	}

	// Export also accepts text/csv
	w = serve(r, http.MethodGet, "/api/v1/contacts/export", nil, map[string]string{"Accept": "text/csv"})
	if w.Code != http.StatusOK {
		t.Fatalf("export with text/csv: %d", w.Code)
	}
}

func TestRegisterRoutes_AuthRequired(t *testing.T) {
	cfg := testConfig()
	cfg.AuthRequired = true
	r, _ := newTestRouter(t, cfg)

	w := serve(r, http.MethodGet, "/api/v1/contacts", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without X-User-ID, got %d", w.Code)
	}
	w = serve(r, http.MethodGet, "/api/v1/contacts", nil, map[string]string{middleware.HeaderUserID: "u1"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with X-User-ID, got %d", w.Code)
	}

	// Health stays public.
	if w = serve(r, http.MethodGet, "/health", nil, nil); w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
}

func TestRegisterRoutes_DebugPolicy(t *testing.T) {
	cfg := testConfig()
	cfg.AppEnv = "local"
	r, _ := newTestRouter(t, cfg)

	w := serve(r, http.MethodPost, "/api/v1/contacts", strings.NewReader(`{"name":`), nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
	// Malformed-request rule carries no debug detail even in debug environments.
	if _, ok := envelopeOf(t, w)["debug"]; ok {
		t.Fatalf("bad request must not expose debug: %s", w.Body.String())
	}
}

func TestRegisterRoutes_GzipWhenAccepted(t *testing.T) {
	r, _ := newTestRouter(t, testConfig())
	w := serve(r, http.MethodGet, "/health", nil, map[string]string{"Accept-Encoding": "gzip"})
	if w.Code != http.StatusOK || w.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip response, got code=%d encoding=%q", w.Code, w.Header().Get("Content-Encoding"))
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// tiny cap to trigger MaxBytesReader
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		_, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("0123456789AB")) // 12 bytes
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func Test_groupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	// "/" and "" should mount at root
	root1 := groupWithPrefix(r, "/")
	root1.GET("/one", func(c *gin.Context) { c.String(http.StatusOK, "one") })
	root2 := groupWithPrefix(r, "")
	root2.GET("/two", func(c *gin.Context) { c.String(http.StatusOK, "two") })

	// non-root prefix
	api := groupWithPrefix(r, "/api")
	api.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for path, want := range map[string]string{"/one": "one", "/two": "two", "/api/ping": "pong"} {
		rec := serve(r, http.MethodGet, path, nil, nil)
		if rec.Code != http.StatusOK || rec.Body.String() != want {
			t.Fatalf("GET %s got %d %q", path, rec.Code, rec.Body.String())
		}
	}
}

func TestRegisterRoutes_IdempotencyCallback_MissAndHit(t *testing.T) {
	r, _ := newTestRouter(t, testConfig())
	hdr := map[string]string{
		middleware.HeaderUserID:         "u1",
		middleware.HeaderIdempotencyKey: "key-hit",
	}
	body := `{"name":"Ada","email":"ada@example.com"}`

	// MISS: nothing stored yet
	w := serve(r, http.MethodPost, "/api/v1/contacts", strings.NewReader(body), hdr)
	if w.Code != http.StatusCreated || w.Header().Get("Idempotent-Replayed") != "" {
		t.Fatalf("first: %d replayed=%q", w.Code, w.Header().Get("Idempotent-Replayed"))
	}

	// HIT: callback finds the stored key; handler replays.
	w = serve(r, http.MethodPost, "/api/v1/contacts", strings.NewReader(body), hdr)
	if w.Code != http.StatusCreated || w.Header().Get("Idempotent-Replayed") != "true" {
		t.Fatalf("second: %d replayed=%q", w.Code, w.Header().Get("Idempotent-Replayed"))
	}
}

func TestRegisterRoutes_IdempotencyCallback_ErrorBranch(t *testing.T) {
	r, db := newTestRouter(t, testConfig())

	// Force queries to fail by closing the underlying connection.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	_ = sqlDB.Close()

	// The lookup error is logged; POST /health still reaches NoMethod.
	w := serve(r, http.MethodPost, "/health", bytes.NewBufferString("{}"), map[string]string{
		middleware.HeaderUserID:         "u1",
		middleware.HeaderIdempotencyKey: "force-error",
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}
