package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/AI-Automated-Ecommerce/Backend/internal/agent"
	"github.com/AI-Automated-Ecommerce/Backend/internal/config"
	"github.com/AI-Automated-Ecommerce/Backend/internal/domain"
	"github.com/AI-Automated-Ecommerce/Backend/internal/notify"
	"github.com/AI-Automated-Ecommerce/Backend/internal/repo"
	"github.com/AI-Automated-Ecommerce/Backend/internal/services"
	"github.com/AI-Automated-Ecommerce/Backend/internal/storage"
	"github.com/AI-Automated-Ecommerce/Backend/internal/worker"
)

// --- test DB helper (pure-Go sqlite, no CGO) ---
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:router_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func newTestDeps(t *testing.T, db *gorm.DB) Deps {
	t.Helper()
	locks := services.NewKeyedMutex()
	orders := services.NewOrderService(db, locks, nil)
	receipts, err := storage.NewDiskStore(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatalf("disk store: %v", err)
	}

	carts := services.NewCartService(db, locks)
	proc := &agent.Processor{
		Decider: agent.RuleDecider{},
		Dispatcher: &agent.Dispatcher{
			DB:     db,
			Carts:  carts,
			Orders: orders,
		},
		Messages:  &services.MessageService{DB: db},
		Transport: notify.LogTransport{},
	}
	pool := worker.NewPool(1, 8)
	t.Cleanup(pool.Close)

	return Deps{DB: db, Orders: orders, Receipts: receipts, Processor: proc, Pool: pool}
}

func baseConfig() config.Config {
	return config.Config{
		APIBasePath: "/api/v1",
		JWTSecret:   "router-secret",
		RateRPS:     100,
		RateBurst:   10,
		CORS:        config.CORSConfig{AllowedOrigins: nil}, // triggers AllowAllOrigins branch
		Security:    config.SecurityConfig{EnableHSTS: false, HSTSMaxAge: 0},
		OTEL:        config.OTELConfig{ServiceName: "test-svc"},
		Webhook:     config.WebhookConfig{VerifyToken: "vt", DedupTTL: time.Hour},
		Upload:      config.UploadConfig{MaxMB: 10},
	}
}

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	db := newTestDB(t)
	RegisterRoutes(r, newTestDeps(t, db), baseConfig())

	// /health works
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	// CORS (AllowAllOrigins) → header "*"
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}

	// /metrics is wired
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK || w.Body.Len() == 0 {
		t.Fatalf("GET /metrics bad: code=%d len=%d", w.Code, w.Body.Len())
	}

	// NoRoute → 404
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}

	// NoMethod → 405 (DELETE /health)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/health", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("DELETE /health expected 405, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	db := newTestDB(t)
	cfg := baseConfig()
	cfg.APIBasePath = "/api/v2"
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"http://example.com"}}
	RegisterRoutes(r, newTestDeps(t, db), cfg)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://example.com")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}
}

func TestRegisterRoutes_AdminRequiresJWT(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	db := newTestDB(t)
	RegisterRoutes(r, newTestDeps(t, db), baseConfig())

	// No token → 401
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated admin = %d, want 401", w.Code)
	}

	// Valid token → 200
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "admin",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("router-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("authenticated admin = %d, body %s", w.Code, w.Body.String())
	}
}

func TestRegisterRoutes_PlaceOrderThroughFullStack(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	db := newTestDB(t)
	RegisterRoutes(r, newTestDeps(t, db), baseConfig())

	p := domain.Product{Name: "Webcam", Price: 59.99, StockQuantity: 4, IsActive: true}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	body, _ := json.Marshal(services.PlaceOrderInput{
		CustomerName:    "Jordan",
		CustomerPhone:   "+15559990001",
		ShippingAddress: "1 Main St",
		PaymentMethod:   "Debit Card",
		Items:           []services.OrderLineInput{{ProductID: p.ID, Quantity: 2}},
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/place", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("place = %d, body %s", w.Code, w.Body.String())
	}
	if rid := w.Header().Get("X-Request-ID"); rid == "" {
		t.Fatal("expected X-Request-ID header to be set")
	}

	var got domain.Product
	db.First(&got, p.ID)
	if got.StockQuantity != 2 {
		t.Fatalf("stock = %d, want 2", got.StockQuantity)
	}
}

func TestRegisterRoutes_WebhookBypassesRateLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	db := newTestDB(t)
	cfg := baseConfig()
	cfg.RateRPS = 1
	cfg.RateBurst = 1
	RegisterRoutes(r, newTestDeps(t, db), cfg)

	// The platform may redeliver in bursts; none may be throttled.
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
			"/webhook?hub.mode=subscribe&hub.verify_token=vt&hub.challenge=c", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("webhook request %d = %d, want 200", i, w.Code)
		}
	}

	// A normal route with the same limiter state is throttled on the second hit.
	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/health", nil))
	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/health", nil))
	if first.Code != http.StatusOK || second.Code != http.StatusTooManyRequests {
		t.Fatalf("limiter = %d then %d, want 200 then 429", first.Code, second.Code)
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// tiny cap to trigger MaxBytesReader
	r.Use(limitBody(10, 10))
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
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK || rec.Body.String() != want {
			t.Fatalf("GET %s got %d %q", path, rec.Code, rec.Body.String())
		}
	}
}
