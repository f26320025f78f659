package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_RequestCountersAndInflight(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Metrics())

	r.GET("/api/v1/products", func(c *gin.Context) {
		c.String(http.StatusOK, `{"products":[]}`)
	})
	// No body written, so the writer reports size -1 and the size
	// histogram is skipped.
	r.GET("/statusonly", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	// Collectors are process-global; snapshot before touching the routes.
	baseOK := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/api/v1/products", "200"))
	base404 := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/does-not-exist", "404"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/v1/products -> %d", w.Code)
	}

	// Unmatched route: the path label falls back to the raw URL.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/does-not-exist", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET /does-not-exist -> %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/statusonly", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("GET /statusonly -> %d", w.Code)
	}

	gotOK := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/api/v1/products", "200"))
	if gotOK != baseOK+1 {
		t.Fatalf("counter products 200 = %v; want %v", gotOK, baseOK+1)
	}

	got404 := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/does-not-exist", "404"))
	if got404 != base404+1 {
		t.Fatalf("counter 404 fallback = %v; want %v", got404, base404+1)
	}

	// Nothing should be in flight once the recorder returns.
	if inFlight := testutil.ToFloat64(httpInflight); inFlight != 0 {
		t.Fatalf("httpInflight = %v; want 0", inFlight)
	}
}
