package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareCountsRoutes(t *testing.T) {
	m := New(prometheus.NewRegistry())
	e := echo.New()
	e.Use(m.Middleware)
	e.GET("/api/cakes/:id", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cakes/9", nil))
	}

	if got := testutil.ToFloat64(m.Requests.WithLabelValues("/api/cakes/:id", "200")); got != 2 {
		t.Fatalf("requests=%v", got)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.OrdersPlaced.WithLabelValues("ok").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `cakemarket_orders_placed_total{result="ok"} 1`) {
		t.Fatalf("metrics output missing counter:\n%s", rec.Body.String())
	}
}
