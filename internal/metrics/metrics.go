package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cakemarket"

type Metrics struct {
	Requests      *prometheus.CounterVec
	LatencyMS     *prometheus.HistogramVec
	OrdersPlaced  *prometheus.CounterVec
	OrderGroups   *prometheus.CounterVec
	Notifications *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers every collector on reg. Passing a fresh prometheus.NewRegistry keeps tests isolated.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"route"}),
		OrdersPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Checkout attempts by outcome.",
		}, []string{"result"}),
		OrderGroups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_groups_total",
			Help:      "Per-seller orders written during checkout by outcome.",
		}, []string{"result"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "SMS notifications by kind and delivery status.",
		}, []string{"kind", "status"}),
		gatherer: reg,
	}
	reg.MustRegister(m.Requests, m.LatencyMS, m.OrdersPlaced, m.OrderGroups, m.Notifications)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware records request count and latency per echo route pattern.
func (m *Metrics) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		status := c.Response().Status
		if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
		}
		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		m.Requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		m.LatencyMS.WithLabelValues(route).Observe(float64(time.Since(start).Milliseconds()))
		return err
	}
}

// The helpers below are safe on a nil *Metrics so callers can run without instrumentation.

func (m *Metrics) ObserveCheckout(result string) {
	if m == nil {
		return
	}
	m.OrdersPlaced.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveGroup(result string) {
	if m == nil {
		return
	}
	m.OrderGroups.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveNotification(kind, status string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(kind, status).Inc()
}
