package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "qms"

// Metrics - метрики сервиса. Регистрируются в переданном реестре,
// тесты создают свой prometheus.NewRegistry().
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	EquipmentChanges    *prometheus.CounterVec
	MonitorRefreshes    *prometheus.CounterVec
	MonitorAlerts       *prometheus.GaugeVec
	EquipmentByStatus   *prometheus.GaugeVec

	gatherer prometheus.Gatherer
}

func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "code"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		EquipmentChanges: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "equipment_changes_total",
			Help:      "Equipment writes by action",
		}, []string{"action"}),
		MonitorRefreshes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "monitor_refreshes_total",
			Help:      "Inspection monitor refreshes by result",
		}, []string{"result"}),
		MonitorAlerts: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "monitor_alerts",
			Help:      "Upcoming inspections in the latest monitor snapshot by alert level",
		}, []string{"level"}),
		EquipmentByStatus: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "equipment_by_status",
			Help:      "Equipment count by status in the latest monitor snapshot",
		}, []string{"status"}),
		gatherer: reg,
	}
}

// Handler - обработчик /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware считает запросы и время ответа по шаблону маршрута, а не по фактическому пути.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}

			m.HTTPRequestsTotal.WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(c.Request().Method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
