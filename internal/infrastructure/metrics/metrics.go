// Package metrics expone los contadores Prometheus del taller: órdenes de fabricación, stock bajo
// y peticiones HTTP. Cada Metrics tiene su propio registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taller-macetas/macetas-erp/internal/application/manufacturing"
)

var _ manufacturing.Recorder = (*Metrics)(nil)

const namespace = "macetas"

// Metrics colectores de la aplicación.
type Metrics struct {
	Registry *prometheus.Registry

	ordersCreated      *prometheus.CounterVec
	allocationFailures *prometheus.CounterVec
	transitions        *prometheus.CounterVec
	finishedCredited   *prometheus.CounterVec
	lowStockRows       prometheus.Gauge
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// New crea y registra todos los colectores, más los de proceso y runtime de Go.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		ordersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "manufacturing",
			Name:      "orders_created_total",
			Help:      "Órdenes de fabricación creadas por producto.",
		}, []string{"product"}),
		allocationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "manufacturing",
			Name:      "allocation_failures_total",
			Help:      "Altas de orden rechazadas por motivo.",
		}, []string{"reason"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "manufacturing",
			Name:      "transitions_total",
			Help:      "Cambios de estado aplicados por estado destino.",
		}, []string{"state"}),
		finishedCredited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "manufacturing",
			Name:      "finished_goods_credited_total",
			Help:      "Unidades de producto terminado abonadas al stock.",
		}, []string{"product"}),
		lowStockRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stock",
			Name:      "low_rows",
			Help:      "Filas de stock en o por debajo del umbral en el último informe.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Peticiones HTTP atendidas.",
		}, []string{"method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duración de las peticiones HTTP.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms a ~5s
		}, []string{"method", "route"}),
	}
	m.Registry.MustRegister(
		m.ordersCreated,
		m.allocationFailures,
		m.transitions,
		m.finishedCredited,
		m.lowStockRows,
		m.httpRequests,
		m.httpDuration,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return m
}

// Handler expone el registry en formato Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

func (m *Metrics) OrderCreated(product string)         { m.ordersCreated.WithLabelValues(product).Inc() }
func (m *Metrics) AllocationFailed(reason string)      { m.allocationFailures.WithLabelValues(reason).Inc() }
func (m *Metrics) OrderTransitioned(state string)      { m.transitions.WithLabelValues(state).Inc() }
func (m *Metrics) FinishedGoodCredited(product string) { m.finishedCredited.WithLabelValues(product).Inc() }

// SetLowStockRows fija el gauge con el resultado del último informe.
func (m *Metrics) SetLowStockRows(n int) { m.lowStockRows.Set(float64(n)) }

// ObserveHTTP registra una petición atendida. route es el patrón de la ruta, no la URL.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
