// Package metrics exposes sampler and HTTP counters in Prometheus format.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/chrissnell/livetemp/internal/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors.  Each instance owns its registry so several can
// coexist in one process (tests).
type Metrics struct {
	registry *prometheus.Registry

	readingsTotal     prometheus.Counter
	latestTemperature prometheus.Gauge
	historyLength     prometheus.Gauge
	httpRequestsTotal *prometheus.CounterVec
}

// New creates and registers the collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		readingsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "livetemp_readings_total",
			Help: "Total number of simulated readings produced.",
		}),
		latestTemperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "livetemp_latest_temperature",
			Help: "Value of the most recent reading.",
		}),
		historyLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "livetemp_history_length",
			Help: "Number of readings currently held in the rolling history.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "livetemp_http_requests_total",
			Help: "Total count of HTTP requests processed by path and status.",
		}, []string{"path", "status"}),
	}

	m.registry.MustRegister(
		m.readingsTotal,
		m.latestTemperature,
		m.historyLength,
		m.httpRequestsTotal,
	)
	return m
}

// ObserveReading records a freshly sampled reading and the history length after it was appended
func (m *Metrics) ObserveReading(r types.Reading, historyLen int) {
	m.readingsTotal.Inc()
	m.latestTemperature.Set(r.Value)
	m.historyLength.Set(float64(historyLen))
}

// ObserveHTTPRequest counts one served request
func (m *Metrics) ObserveHTTPRequest(path string, status int) {
	m.httpRequestsTotal.WithLabelValues(path, strconv.Itoa(status)).Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
