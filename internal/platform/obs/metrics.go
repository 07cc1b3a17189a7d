package obs

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the service's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	HTTPInFlight    prometheus.Gauge
	Resolutions     *prometheus.CounterVec
	CacheLookups    *prometheus.CounterVec
	GeocodeRequests *prometheus.CounterVec
	ConfigIssues    prometheus.Gauge
	SnapshotMarkets prometheus.Gauge
}

// NewMetrics registers collectors against reg, defaulting to the global
// registry when reg is nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	m := &Metrics{
		gatherer: gatherer,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"method", "route"}),
		HTTPInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),
		Resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "delivery_resolutions_total",
			Help: "Delivery resolutions by outcome (zone, fallback, unavailable, not_found, invalid, error)",
		}, []string{"outcome"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Cache lookups by cache name and result",
		}, []string{"cache", "result"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "geocode_requests_total",
			Help: "Upstream geocoding requests by result",
		}, []string{"result"}),
		ConfigIssues: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "config_issues",
			Help: "Markets and zones excluded from the current configuration snapshot",
		}),
		SnapshotMarkets: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "snapshot_active_markets",
			Help: "Active markets in the current configuration snapshot",
		}),
	}

	collectors := map[string]prometheus.Collector{
		"http_requests_total":           m.HTTPRequests,
		"http_request_duration_seconds": m.HTTPDuration,
		"http_requests_in_flight":       m.HTTPInFlight,
		"delivery_resolutions_total":    m.Resolutions,
		"cache_lookups_total":           m.CacheLookups,
		"geocode_requests_total":        m.GeocodeRequests,
		"config_issues":                 m.ConfigIssues,
		"snapshot_active_markets":       m.SnapshotMarkets,
	}
	for name, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register %s: %w", name, err)
		}
	}

	return m, nil
}

// Handler exposes the registry this Metrics was registered against.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordResolution(outcome string) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordCacheLookup(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(cache, result).Inc()
}

func (m *Metrics) RecordGeocode(result string) {
	if m == nil {
		return
	}
	m.GeocodeRequests.WithLabelValues(result).Inc()
}

// SetSnapshotStats publishes the size and health of a freshly built snapshot.
func (m *Metrics) SetSnapshotStats(activeMarkets, issues int) {
	if m == nil {
		return
	}
	m.SnapshotMarkets.Set(float64(activeMarkets))
	m.ConfigIssues.Set(float64(issues))
}
