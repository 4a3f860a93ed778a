package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the scraper.
type Metrics struct {
	Registry            *prometheus.Registry
	RequestsTotal       *prometheus.CounterVec
	RequestDuration     prometheus.Histogram
	PluginsScrapedTotal prometheus.Counter
	RowsSkippedTotal    prometheus.Counter
	ErrorsTotal         *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_requests_total",
			Help: "Total HTTP requests issued by the scraper.",
		},
		[]string{"page"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_request_duration_seconds",
			Help:    "HTTP request latency for scraper requests.",
			Buckets: prometheus.DefBuckets,
		},
	)
	pluginsScraped := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_plugins_scraped_total",
			Help: "Total number of merged plugin records produced.",
		},
	)
	rowsSkipped := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_rows_skipped_total",
			Help: "Total number of listing rows skipped after an error.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_errors_total",
			Help: "Total number of scraper errors by type.",
		},
		[]string{"error_type"},
	)

	registry.MustRegister(requests, requestDuration, pluginsScraped, rowsSkipped, errorsTotal)

	return &Metrics{
		Registry:            registry,
		RequestsTotal:       requests,
		RequestDuration:     requestDuration,
		PluginsScrapedTotal: pluginsScraped,
		RowsSkippedTotal:    rowsSkipped,
		ErrorsTotal:         errorsTotal,
	}
}

// IncRequest increments the requests total counter for a page kind.
func (m *Metrics) IncRequest(page string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(page).Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncPlugins increments the merged records counter.
func (m *Metrics) IncPlugins() {
	if m == nil {
		return
	}
	m.PluginsScrapedTotal.Inc()
}

// IncSkipped increments the skipped rows counter.
func (m *Metrics) IncSkipped() {
	if m == nil {
		return
	}
	m.RowsSkippedTotal.Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}
