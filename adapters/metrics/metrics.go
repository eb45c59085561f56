// Package metrics provides Prometheus metrics for documentation runs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the run metrics. Registered against its own registry so
// serve mode exposes only pbxdoc series.
type Collector struct {
	ModulesProcessed prometheus.Counter
	RecordsRendered  *prometheus.CounterVec
	PagesScraped     prometheus.Counter
	RunDuration      prometheus.Histogram
	GenerationsTotal *prometheus.CounterVec
	LastGenerationTS prometheus.Gauge

	registry *prometheus.Registry
}

// New creates a collector with all metrics registered.
func New() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		ModulesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pbxdoc",
			Name:      "modules_processed_total",
			Help:      "Modules rendered into documentation",
		}),
		RecordsRendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pbxdoc",
			Name:      "records_rendered_total",
			Help:      "Records materialized and rendered, by module",
		}, []string{"module"}),
		PagesScraped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pbxdoc",
			Name:      "pages_scraped_total",
			Help:      "Admin pages fetched for page-backed fields",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pbxdoc",
			Name:      "run_duration_seconds",
			Help:      "Documentation run duration in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		GenerationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pbxdoc",
			Name:      "generations_total",
			Help:      "Documentation runs, by outcome",
		}, []string{"outcome"}),
		LastGenerationTS: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pbxdoc",
			Name:      "last_generation_timestamp_seconds",
			Help:      "Unix time of the last successful run",
		}),
		registry: reg,
	}
	reg.MustRegister(
		c.ModulesProcessed,
		c.RecordsRendered,
		c.PagesScraped,
		c.RunDuration,
		c.GenerationsTotal,
		c.LastGenerationTS,
	)
	return c
}

// Handler returns the /metrics HTTP handler.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
