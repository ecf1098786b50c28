package guide

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Query outcomes.
const (
	OutcomeAnswered  = "answered"
	OutcomeClarified = "clarified"
	OutcomeNoContext = "no_context"
)

// Reload results.
const (
	ReloadSuccess    = "success"
	ReloadParseError = "parse_error"
	ReloadReadError  = "read_error"
)

// Metrics are the service's prometheus collectors, registered on a
// registry owned by the service so that instances never collide.
type Metrics struct {
	registry       *prometheus.Registry
	queries        *prometheus.CounterVec
	confidence     prometheus.Histogram
	reloads        *prometheus.CounterVec
	knowledgeItems prometheus.Gauge
}

func newMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "local_guide_queries_total",
				Help: "Total number of answered queries by outcome",
			},
			[]string{"outcome"},
		),
		confidence: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "local_guide_confidence",
				Help:    "Overall confidence of answered queries",
				Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
			},
		),
		reloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "local_guide_reloads_total",
				Help: "Total number of knowledge base reloads by result",
			},
			[]string{"result"},
		),
		knowledgeItems: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "local_guide_knowledge_items",
				Help: "Number of context items in the knowledge base in service",
			},
		),
	}
	m.registry.MustRegister(m.queries, m.confidence, m.reloads, m.knowledgeItems)
	return m
}

// Registry exposes the collectors for scraping.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) observeQuery(outcome string, confidence float64) {
	m.queries.WithLabelValues(outcome).Inc()
	m.confidence.Observe(confidence)
}

func (m *Metrics) observeReload(result string) {
	m.reloads.WithLabelValues(result).Inc()
}
