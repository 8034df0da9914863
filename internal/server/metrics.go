package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks processing outcomes for the /metrics endpoint.
type Metrics struct {
	registry *prometheus.Registry

	receiptsTotal *prometheus.CounterVec
	failuresTotal prometheus.Counter
	fallbackTotal prometheus.Counter
}

// NewMetrics creates and registers the service metrics on a private
// registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	receiptsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "harina",
			Name:      "receipts_processed_total",
			Help:      "Total receipts processed successfully.",
		},
		[]string{"format", "key"},
	)
	failuresTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "harina",
			Name:      "receipts_failed_total",
			Help:      "Total receipt processing failures.",
		},
	)
	fallbackTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "harina",
			Name:      "key_fallback_total",
			Help:      "Total completions that succeeded only after a key fallback.",
		},
	)

	registry.MustRegister(receiptsTotal, failuresTotal, fallbackTotal)

	return &Metrics{
		registry:      registry,
		receiptsTotal: receiptsTotal,
		failuresTotal: failuresTotal,
		fallbackTotal: fallbackTotal,
	}
}

// RecordSuccess counts one processed receipt.
func (m *Metrics) RecordSuccess(format, keyLabel string, usedFallback bool) {
	if keyLabel == "" {
		keyLabel = "unknown"
	}
	m.receiptsTotal.WithLabelValues(format, keyLabel).Inc()
	if usedFallback {
		m.fallbackTotal.Inc()
	}
}

// RecordFailure counts one failed receipt.
func (m *Metrics) RecordFailure() {
	m.failuresTotal.Inc()
}

// Handler exposes the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
