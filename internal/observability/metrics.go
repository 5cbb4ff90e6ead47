package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

// Metrics holds the assistant's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	retrievalAnswers   *prometheus.CounterVec
	embeddingRequests  *prometheus.CounterVec
	embeddingLatency   prometheus.Histogram
	intents            *prometheus.CounterVec
	conversationWrites *prometheus.CounterVec
	wsConnections      prometheus.Gauge
}

// NewMetrics registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{registry: registry}

	m.retrievalAnswers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "answers_total",
			Help:      "Policy answers by the tier that produced them",
		},
		[]string{"tier"},
	)

	m.embeddingRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "embedding",
			Name:      "requests_total",
			Help:      "Embedding requests by outcome",
		},
		[]string{"outcome"},
	)

	m.embeddingLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "embedding",
			Name:      "latency_seconds",
			Help:      "Embedding provider round-trip latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 15},
		},
	)

	m.intents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assistant",
			Name:      "intents_total",
			Help:      "Classified assistant messages by intent",
		},
		[]string{"intent"},
	)

	m.conversationWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "conversation",
			Name:      "appends_total",
			Help:      "Conversation append attempts by result",
		},
		[]string{"result"},
	)

	m.wsConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "assistant",
			Name:      "websocket_connections",
			Help:      "Open assistant WebSocket connections",
		},
	)

	registry.MustRegister(
		m.retrievalAnswers,
		m.embeddingRequests,
		m.embeddingLatency,
		m.intents,
		m.conversationWrites,
		m.wsConnections,
	)

	return m
}

// Registry exposes the underlying registry (used by tests).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the /metrics HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRetrieval counts an answer produced by the given tier.
func (m *Metrics) RecordRetrieval(tier string) {
	if m == nil {
		return
	}
	m.retrievalAnswers.WithLabelValues(tier).Inc()
}

// RecordEmbedding counts an embedding call and observes its latency.
// Outcome is one of "present", "absent", "skipped", "cache_hit".
func (m *Metrics) RecordEmbedding(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.embeddingRequests.WithLabelValues(outcome).Inc()
	if elapsed > 0 {
		m.embeddingLatency.Observe(elapsed.Seconds())
	}
}

// RecordIntent counts a classified message.
func (m *Metrics) RecordIntent(intent string) {
	if m == nil {
		return
	}
	m.intents.WithLabelValues(intent).Inc()
}

// RecordConversationAppend counts an append attempt ("ok", "conflict", "error").
func (m *Metrics) RecordConversationAppend(result string) {
	if m == nil {
		return
	}
	m.conversationWrites.WithLabelValues(result).Inc()
}

// WebSocketOpened increments the open connection gauge.
func (m *Metrics) WebSocketOpened() {
	if m == nil {
		return
	}
	m.wsConnections.Inc()
}

// WebSocketClosed decrements the open connection gauge.
func (m *Metrics) WebSocketClosed() {
	if m == nil {
		return
	}
	m.wsConnections.Dec()
}
