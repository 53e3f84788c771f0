// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	EventsReceived    prometheus.Counter
	EventParseErrors  prometheus.Counter
	StreamReconnects  prometheus.Counter

	// Pipeline metrics
	SessionsTotal   *prometheus.CounterVec // status: complete|error
	SessionQueue    prometheus.Gauge
	StageDuration   *prometheus.HistogramVec // stage
	SessionDuration prometheus.Histogram

	// LLM metrics
	LLMCallDuration *prometheus.HistogramVec // stage: filter|analyze
	LLMCallErrors   *prometheus.CounterVec

	// Trading metrics
	TradesTotal   *prometheus.CounterVec // status: confirmed|failed
	TradedVolume  prometheus.Counter
	MarketsPooled prometheus.Gauge

	// Observer metrics
	ConnectedClients  prometheus.Gauge
	MessagesBroadcast prometheus.Counter
	MessagesDropped   prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered
// on the default registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "seer_engine"
	}

	return &Metrics{
		EventsReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "events_received_total",
			Help:      "Total number of events received from the stream",
		}),
		EventParseErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "event_parse_errors_total",
			Help:      "Total number of stream messages that failed to parse",
		}),
		StreamReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "stream_reconnects_total",
			Help:      "Total number of stream reconnect attempts",
		}),

		SessionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "sessions_total",
			Help:      "Total number of completed sessions by terminal status",
		}, []string{"status"}),
		SessionQueue: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "session_queue_depth",
			Help:      "Number of events waiting for a session",
		}),
		StageDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		SessionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "session_duration_seconds",
			Help:      "End-to-end session duration",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),

		LLMCallDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "call_duration_seconds",
			Help:      "Duration of LLM calls by stage",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"stage"}),
		LLMCallErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "call_errors_total",
			Help:      "Total number of degraded LLM calls by stage",
		}, []string{"stage"}),

		TradesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "trades_total",
			Help:      "Total number of trade attempts by outcome",
		}, []string{"status"}),
		TradedVolume: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "confirmed_volume_usdc_total",
			Help:      "Total confirmed trade volume in USDC",
		}),
		MarketsPooled: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "markets_pooled",
			Help:      "Number of tradeable markets in the pool",
		}),

		ConnectedClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "connected_clients",
			Help:      "Number of connected observer clients",
		}),
		MessagesBroadcast: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "messages_broadcast_total",
			Help:      "Total number of messages fanned out to observers",
		}),
		MessagesDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "messages_dropped_total",
			Help:      "Total number of messages dropped on slow observers",
		}),
	}
}

// Handler returns the HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
