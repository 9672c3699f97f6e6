package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)

	WebSocketConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Current number of active WebSocket connections",
		},
	)

	EventsDeliveredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_delivered_total",
			Help: "Events pushed to live WebSocket sessions, by event type",
		},
		[]string{"event"},
	)

	EventsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_dropped_total",
			Help: "Events not pushed, by event type and reason",
		},
		[]string{"event", "reason"},
	)

	MessageDeliveryLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "message_delivery_latency_seconds",
			Help:    "Latency from message persistence to WebSocket push",
			Buckets: prometheus.DefBuckets,
		},
	)
)
