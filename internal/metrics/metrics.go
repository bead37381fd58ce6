// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "messenger",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route pattern, method and status code.",
	}, []string{"route", "method", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "messenger",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route pattern and method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	ChatsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "messenger",
		Name:      "chats_resolved_total",
		Help:      "get-or-create-chat outcomes by status (created, existing).",
	}, []string{"status"})

	MessagesAppended = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "messenger",
		Name:      "messages_appended_total",
		Help:      "Messages appended to chat logs.",
	})

	RealtimeConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "messenger",
		Name:      "realtime_connections",
		Help:      "Open websocket event stream connections.",
	})

	RealtimeDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "messenger",
		Name:      "realtime_events_dropped_total",
		Help:      "Events that could not be written to a connected client.",
	})
)
