package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Poll metrics
	PollFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sensorwatch_poll_fetch_total",
			Help: "Total number of sensor feed fetches",
		},
		[]string{"status"}, // status: ok, error
	)

	PollFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sensorwatch_poll_fetch_duration_seconds",
			Help:    "Sensor feed fetch latency in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	PollBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sensorwatch_poll_batch_size",
			Help:    "Number of readings evaluated per poll tick",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	// Engine metrics
	RuleEvaluationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sensorwatch_rule_evaluations_total",
			Help: "Total number of rule condition evaluations",
		},
	)

	NotificationsEmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sensorwatch_notifications_emitted_total",
			Help: "Total number of notifications appended to the log",
		},
		[]string{"priority"},
	)

	NotificationsSuppressedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sensorwatch_notifications_suppressed_total",
			Help: "Total number of notifications suppressed by the dedup window",
		},
	)

	// Delivery metrics
	DeliveryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sensorwatch_delivery_total",
			Help: "Total number of outbound delivery attempts",
		},
		[]string{"channel", "status"}, // status: sent, failed, skipped
	)

	ListenerPanicsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sensorwatch_listener_panics_total",
			Help: "Total number of panics recovered from notification listeners",
		},
	)
)
