package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PreferencesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_preferences_total",
		Help: "Payment preferences requested, by result.",
	}, []string{"result"})

	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_notifications_total",
		Help: "Processor notifications reconciled, by terminal outcome.",
	}, []string{"outcome"})

	ProcessorRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_processor_request_duration_seconds",
		Help:    "Latency of calls to the payment processor API.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	ReconciliationsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "checkout_reconciliations_in_flight",
		Help: "Detached notification reconciliations still running.",
	})
)
