package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scanAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gate_scan_attempts_total",
			Help: "Scan attempts per gate and entry source",
		},
		[]string{"gate_id", "source"},
	)

	scanOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gate_scan_outcomes_total",
			Help: "Terminal scan outcomes per gate",
		},
		[]string{"gate_id", "outcome"},
	)

	lookupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gate_ticket_lookup_duration_seconds",
			Help:    "Duration of ticket lookup requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"gate_id"},
	)

	validateDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gate_ticket_validate_duration_seconds",
			Help:    "Duration of ticket validate requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"gate_id"},
	)
)

func RecordScanAttempt(gateId, source string) {
	scanAttempts.WithLabelValues(gateId, source).Inc()
}

func RecordScanOutcome(gateId, outcome string) {
	scanOutcomes.WithLabelValues(gateId, outcome).Inc()
}

func ObserveLookupDuration(gateId string, d time.Duration) {
	lookupDuration.WithLabelValues(gateId).Observe(d.Seconds())
}

func ObserveValidateDuration(gateId string, d time.Duration) {
	validateDuration.WithLabelValues(gateId).Observe(d.Seconds())
}
