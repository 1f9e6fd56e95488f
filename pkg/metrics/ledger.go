package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics records submission outcomes and latencies per record type.
type LedgerMetrics struct {
	duration  *prometheus.HistogramVec
	confirmed *prometheus.CounterVec
	failed    *prometheus.CounterVec
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_submit_duration_seconds",
		Help:    "Duration of ledger submissions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"record_type"})
	confirmed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_submit_confirmed",
		Help: "Ledger submissions that reached durable commit.",
	}, []string{"record_type"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_submit_failed",
		Help: "Ledger submissions reified as FAILED mirrors.",
	}, []string{"record_type"})
	reg.MustRegister(duration, confirmed, failed)
	return &LedgerMetrics{
		duration:  duration,
		confirmed: confirmed,
		failed:    failed,
	}
}

// ObserveDuration records the duration of one submission attempt.
func (m *LedgerMetrics) ObserveDuration(recordType string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(recordType)).Observe(duration.Seconds())
}

// IncConfirmed counts a durably committed submission.
func (m *LedgerMetrics) IncConfirmed(recordType string) {
	if m == nil || m.confirmed == nil {
		return
	}
	m.confirmed.WithLabelValues(normalizeLabel(recordType)).Inc()
}

// IncFailed counts a submission that ended as a FAILED mirror.
func (m *LedgerMetrics) IncFailed(recordType string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(recordType)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
