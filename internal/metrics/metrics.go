package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	signalsProcessedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "neuroguard_signals_processed_total",
		Help: "Total number of signals run through the processing pipeline",
	})
	privacyInterventionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "neuroguard_privacy_interventions_total",
		Help: "Total number of feature releases noised by the privacy engine",
	})
	threatEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "neuroguard_threat_events_total",
		Help: "Total number of threat events emitted by the monitor",
	}, []string{"severity"})
	blockedRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "neuroguard_blocked_requests_total",
		Help: "Total number of feature-access requests rejected for blocked apps",
	})
)

// Register registers Prometheus collectors. Call once at startup.
func Register(registry *prometheus.Registry) {
	registry.MustRegister(signalsProcessedTotal, privacyInterventionsTotal, threatEventsTotal, blockedRequestsTotal)
}

// IncSignalProcessed increments the processed signals counter.
func IncSignalProcessed() { signalsProcessedTotal.Inc() }

// IncPrivacyIntervention increments the privacy interventions counter.
func IncPrivacyIntervention() { privacyInterventionsTotal.Inc() }

// IncThreatEvent increments the threat events counter for a severity.
func IncThreatEvent(severity string) { threatEventsTotal.WithLabelValues(severity).Inc() }

// IncBlockedRequest increments the blocked requests counter.
func IncBlockedRequest() { blockedRequestsTotal.Inc() }
