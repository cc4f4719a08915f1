package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	loginsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "legaltrack_logins_total",
		Help: "Total number of successful logins",
	})
	loginFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "legaltrack_login_failures_total",
		Help: "Total number of failed login attempts",
	})
	caseTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "legaltrack_case_transitions_total",
		Help: "Total number of case workflow transitions by resulting status",
	}, []string{"status"})
	documentUploadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "legaltrack_document_uploads_total",
		Help: "Total number of case document uploads",
	})
)

// Register registers Prometheus collectors. Call once at startup.
func Register(registry *prometheus.Registry) {
	registry.MustRegister(loginsTotal, loginFailuresTotal, caseTransitionsTotal, documentUploadsTotal)
}

// IncLogin increments the successful login counter.
func IncLogin() { loginsTotal.Inc() }

// IncLoginFailure increments the failed login counter.
func IncLoginFailure() { loginFailuresTotal.Inc() }

// IncCaseTransition increments the transition counter for a resulting status.
func IncCaseTransition(status string) { caseTransitionsTotal.WithLabelValues(status).Inc() }

// IncDocumentUpload increments the uploaded documents counter.
func IncDocumentUpload() { documentUploadsTotal.Inc() }
