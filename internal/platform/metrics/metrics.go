package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	ClientsCreated    prometheus.Counter
	CasesCreated      prometheus.Counter
	DocumentsUploaded prometheus.Counter
	AutoIssueAttempts *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
}

// New creates all metrics and registers them on reg. Tests pass a fresh
// registry so suites can construct metrics independently.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ClientsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "rehabdocs_clients_created_total",
			Help: "Total number of clients registered",
		}),
		CasesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "rehabdocs_cases_created_total",
			Help: "Total number of cases created",
		}),
		DocumentsUploaded: factory.NewCounter(prometheus.CounterOpts{
			Name: "rehabdocs_documents_uploaded_total",
			Help: "Total number of document files uploaded",
		}),
		AutoIssueAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rehabdocs_auto_issue_attempts_total",
			Help: "Auto-issue attempts by outcome",
		}, []string{"outcome"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rehabdocs_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

// IncrementClientsCreated increments the clients created counter by 1.
func (m *Metrics) IncrementClientsCreated() {
	m.ClientsCreated.Inc()
}

// IncrementCasesCreated increments the cases created counter by 1.
func (m *Metrics) IncrementCasesCreated() {
	m.CasesCreated.Inc()
}

// IncrementDocumentsUploaded increments the uploads counter by 1.
func (m *Metrics) IncrementDocumentsUploaded() {
	m.DocumentsUploaded.Inc()
}

// RecordAutoIssue counts one auto-issue attempt with its outcome
// (success, failure, timeout, rejected).
func (m *Metrics) RecordAutoIssue(outcome string) {
	m.AutoIssueAttempts.WithLabelValues(outcome).Inc()
}

// ObserveRequestDuration records one request's latency in seconds.
func (m *Metrics) ObserveRequestDuration(method string, seconds float64) {
	m.RequestDuration.WithLabelValues(method).Observe(seconds)
}
