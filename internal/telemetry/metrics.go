package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the verification pipeline and the
// background workers. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Address verification
	VerificationAttempts *prometheus.CounterVec
	VerificationOutcomes *prometheus.CounterVec
	ProviderLatency      *prometheus.HistogramVec

	// Validation
	ValidationOutcomes *prometheus.CounterVec

	// Imports
	ImportsCreated   prometheus.Counter
	ImportsFailed    prometheus.Counter
	ShipmentsCreated prometheus.Counter
	LabelsPurchased  prometheus.Counter

	// Background jobs
	JobsEnqueued  *prometheus.CounterVec
	JobsProcessed *prometheus.CounterVec
	JobsFailed    *prometheus.CounterVec
	JobDuration   *prometheus.HistogramVec
}

// NewMetrics creates the pipeline metrics and registers them with reg.
// Tests pass a fresh prometheus.NewRegistry() to avoid duplicate registration.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "parcelry"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		// =======================================================================
		// Address Verification
		// =======================================================================
		VerificationAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "address",
				Name:      "verification_attempts_total",
				Help:      "Provider calls made while verifying addresses",
			},
			[]string{"provider", "status"}, // status: SUCCESS, FAILURE
		),
		VerificationOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "address",
				Name:      "verification_outcomes_total",
				Help:      "Final verification status per address",
			},
			[]string{"address_type", "status"},
		),
		ProviderLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "address",
				Name:      "provider_duration_seconds",
				Help:      "Provider call duration (separates provider slowness from ours)",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"provider"},
		),

		// =======================================================================
		// Validation
		// =======================================================================
		ValidationOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "shipment",
				Name:      "validation_outcomes_total",
				Help:      "Validation status computed for shipments",
			},
			[]string{"status"},
		),

		// =======================================================================
		// Imports
		// =======================================================================
		ImportsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "import",
				Name:      "created_total",
				Help:      "CSV imports accepted",
			},
		),
		ImportsFailed: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "import",
				Name:      "failed_total",
				Help:      "CSV imports rejected while parsing",
			},
		),
		ShipmentsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "import",
				Name:      "shipments_created_total",
				Help:      "Shipments created from import rows",
			},
		),
		LabelsPurchased: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "label",
				Name:      "purchased_total",
				Help:      "Labels purchased",
			},
		),

		// =======================================================================
		// Background Jobs
		// =======================================================================
		JobsEnqueued: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "jobs",
				Name:      "enqueued_total",
				Help:      "Background jobs enqueued",
			},
			[]string{"job_type"},
		),
		JobsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "jobs",
				Name:      "processed_total",
				Help:      "Background jobs completed successfully",
			},
			[]string{"job_type"},
		),
		JobsFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "jobs",
				Name:      "failed_total",
				Help:      "Background job executions that returned an error",
			},
			[]string{"job_type"},
		),
		JobDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "jobs",
				Name:      "duration_seconds",
				Help:      "Background job execution time",
				Buckets:   []float64{.1, .5, 1, 5, 15, 30, 60, 120},
			},
			[]string{"job_type"},
		),
	}
}

// =============================================================================
// Recording helpers (nil-safe)
// =============================================================================

// RecordAttempt counts one provider call and its latency.
func (m *Metrics) RecordAttempt(provider, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.VerificationAttempts.WithLabelValues(provider, status).Inc()
	m.ProviderLatency.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// RecordVerification counts the final status of one address verification.
func (m *Metrics) RecordVerification(addressType, status string) {
	if m == nil {
		return
	}
	m.VerificationOutcomes.WithLabelValues(addressType, status).Inc()
}

// RecordValidation counts one computed validation status.
func (m *Metrics) RecordValidation(status string) {
	if m == nil {
		return
	}
	m.ValidationOutcomes.WithLabelValues(status).Inc()
}

// RecordImport counts an accepted import and the shipments it created.
func (m *Metrics) RecordImport(shipments int) {
	if m == nil {
		return
	}
	m.ImportsCreated.Inc()
	m.ShipmentsCreated.Add(float64(shipments))
}

// RecordImportFailure counts an import rejected while parsing.
func (m *Metrics) RecordImportFailure() {
	if m == nil {
		return
	}
	m.ImportsFailed.Inc()
}

// RecordPurchase counts purchased labels.
func (m *Metrics) RecordPurchase(count int) {
	if m == nil {
		return
	}
	m.LabelsPurchased.Add(float64(count))
}

// RecordJobEnqueued counts an enqueued job.
func (m *Metrics) RecordJobEnqueued(jobType string) {
	if m == nil {
		return
	}
	m.JobsEnqueued.WithLabelValues(jobType).Inc()
}

// RecordJob counts a finished job execution.
func (m *Metrics) RecordJob(jobType string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.JobDuration.WithLabelValues(jobType).Observe(elapsed.Seconds())
	if err != nil {
		m.JobsFailed.WithLabelValues(jobType).Inc()
		return
	}
	m.JobsProcessed.WithLabelValues(jobType).Inc()
}
