// Package metrics exposes Prometheus instrumentation for the HTTP layer and
// the form builder.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const namespace = "formcraft"

// Metrics holds all application metrics.
type Metrics struct {
	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Builder
	BuilderOperationsTotal *prometheus.CounterVec
	BuilderRejectionsTotal *prometheus.CounterVec
	BuilderSessionsActive  prometheus.Gauge

	// Forms and submissions
	FormsSavedTotal       *prometheus.CounterVec
	FormsDeletedTotal     prometheus.Counter
	SubmissionsTotal      prometheus.Counter
	SubmissionsPersisted  *prometheus.CounterVec
	SubmissionQueueLength prometheus.Gauge

	gatherer prometheus.Gatherer
	log      zerolog.Logger
}

// New creates metrics on a fresh registry that also carries the Go and
// process collectors.
func New(log zerolog.Logger) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg, reg, log)
}

// NewWithRegistry creates and registers all metrics with the given
// registerer; gatherer backs the /metrics handler.
func NewWithRegistry(registerer prometheus.Registerer, gatherer prometheus.Gatherer, log zerolog.Logger) *Metrics {
	factory := promauto.With(registerer)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "endpoint"},
		),

		BuilderOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "builder_operations_total",
				Help:      "Builder operations that changed session state",
			},
			[]string{"operation"},
		),
		BuilderRejectionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "builder_rejections_total",
				Help:      "Builder operations rejected by validation",
			},
			[]string{"operation", "reason"},
		),
		BuilderSessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "builder_sessions_active",
				Help:      "Builder sessions opened and not yet closed by this instance",
			},
		),

		FormsSavedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "forms_saved_total",
				Help:      "Forms saved, by resulting status",
			},
			[]string{"status"},
		),
		FormsDeletedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "forms_deleted_total",
				Help:      "Forms deleted",
			},
		),
		SubmissionsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "submissions_total",
				Help:      "Learner submissions accepted",
			},
		),
		SubmissionsPersisted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "submissions_persisted_total",
				Help:      "Submissions flushed from Redis to PostgreSQL, by result",
			},
			[]string{"result"},
		),
		SubmissionQueueLength: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "submission_queue_length",
				Help:      "Submissions waiting to be persisted",
			},
		),

		gatherer: gatherer,
		log:      log.With().Str("component", "metrics").Logger(),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// safeExecute keeps a misbehaving collector from taking a request down.
func (m *Metrics) safeExecute(operation string, fn func()) {
	if m == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			m.log.Error().
				Str("operation", operation).
				Interface("panic", r).
				Msg("Panic in metrics operation")
		}
	}()
	fn()
}
