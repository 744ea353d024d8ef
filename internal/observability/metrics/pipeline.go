package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PipelineMetrics instruments the worker side of the document pipeline:
// per-stage outcomes and durations, in-flight documents, and the wait
// between upload and admission.
type PipelineMetrics struct {
	registry *prometheus.Registry

	stageTotal      *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
	inFlight        prometheus.Gauge
	admissionWait   prometheus.Histogram
	admissionsTotal prometheus.Counter
}

func NewPipelineMetrics(service string) *PipelineMetrics {
	registry := prometheus.NewRegistry()

	stageTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chrono",
			Subsystem: "pipeline",
			Name:      "stage_total",
			Help:      "Pipeline stage completions by stage and outcome.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
		[]string{"stage", "outcome"},
	)
	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "chrono",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds by stage and outcome.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
		[]string{"stage", "outcome"},
	)
	inFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "chrono",
			Subsystem: "pipeline",
			Name:      "documents_in_flight",
			Help:      "Number of documents currently inside pipeline stages.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	admissionWait := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "chrono",
			Subsystem: "pipeline",
			Name:      "admission_wait_seconds",
			Help:      "Delay between document upload and pipeline admission.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	admissionsTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chrono",
			Subsystem: "pipeline",
			Name:      "admissions_total",
			Help:      "Total documents admitted into the pipeline.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(stageTotal, stageDuration, inFlight, admissionWait, admissionsTotal)

	return &PipelineMetrics{
		registry:        registry,
		stageTotal:      stageTotal,
		stageDuration:   stageDuration,
		inFlight:        inFlight,
		admissionWait:   admissionWait,
		admissionsTotal: admissionsTotal,
	}
}

func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *PipelineMetrics) StartDocument() {
	m.inFlight.Inc()
	m.admissionsTotal.Inc()
}

func (m *PipelineMetrics) FinishDocument(stage string, duration time.Duration, err error) {
	m.inFlight.Dec()

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.stageTotal.WithLabelValues(stage, outcome).Inc()
	m.stageDuration.WithLabelValues(stage, outcome).Observe(duration.Seconds())
}

func (m *PipelineMetrics) ObserveAdmissionWait(wait time.Duration) {
	if wait < 0 {
		return
	}
	m.admissionWait.Observe(wait.Seconds())
}
