package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AnalysisMetrics covers the analysis pipeline: job outcomes, per-job volume
// and duration, and in-flight classification pressure.
type AnalysisMetrics struct {
	jobsTotal        *prometheus.CounterVec
	jobDuration      *prometheus.HistogramVec
	imagesAnalyzed   prometheus.Counter
	matchesFound     prometheus.Counter
	jobsInFlight     prometheus.Gauge
	classifierErrors prometheus.Counter
}

func NewAnalysisMetrics(service string, registry *prometheus.Registry) *AnalysisMetrics {
	constLabels := prometheus.Labels{"service": service}

	jobsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "camsight",
			Subsystem:   "analysis",
			Name:        "jobs_total",
			Help:        "Total analysis jobs by terminal status.",
			ConstLabels: constLabels,
		},
		[]string{"status"},
	)
	jobDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   "camsight",
			Subsystem:   "analysis",
			Name:        "job_duration_seconds",
			Help:        "Analysis job duration in seconds.",
			Buckets:     []float64{1, 5, 15, 30, 60, 120, 300, 600},
			ConstLabels: constLabels,
		},
		[]string{"status"},
	)
	imagesAnalyzed := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   "camsight",
			Subsystem:   "analysis",
			Name:        "images_analyzed_total",
			Help:        "Total images classified across all jobs.",
			ConstLabels: constLabels,
		},
	)
	matchesFound := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   "camsight",
			Subsystem:   "analysis",
			Name:        "matches_found_total",
			Help:        "Total matching images across all jobs.",
			ConstLabels: constLabels,
		},
	)
	jobsInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "camsight",
			Subsystem:   "analysis",
			Name:        "jobs_in_flight",
			Help:        "Number of running analysis jobs.",
			ConstLabels: constLabels,
		},
	)
	classifierErrors := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   "camsight",
			Subsystem:   "vision",
			Name:        "classifier_errors_total",
			Help:        "Total images whose classification failed after retries.",
			ConstLabels: constLabels,
		},
	)

	registry.MustRegister(jobsTotal, jobDuration, imagesAnalyzed, matchesFound, jobsInFlight, classifierErrors)

	return &AnalysisMetrics{
		jobsTotal:        jobsTotal,
		jobDuration:      jobDuration,
		imagesAnalyzed:   imagesAnalyzed,
		matchesFound:     matchesFound,
		jobsInFlight:     jobsInFlight,
		classifierErrors: classifierErrors,
	}
}

func (m *AnalysisMetrics) JobStarted() {
	m.jobsInFlight.Inc()
}

func (m *AnalysisMetrics) JobFinished(status string, duration time.Duration, images, matches, failures int) {
	m.jobsInFlight.Dec()
	m.jobsTotal.WithLabelValues(status).Inc()
	m.jobDuration.WithLabelValues(status).Observe(duration.Seconds())
	if images > 0 {
		m.imagesAnalyzed.Add(float64(images))
	}
	if matches > 0 {
		m.matchesFound.Add(float64(matches))
	}
	if failures > 0 {
		m.classifierErrors.Add(float64(failures))
	}
}
