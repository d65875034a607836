package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the annotation service
type Metrics struct {
	// Evaluation metrics
	EvaluationsSubmitted prometheus.Counter
	EvaluationsUpdated   prometheus.Counter
	EvaluationDefects    prometheus.Histogram

	// Segmentation metrics
	RecordingsSegmented prometheus.Counter
	SegmentationErrors  prometheus.Counter
	ChunksGenerated     prometheus.Counter
	ChunkDuration       prometheus.Histogram
	SegmentationTime    prometheus.Histogram

	// Pipeline trigger metrics
	PipelineTriggers *prometheus.CounterVec
	PipelineFailures *prometheus.CounterVec

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		// Evaluation metrics
		EvaluationsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "annotation_evaluations_submitted_total",
			Help: "Total number of new chunk evaluations submitted",
		}),
		EvaluationsUpdated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "annotation_evaluations_updated_total",
			Help: "Total number of evaluations replaced by resubmission",
		}),
		EvaluationDefects: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "annotation_evaluation_defects",
			Help:    "Defect flags raised per submitted evaluation",
			Buckets: prometheus.LinearBuckets(0, 1, 8), // 0 to 7 flags
		}),

		// Segmentation metrics
		RecordingsSegmented: promauto.NewCounter(prometheus.CounterOpts{
			Name: "annotation_recordings_segmented_total",
			Help: "Total number of recordings run through the segmenter",
		}),
		SegmentationErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "annotation_segmentation_errors_total",
			Help: "Total number of failed segmentation jobs",
		}),
		ChunksGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "annotation_chunks_generated_total",
			Help: "Total number of audio chunks written by the segmenter",
		}),
		ChunkDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "annotation_chunk_duration_seconds",
			Help:    "Duration of generated audio chunks",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8), // 0.5s to ~2 minutes
		}),
		SegmentationTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "annotation_segmentation_duration_seconds",
			Help:    "Wall time spent segmenting one recording",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~2 minutes
		}),

		// Pipeline trigger metrics
		PipelineTriggers: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "annotation_pipeline_triggers_total",
			Help: "Total number of GPU pipeline triggers sent, by stage",
		}, []string{"stage"}),
		PipelineFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "annotation_pipeline_failures_total",
			Help: "Total number of GPU pipeline triggers not accepted, by stage",
		}, []string{"stage"}),

		// HTTP API metrics
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "annotation_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "annotation_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "annotation_http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// RecordEvaluation records a stored evaluation and whether it was new
func (m *Metrics) RecordEvaluation(created bool, defectCount int) {
	if created {
		m.EvaluationsSubmitted.Inc()
	} else {
		m.EvaluationsUpdated.Inc()
	}
	m.EvaluationDefects.Observe(float64(defectCount))
}

// RecordSegmentation records a completed segmentation job
func (m *Metrics) RecordSegmentation(durationSeconds float64) {
	m.RecordingsSegmented.Inc()
	m.SegmentationTime.Observe(durationSeconds)
}

// RecordSegmentationError increments the failed job counter
func (m *Metrics) RecordSegmentationError() {
	m.SegmentationErrors.Inc()
}

// RecordChunkGenerated records one chunk written by the segmenter
func (m *Metrics) RecordChunkGenerated(durationSeconds float64) {
	m.ChunksGenerated.Inc()
	m.ChunkDuration.Observe(durationSeconds)
}

// RecordPipelineTrigger records a trigger attempt for a stage
func (m *Metrics) RecordPipelineTrigger(stage string, accepted bool) {
	m.PipelineTriggers.WithLabelValues(stage).Inc()
	if !accepted {
		m.PipelineFailures.WithLabelValues(stage).Inc()
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP error
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
