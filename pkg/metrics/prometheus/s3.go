package prometheus

import (
	"time"

	"github.com/andrewtheguy/s3browser-sub000/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// s3Metrics is the Prometheus implementation of metrics.S3Metrics.
type s3Metrics struct {
	operationsTotal       *prometheus.CounterVec
	operationDuration     *prometheus.HistogramVec
	bytesTransferred      *prometheus.CounterVec
	activeUploads         prometheus.Gauge
	multipartPartSize     prometheus.Histogram
	orphanedUploads       prometheus.Counter
	multipartAbortedTotal prometheus.Counter
}

func init() {
	metrics.RegisterS3MetricsConstructor(newS3Metrics)
}

// NewS3Metrics creates a new Prometheus-backed S3Metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewS3Metrics() metrics.S3Metrics {
	return newS3Metrics()
}

func newS3Metrics() metrics.S3Metrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &s3Metrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "s3browser_s3_operations_total",
				Help: "Total number of S3 operations by operation type and status",
			},
			[]string{"operation", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "s3browser_s3_operation_duration_milliseconds",
				Help: "Duration of S3 operations in milliseconds",
				Buckets: []float64{
					10,    // fast metadata operations
					50,    // small object operations
					100,
					500,
					1000,  // medium objects
					5000,  // large objects
					10000, // multipart uploads
					30000, // recursive enumerate / batch operations
				},
			},
			[]string{"operation"},
		),
		bytesTransferred: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "s3browser_s3_bytes_transferred_total",
				Help: "Total bytes transferred via S3 operations",
			},
			[]string{"operation", "direction"},
		),
		activeUploads: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "s3browser_s3_active_multipart_uploads",
				Help: "Current number of multipart uploads open in the uploadId map",
			},
		),
		multipartPartSize: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "s3browser_s3_multipart_part_bytes",
				Help: "Distribution of uploaded multipart part sizes in bytes",
				Buckets: []float64{
					1 << 20,  // 1 MiB
					5 << 20,  // 5 MiB
					10 << 20, // 10 MiB (fixed part size)
				},
			},
		),
		orphanedUploads: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "s3browser_s3_multipart_orphaned_total",
				Help: "Total number of multipart uploads found left OPEN by an uncaught error",
			},
		),
		multipartAbortedTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "s3browser_s3_multipart_aborted_total",
				Help: "Total number of multipart uploads explicitly aborted",
			},
		),
	}
}

func (m *s3Metrics) ObserveOperation(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	m.operationsTotal.WithLabelValues(operation, status).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds() * 1000)
}

func (m *s3Metrics) RecordBytes(operation string, bytes int64) {
	if bytes <= 0 {
		return
	}

	direction := "write"
	if operation == "GetObject" || operation == "download" || operation == "preview" {
		direction = "read"
	}

	m.bytesTransferred.WithLabelValues(operation, direction).Add(float64(bytes))
}

func (m *s3Metrics) SetActiveUploads(count int) {
	m.activeUploads.Set(float64(count))
}

func (m *s3Metrics) ObservePartSize(bytes int64) {
	m.multipartPartSize.Observe(float64(bytes))
}

func (m *s3Metrics) RecordOrphanedUpload() {
	m.orphanedUploads.Inc()
}

func (m *s3Metrics) RecordMultipartAborted() {
	m.multipartAbortedTotal.Inc()
}
