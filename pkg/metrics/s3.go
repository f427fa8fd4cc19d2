package metrics

import "time"

// S3Metrics observes the gateway's S3-facing operations: plain calls
// (list, head, get, put, delete, copy) and the multipart upload state
// machine. Implementations must tolerate a nil receiver's methods never
// being called — callers always nil-check via the package-level
// Observe*/Record* helpers below so passing a nil S3Metrics costs nothing.
type S3Metrics interface {
	// ObserveOperation records one S3 call's outcome and latency.
	// operation is the S3 API name (e.g. "ListObjectsV2", "PutObject").
	ObserveOperation(operation string, duration time.Duration, err error)

	// RecordBytes records bytes transferred for a streaming operation
	// (e.g. "download", "upload_part").
	RecordBytes(operation string, bytes int64)

	// SetActiveUploads reports the current number of in-flight multipart
	// uploads tracked by the upload service's uploadId map.
	SetActiveUploads(count int)

	// ObservePartSize records the size of one uploaded multipart part.
	ObservePartSize(bytes int64)

	// RecordOrphanedUpload counts a multipart upload left OPEN by an
	// uncaught error or an abandoned client, discovered later.
	RecordOrphanedUpload()

	// RecordMultipartAborted counts an explicit client-driven abort.
	RecordMultipartAborted()
}

// NewS3Metrics creates a Prometheus-backed S3Metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called). When
// nil is returned, callers should pass nil to the service constructors
// that accept an S3Metrics, which results in zero overhead.
func NewS3Metrics() S3Metrics {
	if !IsEnabled() {
		return nil
	}
	return newPrometheusS3Metrics()
}

// newPrometheusS3Metrics is implemented in pkg/metrics/prometheus/s3.go.
// This indirection avoids an import cycle between pkg/metrics and
// pkg/metrics/prometheus while keeping the public API in one package.
var newPrometheusS3Metrics func() S3Metrics

// RegisterS3MetricsConstructor registers the Prometheus S3 metrics
// constructor. Called by pkg/metrics/prometheus's package init.
func RegisterS3MetricsConstructor(constructor func() S3Metrics) {
	newPrometheusS3Metrics = constructor
}

// ObserveOperation records an S3 operation's duration and outcome.
func ObserveOperation(m S3Metrics, operation string, duration time.Duration, err error) {
	if m != nil {
		m.ObserveOperation(operation, duration, err)
	}
}

// RecordBytes records bytes transferred for a streaming operation.
func RecordBytes(m S3Metrics, operation string, bytes int64) {
	if m != nil {
		m.RecordBytes(operation, bytes)
	}
}

// SetActiveUploads reports the current in-flight multipart upload count.
func SetActiveUploads(m S3Metrics, count int) {
	if m != nil {
		m.SetActiveUploads(count)
	}
}

// ObservePartSize records one uploaded multipart part's size.
func ObservePartSize(m S3Metrics, bytes int64) {
	if m != nil {
		m.ObservePartSize(bytes)
	}
}

// RecordOrphanedUpload counts a multipart upload discovered abandoned.
func RecordOrphanedUpload(m S3Metrics) {
	if m != nil {
		m.RecordOrphanedUpload()
	}
}

// RecordMultipartAborted counts an explicit client-driven abort.
func RecordMultipartAborted(m S3Metrics) {
	if m != nil {
		m.RecordMultipartAborted()
	}
}
