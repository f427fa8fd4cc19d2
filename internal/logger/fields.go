package logger

// Structured log field keys shared across handlers and services, kept
// consistent so log lines can be grepped/aggregated by key.
const (
	KeyRequestID    = "request_id"
	KeySessionID    = "session_id"
	KeyConnectionID = "connection_id"
	KeyBucket       = "bucket"
	KeyKey          = "key"
	KeyOperation    = "operation"
	KeyMethod       = "method"
	KeyPath         = "path"
	KeyStatus       = "status"
	KeyBytes        = "bytes"
	KeyClientIP     = "client_ip"
	KeyDurationMs   = "duration_ms"
	KeyError        = "error"
	KeyUploadID     = "upload_id"
	KeyPartNumber   = "part_number"
	KeyVendor       = "vendor"
	KeyRegion       = "region"
)
