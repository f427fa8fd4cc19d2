package logger

import (
	"context"
	"time"
)

type ctxKey struct{}

// LogContext carries request-scoped fields that get attached to every log
// line emitted while handling one HTTP request.
type LogContext struct {
	RequestID    string
	SessionID    string
	ConnectionID string
	Bucket       string
	ClientIP     string
	StartTime    time.Time
}

// NewLogContext creates a LogContext with StartTime set to now.
func NewLogContext() *LogContext {
	return &LogContext{StartTime: time.Now()}
}

// WithContext returns a new context carrying lc.
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, lc)
}

// FromContext extracts the LogContext, or nil if none was attached.
func FromContext(ctx context.Context) *LogContext {
	lc, _ := ctx.Value(ctxKey{}).(*LogContext)
	return lc
}

// Clone returns a shallow copy of lc.
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	clone := *lc
	return &clone
}

// WithConnection returns a clone of lc with ConnectionID set.
func (lc *LogContext) WithConnection(connectionID string) *LogContext {
	clone := lc.Clone()
	clone.ConnectionID = connectionID
	return clone
}

// WithBucket returns a clone of lc with Bucket set.
func (lc *LogContext) WithBucket(bucket string) *LogContext {
	clone := lc.Clone()
	clone.Bucket = bucket
	return clone
}

// DurationMs returns the elapsed time since StartTime in milliseconds.
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
