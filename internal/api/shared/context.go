package shared

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"log/slog"
	"time"
)

// ContextKey is the type of request context keys set by the API layer.
type ContextKey string

// Context keys
const (
	// UserIDContextKey holds the resolved user id of the caller.
	UserIDContextKey ContextKey = "userID"

	// TraceIDKey holds the request trace id.
	TraceIDKey ContextKey = "traceID"

	// TraceIDLength is the number of random bytes in a trace id.
	TraceIDLength = 16
)

// SetTraceID returns a copy of ctx carrying a fresh trace id.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, generateTraceID())
}

// GetTraceID returns the trace id in ctx, or "".
func GetTraceID(ctx context.Context) string {
	traceID, _ := ctx.Value(TraceIDKey).(string)
	return traceID
}

// generateTraceID returns 32 hex characters. If crypto/rand fails it falls
// back to a time-derived id rather than a constant.
func generateTraceID() string {
	b := make([]byte, TraceIDLength)
	if n, err := rand.Read(b); err != nil || n != TraceIDLength {
		slog.Error("failed to generate secure random trace ID",
			"error", err,
			"bytes_read", n,
			"fallback", "time-based generation")
		return fallbackTraceID(time.Now())
	}
	return hex.EncodeToString(b)
}

func fallbackTraceID(now time.Time) string {
	b := make([]byte, TraceIDLength)
	binary.BigEndian.PutUint64(b[:8], uint64(now.UnixNano()))
	binary.BigEndian.PutUint32(b[8:12], uint32(now.Nanosecond()))
	binary.BigEndian.PutUint32(b[12:16], uint32(now.Unix()))
	return hex.EncodeToString(b)
}
