package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldSessionID identifies one mount session in the journal.
	FieldSessionID = "session_id"
	// FieldDevice is the platform-native device or partition handle.
	FieldDevice = "device"
	// FieldMountPoint is the filesystem path a device is mounted at.
	FieldMountPoint = "mount_point"
	// FieldStrategy names the detection tier that produced a result.
	FieldStrategy = "strategy"
	// FieldEventType classifies warnings and errors for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to do next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldDecisionType groups decision logs by the choice being made.
	FieldDecisionType = "decision_type"
)

type sessionKey struct{}

// WithSessionID attaches a mount session identifier to ctx.
func WithSessionID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionIDFromContext returns the session identifier stored by WithSessionID.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(sessionKey{}).(string)
	return id, ok && id != ""
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if id, ok := SessionIDFromContext(ctx); ok {
		return logger.With(slog.String(FieldSessionID, id))
	}
	return logger
}
