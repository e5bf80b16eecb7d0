// Package logging assembles structured slog loggers and formatting helpers used
// across shuttle components.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes helpers that keep warning and decision logs uniform:
// every WARN carries an event type, a remediation hint, and the user-facing
// impact. The package also provides a no-op logger for tests and wiring code
// that cannot fail.
package logging
