//go:build !linux

package monitor

import (
	"context"
	"log/slog"
)

// Monitor is inert on platforms without udev.
type Monitor struct{}

// New returns an inert monitor.
func New(*slog.Logger, Handler) *Monitor {
	return &Monitor{}
}

// Start always fails with ErrUnsupported.
func (m *Monitor) Start(context.Context) error {
	return ErrUnsupported
}

// Stop does nothing.
func (m *Monitor) Stop() {}

// Running is always false.
func (m *Monitor) Running() bool {
	return false
}
