// Package privilege answers whether the process may perform mount operations.
package privilege

import (
	"log/slog"

	"shuttle/internal/logging"
	"shuttle/internal/platform"
)

// Probe reports whether the current process runs with administrative rights.
type Probe func() (bool, error)

// Checker evaluates elevation for one platform.
type Checker struct {
	platform platform.Platform
	probe    Probe
	logger   *slog.Logger
}

// New returns a Checker using the host's elevation probe.
func New(p platform.Platform, logger *slog.Logger) *Checker {
	return NewWithProbe(p, logger, hostElevated)
}

// NewWithProbe returns a Checker using probe instead of the host check.
func NewWithProbe(p platform.Platform, logger *slog.Logger, probe Probe) *Checker {
	if probe == nil {
		probe = hostElevated
	}
	return &Checker{
		platform: p,
		probe:    probe,
		logger:   logging.NewComponentLogger(logger, "privilege"),
	}
}

// IsElevated reports whether the process has administrative rights. Probe
// failures count as not elevated.
func (c *Checker) IsElevated() bool {
	elevated, err := c.probe()
	if err != nil {
		c.logger.Debug("elevation probe failed", logging.Error(err))
		return false
	}
	return elevated
}

// CheckPermissions reports whether mount operations may proceed. Windows
// drives are mounted by the OS, so the answer there is always true.
func (c *Checker) CheckPermissions() bool {
	if c.platform == platform.Windows {
		return true
	}
	if c.IsElevated() {
		return true
	}
	logging.WarnWithContext(c.logger, "root privileges required for mount operations", "privilege_missing",
		logging.String(logging.FieldErrorHint, "run shuttle with sudo"),
		logging.String(logging.FieldImpact, "mount and unmount will be refused"),
	)
	return false
}
