package device

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"shuttle/internal/command"
	"shuttle/internal/logging"
	"shuttle/internal/platform"
)

const (
	defaultLsblkTimeout      = 10 * time.Second
	defaultPowerShellTimeout = 15 * time.Second
	defaultWMICTimeout       = 10 * time.Second
	defaultSysBlockDir       = "/sys/block"
)

// strategy is one detection tier.
type strategy interface {
	name() string
	detect(ctx context.Context) ([]Device, error)
}

// DetectorOptions configures a Detector. Zero values select defaults.
type DetectorOptions struct {
	Runner            command.Runner
	Logger            *slog.Logger
	Registry          *Registry
	SysBlockDir       string
	LsblkTimeout      time.Duration
	PowerShellTimeout time.Duration
	WMICTimeout       time.Duration
}

// Detector enumerates removable devices through an ordered strategy chain.
type Detector struct {
	platform   platform.Platform
	strategies []strategy
	registry   *Registry
	logger     *slog.Logger
}

// NewDetector builds the strategy chain for p.
func NewDetector(p platform.Platform, opts DetectorOptions) *Detector {
	runner := opts.Runner
	if runner == nil {
		runner = command.NewRunner()
	}
	logger := logging.NewComponentLogger(opts.Logger, "device-detector")

	var strategies []strategy
	switch p {
	case platform.Windows:
		strategies = []strategy{
			powerShellStrategy{runner: runner, timeout: durationOr(opts.PowerShellTimeout, defaultPowerShellTimeout)},
			wmicStrategy{runner: runner, timeout: durationOr(opts.WMICTimeout, defaultWMICTimeout)},
		}
	default:
		root := opts.SysBlockDir
		if root == "" {
			root = defaultSysBlockDir
		}
		strategies = []strategy{
			lsblkStrategy{runner: runner, timeout: durationOr(opts.LsblkTimeout, defaultLsblkTimeout)},
			sysfsStrategy{root: root},
		}
	}

	return &Detector{
		platform:   p,
		strategies: strategies,
		registry:   opts.Registry,
		logger:     logger,
	}
}

// Strategies lists the tier names in evaluation order.
func (d *Detector) Strategies() []string {
	names := make([]string, len(d.strategies))
	for i, s := range d.strategies {
		names[i] = s.name()
	}
	return names
}

// Detect runs the strategy chain and returns the devices found. Failures are
// logged, never returned; an exhausted chain yields an empty slice. When a
// registry is attached its detected set is replaced with the result.
func (d *Detector) Detect(ctx context.Context) []Device {
	devices := d.run(ctx)
	if d.registry != nil {
		d.registry.Replace(devices)
	}
	return devices
}

func (d *Detector) run(ctx context.Context) []Device {
	logger := logging.WithContext(ctx, d.logger)
	for i, s := range d.strategies {
		devices, err := s.detect(ctx)
		if err == nil {
			logger.Info("removable devices detected",
				logging.String(logging.FieldStrategy, s.name()),
				logging.Int("device_count", len(devices)),
			)
			if devices == nil {
				devices = []Device{}
			}
			return devices
		}

		if errors.Is(err, command.ErrTimeout) {
			logging.ErrorWithContext(logger, "device detection timed out", "detection_timeout",
				logging.String(logging.FieldStrategy, s.name()),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check for hung devices or raise the detection timeout"),
			)
			return []Device{}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			logger.Info("device detection canceled", logging.Error(ctxErr))
			return []Device{}
		}

		if i < len(d.strategies)-1 {
			next := d.strategies[i+1].name()
			logging.WarnWithContext(logger, "detection strategy unavailable, trying next", "detection_fallback",
				logging.String(logging.FieldStrategy, s.name()),
				logging.String("next_strategy", next),
				logging.Error(err),
				logging.String(logging.FieldImpact, "falling back to "+next),
			)
			continue
		}
		logging.ErrorWithContext(logger, "device detection failed", "detection_failed",
			logging.String(logging.FieldStrategy, s.name()),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "install the detection tools or run shuttle doctor"),
		)
	}
	return []Device{}
}

// isTerminal reports errors that end the chain instead of advancing it.
func isTerminal(err error) bool {
	return errors.Is(err, command.ErrTimeout) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func durationOr(value, fallback time.Duration) time.Duration {
	if value <= 0 {
		return fallback
	}
	return value
}

// Platform reports the variant the chain was built for.
func (d *Detector) Platform() platform.Platform {
	return d.platform
}
