package mount

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shuttle/internal/command"
	"shuttle/internal/device"
	"shuttle/internal/logging"
	"shuttle/internal/platform"
)

const defaultTimeout = 30 * time.Second

// Request names what to mount and where. Empty fields fall back to the
// registry's selection and the default mount point.
type Request struct {
	Device     string
	MountPoint string
}

// Result describes a successful mount.
type Result struct {
	MountPoint string `json:"mount_point"`
	Device     string `json:"device"`
	// Created is set when shuttle made the mount point directory.
	Created bool `json:"created"`
	// Reused is set when no mount call was needed.
	Reused bool `json:"reused"`
}

// Options configures an Orchestrator. Zero values select defaults.
type Options struct {
	Runner  command.Runner
	Logger  *slog.Logger
	Timeout time.Duration
	// BaseDir holds default mount points; empty means os.TempDir().
	BaseDir string
}

type variant interface {
	mount(ctx context.Context, target string, req Request) (Result, error)
	unmount(ctx context.Context, mountPoint string) error
}

// Orchestrator mounts and unmounts devices held in a device.Registry.
type Orchestrator struct {
	platform platform.Platform
	registry *device.Registry
	variant  variant
	logger   *slog.Logger
}

// New returns an Orchestrator for p operating on registry.
func New(p platform.Platform, registry *device.Registry, opts Options) *Orchestrator {
	logger := logging.NewComponentLogger(opts.Logger, "mount")
	if registry == nil {
		registry = device.NewRegistry()
	}

	o := &Orchestrator{platform: p, registry: registry, logger: logger}
	switch p {
	case platform.Windows:
		o.variant = &windowsVariant{registry: registry, logger: logger}
	default:
		runner := opts.Runner
		if runner == nil {
			runner = command.NewRunner()
		}
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		baseDir := strings.TrimSpace(opts.BaseDir)
		if baseDir == "" {
			baseDir = os.TempDir()
		}
		o.variant = &posixVariant{
			registry: registry,
			runner:   runner,
			logger:   logger,
			timeout:  timeout,
			baseDir:  baseDir,
			pid:      os.Getpid,
			mkdirAll: os.MkdirAll,
			remove:   os.Remove,
		}
	}
	return o
}

// DefaultMountPoint returns the per-process mount point under baseDir.
func DefaultMountPoint(baseDir string, pid int) string {
	return filepath.Join(baseDir, fmt.Sprintf("shuttle_usb_%d", pid))
}

// Mount attaches req.Device, or the selected device when empty, and records
// the result as the registry's active mount.
func (o *Orchestrator) Mount(ctx context.Context, req Request) (Result, error) {
	logger := logging.WithContext(ctx, o.logger)

	target := strings.TrimSpace(req.Device)
	if target == "" {
		if selected, ok := o.registry.Selected(); ok {
			target = selected.ID
		}
	}
	if target == "" {
		err := newError(ErrNoDeviceSpecified, "mount", "", "", "run detect and select a device, or pass a device path", nil)
		logging.ErrorWithContext(logger, "no device specified", "mount_no_device",
			logging.String(logging.FieldErrorHint, err.Hint))
		return Result{}, err
	}

	result, err := o.variant.mount(ctx, target, req)
	if err != nil {
		logging.ErrorWithContext(logger, "mount failed", "mount_failed",
			logging.String(logging.FieldDevice, target),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, HintFor(err)),
		)
		return Result{}, err
	}

	o.registry.RecordMount(result.Device, result.MountPoint)
	logger.Info("device ready",
		logging.String(logging.FieldDevice, result.Device),
		logging.String(logging.FieldMountPoint, result.MountPoint),
		logging.Bool("reused", result.Reused),
	)
	return result, nil
}

// Unmount detaches mountPoint, or the active mount when empty. With nothing
// to unmount it logs a warning and succeeds.
func (o *Orchestrator) Unmount(ctx context.Context, mountPoint string) error {
	logger := logging.WithContext(ctx, o.logger)

	target := strings.TrimSpace(mountPoint)
	if target == "" {
		target = o.registry.ActiveMountPoint()
	}
	if target == "" {
		logging.WarnWithContext(logger, "no mount point to unmount", "unmount_noop",
			logging.String(logging.FieldErrorHint, "mount a device first or pass a mount point"),
			logging.String(logging.FieldImpact, "nothing was unmounted"),
		)
		return nil
	}

	if err := o.variant.unmount(ctx, target); err != nil {
		logging.ErrorWithContext(logger, "unmount failed", "unmount_failed",
			logging.String(logging.FieldMountPoint, target),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, HintFor(err)),
		)
		return err
	}
	return nil
}

// Platform reports the variant in use.
func (o *Orchestrator) Platform() platform.Platform {
	return o.platform
}
