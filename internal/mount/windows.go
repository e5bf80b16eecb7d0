package mount

import (
	"context"
	"log/slog"

	"shuttle/internal/device"
	"shuttle/internal/logging"
)

const unformattedHint = "the device may be unformatted or have no partitions"

// windowsVariant resolves the drive letter Windows already assigned. It never
// calls out to the system, and requested mount points are ignored.
type windowsVariant struct {
	registry *device.Registry
	logger   *slog.Logger
}

func (v *windowsVariant) mount(ctx context.Context, target string, _ Request) (Result, error) {
	selected, ok := v.registry.Selected()
	if !ok {
		return Result{}, newError(ErrNoMountpoint, "mount", target, "no drive letter known", unformattedHint, nil)
	}
	if selected.MountPoint != "" {
		logging.WithContext(ctx, v.logger).Info("using drive", logging.String(logging.FieldMountPoint, selected.MountPoint))
		return Result{MountPoint: selected.MountPoint, Device: selected.ID, Reused: true}, nil
	}
	if len(selected.Partitions) > 0 {
		part := selected.Partitions[0]
		if part.MountPoint == "" {
			return Result{}, newError(ErrNoMountpoint, "mount", part.ID, "partition has no drive letter", unformattedHint, nil)
		}
		logging.WithContext(ctx, v.logger).Info("using drive", logging.String(logging.FieldMountPoint, part.MountPoint))
		return Result{MountPoint: part.MountPoint, Device: part.ID, Reused: true}, nil
	}
	return Result{}, newError(ErrNoMountpoint, "mount", selected.ID, "no drive letter found", unformattedHint, nil)
}

func (v *windowsVariant) unmount(ctx context.Context, mountPoint string) error {
	logging.WithContext(ctx, v.logger).Info("windows drives do not need to be unmounted",
		logging.String(logging.FieldMountPoint, mountPoint))
	v.registry.ClearActive(mountPoint)
	return nil
}
