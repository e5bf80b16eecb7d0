package mount

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shuttle/internal/command"
	"shuttle/internal/device"
	"shuttle/internal/logging"
)

const sudoHint = "run shuttle with sudo for mount operations"

type posixVariant struct {
	registry *device.Registry
	runner   command.Runner
	logger   *slog.Logger
	timeout  time.Duration
	baseDir  string
	pid      func() int
	mkdirAll func(string, os.FileMode) error
	remove   func(string) error
}

func (v *posixVariant) mount(ctx context.Context, target string, req Request) (Result, error) {
	logger := logging.WithContext(ctx, v.logger)
	override := strings.TrimSpace(req.Device)

	if selected, ok := v.registry.Selected(); ok && (override == "" || selected.Owns(override)) {
		if part, mounted := selected.FirstMounted(); mounted {
			attrs := append(logging.DecisionAttrs("mount_target", "reuse", "partition already has a mount point"),
				logging.String(logging.FieldDevice, part.ID),
				logging.String(logging.FieldMountPoint, part.MountPoint),
			)
			logger.Info("device already mounted", logging.Args(attrs...)...)
			return Result{MountPoint: part.MountPoint, Device: part.ID, Reused: true}, nil
		}
		if override == "" && len(selected.Partitions) > 0 {
			target = selected.Partitions[0].ID
		}
	}

	requested := strings.TrimSpace(req.MountPoint)
	if active := v.registry.ActiveMountPoint(); active != "" && v.registry.ActiveDevice() == target &&
		(requested == "" || filepath.Clean(requested) == filepath.Clean(active)) {
		attrs := append(logging.DecisionAttrs("mount_target", "reuse", "device is the active mount"),
			logging.String(logging.FieldDevice, target),
			logging.String(logging.FieldMountPoint, active),
		)
		logger.Info("device already mounted", logging.Args(attrs...)...)
		return Result{MountPoint: active, Device: target, Reused: true}, nil
	}

	mountPoint := requested
	if mountPoint == "" {
		mountPoint = DefaultMountPoint(v.baseDir, v.pid())
	}

	created := false
	if _, err := os.Stat(mountPoint); errors.Is(err, fs.ErrNotExist) {
		created = true
	}
	if err := v.mkdirAll(mountPoint, 0o755); err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return Result{}, newError(ErrPermissionDenied, "mount", target, "create mount point "+mountPoint, sudoHint, err)
		}
		return Result{}, newError(ErrMountFailed, "mount", target, "create mount point "+mountPoint, "check the mount base directory", err)
	}

	logger.Debug("running mount",
		logging.String(logging.FieldDevice, target),
		logging.String(logging.FieldMountPoint, mountPoint),
		logging.Duration("timeout", v.timeout),
	)
	res, err := v.runner.Run(ctx, v.timeout, "mount", target, mountPoint)
	if err != nil {
		v.discard(mountPoint, created)
		switch {
		case errors.Is(err, command.ErrTimeout):
			return Result{}, newError(ErrMountTimeout, "mount", target, "", "check the device is responsive and retry", err)
		case errors.Is(err, command.ErrPermission):
			return Result{}, newError(ErrPermissionDenied, "mount", target, "", sudoHint, err)
		default:
			return Result{}, newError(ErrMountFailed, "mount", target, "", "check that mount(8) is installed", err)
		}
	}

	if res.ExitCode != 0 {
		output := res.Output()
		switch {
		case containsAny(output, alreadyMountedMarkers):
			attrs := append(logging.DecisionAttrs("mount_result", "accept", "mount reported already mounted"),
				logging.String(logging.FieldDevice, target),
				logging.String(logging.FieldMountPoint, mountPoint),
			)
			logger.Info("device is already mounted", logging.Args(attrs...)...)
			return Result{MountPoint: mountPoint, Device: target, Created: created, Reused: true}, nil
		case containsAny(output, permissionMarkers):
			v.discard(mountPoint, created)
			return Result{}, newError(ErrPermissionDenied, "mount", target, output, sudoHint, nil)
		default:
			v.discard(mountPoint, created)
			return Result{}, newError(ErrMountFailed, "mount", target, output, "check the device filesystem and kernel log", nil)
		}
	}

	return Result{MountPoint: mountPoint, Device: target, Created: created}, nil
}

// discard removes a mount point directory this call created. Non-empty or
// foreign directories are left alone.
func (v *posixVariant) discard(mountPoint string, created bool) {
	if !created {
		return
	}
	if err := v.remove(mountPoint); err != nil && !errors.Is(err, fs.ErrNotExist) {
		v.logger.Debug("mount point not removed", logging.String(logging.FieldMountPoint, mountPoint), logging.Error(err))
	}
}

func (v *posixVariant) unmount(ctx context.Context, mountPoint string) error {
	res, err := v.runner.Run(ctx, v.timeout, "umount", mountPoint)
	if err != nil {
		hint := "check that umount(8) is installed"
		if errors.Is(err, command.ErrTimeout) {
			hint = "the device may be busy; close open files and retry"
		}
		return newError(ErrUnmountFailed, "unmount", mountPoint, "", hint, err)
	}
	if res.ExitCode != 0 {
		output := res.Output()
		hint := "check the mount point and retry"
		switch {
		case containsAny(output, permissionMarkers):
			hint = sudoHint
		case containsAny(output, busyMarkers):
			hint = "close files and shells using the mount point"
		}
		return newError(ErrUnmountFailed, "unmount", mountPoint, output, hint, nil)
	}

	v.registry.RecordUnmount(mountPoint)
	logging.WithContext(ctx, v.logger).Info("device unmounted", logging.String(logging.FieldMountPoint, mountPoint))
	return nil
}
