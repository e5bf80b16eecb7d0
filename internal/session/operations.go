package session

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"shuttle/internal/device"
	"shuttle/internal/journal"
	"shuttle/internal/logging"
	"shuttle/internal/mount"
	"shuttle/internal/platform"
	"shuttle/internal/volume"
)

// Detect refreshes the detected device set.
func (s *Session) Detect(ctx context.Context) []device.Device {
	devices := s.detector.Detect(ctx)
	s.persistOrWarn(ctx)
	return devices
}

// Devices returns the detected set from the last detection.
func (s *Session) Devices() []device.Device {
	return s.registry.Devices()
}

// Select records the device at index as the selection.
func (s *Session) Select(ctx context.Context, index int) (device.Device, error) {
	dev, err := s.registry.Select(index)
	if err != nil {
		return device.Device{}, err
	}
	s.logger.Info("device selected", logging.String(logging.FieldDevice, dev.ID))
	s.persistOrWarn(ctx)
	return dev, nil
}

// Selected returns the current selection.
func (s *Session) Selected() (device.Device, bool) {
	return s.registry.Selected()
}

// Mount checks privileges, mounts the requested or selected device and
// journals the session.
func (s *Session) Mount(ctx context.Context, req mount.Request) (mount.Result, error) {
	if !s.privilege.CheckPermissions() {
		return mount.Result{}, &mount.Error{
			Kind:   mount.ErrPermissionDenied,
			Op:     "mount",
			Target: strings.TrimSpace(req.Device),
			Detail: "root privileges required",
			Hint:   "run shuttle with sudo for mount operations",
		}
	}

	res, err := s.orchestrator.Mount(ctx, req)
	if err != nil {
		return mount.Result{}, err
	}
	s.recordSession(ctx, res)
	s.persistOrWarn(ctx)
	return res, nil
}

func (s *Session) recordSession(ctx context.Context, res mount.Result) {
	open, err := s.journal.OpenSessions(ctx)
	if err == nil {
		for _, existing := range open {
			if samePath(existing.MountPoint, res.MountPoint) {
				return
			}
		}
	}
	session, err := s.journal.StartSession(ctx, journal.Session{
		Device:     res.Device,
		MountPoint: res.MountPoint,
		Platform:   s.platform.String(),
		CreatedDir: res.Created,
		Reused:     res.Reused,
	})
	if err != nil {
		logging.WarnWithContext(s.logger, "mount session not journaled", "journal_write_failed",
			logging.Error(err),
			logging.String(logging.FieldMountPoint, res.MountPoint),
			logging.String(logging.FieldErrorHint, "check the state directory is writable"),
			logging.String(logging.FieldImpact, "cleanup will not find this mount point"),
		)
		return
	}
	logging.WithContext(logging.WithSessionID(ctx, session.ID), s.logger).Debug("mount session started",
		logging.String(logging.FieldMountPoint, session.MountPoint))
}

// Unmount detaches mountPoint, or the active mount when empty.
func (s *Session) Unmount(ctx context.Context, mountPoint string) error {
	target := strings.TrimSpace(mountPoint)
	if target == "" {
		target = s.registry.ActiveMountPoint()
	}
	if target != "" && !s.privilege.CheckPermissions() {
		return &mount.Error{
			Kind:   mount.ErrPermissionDenied,
			Op:     "unmount",
			Target: target,
			Detail: "root privileges required",
			Hint:   "run shuttle with sudo for mount operations",
		}
	}

	if err := s.orchestrator.Unmount(ctx, target); err != nil {
		return err
	}
	if target != "" {
		if _, err := s.journal.EndSessions(ctx, target); err != nil {
			logging.WarnWithContext(s.logger, "mount session not closed in journal", "journal_write_failed",
				logging.Error(err),
				logging.String(logging.FieldMountPoint, target),
				logging.String(logging.FieldImpact, "history shows the mount as still active"),
			)
		}
	}
	s.persistOrWarn(ctx)
	return nil
}

// WalletPaths returns the wallet layout under override or the active mount.
func (s *Session) WalletPaths(override string) map[string]string {
	return s.wallet.Paths(override)
}

// WalletMountPoint returns override when set, else the active mount point.
func (s *Session) WalletMountPoint(override string) string {
	return s.wallet.MountPoint(override)
}

// VolumeUsage reports space on the filesystem mounted at path.
func (s *Session) VolumeUsage(ctx context.Context, path string) (volume.Usage, error) {
	return s.volumes.Usage(ctx, path)
}

// WalletExists reports whether a keypair exists under override or the active mount.
func (s *Session) WalletExists(override string) bool {
	return s.wallet.Exists(override)
}

// PrepareWallet creates the wallet directories under override or the active mount.
func (s *Session) PrepareWallet(override string) (map[string]string, error) {
	paths, err := s.wallet.Prepare(override)
	if err != nil {
		return nil, err
	}
	s.logger.Info("wallet directories ready", logging.String(logging.FieldMountPoint, s.wallet.MountPoint(override)))
	return paths, nil
}

// History returns recorded mount sessions, newest first.
func (s *Session) History(ctx context.Context, limit int) ([]journal.Session, error) {
	return s.journal.History(ctx, limit)
}

// Status summarises the session's view of devices and mounts.
type Status struct {
	Platform         string          `json:"platform"`
	Elevated         bool            `json:"elevated"`
	Strategies       []string        `json:"strategies"`
	Devices          []device.Device `json:"devices"`
	Selected         *device.Device  `json:"selected,omitempty"`
	ActiveDevice     string          `json:"active_device,omitempty"`
	ActiveMountPoint string          `json:"active_mount_point,omitempty"`
	// Live is nil when the mount table could not be read.
	Live          *bool         `json:"live,omitempty"`
	Usage         *volume.Usage `json:"usage,omitempty"`
	WalletPresent bool          `json:"wallet_present"`
	OpenSessions  int           `json:"open_sessions"`
	JournalPath   string        `json:"journal_path"`
	LockPath      string        `json:"lock_path"`
}

// Status reports the current state without changing it.
func (s *Session) Status(ctx context.Context) Status {
	st := Status{
		Platform:         s.platform.String(),
		Elevated:         s.privilege.IsElevated(),
		Strategies:       s.detector.Strategies(),
		Devices:          s.registry.Devices(),
		ActiveDevice:     s.registry.ActiveDevice(),
		ActiveMountPoint: s.registry.ActiveMountPoint(),
		JournalPath:      s.journal.Path(),
		LockPath:         s.cfg.LockPath(),
	}
	if sel, ok := s.registry.Selected(); ok {
		st.Selected = &sel
	}
	if open, err := s.journal.OpenSessions(ctx); err == nil {
		st.OpenSessions = len(open)
	}
	if st.ActiveMountPoint == "" {
		return st
	}

	st.WalletPresent = s.wallet.Exists("")
	if live, err := s.volumes.IsMounted(ctx, st.ActiveMountPoint); err == nil {
		st.Live = &live
	} else {
		s.logger.Debug("mount table unavailable", logging.Error(err))
	}
	if usage, err := s.volumes.Usage(ctx, st.ActiveMountPoint); err == nil {
		st.Usage = &usage
	}
	return st
}

// CleanupReport lists what Cleanup did.
type CleanupReport struct {
	Reconciled int           `json:"reconciled"`
	Removed    []string      `json:"removed"`
	Skipped    []CleanupSkip `json:"skipped"`
}

// CleanupSkip names a mount point that was left in place.
type CleanupSkip struct {
	MountPoint string `json:"mount_point"`
	Reason     string `json:"reason"`
}

// Cleanup closes journal sessions whose mount has vanished from the live
// mount table and removes empty mount point directories shuttle created.
// Directories that still hold files are never removed.
func (s *Session) Cleanup(ctx context.Context) (CleanupReport, error) {
	report := CleanupReport{Removed: []string{}, Skipped: []CleanupSkip{}}

	if s.platform == platform.POSIX {
		reconciled, err := s.reconcile(ctx)
		if err != nil {
			return report, err
		}
		report.Reconciled = reconciled
	}

	pending, err := s.journal.PendingCleanup(ctx)
	if err != nil {
		return report, err
	}
	for _, sess := range pending {
		if mounted, err := s.volumes.IsMounted(ctx, sess.MountPoint); err == nil && mounted {
			report.Skipped = append(report.Skipped, CleanupSkip{MountPoint: sess.MountPoint, Reason: "still mounted"})
			continue
		}
		err := os.Remove(sess.MountPoint)
		switch {
		case err == nil, errors.Is(err, fs.ErrNotExist):
			if markErr := s.journal.MarkCleaned(ctx, sess.ID); markErr != nil {
				return report, markErr
			}
			if err == nil {
				report.Removed = append(report.Removed, sess.MountPoint)
			}
		default:
			report.Skipped = append(report.Skipped, CleanupSkip{MountPoint: sess.MountPoint, Reason: err.Error()})
		}
	}

	s.logger.Info("cleanup finished",
		logging.Int("reconciled", report.Reconciled),
		logging.Int("removed", len(report.Removed)),
		logging.Int("skipped", len(report.Skipped)),
	)
	s.persistOrWarn(ctx)
	return report, nil
}

// reconcile ends open sessions that are no longer in the mount table, which
// happens when the device was unplugged or unmounted outside shuttle.
func (s *Session) reconcile(ctx context.Context) (int, error) {
	open, err := s.journal.OpenSessions(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, sess := range open {
		mounted, err := s.volumes.IsMounted(ctx, sess.MountPoint)
		if err != nil {
			logging.WarnWithContext(s.logger, "mount table unavailable, skipping reconciliation", "mount_table_unavailable",
				logging.Error(err),
				logging.String(logging.FieldImpact, "stale sessions stay open"),
			)
			return count, nil
		}
		if mounted {
			continue
		}
		if _, err := s.journal.EndSessions(ctx, sess.MountPoint); err != nil {
			return count, err
		}
		s.registry.RecordUnmount(sess.MountPoint)
		count++
	}
	return count, nil
}

func samePath(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}
