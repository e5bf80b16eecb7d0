package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofrs/flock"

	"shuttle/internal/command"
	"shuttle/internal/config"
	"shuttle/internal/device"
	"shuttle/internal/journal"
	"shuttle/internal/logging"
	"shuttle/internal/mount"
	"shuttle/internal/platform"
	"shuttle/internal/privilege"
	"shuttle/internal/volume"
	"shuttle/internal/wallet"
)

// ErrBusy reports that another shuttle process holds the state lock.
var ErrBusy = errors.New("another shuttle command is running")

// Session coordinates device state for one invocation.
type Session struct {
	cfg      *config.Config
	platform platform.Platform
	logger   *slog.Logger

	lock    *flock.Flock
	journal *journal.Store

	registry     *device.Registry
	detector     *device.Detector
	orchestrator *mount.Orchestrator
	privilege    PermissionChecker
	wallet       *wallet.Resolver
	volumes      VolumeProbe

	closed bool
}

// Open acquires the state lock, opens the journal and restores the last
// registry snapshot.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Session, error) {
	if cfg == nil {
		return nil, errors.New("session requires a config")
	}
	var set settings
	for _, opt := range opts {
		opt(&set)
	}

	p := platform.Host()
	if set.platform != nil {
		p = *set.platform
	}
	base := logger
	if base == nil {
		base = logging.NewNop()
	}
	logger = logging.NewComponentLogger(base, "session")

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock %s)", ErrBusy, cfg.LockPath())
	}

	store, err := journal.Open(ctx, cfg.JournalPath())
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open journal: %w", err)
	}

	registry := device.NewRegistry()
	if snap, found, err := store.LoadRegistry(ctx); err != nil {
		logging.WarnWithContext(logger, "registry snapshot unreadable, starting empty", "registry_restore_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run shuttle detect to rebuild device state"),
			logging.String(logging.FieldImpact, "previous selection and mount are forgotten"),
		)
	} else if found {
		registry.Restore(snap)
	}

	runner := set.runner
	if runner == nil {
		runner = command.NewRunner()
	}
	checker := set.privilege
	if checker == nil {
		checker = privilege.New(p, base)
	}
	volumes := set.volumes
	if volumes == nil {
		volumes = volume.NewProbe()
	}

	s := &Session{
		cfg:      cfg,
		platform: p,
		logger:   logger,
		lock:     lock,
		journal:  store,
		registry: registry,
		detector: device.NewDetector(p, device.DetectorOptions{
			Runner:            runner,
			Logger:            base,
			Registry:          registry,
			SysBlockDir:       cfg.Detection.SysBlockDir,
			LsblkTimeout:      cfg.LsblkTimeout(),
			PowerShellTimeout: cfg.PowerShellTimeout(),
			WMICTimeout:       cfg.WMICTimeout(),
		}),
		orchestrator: mount.New(p, registry, mount.Options{
			Runner:  runner,
			Logger:  base,
			Timeout: cfg.MountTimeout(),
			BaseDir: cfg.Mount.BaseDir,
		}),
		privilege: checker,
		wallet:    wallet.NewResolver(registry),
		volumes:   volumes,
	}
	logger.Debug("session opened",
		logging.String("platform", p.String()),
		logging.String("journal", store.Path()),
	)
	return s, nil
}

// Close persists the registry, closes the journal and releases the lock.
func (s *Session) Close() error {
	if s == nil || s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if err := s.persist(context.Background()); err != nil {
		errs = append(errs, err)
	}
	if err := s.journal.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close journal: %w", err))
	}
	if err := s.lock.Unlock(); err != nil {
		errs = append(errs, fmt.Errorf("release lock: %w", err))
	}
	return errors.Join(errs...)
}

// Platform reports the variant in use.
func (s *Session) Platform() platform.Platform {
	return s.platform
}

// Registry exposes the device registry owned by the session.
func (s *Session) Registry() *device.Registry {
	return s.registry
}

// Strategies lists detection tiers in evaluation order.
func (s *Session) Strategies() []string {
	return s.detector.Strategies()
}

// IsElevated reports whether the process has administrative rights.
func (s *Session) IsElevated() bool {
	return s.privilege.IsElevated()
}

func (s *Session) persist(ctx context.Context) error {
	if err := s.journal.SaveRegistry(ctx, s.registry.Snapshot()); err != nil {
		return fmt.Errorf("persist registry: %w", err)
	}
	return nil
}

// persistOrWarn saves the registry after a state change. A failed save does
// not undo the operation that already happened on the device.
func (s *Session) persistOrWarn(ctx context.Context) {
	if err := s.persist(ctx); err != nil {
		logging.WarnWithContext(s.logger, "registry not saved", "registry_persist_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the state directory is writable"),
			logging.String(logging.FieldImpact, "the next command may not see this change"),
		)
	}
}
