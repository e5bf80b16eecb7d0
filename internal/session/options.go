package session

import (
	"context"

	"shuttle/internal/command"
	"shuttle/internal/platform"
	"shuttle/internal/volume"
)

// PermissionChecker gates mount operations. *privilege.Checker satisfies it.
type PermissionChecker interface {
	IsElevated() bool
	CheckPermissions() bool
}

// VolumeProbe inspects the live mount table. *volume.Probe satisfies it.
type VolumeProbe interface {
	IsMounted(ctx context.Context, mountPoint string) (bool, error)
	Usage(ctx context.Context, path string) (volume.Usage, error)
}

// Option customizes Open.
type Option func(*settings)

type settings struct {
	runner    command.Runner
	privilege PermissionChecker
	platform  *platform.Platform
	volumes   VolumeProbe
}

// WithRunner replaces the external command runner.
func WithRunner(runner command.Runner) Option {
	return func(s *settings) {
		s.runner = runner
	}
}

// WithPrivilegeChecker replaces the host privilege probe.
func WithPrivilegeChecker(checker PermissionChecker) Option {
	return func(s *settings) {
		s.privilege = checker
	}
}

// WithPlatform forces the platform variant instead of the host's.
func WithPlatform(p platform.Platform) Option {
	return func(s *settings) {
		s.platform = &p
	}
}

// WithVolumeProbe replaces the live mount table probe.
func WithVolumeProbe(probe VolumeProbe) Option {
	return func(s *settings) {
		s.volumes = probe
	}
}
