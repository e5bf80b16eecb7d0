// Package wallet maps a mount point to the wallet directory layout kept on
// removable media.
//
//	<mount>/wallet/keypair.json
//	<mount>/wallet/pubkey.txt
//	<mount>/inbox/
//	<mount>/outbox/
package wallet

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Layout keys.
const (
	KeyWallet  = "wallet"
	KeyKeypair = "keypair"
	KeyPubkey  = "pubkey"
	KeyInbox   = "inbox"
	KeyOutbox  = "outbox"
)

// ErrNoMountPoint reports that neither an override nor an active mount exists.
var ErrNoMountPoint = errors.New("no mount point available")

// MountPointSource supplies the active mount point. *device.Registry satisfies it.
type MountPointSource interface {
	ActiveMountPoint() string
}

// Resolver resolves wallet paths against an override or the active mount.
type Resolver struct {
	source MountPointSource
}

// NewResolver returns a Resolver backed by source, which may be nil.
func NewResolver(source MountPointSource) *Resolver {
	return &Resolver{source: source}
}

// Layout returns the wallet paths under mountPoint, or an empty map when
// mountPoint is empty.
func Layout(mountPoint string) map[string]string {
	if strings.TrimSpace(mountPoint) == "" {
		return map[string]string{}
	}
	walletDir := filepath.Join(mountPoint, "wallet")
	return map[string]string{
		KeyWallet:  walletDir,
		KeyKeypair: filepath.Join(walletDir, "keypair.json"),
		KeyPubkey:  filepath.Join(walletDir, "pubkey.txt"),
		KeyInbox:   filepath.Join(mountPoint, "inbox"),
		KeyOutbox:  filepath.Join(mountPoint, "outbox"),
	}
}

// MountPoint returns override when set, else the active mount point.
func (r *Resolver) MountPoint(override string) string {
	if override = strings.TrimSpace(override); override != "" {
		return override
	}
	if r == nil || r.source == nil {
		return ""
	}
	return r.source.ActiveMountPoint()
}

// Paths returns the wallet layout for the resolved mount point. The map is
// empty when no mount point can be resolved.
func (r *Resolver) Paths(override string) map[string]string {
	return Layout(r.MountPoint(override))
}

// Exists reports whether the keypair file is present. Only the keypair is
// consulted; a missing pubkey does not matter.
func (r *Resolver) Exists(override string) bool {
	paths := r.Paths(override)
	keypair, ok := paths[KeyKeypair]
	if !ok {
		return false
	}
	_, err := os.Stat(keypair)
	return err == nil
}

// Prepare creates the wallet, inbox and outbox directories and returns the
// layout. Existing directories are left as they are.
func (r *Resolver) Prepare(override string) (map[string]string, error) {
	paths := r.Paths(override)
	if len(paths) == 0 {
		return nil, ErrNoMountPoint
	}
	for _, key := range []string{KeyWallet, KeyInbox, KeyOutbox} {
		if err := os.MkdirAll(paths[key], 0o700); err != nil {
			return nil, fmt.Errorf("create %s directory: %w", key, err)
		}
	}
	return paths, nil
}
