// Package volume inspects the host's live mount table and filesystem usage.
package volume

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"
)

// Mount is one entry of the live mount table.
type Mount struct {
	Device     string `json:"device"`
	MountPoint string `json:"mount_point"`
	Fstype     string `json:"fstype"`
}

// Usage describes space on a mounted filesystem.
type Usage struct {
	Path        string  `json:"path"`
	Fstype      string  `json:"fstype"`
	Total       uint64  `json:"total"`
	Free        uint64  `json:"free"`
	Used        uint64  `json:"used"`
	UsedPercent float64 `json:"used_percent"`
}

// Probe queries the OS through gopsutil.
type Probe struct {
	partitions func(ctx context.Context, all bool) ([]disk.PartitionStat, error)
	usage      func(ctx context.Context, path string) (*disk.UsageStat, error)
}

// NewProbe returns a Probe backed by the host.
func NewProbe() *Probe {
	return &Probe{
		partitions: disk.PartitionsWithContext,
		usage:      disk.UsageWithContext,
	}
}

// Mounts lists every mounted filesystem.
func (p *Probe) Mounts(ctx context.Context) ([]Mount, error) {
	stats, err := p.partitions(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list partitions: %w", err)
	}
	mounts := make([]Mount, 0, len(stats))
	for _, stat := range stats {
		if stat.Mountpoint == "" {
			continue
		}
		mounts = append(mounts, Mount{Device: stat.Device, MountPoint: stat.Mountpoint, Fstype: stat.Fstype})
	}
	return mounts, nil
}

// Lookup returns the mount table entry for mountPoint.
func (p *Probe) Lookup(ctx context.Context, mountPoint string) (Mount, bool, error) {
	mounts, err := p.Mounts(ctx)
	if err != nil {
		return Mount{}, false, err
	}
	want := normalize(mountPoint)
	for _, m := range mounts {
		if normalize(m.MountPoint) == want {
			return m, true, nil
		}
	}
	return Mount{}, false, nil
}

// IsMounted reports whether mountPoint appears in the live mount table.
func (p *Probe) IsMounted(ctx context.Context, mountPoint string) (bool, error) {
	_, ok, err := p.Lookup(ctx, mountPoint)
	return ok, err
}

// Usage reports space on the filesystem holding path.
func (p *Probe) Usage(ctx context.Context, path string) (Usage, error) {
	stat, err := p.usage(ctx, path)
	if err != nil {
		return Usage{}, fmt.Errorf("usage of %s: %w", path, err)
	}
	return Usage{
		Path:        stat.Path,
		Fstype:      stat.Fstype,
		Total:       stat.Total,
		Free:        stat.Free,
		Used:        stat.Used,
		UsedPercent: stat.UsedPercent,
	}, nil
}

// normalize makes "E:\" and "E:" compare equal and ignores trailing
// separators and, on Windows, case.
func normalize(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	trimmed := strings.TrimRight(path, `/\`)
	if trimmed == "" {
		return string(filepath.Separator)
	}
	if runtime.GOOS == "windows" || strings.HasSuffix(trimmed, ":") {
		return strings.ToUpper(trimmed)
	}
	return filepath.Clean(trimmed)
}
