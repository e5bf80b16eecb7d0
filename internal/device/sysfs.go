package device

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const sectorSize = 512

// sysfsStrategy reads the kernel's block device tree directly. It needs no
// external tools, so it serves hosts without util-linux.
type sysfsStrategy struct {
	root string
}

func (sysfsStrategy) name() string { return "sysfs" }

func (s sysfsStrategy) detect(ctx context.Context) ([]Device, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrDetectionUnavailable, s.root, err)
	}

	devices := []Device{}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := entry.Name()
		if !strings.HasPrefix(name, "sd") && !strings.HasPrefix(name, "nvme") {
			continue
		}
		dir := filepath.Join(s.root, name)
		if readTrimmed(filepath.Join(dir, "removable")) != "1" {
			continue
		}
		devices = append(devices, Device{
			ID:         "/dev/" + name,
			Size:       sysfsSize(filepath.Join(dir, "size")),
			Model:      DefaultModel,
			Partitions: []Partition{},
		})
	}
	return devices, nil
}

// sysfsSize converts the 512-byte sector count in path to a display size.
func sysfsSize(path string) string {
	raw := readTrimmed(path)
	if raw == "" {
		return UnknownSize
	}
	sectors, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return UnknownSize
	}
	return FormatSize(sectors * sectorSize)
}

func readTrimmed(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
