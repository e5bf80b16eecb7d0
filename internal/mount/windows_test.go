package mount

import (
	"context"
	"errors"
	"testing"

	"shuttle/internal/device"
	"shuttle/internal/logging"
	"shuttle/internal/platform"
)

func newWindows(t *testing.T, devices ...device.Device) (*Orchestrator, *device.Registry) {
	t.Helper()
	registry := device.NewRegistry()
	registry.Replace(devices)
	if len(devices) > 0 {
		if _, err := registry.Select(0); err != nil {
			t.Fatalf("Select: %v", err)
		}
	}
	return New(platform.Windows, registry, Options{Logger: logging.NewNop()}), registry
}

func TestWindowsMountUsesDriveLetter(t *testing.T) {
	o, registry := newWindows(t, device.Device{
		ID: `\\.\PHYSICALDRIVE1`, Size: "14.9GB", Model: "Kingston", MountPoint: `E:\`,
		Partitions: []device.Partition{{ID: "E:", Size: "14.9GB", MountPoint: `E:\`}},
	})

	res, err := o.Mount(context.Background(), Request{MountPoint: `C:\ignored`})
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if res.MountPoint != `E:\` {
		t.Fatalf("mount point = %q", res.MountPoint)
	}
	if registry.ActiveMountPoint() != `E:\` {
		t.Fatalf("active mount point = %q", registry.ActiveMountPoint())
	}
}

func TestWindowsMountPartitionWithoutLetter(t *testing.T) {
	o, _ := newWindows(t, device.Device{
		ID: `\\.\PHYSICALDRIVE2`, Size: "7.5GB", Model: "Card",
		Partitions: []device.Partition{{ID: "?", Size: "7.5GB"}},
	})
	_, err := o.Mount(context.Background(), Request{})
	if !errors.Is(err, ErrNoMountpoint) {
		t.Fatalf("expected ErrNoMountpoint, got %v", err)
	}
}

func TestWindowsMountNoPartitions(t *testing.T) {
	o, _ := newWindows(t, device.Device{ID: `\\.\PHYSICALDRIVE3`, Size: "0.0GB", Model: "Reader", Partitions: []device.Partition{}})
	_, err := o.Mount(context.Background(), Request{})
	if !errors.Is(err, ErrNoMountpoint) {
		t.Fatalf("expected ErrNoMountpoint, got %v", err)
	}
	if HintFor(err) != unformattedHint {
		t.Fatalf("hint = %q", HintFor(err))
	}
}

func TestWindowsMountWithoutSelection(t *testing.T) {
	o, _ := newWindows(t)
	_, err := o.Mount(context.Background(), Request{Device: "E:"})
	if !errors.Is(err, ErrNoMountpoint) {
		t.Fatalf("expected ErrNoMountpoint, got %v", err)
	}
}

func TestWindowsUnmountClearsActiveOnly(t *testing.T) {
	o, registry := newWindows(t, device.Device{
		ID: "E:", Size: "1.0GB", Model: device.RemovableDriveModel, MountPoint: `E:\`,
		Partitions: []device.Partition{{ID: "E:", Size: "1.0GB", MountPoint: `E:\`}},
	})
	if _, err := o.Mount(context.Background(), Request{}); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if err := o.Unmount(context.Background(), ""); err != nil {
		t.Fatalf("Unmount: %v", err)
	}
	if registry.ActiveMountPoint() != "" {
		t.Fatal("active mount point not cleared")
	}
	if sel, _ := registry.Selected(); sel.MountPoint != `E:\` {
		t.Fatalf("drive letter lost: %+v", sel)
	}
}
