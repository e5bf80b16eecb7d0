package device

import "slices"

const (
	// DefaultModel labels devices whose model string is unavailable.
	DefaultModel = "USB Device"
	// RemovableDriveModel labels devices found through the wmic logical disk fallback.
	RemovableDriveModel = "Removable Drive"
	// UnknownSize is reported when a capacity cannot be determined.
	UnknownSize = "Unknown"
)

// Partition is one addressable filesystem region on a Device.
type Partition struct {
	ID         string `json:"id"`
	Size       string `json:"size"`
	MountPoint string `json:"mount_point,omitempty"`
}

// Device is one physical removable block device.
//
// MountPoint mirrors the first partition that reports a mount point and is
// empty when none does.
type Device struct {
	ID         string      `json:"id"`
	Size       string      `json:"size"`
	Model      string      `json:"model"`
	MountPoint string      `json:"mount_point,omitempty"`
	Partitions []Partition `json:"partitions"`
}

// FirstMounted returns the first partition with a mount point.
func (d Device) FirstMounted() (Partition, bool) {
	for _, p := range d.Partitions {
		if p.MountPoint != "" {
			return p, true
		}
	}
	return Partition{}, false
}

// Owns reports whether id names the device itself or one of its partitions.
func (d Device) Owns(id string) bool {
	if id == "" {
		return false
	}
	if d.ID == id {
		return true
	}
	for _, p := range d.Partitions {
		if p.ID == id {
			return true
		}
	}
	return false
}

func (d Device) clone() Device {
	d.Partitions = slices.Clone(d.Partitions)
	if d.Partitions == nil {
		d.Partitions = []Partition{}
	}
	return d
}

func (d *Device) syncMountPoint() {
	d.MountPoint = ""
	if p, ok := d.FirstMounted(); ok {
		d.MountPoint = p.MountPoint
	}
}
