package device

import (
	"fmt"
	"path/filepath"
	"sync"
)

// Registry holds the most recent detection result, the operator's selection,
// and the mount point shuttle is currently responsible for.
//
// A selection survives later detections until Select is called again.
type Registry struct {
	mu               sync.RWMutex
	detected         []Device
	selected         *Device
	activeDevice     string
	activeMountPoint string
}

// Snapshot is the serialisable form of a Registry.
type Snapshot struct {
	Devices          []Device `json:"devices"`
	Selected         *Device  `json:"selected,omitempty"`
	ActiveDevice     string   `json:"active_device,omitempty"`
	ActiveMountPoint string   `json:"active_mount_point,omitempty"`
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{detected: []Device{}}
}

// Replace swaps the detected set for devices.
func (r *Registry) Replace(devices []Device) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.detected = cloneDevices(devices)
}

// Devices returns a copy of the detected set in detection order.
func (r *Registry) Devices() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneDevices(r.detected)
}

// Select records the device at index as the current selection.
func (r *Registry) Select(index int) (Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 0 || index >= len(r.detected) {
		if len(r.detected) == 0 {
			return Device{}, fmt.Errorf("%w: index %d, no devices detected", ErrInvalidSelection, index)
		}
		return Device{}, fmt.Errorf("%w: index %d outside 0..%d", ErrInvalidSelection, index, len(r.detected)-1)
	}
	dev := r.detected[index].clone()
	r.selected = &dev
	return dev.clone(), nil
}

// Selected returns the current selection.
func (r *Registry) Selected() (Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.selected == nil {
		return Device{}, false
	}
	return r.selected.clone(), true
}

// ActiveMountPoint returns the mount point of the last successful mount, or "".
func (r *Registry) ActiveMountPoint() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeMountPoint
}

// ActiveDevice returns the device identifier backing ActiveMountPoint.
func (r *Registry) ActiveDevice() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeDevice
}

// RecordMount marks deviceID as mounted at mountPoint and makes it active.
// Matching partitions in the detected set and the selection are updated so
// later mount requests see the device as already mounted.
func (r *Registry) RecordMount(deviceID, mountPoint string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activeDevice = deviceID
	r.activeMountPoint = mountPoint
	update := func(d *Device) {
		for i := range d.Partitions {
			if d.Partitions[i].ID == deviceID {
				d.Partitions[i].MountPoint = mountPoint
			}
		}
		d.syncMountPoint()
	}
	for i := range r.detected {
		update(&r.detected[i])
	}
	if r.selected != nil {
		update(r.selected)
	}
}

// ClearActive forgets the active mount when it matches mountPoint. Device
// records are left untouched.
func (r *Registry) ClearActive(mountPoint string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if samePath(r.activeMountPoint, mountPoint) {
		r.activeMountPoint = ""
		r.activeDevice = ""
	}
}

// RecordUnmount clears every partition mounted at mountPoint and forgets the
// active mount when it matches.
func (r *Registry) RecordUnmount(mountPoint string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if samePath(r.activeMountPoint, mountPoint) {
		r.activeMountPoint = ""
		r.activeDevice = ""
	}
	update := func(d *Device) {
		for i := range d.Partitions {
			if samePath(d.Partitions[i].MountPoint, mountPoint) {
				d.Partitions[i].MountPoint = ""
			}
		}
		d.syncMountPoint()
	}
	for i := range r.detected {
		update(&r.detected[i])
	}
	if r.selected != nil {
		update(r.selected)
	}
}

// Snapshot captures the registry for persistence.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap := Snapshot{
		Devices:          cloneDevices(r.detected),
		ActiveDevice:     r.activeDevice,
		ActiveMountPoint: r.activeMountPoint,
	}
	if r.selected != nil {
		sel := r.selected.clone()
		snap.Selected = &sel
	}
	return snap
}

// Restore replaces the registry contents with snap.
func (r *Registry) Restore(snap Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.detected = cloneDevices(snap.Devices)
	r.selected = nil
	if snap.Selected != nil {
		sel := snap.Selected.clone()
		r.selected = &sel
	}
	r.activeDevice = snap.ActiveDevice
	r.activeMountPoint = snap.ActiveMountPoint
}

func cloneDevices(devices []Device) []Device {
	out := make([]Device, len(devices))
	for i, d := range devices {
		out[i] = d.clone()
	}
	return out
}

func samePath(a, b string) bool {
	if a == "" || b == "" {
		return a == b
	}
	return filepath.Clean(a) == filepath.Clean(b)
}
