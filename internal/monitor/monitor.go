// Package monitor watches for removable disks appearing and disappearing so
// callers can refresh device detection without polling.
//
// Only Linux is supported, through udev netlink events. On other platforms
// Start returns ErrUnsupported.
package monitor

import (
	"context"
	"errors"
)

// ErrUnsupported reports that hotplug events are unavailable on this platform.
var ErrUnsupported = errors.New("hotplug monitoring is not supported on this platform")

// Event is one disk hotplug notification.
type Event struct {
	Action string `json:"action"`
	Device string `json:"device"`
}

// Handler is invoked for every matched event. It runs on the monitor's
// goroutine, so events are delivered one at a time.
type Handler func(ctx context.Context, event Event)
