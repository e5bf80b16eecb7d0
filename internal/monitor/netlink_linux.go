//go:build linux

package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"shuttle/internal/logging"
)

// Monitor listens for udev netlink events on whole block disks.
type Monitor struct {
	logger  *slog.Logger
	handler Handler

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	done    chan struct{}
	running bool
}

// New creates a monitor that calls handler for each disk add, remove or
// media change event.
func New(logger *slog.Logger, handler Handler) *Monitor {
	return &Monitor{
		logger:  logging.NewComponentLogger(logger, "hotplug-monitor"),
		handler: handler,
	}
}

// Start connects to the udev netlink socket and begins delivering events.
func (m *Monitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		return fmt.Errorf("connect netlink socket: %w", err)
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.done = make(chan struct{})
	m.running = true

	go m.monitorLoop(ctx, conn, m.quit, m.done)

	m.logger.Info("hotplug monitor started",
		logging.String(logging.FieldEventType, "hotplug_monitor_started"),
	)
	return nil
}

// Stop shuts down the monitor and waits for the event loop to exit.
func (m *Monitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	close(m.quit)
	done := m.done
	conn := m.conn
	m.quit = nil
	m.done = nil
	m.conn = nil
	m.running = false
	m.mu.Unlock()

	<-done
	if conn != nil {
		_ = conn.Close()
	}
	m.logger.Info("hotplug monitor stopped",
		logging.String(logging.FieldEventType, "hotplug_monitor_stopped"),
	)
}

// Running reports whether the monitor is active.
func (m *Monitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) monitorLoop(ctx context.Context, conn *netlink.UEventConn, quit <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	queue := make(chan netlink.UEvent)
	errs := make(chan error)
	monitorQuit := conn.Monitor(queue, errs, buildMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			m.handleEvent(ctx, uevent)
		case err := <-errs:
			logging.WarnWithContext(m.logger, "netlink monitor error", "hotplug_monitor_error",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check kernel netlink subsystem"),
				logging.String(logging.FieldImpact, "device changes may be missed"),
			)
		}
	}
}

// buildMatcher selects whole-disk block events: SUBSYSTEM=block,
// DEVTYPE=disk, ACTION=add|remove|change. Partition events are left out since
// detection reports partitions under their disk anyway.
func buildMatcher() netlink.Matcher {
	action := "add|remove|change"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "block",
			"DEVTYPE":   "disk",
		},
	})
	return rules
}

func (m *Monitor) handleEvent(ctx context.Context, uevent netlink.UEvent) {
	devname := extractDeviceName(uevent)
	if devname == "" {
		m.logger.Debug("ignoring event without device name",
			logging.String("action", string(uevent.Action)),
			logging.String("kobj", uevent.KObj),
		)
		return
	}

	if isVirtualDisk(devname) {
		m.logger.Debug("ignoring virtual disk event", logging.String(logging.FieldDevice, devname))
		return
	}

	event := Event{Action: string(uevent.Action), Device: devname}
	m.logger.Info("disk event received",
		logging.String(logging.FieldEventType, "hotplug_disk_event"),
		logging.String(logging.FieldDevice, devname),
		logging.String("action", event.Action),
	)

	if m.handler != nil {
		m.handler(ctx, event)
	}
}

// extractDeviceName gets the device path from a uevent.
func extractDeviceName(uevent netlink.UEvent) string {
	if devname := uevent.Env["DEVNAME"]; devname != "" {
		if !strings.HasPrefix(devname, "/") {
			return "/dev/" + devname
		}
		return devname
	}

	devpath := uevent.Env["DEVPATH"]
	if devpath == "" {
		return ""
	}
	parts := strings.Split(strings.TrimRight(devpath, "/"), "/")
	last := parts[len(parts)-1]
	if last == "" {
		return ""
	}
	return "/dev/" + last
}

func isVirtualDisk(devname string) bool {
	name := strings.TrimPrefix(devname, "/dev/")
	for _, prefix := range []string{"loop", "ram", "zram", "dm-", "md"} {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
