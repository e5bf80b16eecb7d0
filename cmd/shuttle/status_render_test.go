package main

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"shuttle/internal/device"
	"shuttle/internal/preflight"
	"shuttle/internal/session"
	"shuttle/internal/volume"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Active", statusError, "nothing mounted", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Active:", "[ERROR] nothing mounted")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Active", statusOK, "mounted", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestStatusLinesFlagsVanishedMount(t *testing.T) {
	live := false
	st := session.Status{
		Platform:         "posix",
		Strategies:       []string{"lsblk", "sysfs"},
		Selected:         &device.Device{ID: "/dev/sdb", Model: "SanDisk", Size: "14.9G"},
		ActiveDevice:     "/dev/sdb1",
		ActiveMountPoint: "/tmp/shuttle_usb_1",
		Live:             &live,
		Usage:            &volume.Usage{Total: 1 << 30, Free: 1 << 29, UsedPercent: 50},
	}
	joined := strings.Join(statusLines(st, false), "\n")
	for _, want := range []string{"lsblk -> sysfs", "/dev/sdb (SanDisk, 14.9G)", "[WARN] /tmp/shuttle_usb_1 (no longer mounted", "512.0MB free of 1.0GB", "Wallet:"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("status output missing %q:\n%s", want, joined)
		}
	}
}

func TestDoctorLines(t *testing.T) {
	results := []preflight.Result{
		{Name: "mount", Passed: true, Detail: "Required for mounting devices"},
		{Name: "lsblk", Optional: true, Detail: `binary "lsblk" not found`},
	}
	lines, ready := doctorLines(results, false)
	if !ready {
		t.Fatal("optional failure should not block readiness")
	}
	if !strings.Contains(lines[3], "[WARN]") || !strings.Contains(lines[len(lines)-1], "[OK] ready") {
		t.Fatalf("unexpected lines: %q", lines)
	}

	results = append(results, preflight.Result{Name: "umount", Detail: "missing"})
	lines, ready = doctorLines(results, false)
	if ready || !strings.Contains(lines[len(lines)-1], "[ERROR]") {
		t.Fatalf("required failure should block readiness: %q", lines)
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}
