package mount

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shuttle/internal/command"
	"shuttle/internal/device"
	"shuttle/internal/logging"
	"shuttle/internal/platform"
	"shuttle/internal/testsupport"
)

func newPOSIX(t *testing.T, runner command.Runner, devices ...device.Device) (*Orchestrator, *device.Registry, string) {
	t.Helper()
	base := t.TempDir()
	registry := device.NewRegistry()
	registry.Replace(devices)
	o := New(platform.POSIX, registry, Options{Runner: runner, Logger: logging.NewNop(), BaseDir: base})
	o.variant.(*posixVariant).pid = func() int { return 4242 }
	return o, registry, base
}

func usbStick() device.Device {
	return device.Device{
		ID:         "/dev/sdb",
		Size:       "14.9G",
		Model:      "SanDisk",
		Partitions: []device.Partition{{ID: "/dev/sdb1", Size: "14.9G"}},
	}
}

func bareCard() device.Device {
	return device.Device{ID: "/dev/sdc", Size: "1.0TB", Model: device.DefaultModel, Partitions: []device.Partition{}}
}

func TestMountNoDeviceSpecified(t *testing.T) {
	runner := testsupport.NewFakeRunner()
	o, _, _ := newPOSIX(t, runner)
	_, err := o.Mount(context.Background(), Request{})
	if !errors.Is(err, ErrNoDeviceSpecified) {
		t.Fatalf("expected ErrNoDeviceSpecified, got %v", err)
	}
	if HintFor(err) == "" {
		t.Fatal("expected a hint")
	}
	if len(runner.Calls()) != 0 {
		t.Fatalf("no command should run: %v", runner.Programs())
	}
}

func TestMountSelectedDeviceTargetsFirstPartition(t *testing.T) {
	runner := testsupport.NewFakeRunner().OnStdout("mount", "")
	o, registry, base := newPOSIX(t, runner, usbStick())
	if _, err := registry.Select(0); err != nil {
		t.Fatalf("Select: %v", err)
	}

	res, err := o.Mount(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	want := filepath.Join(base, "shuttle_usb_4242")
	if res.MountPoint != want || res.Device != "/dev/sdb1" || !res.Created || res.Reused {
		t.Fatalf("unexpected result: %+v", res)
	}
	if info, err := os.Stat(want); err != nil || !info.IsDir() {
		t.Fatalf("mount point not created: %v", err)
	}
	calls := runner.CallsTo("mount")
	if len(calls) != 1 || calls[0].Args[0] != "/dev/sdb1" || calls[0].Args[1] != want {
		t.Fatalf("unexpected mount calls: %+v", calls)
	}
	if calls[0].Timeout != defaultTimeout {
		t.Fatalf("mount timeout = %s", calls[0].Timeout)
	}
	if registry.ActiveMountPoint() != want {
		t.Fatalf("active mount point = %q", registry.ActiveMountPoint())
	}
}

func TestMountTwiceCallsMountOnce(t *testing.T) {
	for name, dev := range map[string]device.Device{"partitioned": usbStick(), "bare": bareCard()} {
		t.Run(name, func(t *testing.T) {
			runner := testsupport.NewFakeRunner().OnStdout("mount", "")
			o, registry, _ := newPOSIX(t, runner, dev)
			if _, err := registry.Select(0); err != nil {
				t.Fatalf("Select: %v", err)
			}

			first, err := o.Mount(context.Background(), Request{})
			if err != nil {
				t.Fatalf("first Mount: %v", err)
			}
			second, err := o.Mount(context.Background(), Request{})
			if err != nil {
				t.Fatalf("second Mount: %v", err)
			}
			if second.MountPoint != first.MountPoint || !second.Reused {
				t.Fatalf("second mount = %+v, want reuse of %q", second, first.MountPoint)
			}
			if n := len(runner.CallsTo("mount")); n != 1 {
				t.Fatalf("mount called %d times", n)
			}
		})
	}
}

func TestMountAlreadyMountedPartitionSkipsOSCall(t *testing.T) {
	dev := usbStick()
	dev.Partitions[0].MountPoint = "/media/alice/USB"
	dev.MountPoint = "/media/alice/USB"
	runner := testsupport.NewFakeRunner()
	o, registry, _ := newPOSIX(t, runner, dev)
	if _, err := registry.Select(0); err != nil {
		t.Fatalf("Select: %v", err)
	}

	res, err := o.Mount(context.Background(), Request{MountPoint: "/somewhere/else"})
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if res.MountPoint != "/media/alice/USB" || !res.Reused {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(runner.Calls()) != 0 {
		t.Fatalf("no command should run: %v", runner.Programs())
	}
}

func TestMountAlreadyMountedOutputIsSuccess(t *testing.T) {
	runner := testsupport.NewFakeRunner().OnExit("mount", 32, "mount: /mnt/x: /dev/sdc already mounted on /media/card.")
	o, registry, _ := newPOSIX(t, runner, bareCard())
	target := filepath.Join(t.TempDir(), "x")

	res, err := o.Mount(context.Background(), Request{Device: "/dev/sdc", MountPoint: target})
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if res.MountPoint != target {
		t.Fatalf("mount point = %q, want %q", res.MountPoint, target)
	}
	if registry.ActiveMountPoint() != target {
		t.Fatalf("active mount point = %q", registry.ActiveMountPoint())
	}
}

func TestMountPermissionDenied(t *testing.T) {
	runner := testsupport.NewFakeRunner().OnExit("mount", 1, "mount: /tmp/x: must be superuser to use mount.")
	o, registry, base := newPOSIX(t, runner, bareCard())

	_, err := o.Mount(context.Background(), Request{Device: "/dev/sdc"})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if !strings.Contains(HintFor(err), "sudo") {
		t.Fatalf("hint = %q", HintFor(err))
	}
	if registry.ActiveMountPoint() != "" {
		t.Fatal("failed mount must not set an active mount point")
	}
	if _, statErr := os.Stat(filepath.Join(base, "shuttle_usb_4242")); !errors.Is(statErr, fs.ErrNotExist) {
		t.Fatalf("created mount point should be removed, stat err = %v", statErr)
	}
}

func TestMountFailures(t *testing.T) {
	tests := []struct {
		name   string
		result command.Result
		err    error
		want   error
	}{
		{name: "timeout", result: command.Result{ExitCode: -1}, err: command.ErrTimeout, want: ErrMountTimeout},
		{name: "exit", result: command.Result{ExitCode: 32, Stderr: "mount: wrong fs type, bad option"}, want: ErrMountFailed},
		{name: "missing binary", result: command.Result{ExitCode: -1}, err: command.ErrNotFound, want: ErrMountFailed},
		{name: "start refused", result: command.Result{ExitCode: -1}, err: command.ErrPermission, want: ErrPermissionDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := testsupport.NewFakeRunner().On("mount", tt.result, tt.err)
			o, registry, _ := newPOSIX(t, runner, bareCard())
			_, err := o.Mount(context.Background(), Request{Device: "/dev/sdc"})
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if registry.ActiveMountPoint() != "" {
				t.Fatal("failed mount must not set an active mount point")
			}
		})
	}
}

func TestMountDirectoryPermissionDenied(t *testing.T) {
	runner := testsupport.NewFakeRunner()
	o, _, _ := newPOSIX(t, runner, bareCard())
	o.variant.(*posixVariant).mkdirAll = func(string, os.FileMode) error {
		return &fs.PathError{Op: "mkdir", Path: "/mnt/x", Err: fs.ErrPermission}
	}

	_, err := o.Mount(context.Background(), Request{Device: "/dev/sdc", MountPoint: "/mnt/x"})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if len(runner.Calls()) != 0 {
		t.Fatal("mount must not run when the directory cannot be created")
	}
}

func TestUnmount(t *testing.T) {
	runner := testsupport.NewFakeRunner().OnStdout("mount", "").OnStdout("umount", "")
	o, registry, _ := newPOSIX(t, runner, usbStick())
	if _, err := registry.Select(0); err != nil {
		t.Fatalf("Select: %v", err)
	}
	res, err := o.Mount(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}

	if err := o.Unmount(context.Background(), ""); err != nil {
		t.Fatalf("Unmount: %v", err)
	}
	calls := runner.CallsTo("umount")
	if len(calls) != 1 || calls[0].Args[0] != res.MountPoint {
		t.Fatalf("unexpected umount calls: %+v", calls)
	}
	if registry.ActiveMountPoint() != "" {
		t.Fatal("active mount point not cleared")
	}
	if sel, _ := registry.Selected(); sel.MountPoint != "" {
		t.Fatalf("selection still mounted: %+v", sel)
	}
}

func TestUnmountNothingActiveIsNoop(t *testing.T) {
	runner := testsupport.NewFakeRunner()
	o, _, _ := newPOSIX(t, runner)
	if err := o.Unmount(context.Background(), ""); err != nil {
		t.Fatalf("Unmount: %v", err)
	}
	if len(runner.Calls()) != 0 {
		t.Fatalf("no command should run: %v", runner.Programs())
	}
}

func TestUnmountFailureKeepsActive(t *testing.T) {
	runner := testsupport.NewFakeRunner().OnExit("umount", 32, "umount: /mnt/x: target is busy.")
	o, registry, _ := newPOSIX(t, runner)
	registry.RecordMount("/dev/sdc", "/mnt/x")

	err := o.Unmount(context.Background(), "/mnt/x")
	if !errors.Is(err, ErrUnmountFailed) {
		t.Fatalf("expected ErrUnmountFailed, got %v", err)
	}
	if !strings.Contains(HintFor(err), "close") {
		t.Fatalf("hint = %q", HintFor(err))
	}
	if registry.ActiveMountPoint() != "/mnt/x" {
		t.Fatal("active mount point must survive a failed unmount")
	}
}

func TestUnmountOtherPathKeepsActive(t *testing.T) {
	runner := testsupport.NewFakeRunner().OnStdout("umount", "")
	o, registry, _ := newPOSIX(t, runner)
	registry.RecordMount("/dev/sdc", "/mnt/x")

	if err := o.Unmount(context.Background(), "/mnt/other"); err != nil {
		t.Fatalf("Unmount: %v", err)
	}
	if registry.ActiveMountPoint() != "/mnt/x" {
		t.Fatal("unmounting another path must not clear the active mount")
	}
}

func TestErrorMessage(t *testing.T) {
	err := newError(ErrMountFailed, "mount", "/dev/sdb1", "wrong fs type", "hint", errors.New("exit 32"))
	want := "mount /dev/sdb1: mount failed: wrong fs type: exit 32"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}
