package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shuttle/internal/config"
	"shuttle/internal/device"
	"shuttle/internal/logging"
	"shuttle/internal/mount"
	"shuttle/internal/platform"
	"shuttle/internal/session"
	"shuttle/internal/testsupport"
	"shuttle/internal/volume"
)

const lsblkTwoSticks = `{"blockdevices":[
	{"name":"sdb","size":"14.9G","type":"disk","mountpoint":null,"tran":"usb","model":"SanDisk","rm":true,
	 "children":[{"name":"sdb1","size":"14.9G","type":"part","mountpoint":null}]},
	{"name":"sdc","size":"7.5G","type":"disk","mountpoint":null,"tran":"usb","model":null,"rm":"1"}
]}`

type allowAll struct{ elevated bool }

func (a allowAll) IsElevated() bool       { return a.elevated }
func (a allowAll) CheckPermissions() bool { return a.elevated }

type noMounts struct{}

func (noMounts) IsMounted(context.Context, string) (bool, error) { return false, nil }
func (noMounts) Usage(context.Context, string) (volume.Usage, error) {
	return volume.Usage{}, errors.New("not mounted")
}

type cliTestEnv struct {
	configPath string
	mountBase  string
	runner     *testsupport.FakeRunner
}

func setupCLITestEnv(t *testing.T, elevated bool) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	env := &cliTestEnv{
		configPath: filepath.Join(base, "config.toml"),
		mountBase:  filepath.Join(base, "mnt"),
		runner: testsupport.NewFakeRunner().
			OnStdout("lsblk", lsblkTwoSticks).
			OnStdout("mount", "").
			OnStdout("umount", ""),
	}
	content := fmt.Sprintf("[paths]\nstate_dir = %q\nlog_dir = %q\n\n[mount]\nbase_dir = %q\n",
		filepath.Join(base, "state"), filepath.Join(base, "logs"), env.mountBase)
	testsupport.WriteFile(t, env.configPath, content)

	origLogger, origOpts := newLogger, sessionOptions
	newLogger = func(*config.Config) (*slog.Logger, error) { return logging.NewNop(), nil }
	sessionOptions = func() []session.Option {
		return []session.Option{
			session.WithRunner(env.runner),
			session.WithPlatform(platform.POSIX),
			session.WithPrivilegeChecker(allowAll{elevated: elevated}),
			session.WithVolumeProbe(noMounts{}),
		}
	}
	t.Cleanup(func() {
		newLogger, sessionOptions = origLogger, origOpts
	})
	return env
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCLIDetectSelectMountUnmount(t *testing.T) {
	env := setupCLITestEnv(t, true)

	out, _, err := runCLI(t, []string{"detect", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	var devices []device.Device
	if err := json.Unmarshal([]byte(out), &devices); err != nil {
		t.Fatalf("decode detect output: %v\n%s", err, out)
	}
	if len(devices) != 2 || devices[1].Model != device.DefaultModel {
		t.Fatalf("unexpected devices: %+v", devices)
	}

	out, _, err = runCLI(t, []string{"select", "0"}, env.configPath)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if !strings.Contains(out, "Selected /dev/sdb (SanDisk, 14.9G)") {
		t.Fatalf("unexpected select output: %q", out)
	}

	out, _, err = runCLI(t, []string{"mount"}, env.configPath)
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	want := mount.DefaultMountPoint(env.mountBase, os.Getpid())
	if !strings.Contains(out, "Mounted /dev/sdb1 at "+want) {
		t.Fatalf("unexpected mount output: %q", out)
	}
	calls := env.runner.CallsTo("mount")
	if len(calls) != 1 || calls[0].Args[0] != "/dev/sdb1" || calls[0].Args[1] != want {
		t.Fatalf("unexpected mount calls: %+v", calls)
	}

	out, _, err = runCLI(t, []string{"status", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var st session.Status
	if err := json.Unmarshal([]byte(out), &st); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if st.ActiveMountPoint != want || st.Selected == nil || st.OpenSessions != 1 {
		t.Fatalf("unexpected status: %+v", st)
	}

	out, _, err = runCLI(t, []string{"paths"}, env.configPath)
	if err != nil {
		t.Fatalf("paths: %v", err)
	}
	if !strings.Contains(out, filepath.Join(want, "inbox")) || !strings.Contains(out, "Wallet present: no") {
		t.Fatalf("unexpected paths output: %q", out)
	}

	out, _, err = runCLI(t, []string{"unmount"}, env.configPath)
	if err != nil {
		t.Fatalf("unmount: %v", err)
	}
	if !strings.Contains(out, "Unmounted "+want) {
		t.Fatalf("unexpected unmount output: %q", out)
	}

	out, _, err = runCLI(t, []string{"unmount"}, env.configPath)
	if err != nil || !strings.Contains(out, "Nothing to unmount") {
		t.Fatalf("second unmount = %q, %v", out, err)
	}

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "/dev/sdb1") || !strings.Contains(out, "unmounted") {
		t.Fatalf("unexpected history output: %q", out)
	}

	out, _, err = runCLI(t, []string{"cleanup"}, env.configPath)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if !strings.Contains(out, "Removed "+want) {
		t.Fatalf("unexpected cleanup output: %q", out)
	}
}

func TestCLIMountWithoutPrivilegesPrintsHint(t *testing.T) {
	env := setupCLITestEnv(t, false)

	if _, _, err := runCLI(t, []string{"detect"}, env.configPath); err != nil {
		t.Fatalf("detect: %v", err)
	}
	if _, _, err := runCLI(t, []string{"select", "1"}, env.configPath); err != nil {
		t.Fatalf("select: %v", err)
	}
	_, _, err := runCLI(t, []string{"mount"}, env.configPath)
	if !errors.Is(err, mount.ErrPermissionDenied) {
		t.Fatalf("expected permission error, got %v", err)
	}

	var buf bytes.Buffer
	printError(&buf, err)
	if !strings.Contains(buf.String(), "hint: run shuttle with sudo") {
		t.Fatalf("hint missing from %q", buf.String())
	}
}

func TestCLISelectErrors(t *testing.T) {
	env := setupCLITestEnv(t, true)

	_, _, err := runCLI(t, []string{"select", "0"}, env.configPath)
	if !errors.Is(err, device.ErrInvalidSelection) || !strings.Contains(err.Error(), "shuttle detect") {
		t.Fatalf("expected detect hint, got %v", err)
	}
	_, _, err = runCLI(t, []string{"select", "first"}, env.configPath)
	if !errors.Is(err, device.ErrInvalidSelection) {
		t.Fatalf("expected invalid selection, got %v", err)
	}

	if _, _, err := runCLI(t, []string{"detect"}, env.configPath); err != nil {
		t.Fatalf("detect: %v", err)
	}
	_, _, err = runCLI(t, []string{"select", "5"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "outside 0..1") {
		t.Fatalf("expected range error, got %v", err)
	}
}

func TestCLIDetectTable(t *testing.T) {
	env := setupCLITestEnv(t, true)

	out, _, err := runCLI(t, []string{"detect"}, env.configPath)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	for _, want := range []string{"/dev/sdb", "SanDisk", "/dev/sdb1", "USB Device", "shuttle select"} {
		if !strings.Contains(out, want) {
			t.Fatalf("detect output missing %q:\n%s", want, out)
		}
	}
}

func TestCLIPathsWithoutMount(t *testing.T) {
	env := setupCLITestEnv(t, true)

	if _, _, err := runCLI(t, []string{"paths"}, env.configPath); err == nil {
		t.Fatal("expected error without a mount point")
	}

	dir := t.TempDir()
	out, _, err := runCLI(t, []string{"paths", "--mount-point", dir, "--prepare", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("paths --prepare: %v", err)
	}
	var result pathsOutput
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode paths: %v", err)
	}
	if result.MountPoint != dir {
		t.Fatalf("mount point = %q", result.MountPoint)
	}
	if info, err := os.Stat(filepath.Join(dir, "outbox")); err != nil || !info.IsDir() {
		t.Fatalf("outbox not created: %v", err)
	}
}

func TestCLIDoctorJSON(t *testing.T) {
	env := setupCLITestEnv(t, true)
	orig := hostElevated
	hostElevated = func(platform.Platform) bool { return true }
	defer func() { hostElevated = orig }()

	out, _, err := runCLI(t, []string{"doctor", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	if !strings.Contains(out, `"name": "Privileges"`) || !strings.Contains(out, `"name": "State directory"`) {
		t.Fatalf("unexpected doctor output: %s", out)
	}
}

func TestCLIConfigInit(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "shuttle.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("unexpected output: %q", out)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected refusal to overwrite")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
}

func TestCLIConfigValidate(t *testing.T) {
	env := setupCLITestEnv(t, true)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if !strings.Contains(out, "Configuration valid") || !strings.Contains(out, env.configPath) {
		t.Fatalf("unexpected output: %q", out)
	}
}
