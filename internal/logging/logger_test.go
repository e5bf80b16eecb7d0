package logging_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shuttle/internal/config"
	"shuttle/internal/logging"
)

func newFileLogger(t *testing.T, format, level string) (string, func() string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "shuttle.log")
	logger, err := logging.New(logging.Options{Format: format, Level: level, OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	read := func() string {
		content, err := os.ReadFile(logPath)
		if err != nil {
			t.Fatalf("read log file: %v", err)
		}
		return string(content)
	}
	logging.NewComponentLogger(logger, "detector").Info("devices detected",
		logging.String(logging.FieldDevice, "/dev/sdb"),
		logging.Int("count", 2),
		logging.String("model", "SanDisk Ultra"),
	)
	logger.Debug("debug detail")
	return logPath, read
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello from config")

	content, err := os.ReadFile(cfg.LogPath())
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "hello from config") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleLoggerFormatsComponentAndDevice(t *testing.T) {
	_, read := newFileLogger(t, "console", "info")
	content := read()

	if !strings.Contains(content, "INFO [detector] /dev/sdb – devices detected") {
		t.Fatalf("unexpected console header: %q", content)
	}
	if !strings.Contains(content, `model="SanDisk Ultra"`) {
		t.Fatalf("expected quoted value with spaces, got %q", content)
	}
	if strings.Contains(content, "component=") {
		t.Fatalf("component should be rendered in the header only: %q", content)
	}
	if strings.Contains(content, "debug detail") {
		t.Fatalf("debug line should be filtered at info level: %q", content)
	}
	if strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	_, read := newFileLogger(t, "console", "debug")
	content := read()
	if !strings.Contains(content, "debug detail") {
		t.Fatalf("expected debug line, got %q", content)
	}
	if !strings.Contains(content, ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestJSONLoggerEmitsStructuredRecords(t *testing.T) {
	_, read := newFileLogger(t, "json", "info")
	line := strings.TrimSpace(strings.Split(read(), "\n")[0])

	var record map[string]any
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		t.Fatalf("expected JSON line, got %q: %v", line, err)
	}
	if record["level"] != "info" {
		t.Fatalf("unexpected level %v", record["level"])
	}
	if record["component"] != "detector" || record["device"] != "/dev/sdb" {
		t.Fatalf("missing structured fields: %v", record)
	}
	if _, ok := record["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", record)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.WarnWithContext(logger, "lsblk unavailable", "lsblk_unavailable",
		logging.String(logging.FieldErrorHint, "install util-linux"),
		logging.Error(errors.New("not found")),
	)

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(content, &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record[logging.FieldEventType] != "lsblk_unavailable" {
		t.Fatalf("event_type not injected: %v", record)
	}
	if record[logging.FieldErrorHint] != "install util-linux" {
		t.Fatalf("explicit hint should win: %v", record)
	}
	if record[logging.FieldImpact] == nil {
		t.Fatalf("impact not injected: %v", record)
	}
}

func TestWithContextAddsSessionID(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "ctx.log")
	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := logging.WithSessionID(context.Background(), "abc-123")
	logging.WithContext(ctx, logger).Info("mounted")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(content), `"session_id":"abc-123"`) {
		t.Fatalf("expected session id in log, got %q", content)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), 12) {
		t.Fatal("nop logger should never be enabled")
	}
	logging.WarnWithContext(nil, "ignored", "ignored")
}
