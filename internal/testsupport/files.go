package testsupport

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteBlockDevice creates a fake sysfs entry under root with the given
// removable flag and sector count. A negative sector count omits the size file.
func WriteBlockDevice(t testing.TB, root, name string, removable bool, sectors int64) {
	t.Helper()

	dir := filepath.Join(root, name)
	flag := "0"
	if removable {
		flag = "1"
	}
	WriteFile(t, filepath.Join(dir, "removable"), flag+"\n")
	if sectors >= 0 {
		WriteFile(t, filepath.Join(dir, "size"), strconv.FormatInt(sectors, 10)+"\n")
	}
}
