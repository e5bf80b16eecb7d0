//go:build !unix

package preflight

import "os"

// checkAccess probes writability by creating a temporary file, since access(2)
// is unavailable.
func checkAccess(path string) error {
	f, err := os.CreateTemp(path, ".shuttle-access-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
