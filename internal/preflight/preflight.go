package preflight

import (
	"context"
	"fmt"
	"os"
	"strings"

	"shuttle/internal/config"
	"shuttle/internal/deps"
	"shuttle/internal/platform"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Optional bool   `json:"optional,omitempty"`
	Detail   string `json:"detail"`
}

// RunAll executes every check that applies to p.
func RunAll(ctx context.Context, cfg *config.Config, p platform.Platform, elevated bool) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckTools(p)...)
	if p == platform.POSIX {
		results = append(results, CheckSysfs(cfg.Detection.SysBlockDir))
	}
	results = append(results, CheckPrivileges(p, elevated))
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	if p == platform.POSIX {
		results = append(results, CheckMountBase(cfg.Mount.BaseDir))
	}
	return results
}

// CheckTools reports the external programs the platform variant calls.
func CheckTools(p platform.Platform) []Result {
	statuses := deps.CheckBinaries(deps.Requirements(p))
	results := make([]Result, 0, len(statuses))
	for _, status := range statuses {
		detail := status.Description
		if !status.Available {
			detail = status.Detail
		}
		results = append(results, Result{
			Name:     status.Name,
			Passed:   status.Available,
			Optional: status.Optional,
			Detail:   detail,
		})
	}
	return results
}

// CheckSysfs verifies the sysfs block tree used by fallback detection.
func CheckSysfs(dir string) Result {
	const name = "sysfs block tree"
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("%s (error: %v)", dir, err)}
	}
	return Result{Name: name, Passed: true, Optional: true, Detail: fmt.Sprintf("%s (%d entries)", dir, len(entries))}
}

// CheckPrivileges reports whether mount operations will be allowed.
func CheckPrivileges(p platform.Platform, elevated bool) Result {
	const name = "Privileges"
	switch {
	case p == platform.Windows && elevated:
		return Result{Name: name, Passed: true, Detail: "administrator"}
	case p == platform.Windows:
		return Result{Name: name, Passed: true, Detail: "standard user (drives are mounted by Windows)"}
	case elevated:
		return Result{Name: name, Passed: true, Detail: "root"}
	default:
		return Result{Name: name, Detail: "not root (run shuttle with sudo to mount)"}
	}
}

// CheckMountBase verifies the directory default mount points are created in.
func CheckMountBase(dir string) Result {
	if strings.TrimSpace(dir) == "" {
		dir = os.TempDir()
	}
	return CheckDirectoryAccess("Mount base directory", dir)
}
