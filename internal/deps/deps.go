// Package deps reports whether the external programs shuttle drives are
// installed.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"shuttle/internal/platform"
)

// Requirement defines an external dependency shuttle relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

var lookPath = exec.LookPath

// Requirements lists the programs each platform variant calls.
func Requirements(p platform.Platform) []Requirement {
	if p == platform.Windows {
		return []Requirement{
			{Name: "PowerShell", Command: "powershell", Description: "Primary device detection (WMI)"},
			{Name: "WMIC", Command: "wmic", Description: "Fallback device detection", Optional: true},
		}
	}
	return []Requirement{
		{Name: "lsblk", Command: "lsblk", Description: "Primary device detection", Optional: true},
		{Name: "mount", Command: "mount", Description: "Required for mounting devices"},
		{Name: "umount", Command: "umount", Description: "Required for unmounting devices"},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := lookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}
