// Package platform names the host operating system families that shuttle
// distinguishes between.
//
// Components pick their behaviour once, at construction, from a Platform value
// instead of branching on runtime.GOOS at every call site.
package platform

import "runtime"

// Platform identifies the class of host operating system.
type Platform int

const (
	// POSIX covers Linux and other Unix-like hosts that mount through mount(8).
	POSIX Platform = iota
	// Windows hosts expose removable volumes as drive letters.
	Windows
)

// String returns a stable lowercase label suitable for logs and storage.
func (p Platform) String() string {
	switch p {
	case Windows:
		return "windows"
	default:
		return "posix"
	}
}

// Parse converts a label produced by String back into a Platform.
func Parse(value string) Platform {
	if value == "windows" {
		return Windows
	}
	return POSIX
}

// Host returns the platform of the running process.
func Host() Platform {
	if runtime.GOOS == "windows" {
		return Windows
	}
	return POSIX
}
