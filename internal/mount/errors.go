package mount

import (
	"errors"
	"strings"
)

var (
	ErrNoDeviceSpecified = errors.New("no device specified")
	ErrNoMountpoint      = errors.New("no mount point found")
	ErrMountFailed       = errors.New("mount failed")
	ErrMountTimeout      = errors.New("mount timed out")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrUnmountFailed     = errors.New("unmount failed")
)

// Error describes a failed mount or unmount.
type Error struct {
	Kind   error
	Op     string
	Target string
	Detail string
	Hint   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
	}
	if e.Target != "" {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(e.Target)
	}
	if b.Len() > 0 {
		b.WriteString(": ")
	}
	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
	} else {
		b.WriteString("mount error")
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// HintFor returns the remediation hint attached to err, if any.
func HintFor(err error) string {
	var mountErr *Error
	if errors.As(err, &mountErr) {
		return mountErr.Hint
	}
	return ""
}

func newError(kind error, op, target, detail, hint string, err error) *Error {
	return &Error{Kind: kind, Op: op, Target: target, Detail: detail, Hint: hint, Err: err}
}

// Output fragments recognised in mount(8)/umount(8) diagnostics. Matching is
// case-insensitive substring search, so localised or reworded messages fall
// through to the generic failure.
var (
	alreadyMountedMarkers = []string{"already mounted"}
	permissionMarkers     = []string{"permission denied", "must be superuser", "only root", "operation not permitted"}
	busyMarkers           = []string{"target is busy", "device is busy", "resource busy"}
)

func containsAny(text string, markers []string) bool {
	lower := strings.ToLower(text)
	for _, marker := range markers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
