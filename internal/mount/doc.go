// Package mount attaches the selected removable device to a filesystem path
// and detaches it again.
//
// Two variants exist. On POSIX hosts the Orchestrator calls mount(8) and
// umount(8) through a command.Runner, creating a per-process mount point when
// none is requested. On Windows the OS has already mounted every volume under
// a drive letter, so the Orchestrator only resolves the letter from the
// selected device and never calls out to the system.
//
// Every failure is a *Error that matches one of the package sentinels with
// errors.Is and carries a remediation hint (see HintFor).
package mount
