// Package command runs the external programs shuttle depends on (lsblk,
// mount, umount, powershell, wmic) under a bounded timeout.
//
// The Runner interface is the only seam through which the device, mount, and
// preflight packages touch the host, which keeps every OS interaction
// replaceable in tests.
package command
