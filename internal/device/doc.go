// Package device discovers removable block devices and holds the process-wide
// registry of what was found.
//
// Discovery is a fixed, ordered chain of strategies chosen once from the host
// platform: lsblk then the sysfs block tree on POSIX hosts, a WMI PowerShell
// query then wmic on Windows. The first strategy that runs successfully wins.
// Tool failures are logged and absorbed, so Detect always returns a (possibly
// empty) device list and never an error.
//
// Parsers for every tool's output live here so the quirks of each format stay
// isolated from the mount and session layers.
package device
