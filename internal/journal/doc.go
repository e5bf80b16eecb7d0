// Package journal persists shuttle state between invocations in SQLite.
//
// Two things are stored: the device registry snapshot, so a device selected
// or mounted by one command is known to the next, and a history of mount
// sessions, so mount point directories shuttle created can be found and
// removed later.
package journal
