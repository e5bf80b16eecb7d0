// Package session is the single owner of shuttle's device state for one CLI
// invocation.
//
// Open takes an exclusive file lock in the state directory, opens the journal
// and restores the registry persisted by the previous invocation; Close saves
// it back and releases the lock. Between the two, every detection, selection,
// mount and unmount goes through the Session so the registry, the journal and
// the OS stay consistent.
package session
