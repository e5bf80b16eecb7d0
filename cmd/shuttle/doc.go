// Package main hosts the shuttle CLI entrypoint and command graph.
//
// Each command opens a session, which takes the state lock and restores the
// device registry persisted by the previous invocation, so detect, select and
// mount can run as separate commands. Output is a table or status lines on a
// terminal, or JSON with --json. Logs go to stderr and the log file.
//
// Keep this package lean: behavior belongs in internal/session and the
// packages below it; commands only parse flags and render results.
package main
