// Package preflight provides readiness checks for the tools, privileges and
// filesystem paths shuttle depends on.
//
// The CLI "shuttle doctor" command runs RunAll and renders each Result; no
// check changes state, so they are safe to run at any time.
package preflight
