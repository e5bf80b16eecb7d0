// Package config loads, normalizes, and validates shuttle configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the SHUTTLE_STATE_DIR environment
// override. The Config type centralizes the detection and mount timeouts, the
// state and log directories, and logging preferences so the CLI and the
// session layer discover them in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
