package config

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDetection(); err != nil {
		return err
	}
	if err := c.validateMount(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.StateDir == "" {
		return errors.New("paths.state_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateDetection() error {
	if c.Detection.LsblkTimeout <= 0 {
		return errors.New("detection.lsblk_timeout must be positive")
	}
	if c.Detection.PowerShellTimeout <= 0 {
		return errors.New("detection.powershell_timeout must be positive")
	}
	if c.Detection.WMICTimeout <= 0 {
		return errors.New("detection.wmic_timeout must be positive")
	}
	if c.Detection.SysBlockDir == "" {
		return errors.New("detection.sys_block_dir must be set")
	}
	return nil
}

func (c *Config) validateMount() error {
	if c.Mount.Timeout <= 0 {
		return errors.New("mount.timeout must be positive")
	}
	if !filepath.IsAbs(c.Mount.BaseDir) {
		return fmt.Errorf("mount.base_dir must be absolute, got %q", c.Mount.BaseDir)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (use console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
