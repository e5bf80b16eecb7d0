package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDetection()
	if err := c.normalizeMount(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("SHUTTLE_STATE_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.StateDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}

	var err error
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDetection() {
	if c.Detection.LsblkTimeout <= 0 {
		c.Detection.LsblkTimeout = defaultLsblkTimeout
	}
	if c.Detection.PowerShellTimeout <= 0 {
		c.Detection.PowerShellTimeout = defaultPowerShellTimeout
	}
	if c.Detection.WMICTimeout <= 0 {
		c.Detection.WMICTimeout = defaultWMICTimeout
	}
	c.Detection.SysBlockDir = strings.TrimSpace(c.Detection.SysBlockDir)
	if c.Detection.SysBlockDir == "" {
		c.Detection.SysBlockDir = defaultSysBlockDir
	}
}

func (c *Config) normalizeMount() error {
	if c.Mount.Timeout <= 0 {
		c.Mount.Timeout = defaultMountTimeout
	}
	c.Mount.BaseDir = strings.TrimSpace(c.Mount.BaseDir)
	if c.Mount.BaseDir == "" {
		c.Mount.BaseDir = os.TempDir()
	}
	var err error
	if c.Mount.BaseDir, err = expandPath(c.Mount.BaseDir); err != nil {
		return fmt.Errorf("mount.base_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
