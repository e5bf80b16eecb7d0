package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Detection contains timeouts and sources used by device discovery.
// Timeouts are expressed in seconds.
type Detection struct {
	LsblkTimeout      int    `toml:"lsblk_timeout"`
	PowerShellTimeout int    `toml:"powershell_timeout"`
	WMICTimeout       int    `toml:"wmic_timeout"`
	SysBlockDir       string `toml:"sys_block_dir"`
}

// Mount contains configuration for mount and unmount calls.
type Mount struct {
	// Timeout bounds each mount(8) and umount(8) invocation, in seconds.
	Timeout int `toml:"timeout"`
	// BaseDir is where default per-process mount points are created.
	// Empty means the OS temporary directory.
	BaseDir string `toml:"base_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for shuttle.
//
// Configuration sections by subsystem:
//   - Paths: state (journal, lock) and log directories
//   - Detection: lsblk/sysfs and PowerShell/wmic discovery settings
//   - Mount: mount call timeout and default mount point location
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Detection Detection `toml:"detection"`
	Mount     Mount     `toml:"mount"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("shuttle.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// JournalPath returns the SQLite database that records registry state and mount history.
func (c *Config) JournalPath() string {
	return filepath.Join(c.Paths.StateDir, "shuttle.db")
}

// LockPath returns the file lock that serializes shuttle commands.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "shuttle.lock")
}

// LogPath returns the log file written alongside console output.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "shuttle.log")
}

// LsblkTimeout bounds the lsblk invocation.
func (c *Config) LsblkTimeout() time.Duration { return seconds(c.Detection.LsblkTimeout) }

// PowerShellTimeout bounds the WMI PowerShell query.
func (c *Config) PowerShellTimeout() time.Duration { return seconds(c.Detection.PowerShellTimeout) }

// WMICTimeout bounds the wmic logicaldisk fallback query.
func (c *Config) WMICTimeout() time.Duration { return seconds(c.Detection.WMICTimeout) }

// MountTimeout bounds mount and umount invocations.
func (c *Config) MountTimeout() time.Duration { return seconds(c.Mount.Timeout) }

func seconds(value int) time.Duration {
	return time.Duration(value) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
