package config

const (
	defaultConfigPath        = "~/.config/shuttle/config.toml"
	defaultStateDir          = "~/.local/share/shuttle"
	defaultLogDir            = "~/.local/share/shuttle/logs"
	defaultLsblkTimeout      = 10
	defaultPowerShellTimeout = 15
	defaultWMICTimeout       = 10
	defaultSysBlockDir       = "/sys/block"
	defaultMountTimeout      = 30
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Detection: Detection{
			LsblkTimeout:      defaultLsblkTimeout,
			PowerShellTimeout: defaultPowerShellTimeout,
			WMICTimeout:       defaultWMICTimeout,
			SysBlockDir:       defaultSysBlockDir,
		},
		Mount: Mount{
			Timeout: defaultMountTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
