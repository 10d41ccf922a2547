package config

const (
	defaultStateDir          = "~/.local/share/uplink"
	defaultLogDir            = "~/.local/share/uplink/logs"
	defaultCallTimeout       = 10
	defaultActivateTimeout   = 90
	defaultDeactivateTimeout = 15
	defaultEventBuffer       = 64
	defaultScanInterval      = 120
	defaultRetentionDays     = 30
	defaultLogFormat         = "text"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Bus: Bus{
			CallTimeout: defaultCallTimeout,
		},
		Activation: Activation{
			ActivateTimeout:   defaultActivateTimeout,
			DeactivateTimeout: defaultDeactivateTimeout,
		},
		Monitor: Monitor{
			EventBuffer:  defaultEventBuffer,
			ScanInterval: defaultScanInterval,
		},
		History: History{
			Enabled:       true,
			RetentionDays: defaultRetentionDays,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
