package config

import "fmt"

// Validate rejects configurations the daemon cannot run with.
func (c *Config) Validate() error {
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}

	if c.Monitor.ScanInterval < 0 {
		return fmt.Errorf("monitor.scan_interval: must not be negative, got %d", c.Monitor.ScanInterval)
	}
	if c.History.RetentionDays < 0 {
		return fmt.Errorf("history.retention_days: must not be negative, got %d", c.History.RetentionDays)
	}
	if c.Activation.DeactivateTimeout > c.Activation.ActivateTimeout {
		return fmt.Errorf("activation: deactivate_timeout (%d) must not exceed activate_timeout (%d)",
			c.Activation.DeactivateTimeout, c.Activation.ActivateTimeout)
	}

	return nil
}
