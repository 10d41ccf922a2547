package config

import "strings"

// normalize expands path fields and fills empty values with defaults so the
// rest of the program never re-checks for blanks.
func (c *Config) normalize() error {
	defaults := Default()

	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaults.Paths.StateDir
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaults.Paths.LogDir
	}

	var err error
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}

	c.Bus.Address = strings.TrimSpace(c.Bus.Address)
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Format == "" {
		c.Logging.Format = defaults.Logging.Format
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
	}

	if c.Bus.CallTimeout <= 0 {
		c.Bus.CallTimeout = defaults.Bus.CallTimeout
	}
	if c.Activation.ActivateTimeout <= 0 {
		c.Activation.ActivateTimeout = defaults.Activation.ActivateTimeout
	}
	if c.Activation.DeactivateTimeout <= 0 {
		c.Activation.DeactivateTimeout = defaults.Activation.DeactivateTimeout
	}
	if c.Monitor.EventBuffer <= 0 {
		c.Monitor.EventBuffer = defaults.Monitor.EventBuffer
	}

	return nil
}
