package config

import "errors"

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTool(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateTool() error {
	if c.Tool.Binary == "" {
		return errors.New("tool.binary must be set")
	}
	if c.Tool.PollIntervalMS <= 0 {
		return errors.New("tool.poll_interval_ms must be positive")
	}
	if c.Tool.PTYColumns <= 0 || c.Tool.PTYColumns > 0xFFFF {
		return errors.New("tool.pty_columns must be between 1 and 65535")
	}
	if c.Tool.PTYLines <= 0 || c.Tool.PTYLines > 0xFFFF {
		return errors.New("tool.pty_lines must be between 1 and 65535")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return errors.New("logging.level must be one of debug, info, warn, error")
	}
	switch c.Logging.Format {
	case "console", "json":
		return nil
	default:
		return errors.New("logging.format must be console or json")
	}
}
