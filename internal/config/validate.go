package config

import (
	"errors"
	"fmt"
	"net"
	"unicode/utf8"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateIngest(); err != nil {
		return err
	}
	if err := c.validateCounters(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if _, _, err := net.SplitHostPort(c.Server.Bind); err != nil {
		return fmt.Errorf("server.bind must be host:port: %w", err)
	}
	return nil
}

func (c *Config) validateIngest() error {
	if utf8.RuneCountInString(c.Ingest.DefaultSource) > maxImportSourceLength {
		return fmt.Errorf("ingest.default_source must be at most %d characters", maxImportSourceLength)
	}
	return nil
}

func (c *Config) validateCounters() error {
	if c.Counters.RedisDB < 0 {
		return errors.New("counters.redis_db must be non-negative")
	}
	if c.Counters.RedisAddr == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.Counters.RedisAddr); err != nil {
		return fmt.Errorf("counters.redis_addr must be host:port: %w", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
