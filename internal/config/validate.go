package config

import "fmt"

// Validate ensures the configuration is usable. Failures abort the run
// before anything is scheduled.
func (c *Config) Validate() error {
	if err := c.validateMerge(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateMerge() error {
	if c.Merge.Parallel < 1 {
		return fmt.Errorf("merge.parallel must be a positive integer, got %d", c.Merge.Parallel)
	}
	switch c.Merge.Reporter {
	case "progressbar", "json":
		return nil
	default:
		return fmt.Errorf("merge.reporter must be %q or %q, got %q", "progressbar", "json", c.Merge.Reporter)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format must be %q or %q, got %q", "console", "json", c.Logging.Format)
	}
}
