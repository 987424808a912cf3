package scheduler

import "time"

// Config defines the scheduler configuration.
type Config struct {
	// PollInterval is how often due reminders are checked.
	PollInterval time.Duration `yaml:"poll_interval"`
}

// DefaultConfig returns the default scheduler configuration.
func DefaultConfig() *Config {
	return &Config{
		PollInterval: time.Second,
	}
}

func (c *Config) interval() time.Duration {
	if c.PollInterval <= 0 {
		return time.Second
	}
	return c.PollInterval
}
