// Package scheduler runs the periodic alert sweep.
package scheduler

import "time"

// Config defines the sweep cadence.
type Config struct {
	// Interval between sweeps. Zero disables the scheduler.
	Interval time.Duration `yaml:"interval"`
}

// DefaultConfig returns the default scheduler configuration.
func DefaultConfig() *Config {
	return &Config{
		Interval: time.Minute,
	}
}
