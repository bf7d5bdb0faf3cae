package assignment

// Config defines the assignment engine configuration.
type Config struct {
	// MaxConcurrency bounds the per-department workers of a batch.
	MaxConcurrency int `yaml:"max_concurrency"`
}

// DefaultConfig returns the default assignment configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxConcurrency: 4,
	}
}

// workers returns the pool size for a batch of n departments.
func (c *Config) workers(n int) int {
	limit := c.MaxConcurrency
	if limit < 1 {
		limit = 1
	}
	if n < limit {
		return n
	}
	return limit
}
