package config

import "time"

const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

// RESTConfig contains REST API server configuration.
type RESTConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// HealthConfig contains worker health checking configuration.
type HealthConfig struct {
	CheckInterval time.Duration `mapstructure:"check_interval"`
	StaleTimeout  time.Duration `mapstructure:"stale_timeout"`
}

// StorageConfig selects where jobs, results and workers are kept.
type StorageConfig struct {
	Backend string      `mapstructure:"backend"`
	Redis   RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// Prefix is prepended to every key.
	Prefix string `mapstructure:"prefix"`
	// OpTimeout bounds every store operation.
	OpTimeout time.Duration `mapstructure:"op_timeout"`
}

// ReportsConfig contains where reports of successful jobs are written.
type ReportsConfig struct {
	Dir string `mapstructure:"dir"`
}
