package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the whole configuration of a divvy process.
type Config struct {
	REST       RESTConfig       `mapstructure:"rest"`
	Health     HealthConfig     `mapstructure:"health"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Reports    ReportsConfig    `mapstructure:"reports"`
	Datasets   DatasetsConfig   `mapstructure:"datasets"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Chem       ChemConfig       `mapstructure:"chem"`
	Workers    WorkersConfig    `mapstructure:"workers"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// LoggingConfig contains logging-related configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("rest.addr", ":8080")
	v.SetDefault("rest.read_timeout", 15*time.Second)
	v.SetDefault("rest.write_timeout", 15*time.Second)
	v.SetDefault("rest.idle_timeout", 60*time.Second)
	v.SetDefault("health.check_interval", 5*time.Second)
	v.SetDefault("health.stale_timeout", 15*time.Second)
	v.SetDefault("storage.backend", StorageMemory)
	v.SetDefault("storage.redis.addr", "localhost:6379")
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.prefix", "divvy:")
	v.SetDefault("storage.redis.op_timeout", 5*time.Second)
	v.SetDefault("reports.dir", "reports")
	v.SetDefault("datasets.data_dir", "data")
	v.SetDefault("datasets.block_size", 50000)
	v.SetDefault("datasets.max_dividends", 64)
	v.SetDefault("datasets.preload", []string{"dummy"})
	v.SetDefault("datasets.pubchem_limit", 0)
	v.SetDefault("simulation.work_dir", "simulations")
	v.SetDefault("simulation.runner", RunnerExec)
	v.SetDefault("simulation.gmx_binary", "gmx")
	v.SetDefault("simulation.recgen_binary", "recgen")
	v.SetDefault("simulation.docker_image", "gromacs/gromacs:latest")
	v.SetDefault("chem.engine_binary", "")
	v.SetDefault("workers.count", 4)
	v.SetDefault("workers.credits_per_second", 1.0)
	v.SetDefault("workers.heartbeat_interval", 5*time.Second)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Load loads the configuration from the given path.
// If configPath is empty, it looks for divvy.yaml in the config/ directory
// and then the working directory. Environment variables with DIVVY_ prefix
// override config file values, e.g. DIVVY_STORAGE_BACKEND=redis.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("divvy")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("DIVVY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Backend {
	case StorageMemory, StorageRedis:
	default:
		errs = append(errs, fmt.Errorf("storage.backend must be %q or %q, got %q", StorageMemory, StorageRedis, c.Storage.Backend))
	}
	switch c.Simulation.Runner {
	case RunnerExec, RunnerDocker:
	default:
		errs = append(errs, fmt.Errorf("simulation.runner must be %q or %q, got %q", RunnerExec, RunnerDocker, c.Simulation.Runner))
	}
	if c.Datasets.BlockSize <= 0 {
		errs = append(errs, fmt.Errorf("datasets.block_size must be positive, got %d", c.Datasets.BlockSize))
	}
	if c.Workers.Count < 0 {
		errs = append(errs, fmt.Errorf("workers.count must not be negative, got %d", c.Workers.Count))
	}
	if c.Workers.CreditsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("workers.credits_per_second must not be negative, got %v", c.Workers.CreditsPerSecond))
	}
	if c.Workers.Count > 0 && c.Workers.HeartbeatInterval >= c.Health.StaleTimeout {
		errs = append(errs, fmt.Errorf("workers.heartbeat_interval (%s) must be shorter than health.stale_timeout (%s)",
			c.Workers.HeartbeatInterval, c.Health.StaleTimeout))
	}
	return errors.Join(errs...)
}
