package config

import "time"

const (
	RunnerExec   = "exec"
	RunnerDocker = "docker"
)

// DatasetsConfig controls dataset loading and how jobs are split.
type DatasetsConfig struct {
	DataDir      string   `mapstructure:"data_dir"`
	BlockSize    int      `mapstructure:"block_size"`
	MaxDividends int      `mapstructure:"max_dividends"`
	Preload      []string `mapstructure:"preload"`
	// PubChemLimit caps the PubChem entries loaded; 0 loads all.
	PubChemLimit int `mapstructure:"pubchem_limit"`
}

// SimulationConfig contains the external programs behind gmx and recgen.
type SimulationConfig struct {
	WorkDir      string `mapstructure:"work_dir"`
	Runner       string `mapstructure:"runner"`
	GmxBinary    string `mapstructure:"gmx_binary"`
	ReCGenBinary string `mapstructure:"recgen_binary"`
	DockerImage  string `mapstructure:"docker_image"`
}

// ChemConfig points at the helper executable of the chem engine. Empty
// leaves the chem operators unavailable.
type ChemConfig struct {
	EngineBinary string `mapstructure:"engine_binary"`
}

// WorkersConfig contains the in-process workers.
type WorkersConfig struct {
	Count             int           `mapstructure:"count"`
	CreditsPerSecond  float64       `mapstructure:"credits_per_second"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
}
