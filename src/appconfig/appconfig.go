package appconfig

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

type AppConfig struct {
	// True success probability of each simulated arm.
	Probabilities []float64 `env:"BANDIT_SIM_PROBABILITIES" env-default:"0.1,0.9" env-separator:","`

	// Number of pull-reward cycles to run.
	Trials int `env:"BANDIT_SIM_TRIALS" env-default:"1000"`

	// Seed for the random sources. 0 picks one from the clock.
	Seed uint64 `env:"BANDIT_SIM_SEED" env-default:"0"`

	// Where arm statistics are persisted between runs. Empty disables persistence.
	StateDir string `env:"BANDIT_SIM_STATE_DIR"`

	// Number of recent trials used to compute the moving reward rate.
	Window int `env:"BANDIT_SIM_WINDOW" env-default:"100"`

	// Summary format: text or yaml.
	Output string `env:"BANDIT_SIM_OUTPUT" env-default:"text"`
}

// Load environment variables to AppConfig instance
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("reading config from environment: %w", err)
	}
	return cfg, nil
}
