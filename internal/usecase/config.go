package usecase

import "github.com/kelseyhightower/envconfig"

// Config locates the harmonics data the engine loads on first use. The
// binary database is authoritative; the JSON document supplements it with
// stations the binary does not carry. GridDir is optional and enables
// predictions at arbitrary coordinates.
type Config struct {
	BinaryPath string `envconfig:"HARMONICS_DB_PATH" default:"data/harmonics.hdb"`
	JSONPath   string `envconfig:"HARMONICS_JSON_PATH" default:"data/harmonics.json"`
	GridDir    string `envconfig:"HARMONICS_GRID_DIR"`
}

// ConfigFromEnv reads the configuration from the environment, applying the
// documented defaults.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
