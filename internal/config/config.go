package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the agent configuration, loaded from a YAML file with
// environment-variable overrides.
type Config struct {
	Env         string `yaml:"env" env:"APP_ENV" env-default:"production"`
	StoragePath string `yaml:"storage_path" env:"STORAGE_PATH" env-default:"devtime.db"`

	Log struct {
		Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
		Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
	} `yaml:"log"`

	Backend struct {
		GraphQLURL string `yaml:"graphql_url" env:"BACKEND_GRAPHQL_URL" env-default:"http://localhost:8080/v1/graphql"`
		Timeout    int    `yaml:"timeout" env:"BACKEND_TIMEOUT" env-default:"30"` // seconds
	} `yaml:"backend"`

	Sync struct {
		Interval               int     `yaml:"interval" env:"SYNC_INTERVAL" env-default:"60"`                                // seconds between runs
		ChunkEvery             int     `yaml:"chunk_every" env:"SYNC_CHUNK_EVERY" env-default:"300"`                         // seconds per chunk
		SummaryThreshold       float64 `yaml:"summary_threshold" env:"SYNC_SUMMARY_THRESHOLD" env-default:"0.3"`             // time-share to qualify
		MergeGap               int     `yaml:"merge_gap" env:"SYNC_MERGE_GAP" env-default:"300"`                             // seconds of merge grace
		CatalogRefreshInterval int     `yaml:"catalog_refresh_interval" env:"SYNC_CATALOG_REFRESH_INTERVAL" env-default:"1800"`
		EntityHorizonDays      int     `yaml:"entity_horizon_days" env:"SYNC_ENTITY_HORIZON_DAYS" env-default:"15"`
		PageSize               int     `yaml:"page_size" env:"SYNC_PAGE_SIZE" env-default:"100"`
		PollInterval           int     `yaml:"poll_interval" env:"SYNC_POLL_INTERVAL" env-default:"3"` // observation job cadence, seconds
	} `yaml:"sync"`

	Server struct {
		Enabled bool `yaml:"enabled" env:"SERVER_ENABLED" env-default:"true"`
		Port    int  `yaml:"port" env:"SERVER_PORT" env-default:"3382"`
	} `yaml:"server"`
}

// LoadConfig reads the YAML file at path and applies environment overrides.
// A missing file is not an error; the environment and defaults apply alone.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		return &cfg, nil
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read config from environment: %w", err)
	}
	return &cfg, nil
}
