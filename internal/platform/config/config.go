package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv        string        `env:"APP_ENV" envDefault:"local"`
	OpenAIAPIKey  string        `env:"OPENAI_API_KEY"`
	BaseModel     string        `env:"BASE_MODEL" envDefault:"gpt-4.1-mini-2025-04-14"`
	DatasetsDir   string        `env:"DATASETS_DIR" envDefault:"./datasets"`
	ArtifactsDir  string        `env:"ARTIFACTS_DIR" envDefault:"./artifacts/fine_tuning"`
	RunsDir       string        `env:"RUNS_DIR" envDefault:"./runs"`
	DatasetIDs    []int         `env:"DATASET_IDS" envDefault:"30,31,32,33" envSeparator:","`
	ValFraction   float64       `env:"VAL_FRACTION" envDefault:"0.10"`
	Seed          int64         `env:"SPLIT_SEED" envDefault:"20260214"`
	RateLimitRPS  float64       `env:"RATE_LIMIT_RPS" envDefault:"1"`
	Temperature   float32       `env:"EVAL_TEMPERATURE" envDefault:"0"`
	MaxSamples    int           `env:"EVAL_MAX_SAMPLES" envDefault:"0"`
	PollInterval  time.Duration `env:"JOB_POLL_INTERVAL" envDefault:"30s"`
	MaxWait       time.Duration `env:"JOB_MAX_WAIT" envDefault:"0"`
	HealthPort    int           `env:"HEALTH_PORT" envDefault:"8080"`
	HealthEnabled bool          `env:"HEALTH_ENABLED" envDefault:"false"`
}

// PreparedDir is the directory holding split artifacts produced by prepare.
func (c *Config) PreparedDir() string {
	return c.ArtifactsDir + "/prepared"
}

// CVRunsDir is the directory holding per-run CV reports.
func (c *Config) CVRunsDir() string {
	return c.ArtifactsDir + "/cv_runs"
}

// FinalDir is the directory holding final training job metadata.
func (c *Config) FinalDir() string {
	return c.ArtifactsDir + "/final"
}

// RegistryPath is the path of the model registry file.
func (c *Config) RegistryPath() string {
	return c.ArtifactsDir + "/models.json"
}

// FinalModelPath is the path of the latest final model id file.
func (c *Config) FinalModelPath() string {
	return c.ArtifactsDir + "/final_model.txt"
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	return cfg, nil
}
