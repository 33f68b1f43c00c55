package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/dmorgan81/sdxlgen/internal/errs"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
)

const (
	StorageFile = "file"
	StorageS3   = "s3"
)

type Config struct {
	// Credential. APIKeyParam names an SSM parameter and is used when APIKey is empty.
	APIKey      string        `env:"NVIDIA_API_KEY"`
	APIKeyParam string        `env:"NVIDIA_API_KEY_PARAM"`
	Endpoint    string        `env:"NVIDIA_ENDPOINT" envDefault:"https://ai.api.nvidia.com/v1/genai/stabilityai/stable-diffusion-xl"`
	Timeout     time.Duration `env:"HTTP_TIMEOUT" envDefault:"60s"`

	Prompt         string   `env:"PROMPT"`
	NegativePrompt string   `env:"NEGATIVE_PROMPT"`
	Prompts        []string `env:"PROMPTS" envSeparator:";"`
	PromptsParam   string   `env:"PROMPTS_PARAM"`

	CfgScale float64 `env:"CFG_SCALE" envDefault:"5"`
	Sampler  string  `env:"SAMPLER" envDefault:"K_DPM_2_ANCESTRAL"`
	Seed     int64   `env:"SEED" envDefault:"0"`
	Steps    int     `env:"STEPS" envDefault:"25"`

	Output       string `env:"OUTPUT" envDefault:"underwater_scene.png"`
	OutputDir    string `env:"OUTPUT_DIR"`
	Storage      string `env:"STORAGE" envDefault:"file"`
	Bucket       string `env:"BUCKET"`
	Distribution string `env:"DISTRIBUTION"`

	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads the environment, after applying any dotenv files, into a Config.
// Variables already present in the environment win over dotenv values.
func Load(dotenv ...string) (*Config, error) {
	files := lo.Compact(dotenv)
	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return nil, errs.Configuration("load %s: %v", strings.Join(files, ", "), err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("%w: parse env config: %w", errs.ErrConfiguration, err)
	}

	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.Storage = strings.ToLower(strings.TrimSpace(cfg.Storage))
	cfg.Bucket = strings.TrimSpace(cfg.Bucket)
	cfg.Distribution = strings.TrimSpace(cfg.Distribution)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage {
	case StorageFile:
		if c.Distribution != "" {
			return errs.Configuration("DISTRIBUTION requires STORAGE=%s", StorageS3)
		}
	case StorageS3:
		if c.Bucket == "" {
			return errs.Configuration("BUCKET is required when STORAGE=%s", StorageS3)
		}
	default:
		return errs.Configuration("unknown STORAGE %q", c.Storage)
	}
	if c.Steps <= 0 {
		return errs.Configuration("STEPS must be positive, got %d", c.Steps)
	}
	if c.Timeout < 0 {
		return errs.Configuration("HTTP_TIMEOUT must not be negative")
	}
	if c.Output == "" {
		return errs.Configuration("OUTPUT is empty")
	}
	return nil
}
