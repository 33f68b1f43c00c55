package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmorgan81/sdxlgen/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var vars = []string{
	"NVIDIA_API_KEY", "NVIDIA_API_KEY_PARAM", "NVIDIA_ENDPOINT", "HTTP_TIMEOUT",
	"PROMPT", "NEGATIVE_PROMPT", "PROMPTS", "PROMPTS_PARAM",
	"CFG_SCALE", "SAMPLER", "SEED", "STEPS",
	"OUTPUT", "OUTPUT_DIR", "STORAGE", "BUCKET", "DISTRIBUTION", "LOG_LEVEL",
}

// clearEnv unsets every variable Config reads and restores them after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range vars {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://ai.api.nvidia.com/v1/genai/stabilityai/stable-diffusion-xl", cfg.Endpoint)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.Equal(t, 5.0, cfg.CfgScale)
	assert.Equal(t, "K_DPM_2_ANCESTRAL", cfg.Sampler)
	assert.Equal(t, int64(0), cfg.Seed)
	assert.Equal(t, 25, cfg.Steps)
	assert.Equal(t, "underwater_scene.png", cfg.Output)
	assert.Equal(t, StorageFile, cfg.Storage)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Empty(t, cfg.APIKey)
	assert.Empty(t, cfg.Prompts)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("NVIDIA_API_KEY", "  nvapi-abc  ")
	t.Setenv("PROMPTS", "a fox|blurry;a cat")
	t.Setenv("STEPS", "40")
	t.Setenv("CFG_SCALE", "7.5")
	t.Setenv("SEED", "1234")
	t.Setenv("STORAGE", "S3")
	t.Setenv("BUCKET", "images")
	t.Setenv("DISTRIBUTION", "E123")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("HTTP_TIMEOUT", "2m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "nvapi-abc", cfg.APIKey)
	assert.Equal(t, []string{"a fox|blurry", "a cat"}, cfg.Prompts)
	assert.Equal(t, 40, cfg.Steps)
	assert.Equal(t, 7.5, cfg.CfgScale)
	assert.Equal(t, int64(1234), cfg.Seed)
	assert.Equal(t, StorageS3, cfg.Storage)
	assert.Equal(t, "images", cfg.Bucket)
	assert.Equal(t, "E123", cfg.Distribution)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
}

func TestLoadDotenv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SAMPLER", "K_EULER")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PROMPT=a lighthouse\nSAMPLER=K_DPM_2\n"), 0600))
	t.Cleanup(func() { _ = os.Unsetenv("PROMPT") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "a lighthouse", cfg.Prompt)
	assert.Equal(t, "K_EULER", cfg.Sampler)
}

func TestLoadMissingDotenv(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorIs(t, err, errs.ErrConfiguration)
}

func TestLoadInvalid(t *testing.T) {
	for name, env := range map[string]map[string]string{
		"s3 without bucket": {"STORAGE": "s3"},
		"unknown storage":   {"STORAGE": "ftp"},
		"file with cdn":     {"STORAGE": "file", "DISTRIBUTION": "E123"},
		"zero steps":        {"STEPS": "0"},
		"bad steps":         {"STEPS": "many"},
		"negative timeout":  {"HTTP_TIMEOUT": "-1s"},
		"bad level":         {"LOG_LEVEL": "loud"},
	} {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.ErrorIs(t, err, errs.ErrConfiguration)
		})
	}
}
