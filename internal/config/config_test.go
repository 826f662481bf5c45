package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("EUROPULSE_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Output)
	assert.Equal(t, "data", cfg.Paths.DataDir)
	assert.Equal(t, "data/reports", cfg.Paths.ReportsDir)
	assert.Equal(t, 4, cfg.Pipeline.Concurrency)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("EUROPULSE_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yml"))
	t.Setenv("EUROPULSE_SERVER_PORT", "9090")
	t.Setenv("EUROPULSE_LOGGING_LEVEL", "debug")
	t.Setenv("EUROPULSE_PATHS_DATA_DIR", "/var/lib/europulse")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/var/lib/europulse", cfg.Paths.DataDir)
}

func TestLoadFileMerge(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(configFile, []byte(`
paths:
  markets_file: /from/file/markets.yml
  taxonomy_file: /from/file/taxonomy.yml
`), 0644))

	t.Setenv("EUROPULSE_CONFIG_FILE", configFile)
	// Env wins over the file for the same key.
	t.Setenv("EUROPULSE_PATHS_TAXONOMY_FILE", "/from/env/taxonomy.yml")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/from/file/markets.yml", cfg.Paths.MarketsFile)
	assert.Equal(t, "/from/env/taxonomy.yml", cfg.Paths.TaxonomyFile)
}

func TestMergeConfigs(t *testing.T) {
	fileCfg := Config{
		Server: ServerConfig{
			Port:            7070,
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    5 * time.Second,
			IdleTimeout:     90 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{Level: "debug", Output: "file", FilePath: "/var/log/europulse.log"},
		Paths:   PathsConfig{DataDir: "/from/file", MarketsFile: "/from/file/markets.yml"},
	}

	t.Run("zero env values fall back to the file", func(t *testing.T) {
		merged := mergeConfigs(fileCfg, Config{})

		assert.Equal(t, fileCfg.Server, merged.Server)
		assert.Equal(t, fileCfg.Logging, merged.Logging)
		assert.Equal(t, "/from/file", merged.Paths.DataDir)
		assert.Equal(t, "/from/file/markets.yml", merged.Paths.MarketsFile)
	})

	t.Run("set env values win", func(t *testing.T) {
		envCfg := Config{
			Server:  ServerConfig{IdleTimeout: 120 * time.Second},
			Logging: LoggingConfig{FilePath: "/from/env.log"},
		}
		merged := mergeConfigs(fileCfg, envCfg)

		assert.Equal(t, 120*time.Second, merged.Server.IdleTimeout)
		assert.Equal(t, 10*time.Second, merged.Server.ShutdownTimeout)
		assert.Equal(t, "/from/env.log", merged.Logging.FilePath)
	})
}

func TestLoadValidation(t *testing.T) {
	t.Setenv("EUROPULSE_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yml"))
	t.Setenv("EUROPULSE_LOGGING_OUTPUT", "syslog")

	_, err := Load()
	assert.Error(t, err)
}
