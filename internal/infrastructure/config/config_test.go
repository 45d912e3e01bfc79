package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	dir := t.TempDir()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadConfig_Defaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "data/cafe_menu_dataset.json", cfg.Catalog.Path)
	assert.Equal(t, 0.1, cfg.Analysis.MinSimilarity)
	assert.Equal(t, 0.3, cfg.Analysis.LowRiskRatio)
	assert.Equal(t, 0.7, cfg.Analysis.DangerousRatio)
	assert.Equal(t, 50, cfg.Model.RiskMinExamples)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("APP_SERVER_PORT", "9090")
	t.Setenv("CATALOG_PATH", "/srv/menu.yaml")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "cache:6379")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/srv/menu.yaml", cfg.Catalog.Path)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, "cache:6379", cfg.Cache.RedisAddr)
}

func TestLoadConfig_YAMLFile(t *testing.T) {
	chdirTemp(t)
	content := "analysis:\n  min_similarity: 0.25\nqueue:\n  workers: 2\n"
	require.NoError(t, os.WriteFile(filepath.Join(".", "config.yaml"), []byte(content), 0o644))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 0.25, cfg.Analysis.MinSimilarity)
	assert.Equal(t, 2, cfg.Queue.Workers)
}

func TestValidateConfig(t *testing.T) {
	chdirTemp(t)
	base, err := LoadConfig()
	require.NoError(t, err)

	t.Run("InvertedRiskThresholds", func(t *testing.T) {
		cfg := *base
		cfg.Analysis.LowRiskRatio = 0.8
		assert.Error(t, validateConfig(&cfg))
	})

	t.Run("UnknownCacheBackend", func(t *testing.T) {
		cfg := *base
		cfg.Cache.Backend = "memcached"
		assert.Error(t, validateConfig(&cfg))
	})

	t.Run("OCRWithoutBaseURL", func(t *testing.T) {
		cfg := *base
		cfg.OCR.Enabled = true
		cfg.OCR.BaseURL = ""
		assert.Error(t, validateConfig(&cfg))
	})

	t.Run("Valid", func(t *testing.T) {
		cfg := *base
		assert.NoError(t, validateConfig(&cfg))
	})
}
