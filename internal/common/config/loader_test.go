package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-discovery/internal/common/errors"
)

// ==========================
// Test Helper Functions
// ==========================

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func clearDBEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"DB_HOST", "DB_NAME", "DB_USER", "DB_PASSWORD", "REDIS_ADDRESS"} {
		t.Setenv(key, "")
	}
}

// ==========================
// Tests
// ==========================

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	clearDBEnv(t)
	path := writeConfig(t, `
database:
  postgres:
    host: localhost
    database: marketplace
    user: discovery
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, "suppliers", cfg.Database.Elasticsearch.SupplierIndex)

	d := cfg.Discovery
	assert.Equal(t, 500, d.MaxCandidates)
	assert.Equal(t, 24, d.DefaultPageSize)
	assert.Equal(t, 60, d.MaxPageSize)
	assert.Equal(t, 3*time.Second, GetDuration(d.StoreTimeout))
	assert.Equal(t, 5*time.Minute, GetDuration(d.BaselineTTL))
	assert.Equal(t, "seconds", d.ResponseTimeUnit)
	assert.Equal(t, 30, d.Eligibility.MinShortDesc)
	assert.Equal(t, 120, d.Eligibility.MinAbout)
	assert.InDelta(t, 1.0, d.Match.CategoryExact, 1e-9)
	assert.InDelta(t, 0.5, d.Match.LocationPartial, 1e-9)
	assert.InDelta(t, 5.0, d.Quality.PriorStrength, 1e-9)
	assert.InDelta(t, 0.4, d.Quality.AcceptanceWeight, 1e-9)
	assert.InDelta(t, 0.6, d.Rank.MatchWeight, 1e-9)
	assert.InDelta(t, 0.04, d.Rank.PlanBoosts["premium"], 1e-9)
}

func TestLoadFromFile_ExpandsEnvPlaceholders(t *testing.T) {
	clearDBEnv(t)
	t.Setenv("DISCOVERY_TEST_PG_PASSWORD", "s3cret")
	path := writeConfig(t, `
database:
  postgres:
    host: db.internal
    database: marketplace
    user: discovery
    password: ${DISCOVERY_TEST_PG_PASSWORD}
discovery:
  response_time_unit: minutes
  image_base_url: https://cdn.example.com/
  match:
    location_partial: 0.3
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Database.Postgres.Password)
	assert.Equal(t, "minutes", cfg.Discovery.ResponseTimeUnit)
	assert.Equal(t, "https://cdn.example.com/", cfg.Discovery.ImageBaseURL)
	assert.InDelta(t, 0.3, cfg.Discovery.Match.LocationPartial, 1e-9)
	assert.InDelta(t, 1.0, cfg.Discovery.Match.LocationExact, 1e-9)
}

func TestLoadFromFile_MissingCredentials(t *testing.T) {
	clearDBEnv(t)
	path := writeConfig(t, `
database:
  postgres:
    host: localhost
`)

	_, err := LoadFromFile(path)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeConfiguration))
	assert.Contains(t, err.Error(), "database.postgres.database")
}

func TestLoadFromFile_EnvCredentialFallback(t *testing.T) {
	clearDBEnv(t)
	t.Setenv("DB_HOST", "pg")
	t.Setenv("DB_NAME", "marketplace")
	t.Setenv("DB_USER", "reader")
	path := writeConfig(t, "logging:\n  level: debug\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "pg", cfg.Database.Postgres.Host)
	assert.Equal(t, "reader", cfg.Database.Postgres.User)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidateConfig(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		cfg.Database.Postgres = PostgresConfig{Host: "h", Database: "d", User: "u"}
		applyDefaults(cfg)
		return cfg
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validateConfig(base()))
	})

	t.Run("camunda without broker", func(t *testing.T) {
		cfg := base()
		cfg.Camunda.Enabled = true
		assert.True(t, errors.HasCode(validateConfig(cfg), errors.ErrCodeConfiguration))
	})

	t.Run("unknown response unit", func(t *testing.T) {
		cfg := base()
		cfg.Discovery.ResponseTimeUnit = "hours"
		assert.Error(t, validateConfig(cfg))
	})

	t.Run("default page size above cap", func(t *testing.T) {
		cfg := base()
		cfg.Discovery.DefaultPageSize = 80
		assert.Error(t, validateConfig(cfg))
	})
}

func TestGetWorkerConfig(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{
		"rank-suppliers": {Enabled: false, MaxJobsActive: 2},
	}}
	assert.False(t, IsWorkerEnabled(cfg, "rank-suppliers"))
	assert.True(t, IsWorkerEnabled(cfg, "check-listing-eligibility"))
	assert.Equal(t, 5, GetWorkerConfig(cfg, "check-listing-eligibility").MaxJobsActive)
	assert.Equal(t, 2, GetWorkerConfig(cfg, "rank-suppliers").MaxJobsActive)
}

func TestLoadFromFile_UnsetPlaceholdersAreEmpty(t *testing.T) {
	clearDBEnv(t)
	t.Setenv("DISCOVERY_TEST_UNSET_REDIS", "")
	path := writeConfig(t, `
database:
  postgres:
    host: localhost
    database: marketplace
    user: discovery
  redis:
    address: ${DISCOVERY_TEST_UNSET_REDIS}
  elasticsearch:
    url: ${DISCOVERY_TEST_UNSET_ES}
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Database.Redis.Address)
	assert.False(t, cfg.Database.Elasticsearch.Enabled())
}
