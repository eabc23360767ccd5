// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"marketplace-discovery/internal/common/errors"
)

// Load reads configs/config.yaml, merges configs/config.<APP_ENVIRONMENT>.yaml
// on top and applies environment overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // env overlay is optional

	return finalize(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finalize(v)
}

func finalize(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env"}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			// unset variables expand to "" so optional backends stay disabled
			if expanded := os.ExpandEnv(strVal); expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills credentials from the conventional DB_* and
// REDIS_* variables when the YAML left them blank.
func overrideEmptyConfig(cfg *Config) {
	pg := &cfg.Database.Postgres
	if pg.Host == "" {
		pg.Host = os.Getenv("DB_HOST")
	}
	if pg.Database == "" {
		pg.Database = os.Getenv("DB_NAME")
	}
	if pg.User == "" {
		pg.User = os.Getenv("DB_USER")
	}
	if pg.Password == "" {
		pg.Password = os.Getenv("DB_PASSWORD")
	}
	if cfg.Database.Redis.Address == "" {
		cfg.Database.Redis.Address = os.Getenv("REDIS_ADDRESS")
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "marketplace-discovery"
	}

	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 10000
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15000
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 10000
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}
	if cfg.Database.Elasticsearch.SupplierIndex == "" {
		cfg.Database.Elasticsearch.SupplierIndex = "suppliers"
	}

	applyDiscoveryDefaults(&cfg.Discovery)

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = 0.1
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}
}

func applyDiscoveryDefaults(d *DiscoveryConfig) {
	if d.MaxCandidates == 0 {
		d.MaxCandidates = 500
	}
	if d.DefaultPageSize == 0 {
		d.DefaultPageSize = 24
	}
	if d.MaxPageSize == 0 {
		d.MaxPageSize = 60
	}
	if d.StoreTimeout == 0 {
		d.StoreTimeout = 3000
	}
	if d.BaselineTTL == 0 {
		d.BaselineTTL = 300000
	}
	if d.DefaultBaseline == 0 {
		d.DefaultBaseline = 0.3
	}
	if d.ResponseTimeUnit == "" {
		d.ResponseTimeUnit = "seconds"
	}

	e := &d.Eligibility
	if e.MinShortDesc == 0 {
		e.MinShortDesc = 30
	}
	if e.MinAbout == 0 {
		e.MinAbout = 120
	}
	if e.MinCategories == 0 {
		e.MinCategories = 1
	}
	if e.MinLocation == 0 {
		e.MinLocation = 3
	}
	if e.MinHeroImages == 0 {
		e.MinHeroImages = 1
	}
	if e.MinGalleryImages == 0 {
		e.MinGalleryImages = 2
	}
	if e.MinDistinctService == 0 {
		e.MinDistinctService = 3
	}

	m := &d.Match
	if m.CategoryExact == 0 {
		m.CategoryExact = 1.0
	}
	if m.LocationExact == 0 {
		m.LocationExact = 1.0
	}
	if m.LocationPartial == 0 {
		m.LocationPartial = 0.5
	}

	q := &d.Quality
	if q.PriorStrength == 0 {
		q.PriorStrength = 5
	}
	if q.InstantResponseMins == 0 {
		q.InstantResponseMins = 15
	}
	if q.ResponseCeilingHours == 0 {
		q.ResponseCeilingHours = 48
	}
	if q.ActivityHalfLifeDays == 0 {
		q.ActivityHalfLifeDays = 14
	}
	if q.VolumeSaturation == 0 {
		q.VolumeSaturation = 20
	}
	if q.AcceptanceWeight == 0 && q.ResponseWeight == 0 && q.ActivityWeight == 0 && q.VolumeWeight == 0 {
		q.AcceptanceWeight, q.ResponseWeight, q.ActivityWeight, q.VolumeWeight = 0.4, 0.2, 0.2, 0.2
	}
	if q.FastResponderHours == 0 {
		q.FastResponderHours = 6
	}
	if q.FastResponderMinSent == 0 {
		q.FastResponderMinSent = 3
	}
	if q.HighConversionRate == 0 {
		q.HighConversionRate = 0.35
	}
	if q.HighConversionMinSent == 0 {
		q.HighConversionMinSent = 5
	}
	if q.ActiveWithinDays == 0 {
		q.ActiveWithinDays = 7
	}

	r := &d.Rank
	if r.MatchWeight == 0 && r.QualityWeight == 0 {
		r.MatchWeight, r.QualityWeight = 0.6, 0.4
	}
	if r.LocationNudge == 0 {
		r.LocationNudge = 0.25
	}
	if r.VerifiedBoost == 0 {
		r.VerifiedBoost = 0.05
	}
	if r.PlanBoosts == nil {
		r.PlanBoosts = map[string]float64{"free": 0, "pro": 0.02, "premium": 0.04}
	}
	if r.TopThreshold == 0 {
		r.TopThreshold = 0.80
	}
	if r.StrongThreshold == 0 {
		r.StrongThreshold = 0.60
	}
}

// validateConfig reports missing store credentials as a configuration error.
// Redis, Elasticsearch and Zeebe are optional collaborators.
func validateConfig(cfg *Config) error {
	pg := cfg.Database.Postgres
	switch {
	case pg.Host == "":
		return errors.NewConfigurationError("database.postgres.host is required")
	case pg.Database == "":
		return errors.NewConfigurationError("database.postgres.database is required")
	case pg.User == "":
		return errors.NewConfigurationError("database.postgres.user is required")
	}

	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return errors.NewConfigurationError("camunda.broker_address is required when camunda.enabled is true")
	}

	if cfg.Tracing.Enabled && cfg.Tracing.JaegerEndpoint == "" {
		return errors.NewConfigurationError("tracing.jaeger_endpoint is required when tracing.enabled is true")
	}

	switch cfg.Discovery.ResponseTimeUnit {
	case "seconds", "minutes":
	default:
		return errors.NewConfigurationError(fmt.Sprintf("discovery.response_time_unit %q must be seconds or minutes", cfg.Discovery.ResponseTimeUnit))
	}

	if cfg.Discovery.DefaultPageSize > cfg.Discovery.MaxPageSize {
		return errors.NewConfigurationError("discovery.default_page_size exceeds discovery.max_page_size")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}

	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
