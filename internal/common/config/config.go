// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig               `mapstructure:"app"`
	HTTP      HTTPConfig              `mapstructure:"http"`
	Camunda   CamundaConfig           `mapstructure:"camunda"`
	Database  DatabaseConfig          `mapstructure:"database"`
	Discovery DiscoveryConfig         `mapstructure:"discovery"`
	Workers   map[string]WorkerConfig `mapstructure:"workers"`
	Logging   LoggingConfig           `mapstructure:"logging"`
	Tracing   TracingConfig           `mapstructure:"tracing"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type HTTPConfig struct {
	Port            int `mapstructure:"port"`
	ReadTimeout     int `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int `mapstructure:"shutdown_timeout"` // milliseconds
}

// Addr returns the listen address for the HTTP server.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf(":%d", h.Port)
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses     []string `mapstructure:"addresses"`
	Username      string   `mapstructure:"username"`
	Password      string   `mapstructure:"password"`
	URL           string   `mapstructure:"url"`
	SupplierIndex string   `mapstructure:"supplier_index"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

// Enabled reports whether an Elasticsearch cluster is configured.
func (e ElasticsearchConfig) Enabled() bool {
	return e.GetURL() != ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// --- Discovery ---

// DiscoveryConfig tunes the supplier discovery pipeline. Every numeric
// constant used for ranking lives here so product can adjust it without a
// code change.
type DiscoveryConfig struct {
	MaxCandidates    int     `mapstructure:"max_candidates"`
	DefaultPageSize  int     `mapstructure:"default_page_size"`
	MaxPageSize      int     `mapstructure:"max_page_size"`
	StoreTimeout     int     `mapstructure:"store_timeout"` // milliseconds
	BaselineTTL      int     `mapstructure:"baseline_ttl"`  // milliseconds
	DefaultBaseline  float64 `mapstructure:"default_baseline"`
	ImageBaseURL     string  `mapstructure:"image_base_url"`
	ResponseTimeUnit string  `mapstructure:"response_time_unit"` // seconds | minutes

	Eligibility EligibilityConfig `mapstructure:"eligibility"`
	Match       MatchConfig       `mapstructure:"match"`
	Quality     QualityConfig     `mapstructure:"quality"`
	Rank        RankConfig        `mapstructure:"rank"`
}

// MatchConfig sets the strength of each kind of slug match.
type MatchConfig struct {
	CategoryExact   float64 `mapstructure:"category_exact"`
	LocationExact   float64 `mapstructure:"location_exact"`
	LocationPartial float64 `mapstructure:"location_partial"`
}

// EligibilityConfig toggles and tunes individual publish checks.
type EligibilityConfig struct {
	Disabled           []string `mapstructure:"disabled"`
	MinShortDesc       int      `mapstructure:"min_short_description"`
	MinAbout           int      `mapstructure:"min_about"`
	MinCategories      int      `mapstructure:"min_categories"`
	MinLocation        int      `mapstructure:"min_location"`
	MinHeroImages      int      `mapstructure:"min_hero_images"`
	MinGalleryImages   int      `mapstructure:"min_gallery_images"`
	MinDistinctService int      `mapstructure:"min_distinct_services"`
}

type QualityConfig struct {
	PriorStrength         float64 `mapstructure:"prior_strength"`
	InstantResponseMins   float64 `mapstructure:"instant_response_minutes"`
	ResponseCeilingHours  float64 `mapstructure:"response_ceiling_hours"`
	ActivityHalfLifeDays  float64 `mapstructure:"activity_half_life_days"`
	VolumeSaturation      float64 `mapstructure:"volume_saturation"`
	AcceptanceWeight      float64 `mapstructure:"acceptance_weight"`
	ResponseWeight        float64 `mapstructure:"response_weight"`
	ActivityWeight        float64 `mapstructure:"activity_weight"`
	VolumeWeight          float64 `mapstructure:"volume_weight"`
	FastResponderHours    float64 `mapstructure:"fast_responder_hours"`
	HighConversionRate    float64 `mapstructure:"high_conversion_rate"`
	ActiveWithinDays      float64 `mapstructure:"active_within_days"`
	FastResponderMinSent  int     `mapstructure:"fast_responder_min_sent"`
	HighConversionMinSent int     `mapstructure:"high_conversion_min_sent"`
}

type RankConfig struct {
	MatchWeight     float64            `mapstructure:"match_weight"`
	QualityWeight   float64            `mapstructure:"quality_weight"`
	LocationNudge   float64            `mapstructure:"location_nudge"`
	VerifiedBoost   float64            `mapstructure:"verified_boost"`
	PlanBoosts      map[string]float64 `mapstructure:"plan_boosts"`
	TopThreshold    float64            `mapstructure:"top_threshold"`
	StrongThreshold float64            `mapstructure:"strong_threshold"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// TracingConfig holds OpenTelemetry trace export settings.
type TracingConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	SampleRatio    float64 `mapstructure:"sample_ratio"`
}
