package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Partner   PartnerConfig   `mapstructure:"partner"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Cart      CartConfig      `mapstructure:"cart"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Scoring   ScoringConfig   `mapstructure:"scoring"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	LogLevel  string          `mapstructure:"log_level"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	Environment    string        `mapstructure:"environment"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// PartnerConfig holds affiliate tagging configuration
type PartnerConfig struct {
	PartnerCode  string `mapstructure:"partner_code"`
	RedirectBase string `mapstructure:"redirect_base"` // enables redirect-prefix mode when set
}

// CatalogConfig holds catalog and shade file locations
type CatalogConfig struct {
	CatalogPath        string        `mapstructure:"catalog_path"`
	ShadeMapPath       string        `mapstructure:"shade_map_path"`
	ShadeNeighborsPath string        `mapstructure:"shade_neighbors_path"`
	ReloadInterval     time.Duration `mapstructure:"reload_interval"` // 0 disables the watcher
}

// CartConfig holds cart persistence configuration
type CartConfig struct {
	Persistence     string        `mapstructure:"persistence"` // "memory", "file" or "external"
	FileDir         string        `mapstructure:"file_dir"`
	RedisURL        string        `mapstructure:"redis_url"`
	TTL             time.Duration `mapstructure:"ttl"`
	MaxAlternatives int           `mapstructure:"max_alternatives"`
}

// AnalyticsConfig holds analytics sink configuration
type AnalyticsConfig struct {
	Enabled      bool     `mapstructure:"enabled"`
	KafkaBrokers []string `mapstructure:"kafka_brokers"` // empty means log-only sink
	KafkaTopic   string   `mapstructure:"kafka_topic"`
	BufferSize   int      `mapstructure:"buffer_size"`

	SummaryRetention time.Duration `mapstructure:"summary_retention"`
	SummaryMaxEvents int           `mapstructure:"summary_max_events"`
}

// ScoringConfig holds the selector's scoring weights
type ScoringConfig struct {
	UndertoneMatch    float64 `mapstructure:"undertone_match"`
	UndertoneConflict float64 `mapstructure:"undertone_conflict"`
	Season            float64 `mapstructure:"season"`
	Depth             float64 `mapstructure:"depth"`
	Concern           float64 `mapstructure:"concern"`
	InStock           float64 `mapstructure:"in_stock"`
	Preference        float64 `mapstructure:"preference"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
}

// Cart persistence backends
const (
	PersistenceMemory   = "memory"
	PersistenceFile     = "file"
	PersistenceExternal = "external"
)

// Load loads configuration from a .env file, environment variables and config files
func Load() (*Config, error) {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/beautycare/")

	// Environment variable settings
	v.SetEnvPrefix("BEAUTYCARE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values. Every key gets a default so
// AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.request_timeout", "10s")

	// Partner defaults
	v.SetDefault("partner.partner_code", "")
	v.SetDefault("partner.redirect_base", "")

	// Catalog defaults
	v.SetDefault("catalog.catalog_path", "data/catalog.yaml")
	v.SetDefault("catalog.shade_map_path", "data/shade_map.json")
	v.SetDefault("catalog.shade_neighbors_path", "data/shade_neighbors.json")
	v.SetDefault("catalog.reload_interval", "1m")

	// Cart defaults
	v.SetDefault("cart.persistence", PersistenceMemory)
	v.SetDefault("cart.file_dir", "data/carts")
	v.SetDefault("cart.redis_url", "")
	v.SetDefault("cart.ttl", "720h") // 30 days
	v.SetDefault("cart.max_alternatives", 3)

	// Analytics defaults
	v.SetDefault("analytics.enabled", true)
	v.SetDefault("analytics.kafka_brokers", []string{})
	v.SetDefault("analytics.kafka_topic", "beauty.analytics")
	v.SetDefault("analytics.buffer_size", 256)
	v.SetDefault("analytics.summary_retention", "24h")
	v.SetDefault("analytics.summary_max_events", 100000)

	// Scoring defaults
	v.SetDefault("scoring.undertone_match", 3.0)
	v.SetDefault("scoring.undertone_conflict", 3.0)
	v.SetDefault("scoring.season", 2.0)
	v.SetDefault("scoring.depth", 2.0)
	v.SetDefault("scoring.concern", 1.0)
	v.SetDefault("scoring.in_stock", 1.0)
	v.SetDefault("scoring.preference", 0.5)

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 120)

	v.SetDefault("log_level", "info")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Partner.PartnerCode == "" {
		return fmt.Errorf("partner code is required (set BEAUTYCARE_PARTNER_PARTNER_CODE)")
	}

	switch config.Cart.Persistence {
	case PersistenceMemory, PersistenceFile, PersistenceExternal:
	default:
		return fmt.Errorf("cart persistence must be 'memory', 'file' or 'external', got: %s", config.Cart.Persistence)
	}

	if config.Cart.Persistence == PersistenceExternal && config.Cart.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cart persistence is 'external'")
	}

	if config.Cart.MaxAlternatives < 0 {
		return fmt.Errorf("cart max_alternatives must not be negative")
	}

	s := config.Scoring
	for name, w := range map[string]float64{
		"undertone_match":    s.UndertoneMatch,
		"undertone_conflict": s.UndertoneConflict,
		"season":             s.Season,
		"depth":              s.Depth,
		"concern":            s.Concern,
		"in_stock":           s.InStock,
		"preference":         s.Preference,
	} {
		if w < 0 {
			return fmt.Errorf("scoring weight %s must not be negative", name)
		}
	}

	if _, err := zerolog.ParseLevel(config.LogLevel); err != nil {
		return fmt.Errorf("unknown log level: %s", config.LogLevel)
	}

	return nil
}
