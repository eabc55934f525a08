package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metadata MetadataConfig `mapstructure:"metadata"`
	Matching MatchingConfig `mapstructure:"matching"`
	Health   HealthConfig   `mapstructure:"health"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// MetadataConfig holds external metadata provider configuration.
type MetadataConfig struct {
	TMDB      TMDBConfig      `mapstructure:"tmdb"`
	OMDB      OMDBConfig      `mapstructure:"omdb"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`

	// MaxDetailsPerProvider bounds the detail lookups issued per provider search.
	MaxDetailsPerProvider int           `mapstructure:"max_details_per_provider"`
	DetailCacheTTL        time.Duration `mapstructure:"detail_cache_ttl"`
	UseMock               bool          `mapstructure:"use_mock"`
}

// TMDBConfig holds TMDB API configuration.
type TMDBConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	ImageBaseURL      string        `mapstructure:"image_base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerWindow int           `mapstructure:"requests_per_window"`
	Window            time.Duration `mapstructure:"window"`
}

// OMDBConfig holds OMDb API configuration.
type OMDBConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

// AnthropicConfig holds the vision model configuration.
type AnthropicConfig struct {
	APIKey     string        `mapstructure:"api_key"`
	BaseURL    string        `mapstructure:"base_url"`
	Model      string        `mapstructure:"model"`
	MaxTokens  int           `mapstructure:"max_tokens"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// MatchingConfig holds the title resolution thresholds and cache policy.
type MatchingConfig struct {
	CacheTTLHours       int           `mapstructure:"cache_ttl_hours"`
	ConfidenceFloor     float64       `mapstructure:"confidence_floor"`
	LocalSufficiency    float64       `mapstructure:"local_sufficiency"`
	ExactThreshold      float64       `mapstructure:"exact_threshold"`
	FuzzyThreshold      float64       `mapstructure:"fuzzy_threshold"`
	SuggestionThreshold float64       `mapstructure:"suggestion_threshold"`
	MaxResults          int           `mapstructure:"max_results"`
	ProviderTimeout     time.Duration `mapstructure:"provider_timeout"`
	ProviderPriority    []string      `mapstructure:"provider_priority"`
	DefaultFormat       string        `mapstructure:"default_format"`
	DefaultLanguage     string        `mapstructure:"default_language"`
	SweepCron           string        `mapstructure:"sweep_cron"`
}

// HealthConfig holds the intervals of the periodic health checks.
type HealthConfig struct {
	StorageCheckInterval  time.Duration `mapstructure:"storage_check_interval"`
	ProviderCheckInterval time.Duration `mapstructure:"provider_check_interval"`
	GatewayPurgeInterval  time.Duration `mapstructure:"gateway_purge_interval"`
}

// CacheTTL returns the match cache lifetime.
func (m MatchingConfig) CacheTTL() time.Duration {
	return time.Duration(m.CacheTTLHours) * time.Hour
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Path: "./data/snapshelf.db",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
		Metadata: MetadataConfig{
			TMDB: TMDBConfig{
				BaseURL:           "https://api.themoviedb.org/3",
				ImageBaseURL:      "https://image.tmdb.org/t/p",
				Timeout:           30 * time.Second,
				RequestsPerWindow: 40,
				Window:            10 * time.Second,
			},
			OMDB: OMDBConfig{
				BaseURL:           "https://www.omdbapi.com",
				Timeout:           15 * time.Second,
				RequestsPerSecond: 10,
			},
			Anthropic: AnthropicConfig{
				BaseURL:    "https://api.anthropic.com",
				Model:      "claude-3-5-sonnet-20241022",
				MaxTokens:  8000,
				Timeout:    60 * time.Second,
				MaxRetries: 2,
			},
			MaxDetailsPerProvider: 10,
			DetailCacheTTL:        24 * time.Hour,
		},
		Matching: DefaultMatching(),
		Health: HealthConfig{
			StorageCheckInterval:  15 * time.Minute,
			ProviderCheckInterval: time.Hour,
			GatewayPurgeInterval:  30 * time.Minute,
		},
	}
}

// DefaultMatching returns the stock matching thresholds.
func DefaultMatching() MatchingConfig {
	return MatchingConfig{
		CacheTTLHours:       24,
		ConfidenceFloor:     0.7,
		LocalSufficiency:    0.9,
		ExactThreshold:      0.95,
		FuzzyThreshold:      0.8,
		SuggestionThreshold: 0.6,
		MaxResults:          10,
		ProviderTimeout:     5 * time.Second,
		ProviderPriority:    []string{"tmdb", "omdb"},
		DefaultFormat:       "Blu-ray",
		DefaultLanguage:     "English",
		SweepCron:           "0 * * * *",
	}
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > config file > defaults
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.snapshelf")
	}

	v.SetEnvPrefix("SNAPSHELF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyEmbeddedKeys()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setDefaults mirrors Default() so every key is visible to AutomaticEnv.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)

	v.SetDefault("database.path", d.Database.Path)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.path", d.Logging.Path)
	v.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", d.Logging.MaxAgeDays)
	v.SetDefault("logging.compress", d.Logging.Compress)

	v.SetDefault("metadata.tmdb.api_key", "")
	v.SetDefault("metadata.tmdb.base_url", d.Metadata.TMDB.BaseURL)
	v.SetDefault("metadata.tmdb.image_base_url", d.Metadata.TMDB.ImageBaseURL)
	v.SetDefault("metadata.tmdb.timeout", d.Metadata.TMDB.Timeout)
	v.SetDefault("metadata.tmdb.requests_per_window", d.Metadata.TMDB.RequestsPerWindow)
	v.SetDefault("metadata.tmdb.window", d.Metadata.TMDB.Window)
	v.SetDefault("metadata.omdb.api_key", "")
	v.SetDefault("metadata.omdb.base_url", d.Metadata.OMDB.BaseURL)
	v.SetDefault("metadata.omdb.timeout", d.Metadata.OMDB.Timeout)
	v.SetDefault("metadata.omdb.requests_per_second", d.Metadata.OMDB.RequestsPerSecond)
	v.SetDefault("metadata.anthropic.api_key", "")
	v.SetDefault("metadata.anthropic.base_url", d.Metadata.Anthropic.BaseURL)
	v.SetDefault("metadata.anthropic.model", d.Metadata.Anthropic.Model)
	v.SetDefault("metadata.anthropic.max_tokens", d.Metadata.Anthropic.MaxTokens)
	v.SetDefault("metadata.anthropic.timeout", d.Metadata.Anthropic.Timeout)
	v.SetDefault("metadata.anthropic.max_retries", d.Metadata.Anthropic.MaxRetries)
	v.SetDefault("metadata.max_details_per_provider", d.Metadata.MaxDetailsPerProvider)
	v.SetDefault("metadata.detail_cache_ttl", d.Metadata.DetailCacheTTL)
	v.SetDefault("metadata.use_mock", d.Metadata.UseMock)

	v.SetDefault("matching.cache_ttl_hours", d.Matching.CacheTTLHours)
	v.SetDefault("matching.confidence_floor", d.Matching.ConfidenceFloor)
	v.SetDefault("matching.local_sufficiency", d.Matching.LocalSufficiency)
	v.SetDefault("matching.exact_threshold", d.Matching.ExactThreshold)
	v.SetDefault("matching.fuzzy_threshold", d.Matching.FuzzyThreshold)
	v.SetDefault("matching.suggestion_threshold", d.Matching.SuggestionThreshold)
	v.SetDefault("matching.max_results", d.Matching.MaxResults)
	v.SetDefault("matching.provider_timeout", d.Matching.ProviderTimeout)
	v.SetDefault("matching.provider_priority", d.Matching.ProviderPriority)
	v.SetDefault("matching.default_format", d.Matching.DefaultFormat)
	v.SetDefault("matching.default_language", d.Matching.DefaultLanguage)
	v.SetDefault("matching.sweep_cron", d.Matching.SweepCron)

	v.SetDefault("health.storage_check_interval", d.Health.StorageCheckInterval)
	v.SetDefault("health.provider_check_interval", d.Health.ProviderCheckInterval)
	v.SetDefault("health.gateway_purge_interval", d.Health.GatewayPurgeInterval)
}

// applyEmbeddedKeys fills empty API keys with build-time values.
func (c *Config) applyEmbeddedKeys() {
	if c.Metadata.TMDB.APIKey == "" {
		c.Metadata.TMDB.APIKey = EmbeddedTMDBKey
	}
	if c.Metadata.OMDB.APIKey == "" {
		c.Metadata.OMDB.APIKey = EmbeddedOMDBKey
	}
	if c.Metadata.Anthropic.APIKey == "" {
		c.Metadata.Anthropic.APIKey = EmbeddedAnthropicKey
	}
}

// Validate checks that thresholds and limits are usable.
func (c *Config) Validate() error {
	return c.Matching.Validate()
}

// Validate checks threshold ranges and ordering.
func (m MatchingConfig) Validate() error {
	thresholds := map[string]float64{
		"confidence_floor":     m.ConfidenceFloor,
		"local_sufficiency":    m.LocalSufficiency,
		"exact_threshold":      m.ExactThreshold,
		"fuzzy_threshold":      m.FuzzyThreshold,
		"suggestion_threshold": m.SuggestionThreshold,
	}
	for name, value := range thresholds {
		if value < 0 || value > 1 {
			return fmt.Errorf("matching.%s must be within [0,1], got %v", name, value)
		}
	}
	if m.ConfidenceFloor > m.FuzzyThreshold || m.FuzzyThreshold > m.ExactThreshold {
		return fmt.Errorf("matching thresholds must satisfy confidence_floor <= fuzzy_threshold <= exact_threshold")
	}
	if m.CacheTTLHours <= 0 {
		return fmt.Errorf("matching.cache_ttl_hours must be positive")
	}
	if m.MaxResults <= 0 {
		return fmt.Errorf("matching.max_results must be positive")
	}
	if m.ProviderTimeout <= 0 {
		return fmt.Errorf("matching.provider_timeout must be positive")
	}
	return nil
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
