package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/leoprim/ranked-tracker-web/internal/release"
	"github.com/leoprim/ranked-tracker-web/pkg/logger"
	"github.com/spf13/viper"
)

const (
	envPrefix = "RTWEB"
	// maxPageSize is the GitHub per_page cap
	maxPageSize = 100
	redacted    = "********"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	GitHub  GitHubConfig  `mapstructure:"github" yaml:"github"`
	Release ReleaseConfig `mapstructure:"release" yaml:"release"`
	Cache   CacheConfig   `mapstructure:"cache" yaml:"cache"`
	Breaker BreakerConfig `mapstructure:"breaker" yaml:"breaker"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// ServerConfig holds HTTP listener configuration
type ServerConfig struct {
	Listen          string        `mapstructure:"listen" yaml:"listen"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	RateLimit       float64       `mapstructure:"rate_limit" yaml:"rate_limit"`
	RateBurst       int           `mapstructure:"rate_burst" yaml:"rate_burst"`
}

// GitHubConfig holds the upstream release listing configuration
type GitHubConfig struct {
	Repo    string        `mapstructure:"repo" yaml:"repo"`
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"`
	Token   string        `mapstructure:"token" yaml:"token"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// ReleaseConfig holds the installer matching rules
type ReleaseConfig struct {
	TagPrefix   string `mapstructure:"tag_prefix" yaml:"tag_prefix"`
	AssetSuffix string `mapstructure:"asset_suffix" yaml:"asset_suffix"`
	PageSize    int    `mapstructure:"page_size" yaml:"page_size"`
}

// CacheConfig holds the release listing memo configuration
type CacheConfig struct {
	TTL          time.Duration `mapstructure:"ttl" yaml:"ttl"`
	WarmInterval time.Duration `mapstructure:"warm_interval" yaml:"warm_interval"`
}

// BreakerConfig holds the upstream circuit breaker configuration
type BreakerConfig struct {
	Enabled      bool          `mapstructure:"enabled" yaml:"enabled"`
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MinRequests  uint32        `mapstructure:"min_requests" yaml:"min_requests"`
	FailureRatio float64       `mapstructure:"failure_ratio" yaml:"failure_ratio"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	File       string `mapstructure:"file" yaml:"file"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// Policy returns the resolver matching rules
func (c *Config) Policy() release.Policy {
	return release.Policy{
		TagPrefix:   c.Release.TagPrefix,
		AssetSuffix: c.Release.AssetSuffix,
		PageSize:    c.Release.PageSize,
	}
}

// LoggerConfig converts the logging section for logger.Init
func (c *Config) LoggerConfig(module string) logger.Config {
	return logger.Config{
		Level:      c.Logging.Level,
		Format:     c.Logging.Format,
		Module:     module,
		File:       c.Logging.File,
		MaxSize:    c.Logging.MaxSize,
		MaxAge:     c.Logging.MaxAge,
		MaxBackups: c.Logging.MaxBackups,
		Compress:   c.Logging.Compress,
	}
}

// Validate checks values that would otherwise fail at request time
func (c *Config) Validate() error {
	parts := strings.Split(c.GitHub.Repo, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("github.repo must be in owner/repo form, got %q", c.GitHub.Repo)
	}
	if c.Release.TagPrefix == "" {
		return fmt.Errorf("release.tag_prefix is required")
	}
	if c.Release.AssetSuffix == "" {
		return fmt.Errorf("release.asset_suffix is required")
	}
	if c.Release.PageSize < 1 || c.Release.PageSize > maxPageSize {
		return fmt.Errorf("release.page_size must be between 1 and %d, got %d", maxPageSize, c.Release.PageSize)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}
	if c.Cache.WarmInterval < 0 {
		return fmt.Errorf("cache.warm_interval must not be negative")
	}
	if c.GitHub.Timeout <= 0 {
		return fmt.Errorf("github.timeout must be positive")
	}
	if c.Breaker.Enabled && (c.Breaker.FailureRatio <= 0 || c.Breaker.FailureRatio > 1) {
		return fmt.Errorf("breaker.failure_ratio must be in (0,1], got %v", c.Breaker.FailureRatio)
	}
	return nil
}

// Redacted returns a copy safe to print
func (c *Config) Redacted() Config {
	out := *c
	if out.GitHub.Token != "" {
		out.GitHub.Token = redacted
	}
	return out
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("server.listen", d.Server.Listen)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.rate_limit", d.Server.RateLimit)
	v.SetDefault("server.rate_burst", d.Server.RateBurst)

	v.SetDefault("github.repo", d.GitHub.Repo)
	v.SetDefault("github.base_url", d.GitHub.BaseURL)
	v.SetDefault("github.token", "")
	v.SetDefault("github.timeout", d.GitHub.Timeout)

	v.SetDefault("release.tag_prefix", d.Release.TagPrefix)
	v.SetDefault("release.asset_suffix", d.Release.AssetSuffix)
	v.SetDefault("release.page_size", d.Release.PageSize)

	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.warm_interval", d.Cache.WarmInterval)

	v.SetDefault("breaker.enabled", d.Breaker.Enabled)
	v.SetDefault("breaker.timeout", d.Breaker.Timeout)
	v.SetDefault("breaker.min_requests", d.Breaker.MinRequests)
	v.SetDefault("breaker.failure_ratio", d.Breaker.FailureRatio)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.max_size", d.Logging.MaxSize)
	v.SetDefault("logging.max_age", d.Logging.MaxAge)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.compress", d.Logging.Compress)
}

// LoadConfig loads configuration from file, environment and defaults.
// An empty path searches the usual locations; a missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.ranked-tracker-web")
		v.AddConfigPath("/etc/ranked-tracker-web")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("github.token", envPrefix+"_GITHUB_TOKEN", "GITHUB_TOKEN"); err != nil {
		return nil, err
	}

	err := v.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:          ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			RateLimit:       20,
			RateBurst:       50,
		},
		GitHub: GitHubConfig{
			Repo:    "leoprim/ranked-tracker",
			Timeout: 10 * time.Second,
		},
		Release: ReleaseConfig{
			TagPrefix:   "obs-plugin-v",
			AssetSuffix: ".exe",
			PageSize:    release.DefaultPageSize,
		},
		Cache: CacheConfig{
			TTL: 5 * time.Minute,
		},
		Breaker: BreakerConfig{
			Enabled:      true,
			Timeout:      60 * time.Second,
			MinRequests:  3,
			FailureRatio: 0.6,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			MaxSize:    100,
			MaxAge:     28,
			MaxBackups: 3,
		},
	}
}
