// Package config provides configuration management using Viper
// Supports multiple sources: files, environment variables, and defaults
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// Config holds all configuration for the application
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Auth       AuthConfig       `mapstructure:"auth"`
	AI         AIConfig         `mapstructure:"ai"`
	PDF        PDFConfig        `mapstructure:"pdf"`
	Recipes    RecipesConfig    `mapstructure:"recipes"`
	Redis      RedisConfig      `mapstructure:"redis"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	MaxHeaderBytes  int           `mapstructure:"max_header_bytes"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	EnableHTTP2     bool          `mapstructure:"enable_http2"`
	// IndexTemplate, when set, is read from disk on every request to /
	IndexTemplate string `mapstructure:"index_template"`
	MaxBodyBytes  int64  `mapstructure:"max_body_bytes"`
}

// AuthConfig contains session configuration
type AuthConfig struct {
	SessionSecret  string        `mapstructure:"session_secret"`
	SessionMaxAge  time.Duration `mapstructure:"session_max_age"`
	CookieName     string        `mapstructure:"cookie_name"`
	SecureCookie   bool          `mapstructure:"secure_cookie"`
	BCryptCost     int           `mapstructure:"bcrypt_cost"`
	// Users maps usernames to bcrypt hashes. Empty means any login succeeds.
	Users map[string]string `mapstructure:"users"`
}

// AIConfig contains generation backend configuration
type AIConfig struct {
	Provider         string        `mapstructure:"provider"`
	GeminiKey        string        `mapstructure:"gemini_key"`
	GeminiModel      string        `mapstructure:"gemini_model"`
	GeminiBaseURL    string        `mapstructure:"gemini_base_url"`
	AnthropicKey     string        `mapstructure:"anthropic_key"`
	AnthropicModel   string        `mapstructure:"anthropic_model"`
	AnthropicBaseURL string        `mapstructure:"anthropic_base_url"`
	OllamaHost       string        `mapstructure:"ollama_host"`
	OllamaModel      string        `mapstructure:"ollama_model"`
	MaxTokens        int           `mapstructure:"max_tokens"`
	Temperature      float64       `mapstructure:"temperature"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

// PDFConfig contains HTML to PDF engine configuration
type PDFConfig struct {
	// RemoteURL is a DevTools websocket of an already running browser
	RemoteURL     string        `mapstructure:"remote_url"`
	BrowserBin    string        `mapstructure:"browser_bin"`
	NoSandbox     bool          `mapstructure:"no_sandbox"`
	RenderTimeout time.Duration `mapstructure:"render_timeout"`
	StampMetadata bool          `mapstructure:"stamp_metadata"`
}

// RecipesConfig contains recipe store configuration
type RecipesConfig struct {
	TaxonomyFile string `mapstructure:"taxonomy_file"`
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	Database     int           `mapstructure:"database"`
	MaxRetries   int           `mapstructure:"max_retries"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// RateLimitConfig contains rate limiting configuration for generation
type RateLimitConfig struct {
	Enable          bool          `mapstructure:"enable"`
	RequestsPerMin  int           `mapstructure:"requests_per_min"`
	BurstSize       int           `mapstructure:"burst_size"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// MonitoringConfig contains monitoring configuration
type MonitoringConfig struct {
	EnableMetrics   bool    `mapstructure:"enable_metrics"`
	EnableTracing   bool    `mapstructure:"enable_tracing"`
	SamplingRate    float64 `mapstructure:"sampling_rate"`
	MetricsPath     string  `mapstructure:"metrics_path"`
	HealthCheckPath string  `mapstructure:"health_check_path"`
}

var validProviders = map[string]bool{"gemini": true, "anthropic": true, "ollama": true}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := newViper(configPath)

	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file doesn't exist, we have defaults
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return decode(v)
}

// Watch re-reads the config file whenever it changes and hands the result
// to onChange. It returns false when there is no file to watch.
func Watch(configPath string, onChange func(*Config, error)) (bool, error) {
	v := newViper(configPath)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config: %w", err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		onChange(decode(v))
	})
	v.WatchConfig()
	return true, nil
}

func newViper(configPath string) *viper.Viper {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/recipegen")
	}

	v.SetEnvPrefix("RECIPEGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Conventional provider variables work without the prefix
	_ = v.BindEnv("ai.gemini_key", "RECIPEGEN_AI_GEMINI_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("ai.anthropic_key", "RECIPEGEN_AI_ANTHROPIC_KEY", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("ai.ollama_host", "RECIPEGEN_AI_OLLAMA_HOST", "OLLAMA_HOST")

	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "recipegen")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "json")

	// Server defaults. A zero write timeout leaves generation and export
	// requests unbounded.
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "0s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.max_header_bytes", 1<<20) // 1MB
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.enable_http2", true)
	v.SetDefault("server.index_template", "")
	v.SetDefault("server.max_body_bytes", 1<<20)

	// Auth defaults
	v.SetDefault("auth.session_secret", "")
	v.SetDefault("auth.session_max_age", "24h")
	v.SetDefault("auth.cookie_name", "recipegen_session")
	v.SetDefault("auth.secure_cookie", false)
	v.SetDefault("auth.bcrypt_cost", 10)

	// AI defaults
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.gemini_key", "")
	v.SetDefault("ai.gemini_model", "gemini-1.5-flash-latest")
	v.SetDefault("ai.gemini_base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("ai.anthropic_key", "")
	v.SetDefault("ai.anthropic_model", "claude-3-5-haiku-latest")
	v.SetDefault("ai.anthropic_base_url", "")
	v.SetDefault("ai.ollama_host", "")
	v.SetDefault("ai.ollama_model", "llama3.2:3b")
	v.SetDefault("ai.max_tokens", 2048)
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.timeout", "0s")

	// PDF defaults
	v.SetDefault("pdf.remote_url", "")
	v.SetDefault("pdf.browser_bin", "")
	v.SetDefault("pdf.no_sandbox", false)
	v.SetDefault("pdf.render_timeout", "0s")
	v.SetDefault("pdf.stamp_metadata", true)

	// Recipe defaults
	v.SetDefault("recipes.taxonomy_file", "")

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")
	v.SetDefault("redis.key_prefix", "recipegen:")

	// Rate limit defaults
	v.SetDefault("rate_limit.enable", false)
	v.SetDefault("rate_limit.requests_per_min", 10)
	v.SetDefault("rate_limit.burst_size", 3)
	v.SetDefault("rate_limit.cleanup_interval", "1m")

	// Monitoring defaults
	v.SetDefault("monitoring.enable_metrics", true)
	v.SetDefault("monitoring.enable_tracing", false)
	v.SetDefault("monitoring.sampling_rate", 1.0)
	v.SetDefault("monitoring.metrics_path", "/metrics")
	v.SetDefault("monitoring.health_check_path", "/health")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	if !validProviders[c.AI.Provider] {
		return fmt.Errorf("ai.provider must be one of gemini, anthropic, ollama (got %q)", c.AI.Provider)
	}

	if c.Auth.SessionSecret == "" && c.IsProduction() {
		return fmt.Errorf("auth.session_secret is required in production")
	}

	if c.Auth.SessionMaxAge <= 0 {
		return fmt.Errorf("auth.session_max_age must be positive")
	}

	if c.Auth.BCryptCost != 0 && (c.Auth.BCryptCost < bcrypt.MinCost || c.Auth.BCryptCost > bcrypt.MaxCost) {
		return fmt.Errorf("auth.bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	if c.RateLimit.Enable && (c.RateLimit.RequestsPerMin < 1 || c.RateLimit.BurstSize < 1) {
		return fmt.Errorf("rate_limit.requests_per_min and rate_limit.burst_size must be positive")
	}

	return nil
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// Address returns the server listen address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
