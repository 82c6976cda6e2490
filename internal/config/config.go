package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Odoo      OdooConfig      `yaml:"odoo"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig represents the HTTP relay server configuration
type ServerConfig struct {
	Host    string        `yaml:"host"`
	Port    int           `yaml:"port"`
	Timeout time.Duration `yaml:"timeout"`
}

// OdooConfig represents Odoo client configuration. The instance URL and
// credentials are not configured here; they arrive with every request.
type OdooConfig struct {
	AuthTimeout time.Duration   `yaml:"auth_timeout"`
	DataTimeout time.Duration   `yaml:"data_timeout"`
	VerifyTLS   bool            `yaml:"verify_tls"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
	UIDCacheTTL time.Duration   `yaml:"uid_cache_ttl"`
}

// RateLimitConfig represents outbound rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second"`
	Burst             int `yaml:"burst"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TelemetryConfig represents OpenTelemetry trace export configuration
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
}

// Load loads configuration from config.yaml and environment variables.
// A missing config file is not an error: the relay needs no mandatory
// remote settings, so defaults plus environment overrides suffice.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors as .env file might not exist)
	_ = godotenv.Load()

	configFile := "config.yaml"
	if envFile := os.Getenv("CONFIG_FILE"); envFile != "" {
		configFile = envFile
	}

	var config Config
	data, err := os.ReadFile(configFile)
	if err == nil {
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config.applyDefaults()

	if err := config.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyDefaults fills in zero values with working defaults
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Server.Timeout == 0 {
		c.Server.Timeout = 60 * time.Second
	}
	if c.Odoo.AuthTimeout == 0 {
		c.Odoo.AuthTimeout = 10 * time.Second
	}
	if c.Odoo.DataTimeout == 0 {
		c.Odoo.DataTimeout = 30 * time.Second
	}
	if c.Odoo.RateLimit.RequestsPerSecond == 0 {
		c.Odoo.RateLimit.RequestsPerSecond = 10
	}
	if c.Odoo.RateLimit.Burst == 0 {
		c.Odoo.RateLimit.Burst = 20
	}
	if c.Odoo.UIDCacheTTL == 0 {
		c.Odoo.UIDCacheTTL = 5 * time.Minute
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "netzero-odoo-relay"
	}
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() error {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		var portInt int
		if _, err := fmt.Sscanf(port, "%d", &portInt); err == nil {
			c.Server.Port = portInt
		}
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}

	if verify := os.Getenv("ODOO_VERIFY_TLS"); verify != "" {
		c.Odoo.VerifyTLS = verify == "true"
	}
	if timeout := os.Getenv("ODOO_AUTH_TIMEOUT"); timeout != "" {
		if duration, err := time.ParseDuration(timeout); err == nil {
			c.Odoo.AuthTimeout = duration
		}
	}
	if timeout := os.Getenv("ODOO_DATA_TIMEOUT"); timeout != "" {
		if duration, err := time.ParseDuration(timeout); err == nil {
			c.Odoo.DataTimeout = duration
		}
	}
	if ttl := os.Getenv("ODOO_UID_CACHE_TTL"); ttl != "" {
		if duration, err := time.ParseDuration(ttl); err == nil {
			c.Odoo.UIDCacheTTL = duration
		}
	}

	if enabled := os.Getenv("TELEMETRY_ENABLED"); enabled != "" {
		c.Telemetry.Enabled = enabled == "true"
	}
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		c.Telemetry.Endpoint = endpoint
	}

	return nil
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Odoo.AuthTimeout <= 0 {
		return fmt.Errorf("odoo auth timeout must be positive")
	}
	if c.Odoo.DataTimeout <= 0 {
		return fmt.Errorf("odoo data timeout must be positive")
	}
	if c.Odoo.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("invalid rate limit: %d requests per second", c.Odoo.RateLimit.RequestsPerSecond)
	}
	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		return fmt.Errorf("telemetry endpoint is required when telemetry is enabled")
	}
	return nil
}
