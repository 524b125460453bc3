package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Relay     RelayConfig
	Proxy     ProxyConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"4000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// RelayConfig holds WebSocket relay configuration.
type RelayConfig struct {
	// Path is the fixed, non-default WebSocket path distinguishing the
	// relay from any co-hosted socket service.
	Path           string        `envconfig:"RELAY_PATH" default:"/stream"`
	WriteTimeout   time.Duration `envconfig:"RELAY_WRITE_TIMEOUT" default:"10s"`
	MaxMessageSize int64         `envconfig:"RELAY_MAX_MESSAGE_SIZE" default:"262144"`
	SendBuffer     int           `envconfig:"RELAY_SEND_BUFFER" default:"64"`
}

// ProxyConfig holds HTML proxy configuration.
type ProxyConfig struct {
	Timeout     time.Duration `envconfig:"PROXY_TIMEOUT" default:"30s"`
	MaxBodySize int64         `envconfig:"PROXY_MAX_BODY_SIZE" default:"10485760"`
	UserAgent   string        `envconfig:"PROXY_USER_AGENT" default:"Mozilla/5.0 (compatible; LumosProxy/1.0)"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "4000",
			Host: "0.0.0.0",
		},
		Relay: RelayConfig{
			Path:           "/stream",
			WriteTimeout:   10 * time.Second,
			MaxMessageSize: 262144,
			SendBuffer:     64,
		},
		Proxy: ProxyConfig{
			Timeout:     30 * time.Second,
			MaxBodySize: 10 << 20,
			UserAgent:   "Mozilla/5.0 (compatible; LumosProxy/1.0)",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
