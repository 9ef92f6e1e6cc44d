package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`
	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`

	JWTSecret   string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string `mapstructure:"jwt_audience" yaml:"jwt_audience"`

	// BrokerURL, when set, mirrors every topic publish to RabbitMQ so other
	// processes can consume them. Empty disables the mirror.
	BrokerURL string `mapstructure:"broker_url" yaml:"broker_url"`

	// RedisURL, when set, keeps the presence registry in Redis so presence
	// survives restarts and is shared across instances. Empty keeps it
	// in-process.
	RedisURL string `mapstructure:"redis_url" yaml:"redis_url"`

	ChatHistoryLimit int `mapstructure:"chat_history_limit" yaml:"chat_history_limit"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		DatabasePath:      "webcrafter.db",
		LogLevel:          "info",
		JWTSecret:         "change-me-in-production",
		JWTIssuer:         "webcrafter",
		JWTAudience:       "webcrafter-clients",
		ChatHistoryLimit:  50,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.JWTSecret != "" {
		c.JWTSecret = other.JWTSecret
	}
	if other.JWTIssuer != "" {
		c.JWTIssuer = other.JWTIssuer
	}
	if other.JWTAudience != "" {
		c.JWTAudience = other.JWTAudience
	}
	if other.BrokerURL != "" {
		c.BrokerURL = other.BrokerURL
	}
	if other.RedisURL != "" {
		c.RedisURL = other.RedisURL
	}
	if other.ChatHistoryLimit != 0 {
		c.ChatHistoryLimit = other.ChatHistoryLimit
	}
}
