package config

import (
	"fmt"
	"time"
)

// Storage backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config holds server configuration values.
type Config struct {
	Addr               string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout  time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel           string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat          string        `mapstructure:"log_format" yaml:"log_format"`
	MaxMessageBytes    int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	RateLimitPerMinute int           `mapstructure:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`

	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Chat    ChatConfig    `mapstructure:"chat" yaml:"chat"`
	JWT     JWTConfig     `mapstructure:"jwt" yaml:"jwt"`
}

// StorageConfig selects the presence backend and the message database.
type StorageConfig struct {
	Backend      string      `mapstructure:"backend" yaml:"backend"`
	DatabasePath string      `mapstructure:"database_path" yaml:"database_path"`
	Redis        RedisConfig `mapstructure:"redis" yaml:"redis"`
}

// RedisConfig is used by the redis backend, the relay and the slow-mode limiter.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
	Prefix   string `mapstructure:"prefix" yaml:"prefix"`
}

// ChatConfig tunes delivery, replay and moderation.
type ChatConfig struct {
	HistoryWindow    time.Duration `mapstructure:"history_window" yaml:"history_window"`
	HistoryLimit     int           `mapstructure:"history_limit" yaml:"history_limit"`
	MessageTTL       time.Duration `mapstructure:"message_ttl" yaml:"message_ttl"`
	EvictInterval    time.Duration `mapstructure:"evict_interval" yaml:"evict_interval"`
	SlowModeInterval time.Duration `mapstructure:"slow_mode_interval" yaml:"slow_mode_interval"`
	AutoCreateRooms  bool          `mapstructure:"auto_create_rooms" yaml:"auto_create_rooms"`
	SweepInterval    time.Duration `mapstructure:"sweep_interval" yaml:"sweep_interval"`
	InstanceTTL      time.Duration `mapstructure:"instance_ttl" yaml:"instance_ttl"`
	PushTimeout      time.Duration `mapstructure:"push_timeout" yaml:"push_timeout"`
	PushConcurrency  int           `mapstructure:"push_concurrency" yaml:"push_concurrency"`
	AllowAnonymous   bool          `mapstructure:"allow_anonymous" yaml:"allow_anonymous"`
	BlockedTerms     []string      `mapstructure:"blocked_terms" yaml:"blocked_terms"`
}

// JWTConfig verifies tokens issued by the account service.
type JWTConfig struct {
	Secret   string `mapstructure:"secret" yaml:"secret"`
	Issuer   string `mapstructure:"issuer" yaml:"issuer"`
	Audience string `mapstructure:"audience" yaml:"audience"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:               ":8080",
		ReadHeaderTimeout:  5 * time.Second,
		ShutdownTimeout:    5 * time.Second,
		LogLevel:           "info",
		LogFormat:          "console",
		MaxMessageBytes:    1 << 20,
		RateLimitPerMinute: 120,
		Storage: StorageConfig{
			Backend:      BackendMemory,
			DatabasePath: "wirechat.db",
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "wirechat:",
			},
		},
		Chat: ChatConfig{
			HistoryWindow:    24 * time.Hour,
			HistoryLimit:     200,
			MessageTTL:       24 * time.Hour,
			EvictInterval:    time.Minute,
			SlowModeInterval: 10 * time.Second,
			AutoCreateRooms:  true,
			SweepInterval:    time.Minute,
			InstanceTTL:      30 * time.Second,
			PushTimeout:      time.Second,
			PushConcurrency:  16,
			AllowAnonymous:   true,
		},
		JWT: JWTConfig{
			Secret:   "change-me",
			Issuer:   "wirechat",
			Audience: "wirechat",
		},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
// Only the settings exposed as command-line flags are considered.
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
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.Storage.Backend != "" {
		c.Storage.Backend = other.Storage.Backend
	}
	if other.Storage.DatabasePath != "" {
		c.Storage.DatabasePath = other.Storage.DatabasePath
	}
	if other.Storage.Redis.Addr != "" {
		c.Storage.Redis.Addr = other.Storage.Redis.Addr
	}
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	switch c.LogFormat {
	case "", "console", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	if c.Storage.DatabasePath == "" {
		return fmt.Errorf("storage.database_path is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	if c.Chat.HistoryLimit < 0 {
		return fmt.Errorf("chat.history_limit must not be negative")
	}
	return nil
}
