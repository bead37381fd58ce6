package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	Log      LogConfig      `yaml:"log"`
	Realtime RealtimeConfig `yaml:"realtime"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	Host            string        `yaml:"host"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds database configuration. URL takes precedence over the
// discrete fields when set.
type DatabaseConfig struct {
	URL          string        `yaml:"url"`
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	User         string        `yaml:"user"`
	Password     string        `yaml:"password"`
	DBName       string        `yaml:"dbname"`
	SSLMode      string        `yaml:"sslmode"`
	MaxConns     int32         `yaml:"max_conns"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
	AutoMigrate  bool          `yaml:"auto_migrate"`
}

// JWTConfig holds JWT configuration. An empty secret disables bearer tokens.
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	TTL    time.Duration `yaml:"ttl"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// RealtimeConfig holds websocket event stream configuration
type RealtimeConfig struct {
	Enabled      bool          `yaml:"enabled"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	// PongWait is how long a connection may stay silent before it is
	// dropped. Zero disables keepalive.
	PongWait time.Duration `yaml:"pong_wait"`
}

// PingInterval is how often the server pings each connection
func (c RealtimeConfig) PingInterval() time.Duration {
	return c.PongWait * 9 / 10
}

// MetricsConfig holds Prometheus exposition configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Default returns the configuration used when a field is not set anywhere
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Port:         5432,
			SSLMode:      "disable",
			MaxConns:     10,
			QueryTimeout: 5 * time.Second,
			AutoMigrate:  true,
		},
		JWT: JWTConfig{
			TTL: 30 * 24 * time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Realtime: RealtimeConfig{
			Enabled:      true,
			WriteTimeout: 10 * time.Second,
			PongWait:     60 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Load reads configuration from a YAML file on top of the defaults, then
// applies a .env file (if present) and environment variable overrides.
// A missing YAML file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// .env is optional; godotenv never overrides variables already exported.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv("DATABASE_URL"); ok {
		c.Database.URL = v
	}
	if v, ok := os.LookupEnv("SERVER_HOST"); ok {
		c.Server.Host = v
	}
	if v, ok := os.LookupEnv("SERVER_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SERVER_PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	if v, ok := os.LookupEnv("JWT_SECRET"); ok {
		c.JWT.Secret = v
	}
	if v, ok := os.LookupEnv("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := os.LookupEnv("LOG_FORMAT"); ok {
		c.Log.Format = v
	}
	return nil
}

// Validate checks that the configuration can be used to start the server
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Database.URL == "" && c.Database.Host == "" {
		return errors.New("database url or host is required")
	}
	if c.Realtime.PongWait < 0 {
		return fmt.Errorf("invalid realtime pong wait %s", c.Realtime.PongWait)
	}
	if c.Database.QueryTimeout < 0 {
		return fmt.Errorf("invalid database query timeout %s", c.Database.QueryTimeout)
	}
	return nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
