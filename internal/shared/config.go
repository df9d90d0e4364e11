package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Cache drivers accepted by [CacheConfig].
const (
	CacheDriverSQLite = "sqlite"
	CacheDriverRedis  = "redis"
	CacheDriverMemory = "memory"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Providers   ProvidersConfig   `toml:"providers"`
	Cache       CacheConfig       `toml:"cache"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Player      PlayerConfig      `toml:"player"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains provider-specific credentials.
type CredentialsConfig struct {
	Licensed  LicensedConfig  `toml:"licensed"`
	Community CommunityConfig `toml:"community"`
}

// LicensedConfig contains RapidAPI credentials for the Deezer catalog.
type LicensedConfig struct {
	APIKey  string `toml:"api_key"`
	APIHost string `toml:"api_host"`
	BaseURL string `toml:"base_url"`
}

// CommunityConfig contains Jamendo API credentials.
type CommunityConfig struct {
	ClientID string `toml:"client_id"`
	BaseURL  string `toml:"base_url"`
}

// ProvidersConfig controls outbound provider calls.
type ProvidersConfig struct {
	TimeoutMS    int     `toml:"timeout_ms"`
	DefaultLimit int     `toml:"default_limit"`
	Retries      int     `toml:"retries"`
	RateLimit    float64 `toml:"rate_limit"` // requests per second, per provider
}

// Timeout returns the per-call transport timeout.
func (p ProvidersConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutMS) * time.Millisecond
}

// CacheConfig contains response cache settings.
type CacheConfig struct {
	Driver               string      `toml:"driver"`
	TTLSeconds           int         `toml:"ttl_seconds"`
	SweepIntervalSeconds int         `toml:"sweep_interval_seconds"`
	Redis                RedisConfig `toml:"redis"`
}

// TTL returns the default entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// SweepInterval returns the period of the expiry sweep.
func (c CacheConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

// RedisConfig contains Redis connection settings for the redis cache driver.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PlayerConfig contains playback settings.
type PlayerConfig struct {
	HistoryLimit int `toml:"history_limit"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Cache.Driver {
	case CacheDriverSQLite, CacheDriverRedis, CacheDriverMemory:
	default:
		return fmt.Errorf("%w: unknown cache driver %q", ErrInvalidConfig, c.Cache.Driver)
	}
	if c.Cache.TTLSeconds <= 0 {
		return fmt.Errorf("%w: cache ttl_seconds must be positive", ErrInvalidConfig)
	}
	if c.Cache.Driver == CacheDriverSQLite && c.Database.Path == "" {
		return fmt.Errorf("%w: database path is required for the sqlite cache", ErrInvalidConfig)
	}
	if c.Cache.Driver == CacheDriverRedis && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("%w: redis addr is required for the redis cache", ErrInvalidConfig)
	}
	if c.Providers.TimeoutMS <= 0 {
		return fmt.Errorf("%w: providers timeout_ms must be positive", ErrInvalidConfig)
	}
	if c.Providers.Retries < 0 {
		return fmt.Errorf("%w: providers retries cannot be negative", ErrInvalidConfig)
	}
	if c.Player.HistoryLimit <= 0 {
		return fmt.Errorf("%w: player history_limit must be positive", ErrInvalidConfig)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// ApplyEnv overrides configuration values from MIMO_* environment variables.
func (c *Config) ApplyEnv() error {
	overrides := map[string]*string{
		"MIMO_LICENSED_API_KEY":    &c.Credentials.Licensed.APIKey,
		"MIMO_LICENSED_API_HOST":   &c.Credentials.Licensed.APIHost,
		"MIMO_COMMUNITY_CLIENT_ID": &c.Credentials.Community.ClientID,
		"MIMO_CACHE_DRIVER":        &c.Cache.Driver,
		"MIMO_REDIS_ADDR":          &c.Cache.Redis.Addr,
		"MIMO_DATABASE_PATH":       &c.Database.Path,
		"MIMO_LOG_LEVEL":           &c.Log.Level,
	}
	for key, target := range overrides {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*target = v
		}
	}

	if v, ok := os.LookupEnv("MIMO_SERVER_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: MIMO_SERVER_PORT=%q", ErrInvalidConfig, v)
		}
		c.Server.Port = port
	}

	return nil
}
