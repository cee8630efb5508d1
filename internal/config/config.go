package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

const (
	DBDriverSqlite   = "sqlite"
	DBDriverPostgres = "postgres"
)

type Config struct {
	Environment string `toml:"-"`

	Host string `toml:"host"`
	Port int    `toml:"port"`
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	SentryEnabled bool   `toml:"sentry_enabled"`
	// storage
	DBDriver       string `toml:"db_driver"`
	SqlitePath     string `toml:"sqlite_path"`
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`
	PostgresUser   string `toml:"postgres_user"`
	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`
	// rate limiting, disabled when redis host is empty
	RedisHost             string `toml:"redis_host"`
	RedisPort             string `toml:"redis_port"`
	SubmitRateLimitPerMin int    `toml:"submit_rate_limit_per_min"`
	// dashboard titles and status messages
	Locale string `toml:"locale"`
}

// Secrets are never kept in the config file.
type Secrets struct {
	FlashSecret      string `env:"FITLOG_FLASH_SECRET"`
	SentryDSN        string `env:"SENTRY_DSN"`
	RedisPassword    string `env:"FITLOG_REDIS_PASS"`
	PostgresPassword string `env:"FITLOG_POSTGRES_PASS"`
	HoneycombEnabled bool   `env:"HONEYCOMB_ENABLED" envDefault:"false"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config section for env: %s", env)
	}
	return cfg, nil
}

// Load reads the TOML file at path and returns the section for env,
// with defaults filled in.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	cfg.Environment = strings.ToLower(env)
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func LoadSecrets() (*Secrets, error) {
	var s Secrets
	if err := env.Parse(&s); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &s, nil
}

func (c *Config) setDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 5000
	}
	if c.DBDriver == "" {
		c.DBDriver = DBDriverSqlite
	}
	if c.DBDriver == DBDriverSqlite && c.SqlitePath == "" {
		c.SqlitePath = "fitness.db"
	}
	if c.PostgresPort == "" {
		c.PostgresPort = "5432"
	}
	if c.PostgresUser == "" {
		c.PostgresUser = "postgres"
	}
	if c.RedisPort == "" {
		c.RedisPort = "6379"
	}
	if c.SubmitRateLimitPerMin == 0 {
		c.SubmitRateLimitPerMin = 30
	}
	if c.Locale == "" {
		c.Locale = "en"
	}
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case DBDriverSqlite:
		if c.SqlitePath == "" {
			return fmt.Errorf("sqlite_path is required for db driver %s", c.DBDriver)
		}
	case DBDriverPostgres:
		if c.PostgresHost == "" || c.PostgresDBName == "" {
			return fmt.Errorf("postgres_host and postgres_db_name are required for db driver %s", c.DBDriver)
		}
	default:
		return fmt.Errorf("unknown db driver: %s", c.DBDriver)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	return nil
}

// RateLimitEnabled reports whether the submit endpoint is rate limited through redis.
func (c *Config) RateLimitEnabled() bool {
	return c.RedisHost != "" && c.SubmitRateLimitPerMin > 0
}
