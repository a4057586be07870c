package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

// Storage drivers accepted by storage.driver.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

type Config struct {
	App struct {
		Name     string `yaml:"name" env:"APP_NAME"`
		Env      string `yaml:"env" env:"APP_ENV"`
		LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`
	} `yaml:"app"`
	Server struct {
		Port             string   `yaml:"port" env:"PORT"`
		GracefulShutdown string   `yaml:"graceful_shutdown" env:"GRACEFUL_SHUTDOWN"`
		CORSOrigins      []string `yaml:"cors_origins" env:"CORS_ORIGINS" envSeparator:","`
	} `yaml:"server"`
	Storage struct {
		Driver     string `yaml:"driver" env:"STORAGE_DRIVER"`
		SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH"`
	} `yaml:"storage"`
	Redis struct {
		Addr     string `yaml:"addr" env:"REDIS_ADDR"`
		Password string `yaml:"password" env:"REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"REDIS_DB"`
		TTL      string `yaml:"ttl" env:"REDIS_TTL"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url" env:"POSTGRES_URL"`
	} `yaml:"postgres"`
	Cache struct {
		TTL string `yaml:"ttl" env:"CACHE_TTL"`
	} `yaml:"cache"`
	Quiz struct {
		Seed int64 `yaml:"seed" env:"QUIZ_SEED"`
	} `yaml:"quiz"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	cfg := Config{}
	cfg.App.Name = "quizmaster"
	cfg.App.Env = "development"
	cfg.App.LogLevel = "info"
	cfg.Server.Port = "8080"
	cfg.Server.GracefulShutdown = "10s"
	cfg.Server.CORSOrigins = []string{"*"}
	cfg.Storage.Driver = DriverMemory
	cfg.Storage.SQLitePath = "quizmaster.db"
	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.TTL = "24h"
	cfg.Cache.TTL = "5m"
	return cfg
}

// Load reads YAML config from path on top of Default and then applies environment
// overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("env overlay: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects unknown storage drivers.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverSQLite, DriverRedis, DriverPostgres:
		return nil
	}
	return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
}

// IsProduction reports whether app.env is production.
func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
