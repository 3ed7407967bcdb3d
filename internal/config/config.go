package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers understood by DB_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Offline cache backends understood by CACHE_BACKEND.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	RabbitMQ RabbitMQConfig
	Client   ClientConfig
	Cache    CacheConfig
}

type AppConfig struct {
	Port      string
	APIPrefix string
	LogLevel  string
	LogFormat string
}

type DBConfig struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

type RabbitMQConfig struct {
	URL      string
	Exchange string
}

// Enabled reports whether event publishing is configured.
func (r RabbitMQConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != ""
}

type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

type CacheConfig struct {
	Backend  string
	Path     string
	RedisURL string
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("API_PREFIX", "/api")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DATABASE_DSN", "host=127.0.0.1 user=postgres password=postgres dbname=auctions port=5432 sslmode=disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 20)
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_CONN_MAX_LIFETIME", time.Hour)
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_EXCHANGE", "auctions")
	v.SetDefault("API_BASE_URL", "http://localhost:8080/api")
	v.SetDefault("CLIENT_TIMEOUT", 10*time.Second)
	v.SetDefault("CACHE_BACKEND", CacheFile)
	v.SetDefault("CACHE_PATH", "cached_auctions.json")
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
}

// Load reads configuration from the environment, after loading a .env file
// when one is present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()
	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Port:      v.GetString("APP_PORT"),
			APIPrefix: v.GetString("API_PREFIX"),
			LogLevel:  v.GetString("LOG_LEVEL"),
			LogFormat: v.GetString("LOG_FORMAT"),
		},
		DB: DBConfig{
			Driver:          strings.ToLower(strings.TrimSpace(v.GetString("DB_DRIVER"))),
			DSN:             v.GetString("DATABASE_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
			AutoMigrate:     v.GetBool("DB_AUTO_MIGRATE"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      v.GetString("RABBITMQ_URL"),
			Exchange: v.GetString("RABBITMQ_EXCHANGE"),
		},
		Client: ClientConfig{
			BaseURL: strings.TrimRight(v.GetString("API_BASE_URL"), "/"),
			Timeout: v.GetDuration("CLIENT_TIMEOUT"),
		},
		Cache: CacheConfig{
			Backend:  strings.ToLower(strings.TrimSpace(v.GetString("CACHE_BACKEND"))),
			Path:     v.GetString("CACHE_PATH"),
			RedisURL: v.GetString("REDIS_URL"),
		},
	}

	if !strings.HasPrefix(cfg.App.APIPrefix, "/") {
		cfg.App.APIPrefix = "/" + cfg.App.APIPrefix
	}

	switch cfg.DB.Driver {
	case DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DB.Driver)
	}
	if cfg.DB.Driver != DriverMemory && cfg.DB.DSN == "" {
		return nil, fmt.Errorf("DATABASE_DSN is required for driver %s", cfg.DB.Driver)
	}

	switch cfg.Cache.Backend {
	case CacheFile, CacheRedis:
	default:
		return nil, fmt.Errorf("unsupported CACHE_BACKEND %q", cfg.Cache.Backend)
	}

	if cfg.Client.Timeout <= 0 {
		cfg.Client.Timeout = 10 * time.Second
	}
	return cfg, nil
}
