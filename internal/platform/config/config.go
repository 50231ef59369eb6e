package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/srgjo27/campsite_booking/internal/platform/database"
)

const (
	DraftStoreRedis  = "redis"
	DraftStoreSQLite = "sqlite"
)

type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	DBHost       string        `env:"DB_HOST" envDefault:"localhost"`
	DBPort       string        `env:"DB_PORT" envDefault:"5432"`
	DBUser       string        `env:"DB_USER" envDefault:"postgres"`
	DBPassword   string        `env:"DB_PASSWORD"`
	DBName       string        `env:"DB_NAME" envDefault:"campsite_booking"`
	DBSSLMode    string        `env:"DB_SSLMODE" envDefault:"disable"`
	DBMaxRetries int           `env:"DB_MAX_RETRIES" envDefault:"10"`
	DBRetryDelay time.Duration `env:"DB_RETRY_DELAY" envDefault:"2s"`

	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     string `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	DraftStore      string        `env:"DRAFT_STORE" envDefault:"redis"`
	SQLitePath      string        `env:"SQLITE_PATH" envDefault:"drafts.db"`
	DraftTTL        time.Duration `env:"DRAFT_TTL" envDefault:"720h"`
	JanitorInterval time.Duration `env:"JANITOR_INTERVAL" envDefault:"5m"`
	SessionIdle     time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30m"`

	BookingCacheTTL time.Duration `env:"BOOKING_CACHE_TTL" envDefault:"10m"`
	ReferencePrefix string        `env:"REFERENCE_PREFIX" envDefault:"CPVC"`
}

// Load reads an optional .env file, then the environment.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load env file: %w", err)
		}
		log.Println(".env file not found, using OS environment.")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.DraftStore {
	case DraftStoreRedis, DraftStoreSQLite:
	default:
		return fmt.Errorf("unknown DRAFT_STORE %q", c.DraftStore)
	}
	if c.DraftTTL < 0 {
		return fmt.Errorf("DRAFT_TTL must not be negative")
	}
	if c.JanitorInterval <= 0 {
		return fmt.Errorf("JANITOR_INTERVAL must be positive")
	}
	if c.SessionIdle <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT must be positive")
	}
	return nil
}

func (c Config) Postgres() database.Config {
	return database.Config{
		Host:       c.DBHost,
		Port:       c.DBPort,
		User:       c.DBUser,
		Password:   c.DBPassword,
		DBName:     c.DBName,
		SSLMode:    c.DBSSLMode,
		MaxRetries: c.DBMaxRetries,
		RetryDelay: c.DBRetryDelay,
	}
}

func (c Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}
