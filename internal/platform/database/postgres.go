package database

import (
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Config struct {
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SSLMode    string
	MaxRetries int
	RetryDelay time.Duration
}

func (cfg Config) DSN() string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName, sslMode)
}

// NewPostgresDB connects with retries so the service can start before the
// database is accepting connections.
func NewPostgresDB(cfg Config) (*sqlx.DB, error) {
	maxRetries := max(cfg.MaxRetries, 1)
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = 2 * time.Second
	}

	var db *sqlx.DB
	var err error

	for i := 1; i <= maxRetries; i++ {
		log.Printf("Connecting to database (Attempt %d/%d)...", i, maxRetries)
		db, err = sqlx.Connect("postgres", cfg.DSN())
		if err == nil {
			log.Println("Database connected successfully!")
			return db, nil
		}

		if i < maxRetries {
			log.Printf("Database not ready yet. Waiting %s...", delay)
			time.Sleep(delay)
		}
	}

	return nil, fmt.Errorf("failed to connect to database: %w", err)
}
