// Package sqlitedraft keeps wizard drafts in a local SQLite file.
package sqlitedraft

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/srgjo27/campsite_booking/internal/adapter/storage/sqlitedraft/migrations"
	"github.com/srgjo27/campsite_booking/internal/core/ports"
	"github.com/srgjo27/campsite_booking/internal/platform/database"
	_ "modernc.org/sqlite"
)

type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Open opens the SQLite file at path and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := database.ApplySQLiteMigrations(context.Background(), sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	var blob []byte
	err := s.sqlDB.QueryRowContext(ctx, `SELECT blob FROM drafts WHERE storage_key = ?`, key).Scan(&blob)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ports.ErrDraftNotFound
		}
		return nil, fmt.Errorf("load draft: %w", err)
	}
	return blob, nil
}

func (s *Store) Save(ctx context.Context, key string, blob []byte) error {
	_, err := s.sqlDB.ExecContext(ctx, `
		INSERT INTO drafts (storage_key, blob, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(storage_key) DO UPDATE SET blob = excluded.blob, updated_at = excluded.updated_at`,
		key, blob, s.now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM drafts WHERE storage_key = ?`, key); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}

// PurgeStale deletes drafts last saved before updatedBefore.
func (s *Store) PurgeStale(ctx context.Context, updatedBefore time.Time) (int, error) {
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM drafts WHERE updated_at < ?`, updatedBefore.UTC().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("purge drafts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
