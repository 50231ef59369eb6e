// Package redisdraft keeps wizard drafts in Redis with a sliding expiry.
package redisdraft

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/srgjo27/campsite_booking/internal/core/ports"
)

type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// New returns a store whose entries expire ttl after their last save. A zero
// ttl keeps entries forever.
func New(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	blob, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ports.ErrDraftNotFound
		}
		return nil, fmt.Errorf("load draft: %w", err)
	}
	return blob, nil
}

func (s *Store) Save(ctx context.Context, key string, blob []byte) error {
	if err := s.client.Set(ctx, key, blob, s.ttl).Err(); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}
