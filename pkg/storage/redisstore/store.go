// Package redisstore persists catalog records as plain redis strings, one key
// per logical record.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/shelfplanner/pkg/storage"
)

// Client is the redis surface the store needs. The pkg/redis Client
// satisfies it.
type Client interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	RecordKey(name string) string
	Ping(ctx context.Context) error
}

// Store implements storage.Adapter over redis.
type Store struct {
	client Client
	miss   error
}

// New wraps the client. miss is the sentinel the client returns for absent keys.
func New(client Client, miss error) *Store {
	return &Store{client: client, miss: miss}
}

// Read loads the value stored at key.
func (s *Store) Read(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.GetBytes(ctx, s.client.RecordKey(key))
	if err != nil {
		if s.miss != nil && errors.Is(err, s.miss) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, nil
}

// Write stores value at key without expiry.
func (s *Store) Write(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.client.RecordKey(key), value, 0); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Ping verifies the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}
