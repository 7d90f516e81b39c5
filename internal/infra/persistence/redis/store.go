// Package redis persists the exhibit collection as a JSON payload under one Redis key.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"exhibitcore/internal/infra/persistence/snapshot"
	"exhibitcore/pkg/domain"
)

var _ domain.ClosableGateway = (*Store)(nil)

// DefaultKey is the key holding the collection when none is configured.
const DefaultKey = "exhibitcore:" + snapshot.Bucket

// Options configures the Redis connection.
type Options struct {
	Addr        string
	Password    string
	DB          int
	Key         string
	DialTimeout time.Duration
}

// Store reads and writes the collection under a single key.
type Store struct {
	client *goredis.Client
	key    string
}

// NewStore connects to Redis and verifies the connection with PING.
func NewStore(ctx context.Context, opts Options) (*Store, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis address required")
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: opts.DialTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewStoreWithClient(client, opts.Key), nil
}

// NewStoreWithClient wraps an existing client. The store takes ownership and closes it on Close.
func NewStoreWithClient(client *goredis.Client, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{client: client, key: key}
}

// Key returns the Redis key in use.
func (s *Store) Key() string { return s.key }

// LoadAll decodes the stored collection; a missing key means an empty collection.
func (s *Store) LoadAll(ctx context.Context) ([]domain.Exhibit, error) {
	payload, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return []domain.Exhibit{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", s.key, err)
	}
	return snapshot.Decode(payload)
}

// SaveAll overwrites the key with the encoded collection.
func (s *Store) SaveAll(ctx context.Context, exhibits []domain.Exhibit) error {
	data, err := snapshot.Encode(exhibits)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", s.key, err)
	}
	return nil
}

// Close closes the underlying client.
func (s *Store) Close() error { return s.client.Close() }
