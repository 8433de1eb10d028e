// Package redis implements ports.ExecutionStore on Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/statelyhq/stately/pkg/domain"
	"github.com/statelyhq/stately/pkg/ports"
)

// Store persists execution snapshots under prefixed keys, with an index
// set for listing.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets the expiration for stored snapshots.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithPrefix sets the key prefix for snapshots.
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// New creates a Redis store with its own client.
func New(address, password string, db int, opts ...Option) *Store {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "stately:execution:",
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

var _ ports.ExecutionStore = (*Store)(nil)

func (s *Store) key(name string) string { return s.prefix + name }

func (s *Store) indexKey() string { return s.prefix + "index" }

// Save persists the snapshot and registers it in the index set.
func (s *Store) Save(ctx context.Context, name string, snap *domain.Snapshot) error {
	if name == "" {
		return fmt.Errorf("execution name cannot be empty")
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(name), data, s.ttl)
	pipe.SAdd(ctx, s.indexKey(), name)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Load retrieves a snapshot, or ports.ErrExecutionNotFound.
func (s *Store) Load(ctx context.Context, name string) (*domain.Snapshot, error) {
	if name == "" {
		return nil, fmt.Errorf("execution name cannot be empty")
	}
	data, err := s.client.Get(ctx, s.key(name)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, ports.ErrExecutionNotFound
		}
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// Delete removes a snapshot and its index entry.
func (s *Store) Delete(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("execution name cannot be empty")
	}
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(name))
	pipe.SRem(ctx, s.indexKey(), name)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// List returns the names in the index set. Entries whose snapshot key has
// expired are pruned lazily.
func (s *Store) List(ctx context.Context) ([]string, error) {
	names, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}

	if s.ttl > 0 {
		live := names[:0]
		for _, name := range names {
			exists, err := s.client.Exists(ctx, s.key(name)).Result()
			if err != nil {
				return nil, fmt.Errorf("failed to check execution %s: %w", name, err)
			}
			if exists > 0 {
				live = append(live, name)
			} else {
				_ = s.client.SRem(ctx, s.indexKey(), name).Err()
			}
		}
		names = live
	}
	return names, nil
}
