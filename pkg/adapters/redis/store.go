package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/automat/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by the store and the locker.
const DefaultPrefix = "automat:snapshot:"

// farFuture scores index members that never expire (2100-01-01).
const farFuture = 4102444800

// Store implements ports.SnapshotStore using Redis. Snapshots are JSON
// strings; a sorted set scored by expiry time indexes them for List.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithTTL expires snapshots that are not saved again within ttl.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New connects to the Redis server at address.
func New(address, password string, db int, opts ...Option) *Store {
	return NewFromClient(backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	}), opts...)
}

// NewFromClient creates a Store over an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	s := &Store{client: client, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Client exposes the underlying client, e.g. to share it with a Locker.
func (s *Store) Client() *backend.Client { return s.client }

func (s *Store) key(id string) string { return s.prefix + id }

func (s *Store) indexKey() string { return s.prefix + "index" }

// Save writes the snapshot and refreshes its index entry in one pipeline.
func (s *Store) Save(ctx context.Context, id string, snap *domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = farFuture
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(id), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: id})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load reads the snapshot.
func (s *Store) Load(ctx context.Context, id string) (*domain.Snapshot, error) {
	val, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(val, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot %q: %w", id, err)
	}
	return &snap, nil
}

// Delete removes the snapshot and its index entry.
func (s *Store) Delete(ctx context.Context, id string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(id))
	pipe.ZRem(ctx, s.indexKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	return nil
}

// List prunes expired index entries, then returns the remaining ids.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err(); err != nil {
		return nil, fmt.Errorf("failed to prune expired snapshots: %w", err)
	}

	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return ids, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
