package cli

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/aretw0/automat/pkg/adapters/file"
	"github.com/aretw0/automat/pkg/adapters/memory"
	"github.com/aretw0/automat/pkg/adapters/redis"
	"github.com/aretw0/automat/pkg/persistence/middleware"
	"github.com/aretw0/automat/pkg/ports"
)

// StoreOptions selects and configures the snapshot store.
type StoreOptions struct {
	// Kind is memory, file or redis.
	Kind          string
	Dir           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	// EncryptionKey, hex or base64 encoded, turns on snapshot encryption.
	EncryptionKey string
	// FallbackKeys decrypt snapshots written before a key rotation.
	FallbackKeys []string
}

// Persistence is an opened store with its optional distributed locker.
type Persistence struct {
	Store  ports.SnapshotStore
	Locker ports.DistributedLocker
	close  func() error
}

// Close releases the store's connections.
func (p *Persistence) Close() error {
	if p.close == nil {
		return nil
	}
	return p.close()
}

// OpenStore builds the store described by opts. Only redis comes with a
// distributed locker.
func OpenStore(opts StoreOptions) (*Persistence, error) {
	p, err := openStore(opts)
	if err != nil {
		return nil, err
	}
	if opts.EncryptionKey == "" {
		return p, nil
	}

	cfg := middleware.EncryptionConfig{}
	if cfg.ActiveKey, err = ParseKey(opts.EncryptionKey); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("encryption key: %w", err)
	}
	for i, k := range opts.FallbackKeys {
		key, err := ParseKey(k)
		if err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("fallback key %d: %w", i, err)
		}
		cfg.FallbackKeys = append(cfg.FallbackKeys, key)
	}
	encrypt, err := middleware.NewEncryptionMiddleware(cfg)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	p.Store = middleware.Chain(p.Store, encrypt)
	return p, nil
}

// ParseKey decodes a 32 byte key given as hex or base64.
func ParseKey(s string) ([]byte, error) {
	if key, err := hex.DecodeString(s); err == nil && len(key) == 32 {
		return key, nil
	}
	if key, err := base64.StdEncoding.DecodeString(s); err == nil && len(key) == 32 {
		return key, nil
	}
	return nil, middleware.ErrInvalidKey
}

func openStore(opts StoreOptions) (*Persistence, error) {
	switch opts.Kind {
	case "", "memory":
		return &Persistence{Store: memory.NewStore()}, nil
	case "file":
		return &Persistence{Store: file.New(opts.Dir)}, nil
	case "redis":
		if opts.RedisAddr == "" {
			return nil, fmt.Errorf("redis store requires --redis-addr")
		}
		prefix := opts.RedisPrefix
		if prefix == "" {
			prefix = redis.DefaultPrefix
		}
		store := redis.New(opts.RedisAddr, opts.RedisPassword, opts.RedisDB, redis.WithPrefix(prefix))
		return &Persistence{
			Store:  store,
			Locker: redis.NewLocker(store.Client(), prefix),
			close:  store.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown store %q: use memory, file or redis", opts.Kind)
}
