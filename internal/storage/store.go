package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"postexplorer/internal/config"
)

// ErrNotFound is returned by KV backends when a key has no value
var ErrNotFound = errors.New("storage: key not found")

// KV is a durable string key-value backend
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open creates the backend selected by the storage configuration
func Open(cfg config.StorageConfig, log zerolog.Logger) (KV, error) {
	switch cfg.Backend {
	case "", "file":
		return NewFileKV(cfg.Path), nil
	case "redis":
		return NewRedisKV(RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, log)
	case "memory":
		return NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
