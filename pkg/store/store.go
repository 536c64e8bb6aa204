package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-redis/redis/v9"
)

// Store persists opaque blobs for the decode cache.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte) error
}

var Missing = errors.New("asset missing")

// FSStore keeps blobs as files under a directory.
type FSStore string

func (f FSStore) path(key string) string {
	return filepath.Join(string(f), key)
}

func (f FSStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, Missing
	}
	return data, err
}

func (f FSStore) Set(ctx context.Context, key string, data []byte) error {
	if err := os.MkdirAll(string(f), 0755); err != nil {
		return err
	}
	return os.WriteFile(f.path(key), data, 0644)
}

const (
	CACHE_KEY    = "vango-%s"
	CACHE_EXPIRY = time.Duration(1 * time.Hour)
)

// RedisStore shares the decode cache between processes.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
	}
}

func (r *RedisStore) Get(ctx context.Context, id string) ([]byte, error) {
	key := fmt.Sprintf(CACHE_KEY, id)
	data, err := r.client.Get(ctx, key).Bytes()

	if err == redis.Nil {
		return nil, Missing
	}
	return data, err
}

func (r *RedisStore) Set(ctx context.Context, id string, data []byte) error {
	key := fmt.Sprintf(CACHE_KEY, id)
	return r.client.Set(ctx, key, data, CACHE_EXPIRY).Err()
}
