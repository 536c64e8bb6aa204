package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"

	"github.com/openvange/vango/pkg/m3d"
	"github.com/openvange/vango/pkg/terrain"
)

// Cache keeps zstd-compressed CBOR snapshots of decoded assets, keyed by a
// hash of the source bytes, so repeated loads of unchanged files skip the
// decode entirely.
type Cache struct {
	store Store
	enc   *zstd.Encoder
	dec   *zstd.Decoder
}

func NewCache(store Store) (*Cache, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	return &Cache{
		store: store,
		enc:   enc,
		dec:   dec,
	}, nil
}

// Key derives the cache key for one source blob.
func Key(kind string, source []byte) string {
	return fmt.Sprintf("%s-%016x", kind, xxhash.Sum64(source))
}

// Get fetches and decodes a cached value into value, which must be a
// pointer. Returns Missing when the key has no entry.
func (c *Cache) Get(ctx context.Context, key string, value any) error {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		return err
	}
	blob, err := c.dec.DecodeAll(data, nil)
	if err != nil {
		return fmt.Errorf("cache entry %s: %w", key, err)
	}
	return cbor.Unmarshal(blob, value)
}

// Put encodes and stores a value under key.
func (c *Cache) Put(ctx context.Context, key string, value any) error {
	blob, err := cbor.Marshal(value)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, key, c.enc.EncodeAll(blob, nil))
}

// Model returns the decoded model for path, consulting the cache first.
// Cache failures are logged and fall back to a fresh decode.
func (c *Cache) Model(ctx context.Context, path string, compact bool) (*m3d.Model, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	kind := "m3d"
	if compact {
		kind = "m3d-compact"
	}
	key := Key(kind, source)

	model := m3d.Model{}
	err = c.Get(ctx, key, &model)
	if err == nil {
		log.Debug().Str("key", key).Msg("model cache hit")
		return &model, nil
	}
	if !errors.Is(err, Missing) {
		log.Warn().Err(err).Str("key", key).Msg("model cache read failed")
	}

	decoded, err := m3d.ReadModel(bytes.NewReader(source), compact)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := c.Put(ctx, key, decoded); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("model cache write failed")
	}
	return decoded, nil
}

// LevelKey derives the cache key for a level. The digest covers the three
// source files and the decode parameters from the config, so touching any
// of them invalidates the entry.
func LevelKey(config *terrain.LevelConfig) (string, error) {
	params, err := cbor.Marshal(struct {
		Size     [2]int32
		Geo      int32
		Section  int32
		Terrains []terrain.TerrainConfig
	}{config.Size, config.Geo, config.Section, config.Terrains})
	if err != nil {
		return "", err
	}

	digest := xxhash.New()
	digest.Write(params)
	for _, path := range []string{config.FloodPath, config.GridPath, config.PalettePath} {
		f, err := os.Open(path)
		if err != nil {
			return "", err
		}
		_, err = io.Copy(digest, f)
		f.Close()
		if err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("level-%016x", digest.Sum64()), nil
}

// Level returns the decoded level for a config, consulting the cache first.
func (c *Cache) Level(ctx context.Context, config *terrain.LevelConfig) (*terrain.Level, error) {
	key, err := LevelKey(config)
	if err != nil {
		return nil, err
	}

	level := terrain.Level{}
	err = c.Get(ctx, key, &level)
	if err == nil {
		log.Debug().Str("key", key).Msg("level cache hit")
		return &level, nil
	}
	if !errors.Is(err, Missing) {
		log.Warn().Err(err).Str("key", key).Msg("level cache read failed")
	}

	decoded, err := terrain.Load(config)
	if err != nil {
		return nil, err
	}
	if err := c.Put(ctx, key, decoded); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("level cache write failed")
	}
	return decoded, nil
}
