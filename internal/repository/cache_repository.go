package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/courses-api/pkg/errors"
)

const cacheNamespace = "courses:"

// cacheEntry wraps a cached payload with the time it was written so readers
// can report staleness.
type cacheEntry struct {
	StoredAt time.Time       `json:"stored_at"`
	Value    json.RawMessage `json:"value"`
}

// CacheRepository stores JSON snapshots in Redis under the service namespace.
type CacheRepository struct {
	client *redis.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewCacheRepository constructs a cache repository. A nil client behaves as
// an always-empty cache.
func NewCacheRepository(client *redis.Client, logger *zap.Logger) *CacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheRepository{client: client, logger: logger, now: time.Now}
}

// Get decodes the snapshot stored under key into dest and returns when it was
// written. appErrors.ErrCacheMiss is returned for absent keys.
func (r *CacheRepository) Get(ctx context.Context, key string, dest interface{}) (time.Time, error) {
	if r.client == nil {
		return time.Time{}, appErrors.ErrCacheMiss
	}

	raw, err := r.client.Get(ctx, cacheNamespace+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, appErrors.ErrCacheMiss
		}
		return time.Time{}, fmt.Errorf("redis get %s: %w", key, err)
	}
	return decodeEntry(raw, dest)
}

// Set stores value under key for ttl.
func (r *CacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}

	payload, err := encodeEntry(value, r.now().UTC())
	if err != nil {
		return fmt.Errorf("encode cache value for %s: %w", key, err)
	}
	if err := r.client.Set(ctx, cacheNamespace+key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	r.logger.Debug("cache entry stored", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

// Delete drops the snapshot stored under key.
func (r *CacheRepository) Delete(ctx context.Context, key string) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Del(ctx, cacheNamespace+key).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}

func encodeEntry(value interface{}, storedAt time.Time) ([]byte, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(cacheEntry{StoredAt: storedAt, Value: raw})
}

func decodeEntry(raw []byte, dest interface{}) (time.Time, error) {
	var entry cacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return time.Time{}, fmt.Errorf("decode cache entry: %w", err)
	}
	if len(entry.Value) == 0 {
		return time.Time{}, appErrors.ErrCacheMiss
	}
	if err := json.Unmarshal(entry.Value, dest); err != nil {
		return time.Time{}, fmt.Errorf("decode cache value: %w", err)
	}
	return entry.StoredAt, nil
}
