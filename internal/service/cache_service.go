package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/courses-api/pkg/errors"
)

// CacheRepository persists JSON snapshots with their write time.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) (time.Time, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// CacheLookup describes the outcome of a cache read.
type CacheLookup struct {
	Hit      bool
	StoredAt time.Time
}

// CacheService wraps the snapshot store with hit/miss instrumentation.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
}

// NewCacheService constructs a cache service. A nil repo disables caching.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger}
}

// Enabled indicates whether a backing store is configured.
func (s *CacheService) Enabled() bool {
	return s != nil && s.repo != nil
}

// Get decodes the snapshot under key into dest. Misses are not errors.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (CacheLookup, error) {
	if !s.Enabled() {
		return CacheLookup{}, nil
	}
	start := time.Now()
	storedAt, err := s.repo.Get(ctx, key, dest)
	hit := err == nil
	s.metrics.RecordCacheOperation(hit, time.Since(start))
	switch {
	case hit:
		return CacheLookup{Hit: true, StoredAt: storedAt}, nil
	case errors.Is(err, appErrors.ErrCacheMiss):
		return CacheLookup{}, nil
	default:
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return CacheLookup{}, err
	}
}

// Set stores value under key. A non-positive ttl uses the default.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Invalidate drops the snapshot under key.
func (s *CacheService) Invalidate(ctx context.Context, key string) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.Delete(ctx, key); err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}
