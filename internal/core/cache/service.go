package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"allergy-menu-guard/internal/infrastructure/config"
	"allergy-menu-guard/internal/pkg/common"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "allergy-guard:"

// Service Redis 緩存服務，多個 API 實例共用
type Service struct {
	client *redis.Client
	config *config.CacheConfig
	hits   int64
	misses int64
}

// NewService 創建 Redis 緩存服務並測試連線
func NewService(cfg *config.CacheConfig) (*Service, error) {
	client := newClient(cfg)

	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Service{
		client: client,
		config: cfg,
	}, nil
}

func newClient(cfg *config.CacheConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

// Get 獲取緩存
func (s *Service) Get(ctx context.Context, key string) (string, error) {
	data, err := s.client.Get(ctx, keyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			atomic.AddInt64(&s.misses, 1)
			common.LogCacheMiss("redis")
			return "", common.ErrCacheMiss
		}
		return "", fmt.Errorf("failed to get cache: %w", err)
	}

	atomic.AddInt64(&s.hits, 1)
	common.LogCacheHit("redis")
	return data, nil
}

// Set 設置緩存
func (s *Service) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, keyPrefix+key, value, s.config.TTL).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// GetStats 緩存統計
func (s *Service) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"backend": "redis",
		"addr":    s.config.RedisAddr,
		"hits":    atomic.LoadInt64(&s.hits),
		"misses":  atomic.LoadInt64(&s.misses),
	}
}

// Close 關閉連線
func (s *Service) Close() error {
	return s.client.Close()
}
