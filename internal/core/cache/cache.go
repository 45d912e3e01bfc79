package cache

import (
	"context"
	"fmt"

	"allergy-menu-guard/internal/infrastructure/config"
)

// Cache 分析結果快取，記憶體與 Redis 兩種實作
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	GetStats() map[string]interface{}
	Close() error
}

// New 依設定建立快取；停用時回傳 nil
func New(cfg *config.Config) (Cache, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}

	switch cfg.Cache.Backend {
	case "redis":
		return NewService(&cfg.Cache)
	case "", "memory":
		return NewManager(cfg), nil
	default:
		return nil, fmt.Errorf("unknown cache backend: %s", cfg.Cache.Backend)
	}
}
