// Package cache 查詢結果與原始 API 回應的緩存實作
package cache

import (
	"context"
	"fmt"

	"nutrition-lookup/internal/core/nutrition"
	"nutrition-lookup/internal/infrastructure/config"
	"nutrition-lookup/internal/pkg/common"

	"go.uber.org/zap"
)

// Store 緩存實作共用介面
type Store interface {
	nutrition.Cache
	GetStats() map[string]interface{}
	Close() error
}

var (
	_ Store = (*Manager)(nil)
	_ Store = (*RedisStore)(nil)
	_ Store = Disabled{}
)

// New 依設定建立緩存：memory | redis | none
func New(cfg config.CacheConfig) (Store, error) {
	switch cfg.Driver {
	case "memory":
		return NewManager(cfg), nil
	case "redis":
		store, err := NewRedisStore(cfg)
		if err != nil {
			return nil, err
		}
		common.LogInfo("Redis 快取已連線", zap.String("addr", cfg.RedisAddr))
		return store, nil
	case "none", "":
		common.LogInfo("Cache disabled")
		return Disabled{}, nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}

// Disabled 停用的緩存：永遠未命中，寫入直接忽略
type Disabled struct{}

// Get 永遠未命中
func (Disabled) Get(context.Context, string, string) ([]byte, bool) { return nil, false }

// Set 忽略寫入
func (Disabled) Set(context.Context, string, []byte, string) error { return nil }

// GetStats 統計
func (Disabled) GetStats() map[string]interface{} {
	return map[string]interface{}{"driver": "none"}
}

// Close 無需釋放資源
func (Disabled) Close() error { return nil }
