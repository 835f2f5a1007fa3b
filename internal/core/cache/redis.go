package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"nutrition-lookup/internal/infrastructure/config"
	"nutrition-lookup/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// keyPrefix 所有 Redis 鍵的前綴
const keyPrefix = "nutrition-lookup:"

// RedisStore Redis 緩存
type RedisStore struct {
	client   *redis.Client
	config   config.CacheConfig
	hits     atomic.Int64
	misses   atomic.Int64
	failures atomic.Int64
}

// NewRedisStore 創建 Redis 緩存並測試連接
func NewRedisStore(cfg config.CacheConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	// 測試連接
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisStoreWithClient(client, cfg), nil
}

// NewRedisStoreWithClient 使用既有的 client 建立 Redis 緩存
func NewRedisStoreWithClient(client *redis.Client, cfg config.CacheConfig) *RedisStore {
	return &RedisStore{client: client, config: cfg}
}

// Get 獲取緩存；連線錯誤視為未命中
func (s *RedisStore) Get(ctx context.Context, key, namespace string) ([]byte, bool) {
	data, err := s.client.Get(ctx, s.redisKey(key, namespace)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.failures.Add(1)
			common.LogWarn("讀取 Redis 快取失敗", zap.String("key", key), zap.Error(err))
		}
		s.misses.Add(1)
		return nil, false
	}

	s.hits.Add(1)
	return data, true
}

// Set 設置緩存
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, namespace string) error {
	if err := s.client.Set(ctx, s.redisKey(key, namespace), value, TTLFor(s.config, namespace)).Err(); err != nil {
		s.failures.Add(1)
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// redisKey 生成 Redis 鍵
func (s *RedisStore) redisKey(key, namespace string) string {
	return keyPrefix + namespace + "|" + key
}

// GetStats 獲取緩存統計信息
func (s *RedisStore) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"driver": "redis",
		"addr":   s.config.RedisAddr,
		"hits":   s.hits.Load(),
		"misses": s.misses.Load(),
		"errors": s.failures.Load(),
	}
}

// Close 關閉連線
func (s *RedisStore) Close() error {
	return s.client.Close()
}
