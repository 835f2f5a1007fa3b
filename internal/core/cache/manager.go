package cache

import (
	"context"
	"sync"
	"time"

	"nutrition-lookup/internal/core/nutrition"
	"nutrition-lookup/internal/infrastructure/config"
	"nutrition-lookup/internal/pkg/common"

	"go.uber.org/zap"
)

// Manager 記憶體緩存管理器
type Manager struct {
	config    config.CacheConfig
	mu        sync.Mutex
	store     map[string]cacheEntry
	stats     cacheStats
	done      chan struct{}
	closeOnce sync.Once
	now       func() time.Time
}

// cacheEntry 緩存條目
type cacheEntry struct {
	value       []byte
	expiresAt   time.Time
	createdAt   time.Time
	lastAccess  time.Time
	accessCount int
}

// cacheStats 緩存統計
type cacheStats struct {
	hits      int64
	misses    int64
	evictions int64
	errors    int64
}

// NewManager 創建新的緩存管理器
func NewManager(cfg config.CacheConfig) *Manager {
	m := &Manager{
		config: cfg,
		store:  make(map[string]cacheEntry),
		done:   make(chan struct{}),
		now:    time.Now,
	}

	// 啟動清理過期緩存的協程
	if cfg.CleanupInterval > 0 {
		go m.startCleanup()
	}

	common.LogInfo("快取管理員已初始化",
		zap.Int("最大容量", cfg.MaxSize),
		zap.Duration("存活時間", cfg.TTL),
		zap.Duration("API存活時間", cfg.APITTL),
		zap.Duration("清理間隔", cfg.CleanupInterval),
	)

	return m
}

// Get 獲取緩存值
func (m *Manager) Get(_ context.Context, key, namespace string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	storeKey := m.storeKey(key, namespace)

	entry, exists := m.store[storeKey]
	if !exists {
		m.stats.misses++
		return nil, false
	}

	// 檢查是否過期
	if m.now().After(entry.expiresAt) {
		delete(m.store, storeKey)
		m.stats.evictions++
		m.stats.misses++
		return nil, false
	}

	// 更新訪問統計
	entry.lastAccess = m.now()
	entry.accessCount++
	m.store[storeKey] = entry
	m.stats.hits++

	return entry.value, true
}

// Set 設置緩存值
func (m *Manager) Set(_ context.Context, key string, value []byte, namespace string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	storeKey := m.storeKey(key, namespace)

	// 檢查緩存大小（覆寫既有條目不需騰出空間）
	if _, exists := m.store[storeKey]; !exists && len(m.store) >= m.config.MaxSize {
		// 清理過期項目
		evicted := m.cleanup()
		common.LogDebug("快取清理執行",
			zap.Int("清理數量", evicted),
		)

		// 如果仍然超過大小限制，執行 LRU 清理
		if len(m.store) >= m.config.MaxSize {
			m.evictLRU()
		}

		// 如果仍然超過大小限制，返回錯誤
		if len(m.store) >= m.config.MaxSize {
			m.stats.errors++
			common.LogWarn("快取已滿",
				zap.Int("目前容量", len(m.store)),
			)
			return common.ErrCacheFull
		}
	}

	// 複製一份，避免呼叫端之後修改切片
	stored := make([]byte, len(value))
	copy(stored, value)

	now := m.now()
	m.store[storeKey] = cacheEntry{
		value:      stored,
		expiresAt:  now.Add(m.ttlFor(namespace)),
		createdAt:  now,
		lastAccess: now,
	}

	return nil
}

// ttlFor 依命名空間取得存活時間
func (m *Manager) ttlFor(namespace string) time.Duration {
	return TTLFor(m.config, namespace)
}

// TTLFor 依命名空間取得存活時間；原始 API 回應使用較短的 APITTL
func TTLFor(cfg config.CacheConfig, namespace string) time.Duration {
	if namespace == nutrition.NamespaceProviderAPI && cfg.APITTL > 0 {
		return cfg.APITTL
	}
	return cfg.TTL
}

// storeKey 生成緩存鍵
func (m *Manager) storeKey(key, namespace string) string {
	return namespace + "|" + key
}

// startCleanup 啟動清理過期緩存的協程，Close 時結束
func (m *Manager) startCleanup() {
	ticker := time.NewTicker(m.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.mu.Lock()
			m.cleanup()
			m.mu.Unlock()
		case <-m.done:
			return
		}
	}
}

// cleanup 清理過期的緩存（呼叫端須持有鎖）
func (m *Manager) cleanup() int {
	now := m.now()
	count := 0

	for key, entry := range m.store {
		if now.After(entry.expiresAt) {
			delete(m.store, key)
			count++
			m.stats.evictions++
		}
	}

	if count > 0 {
		common.LogDebug("Cleaned up expired cache entries",
			zap.Int("count", count),
			zap.Int64("total_evictions", m.stats.evictions),
			zap.Int("remaining_size", len(m.store)),
		)
	}

	return count
}

// evictLRU 執行 LRU 清理（呼叫端須持有鎖）
func (m *Manager) evictLRU() {
	var oldestKey string
	var oldestAccess time.Time
	var lowestAccessCount int

	// 找到最少訪問的項目
	for key, entry := range m.store {
		if oldestKey == "" ||
			entry.accessCount < lowestAccessCount ||
			(entry.accessCount == lowestAccessCount && entry.lastAccess.Before(oldestAccess)) {
			oldestKey = key
			oldestAccess = entry.lastAccess
			lowestAccessCount = entry.accessCount
		}
	}

	if oldestKey != "" {
		delete(m.store, oldestKey)
		m.stats.evictions++
		common.LogDebug("快取已淘汰(LRU)",
			zap.String("鍵", oldestKey),
		)
	}
}

// GetStats 獲取緩存統計信息
func (m *Manager) GetStats() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	ratio := 0.0
	if total := m.stats.hits + m.stats.misses; total > 0 {
		ratio = float64(m.stats.hits) / float64(total)
	}

	return map[string]interface{}{
		"driver":    "memory",
		"size":      len(m.store),
		"max_size":  m.config.MaxSize,
		"hits":      m.stats.hits,
		"misses":    m.stats.misses,
		"evictions": m.stats.evictions,
		"errors":    m.stats.errors,
		"hit_ratio": ratio,
	}
}

// Close 停止清理協程並清空緩存
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		close(m.done)
	})

	m.mu.Lock()
	defer m.mu.Unlock()

	m.store = make(map[string]cacheEntry)
	common.LogInfo("快取管理員已關閉",
		zap.Int64("命中次數", m.stats.hits),
		zap.Int64("未命中次數", m.stats.misses),
		zap.Int64("淘汰次數", m.stats.evictions),
	)
	return nil
}
