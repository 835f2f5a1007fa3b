package nutrition

import (
	"context"
	"sort"
)

// Provider 營養資料來源
type Provider interface {
	// ID 資料來源識別碼
	ID() string

	// IsAvailable 是否可用於此次查詢（功能開關、區域）
	IsAvailable(lc LookupContext) bool

	// GetPriority 優先順序，數值越大越優先；負值代表此區域永不選用
	GetPriority(lc LookupContext) int

	// FindByText 以文字查詢，找不到回傳 nil, nil
	FindByText(ctx context.Context, query string, lc LookupContext) (*ProviderResult, error)
}

// BarcodeProvider 支援條碼查詢的資料來源
type BarcodeProvider interface {
	Provider

	// GetByBarcode 以正規化後的條碼查詢，找不到回傳 nil, nil
	GetByBarcode(ctx context.Context, code string, lc LookupContext) (*ProviderResult, error)
}

// Cache 快取協作介面
type Cache interface {
	Get(ctx context.Context, key, namespace string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, namespace string) error
}

// LocalFoodStore 本地精選食物庫，在任何網路資料來源之前查詢
type LocalFoodStore interface {
	FindLocalFood(ctx context.Context, query, locale string) (*CanonicalFood, error)
}

// RankProviders 篩選可用的資料來源並依優先順序排序（穩定排序，同分保留註冊順序）
func RankProviders(providers []Provider, lc LookupContext) []Provider {
	type ranked struct {
		provider Provider
		priority int
	}

	candidates := make([]ranked, 0, len(providers))
	for _, p := range providers {
		if p == nil || !p.IsAvailable(lc) {
			continue
		}
		priority := p.GetPriority(lc)
		if priority < 0 {
			continue
		}
		candidates = append(candidates, ranked{provider: p, priority: priority})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].priority > candidates[j].priority
	})

	out := make([]Provider, len(candidates))
	for i, c := range candidates {
		out[i] = c.provider
	}
	return out
}
