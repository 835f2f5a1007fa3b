package nutrition

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"nutrition-lookup/internal/infrastructure/config"
)

// fakeProvider 可設定回傳值、延遲與阻塞行為的資料來源
type fakeProvider struct {
	id        string
	priority  map[Region]int
	fallback  int
	disabled  bool
	result    *ProviderResult
	err       error
	delay     time.Duration
	release   chan struct{}
	panicMsg  string
	calls     atomic.Int32
	lastQuery atomic.Value
}

func newFakeProvider(id string, priority int, result *ProviderResult) *fakeProvider {
	return &fakeProvider{id: id, fallback: priority, result: result}
}

func (f *fakeProvider) ID() string { return f.id }

func (f *fakeProvider) IsAvailable(LookupContext) bool { return !f.disabled }

func (f *fakeProvider) GetPriority(lc LookupContext) int {
	if p, ok := f.priority[lc.Region]; ok {
		return p
	}
	return f.fallback
}

func (f *fakeProvider) FindByText(ctx context.Context, query string, _ LookupContext) (*ProviderResult, error) {
	f.calls.Add(1)
	f.lastQuery.Store(query)
	return f.respond(ctx)
}

func (f *fakeProvider) respond(ctx context.Context) (*ProviderResult, error) {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.release != nil {
		// 故意忽略 ctx，模擬不理會取消的資料來源
		<-f.release
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.result, f.err
}

// fakeBarcodeProvider 支援條碼查詢
type fakeBarcodeProvider struct {
	*fakeProvider
	barcodeResult *ProviderResult
	barcodeCalls  atomic.Int32
	lastCode      atomic.Value
}

func (f *fakeBarcodeProvider) GetByBarcode(ctx context.Context, code string, _ LookupContext) (*ProviderResult, error) {
	f.barcodeCalls.Add(1)
	f.lastCode.Store(code)
	if f.err != nil {
		return nil, f.err
	}
	return f.barcodeResult, nil
}

// memCache 測試用快取
type memCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	gets    int
	sets    int
	failSet bool
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (m *memCache) Get(_ context.Context, key, namespace string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	v, ok := m.data[namespace+"|"+key]
	return v, ok
}

func (m *memCache) Set(_ context.Context, key string, value []byte, namespace string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if m.failSet {
		return errors.New("cache unavailable")
	}
	m.data[namespace+"|"+key] = value
	return nil
}

func (m *memCache) has(namespace, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[namespace+"|"+key]
	return ok
}

// fakeLocalStore 測試用本地食物庫
type fakeLocalStore struct {
	foods map[string]*CanonicalFood
	err   error
	calls atomic.Int32
}

func (f *fakeLocalStore) FindLocalFood(_ context.Context, query, _ string) (*CanonicalFood, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.foods[query], nil
}

func testConfig() *config.Config {
	return &config.Config{
		Cache: config.CacheConfig{Driver: "memory", Version: "test"},
		Lookup: config.LookupConfig{
			DefaultTimeout:       300 * time.Millisecond,
			DefaultConfidence:    0.7,
			TieEpsilon:           0.02,
			BarcodeMinConfidence: 0.7,
			LocalFastPath:        true,
		},
	}
}

func solidFood(providerID, name string, kcal float64) *CanonicalFood {
	return &CanonicalFood{
		ProviderID:      providerID,
		ProviderFoodID:  providerID + "-1",
		DisplayName:     name,
		Category:        CategorySolid,
		Per100g:         CanonicalNutrients{Calories: Float(kcal)},
		DefaultPortionG: DefaultSolidPortion,
	}
}

func result(food *CanonicalFood, confidence float64, suspicious bool) *ProviderResult {
	return &ProviderResult{Food: food, Confidence: confidence, IsSuspicious: suspicious}
}
