package restclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (m *memCache) Get(_ context.Context, key, namespace string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[namespace+"|"+key]
	return v, ok
}

func (m *memCache) Set(_ context.Context, key string, value []byte, namespace string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[namespace+"|"+key] = value
	return nil
}

func TestGetJSON_CachesResponses(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"query":"` + r.URL.Query().Get("q") + `","kcal":41.5}`))
	}))
	defer srv.Close()

	client := New("test", Options{
		BaseURL:   srv.URL,
		Timeout:   time.Second,
		UserAgent: "test-agent",
		Headers:   map[string]string{"X-Api-Key": "secret"},
	}, newMemCache())

	var out struct {
		Query string  `json:"query"`
		Kcal  float64 `json:"kcal"`
	}
	ctx := context.Background()
	require.NoError(t, client.GetJSON(ctx, "/search", url.Values{"q": {"carrot"}}, &out))
	assert.Equal(t, "carrot", out.Query)
	assert.Equal(t, 41.5, out.Kcal)

	require.NoError(t, client.GetJSON(ctx, "/search", url.Values{"q": {"carrot"}}, &out))
	assert.Equal(t, int32(1), calls.Load())

	require.NoError(t, client.GetJSON(ctx, "/search", url.Values{"q": {"apple"}}, &out))
	assert.Equal(t, "apple", out.Query)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGet_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	cache := newMemCache()
	client := New("test", Options{BaseURL: srv.URL, Timeout: time.Second}, cache)

	_, err := client.Get(context.Background(), "/missing", nil)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = client.Get(context.Background(), "/broken", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 502")
	assert.Empty(t, cache.data, "failed responses are not cached")
}

func TestGet_NilCacheAndCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := New("test", Options{BaseURL: srv.URL}, nil)
	body, err := client.Get(context.Background(), "/ok", nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(body))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.Get(ctx, "/ok", nil)
	assert.Error(t, err)
}

func TestCacheKey_StableAcrossParamOrder(t *testing.T) {
	client := New("usda", Options{BaseURL: "https://example.test"}, nil)

	a := client.cacheKey("/foods", url.Values{"query": {"oat"}, "pageSize": {"10"}})
	b := client.cacheKey("/foods", url.Values{"pageSize": {"10"}, "query": {"oat"}})
	assert.Equal(t, a, b)
	assert.Contains(t, a, "provider_api:usda:")
	assert.NotEqual(t, a, client.cacheKey("/foods", url.Values{"query": {"rye"}}))
}
