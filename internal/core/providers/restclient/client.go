// Package restclient 資料來源共用的 HTTP 客戶端與原始回應快取
package restclient

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"nutrition-lookup/internal/core/nutrition"
	"nutrition-lookup/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ErrNotFound 上游回傳 404
var ErrNotFound = errors.New("upstream resource not found")

// Client 包裝 resty 客戶端，GET 回應會存入 provider_api 命名空間
type Client struct {
	providerID string
	http       *resty.Client
	cache      nutrition.Cache
}

// Options 客戶端選項
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
}

// New 創建資料來源客戶端；cache 可為 nil
func New(providerID string, opts Options, cache nutrition.Cache) *Client {
	client := resty.New().
		SetBaseURL(opts.BaseURL).
		SetHeader("Accept", "application/json")

	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}
	for k, v := range opts.Headers {
		client.SetHeader(k, v)
	}

	return &Client{
		providerID: providerID,
		http:       client,
		cache:      cache,
	}
}

// GetJSON 發送 GET 請求並解析 JSON；成功的回應會被快取
func (c *Client) GetJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	body, err := c.Get(ctx, path, params)
	if err != nil {
		return err
	}
	if err := common.ParseJSONBytes(body, out); err != nil {
		return fmt.Errorf("%s: failed to parse response: %w", c.providerID, err)
	}
	return nil
}

// Get 發送 GET 請求並回傳原始內容
func (c *Client) Get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	key := c.cacheKey(path, params)
	if c.cache != nil {
		if body, ok := c.cache.Get(ctx, key, nutrition.NamespaceProviderAPI); ok {
			common.LogCacheHit(nutrition.NamespaceProviderAPI, key)
			return body, nil
		}
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(params).
		Get(path)
	if err != nil {
		common.LogWarn("資料來源連線失敗",
			zap.String("provider", c.providerID),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%s: request failed: %w", c.providerID, err)
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode() != http.StatusOK:
		common.LogWarn("資料來源回傳錯誤狀態",
			zap.String("provider", c.providerID),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode()),
		)
		return nil, fmt.Errorf("%s: unexpected status %d", c.providerID, resp.StatusCode())
	}

	body := resp.Body()
	if c.cache != nil {
		if err := c.cache.Set(ctx, key, body, nutrition.NamespaceProviderAPI); err != nil {
			common.LogDebug("原始回應快取寫入失敗", zap.String("provider", c.providerID), zap.Error(err))
		}
	}
	return body, nil
}

// cacheKey 以路徑與排序後的查詢參數產生快取鍵
func (c *Client) cacheKey(path string, params url.Values) string {
	hash := sha256.Sum256([]byte(c.http.BaseURL + path + "?" + params.Encode()))
	return fmt.Sprintf("%s:%s:%s", nutrition.NamespaceProviderAPI, c.providerID, hex.EncodeToString(hash[:]))
}
