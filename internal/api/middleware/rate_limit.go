package middleware

import (
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"nutrition-lookup/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// bucket 單一用戶端的令牌桶
type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// RateLimiter 依用戶端分別計算的令牌桶限流器
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	capacity float64
	rate     float64
	idleTTL  time.Duration
	lastGC   time.Time
	now      func() time.Time
}

// NewRateLimiter 創建新的限流器：每個用戶端在 window 內最多 requests 次
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		buckets:  make(map[string]*bucket),
		capacity: float64(requests),
		rate:     float64(requests) / window.Seconds(),
		idleTTL:  2 * window,
		lastGC:   time.Now(),
		now:      time.Now,
	}
}

// Allow 檢查是否允許請求
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.gc(now)

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: rl.capacity, lastSeen: now}
		rl.buckets[key] = b
	}

	// 補充令牌
	elapsed := now.Sub(b.lastSeen).Seconds()
	b.tokens = math.Min(rl.capacity, b.tokens+elapsed*rl.rate)
	b.lastSeen = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// gc 移除閒置的用戶端
func (rl *RateLimiter) gc(now time.Time) {
	if now.Sub(rl.lastGC) < rl.idleTTL {
		return
	}
	for key, b := range rl.buckets {
		if now.Sub(b.lastSeen) > rl.idleTTL {
			delete(rl.buckets, key)
		}
	}
	rl.lastGC = now
}

// RateLimit 限流中間件
func RateLimit(requests int, window time.Duration) gin.HandlerFunc {
	limiter := NewRateLimiter(requests, window)

	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			common.LogInfo("Rate limit exceeded",
				zap.String("ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
			)

			c.Header("Retry-After", fmt.Sprintf("%d", int(math.Ceil(1/limiter.rate))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, common.ErrorResponse{
				Code:    common.ErrCodeTooManyRequests,
				Message: common.ErrTooManyRequests.Message,
			})
			return
		}

		c.Next()
	}
}
