package health

import (
	"net/http"
	"runtime"
	"time"

	"nutrition-lookup/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StatusReporter 提供元件狀態
type StatusReporter interface {
	Status() map[string]interface{}
	Ready() bool
}

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status     string                 `json:"status"`
	Timestamp  time.Time              `json:"timestamp"`
	Version    string                 `json:"version"`
	Uptime     string                 `json:"uptime"`
	Runtime    map[string]interface{} `json:"runtime"`
	Components map[string]interface{} `json:"components,omitempty"`
}

// Handler 健康檢查處理器
type Handler struct {
	version  string
	reporter StatusReporter
	started  time.Time
}

// NewHandler 創建健康檢查處理器；reporter 可為 nil
func NewHandler(version string, reporter StatusReporter) *Handler {
	return &Handler{version: version, reporter: reporter, started: time.Now()}
}

// HealthCheck 健康檢查處理器
func (h *Handler) HealthCheck(c *gin.Context) {
	// 獲取運行時信息
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.version,
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}
	if h.reporter != nil {
		response.Components = h.reporter.Status()
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 至少一個資料來源可用才算就緒
func (h *Handler) ReadinessCheck(c *gin.Context) {
	if h.reporter == nil || !h.reporter.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// LivenessCheck 存活檢查處理器
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
