package middleware

import (
	"net/http"
	"time"

	"nutrition-lookup/internal/core/nutrition"
	"nutrition-lookup/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const lookupLogKey = "nutrition_lookup_log"

// LookupLog 營養查詢請求附加在存取日誌上的欄位
type LookupLog struct {
	Query      string
	Barcode    string
	Locale     string
	Mode       string
	Provider   string
	Source     string
	Confidence float64
	Suspicious bool
}

// AnnotateLookup 記錄查詢輸入，由處理器在呼叫服務前填入
func AnnotateLookup(c *gin.Context, entry LookupLog) {
	c.Set(lookupLogKey, entry)
}

// AnnotateResult 補上命中的來源與信心值
func AnnotateResult(c *gin.Context, result *nutrition.ProviderResult) {
	if result == nil || result.Food == nil {
		return
	}
	entry, _ := lookupLogFrom(c)
	entry.Provider = result.Food.ProviderID
	entry.Confidence = result.Confidence
	entry.Suspicious = result.IsSuspicious
	entry.Source = "providers"
	if src, ok := result.Debug["source"].(string); ok {
		entry.Source = src
	}
	c.Set(lookupLogKey, entry)
}

func lookupLogFrom(c *gin.Context) (LookupLog, bool) {
	v, ok := c.Get(lookupLogKey)
	if !ok {
		return LookupLog{}, false
	}
	entry, ok := v.(LookupLog)
	return entry, ok
}

func (l LookupLog) fields() []zap.Field {
	fields := []zap.Field{zap.String("locale", l.Locale)}
	if l.Query != "" {
		fields = append(fields, zap.String("food_query", l.Query), zap.String("mode", l.Mode))
	}
	if l.Barcode != "" {
		fields = append(fields, zap.String("barcode", l.Barcode))
	}
	if l.Provider == "" {
		return append(fields, zap.Bool("matched", false))
	}
	return append(fields,
		zap.Bool("matched", true),
		zap.String("provider", l.Provider),
		zap.String("source", l.Source),
		zap.Float64("confidence", l.Confidence),
		zap.Bool("suspicious", l.Suspicious),
	)
}

// Logger 存取日誌；查詢路由另附食物名稱、語系與命中來源
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.String("path", c.Request.URL.Path),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", requestid.Get(c)),
			zap.String("ip", c.ClientIP()),
		}
		if raw := c.Request.URL.RawQuery; raw != "" {
			fields = append(fields, zap.String("raw_query", raw))
		}
		if entry, ok := lookupLogFrom(c); ok {
			fields = append(fields, entry.fields()...)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}

		switch {
		case status >= http.StatusInternalServerError:
			common.LogError("伺服器錯誤", fields...)
		case status >= http.StatusBadRequest:
			common.LogWarn("用戶端錯誤", fields...)
		default:
			common.LogInfo("請求完成", fields...)
		}
	}
}

// Recovery 恢復中間件
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				common.LogError("Panic recovered",
					zap.Any("error", err),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
					zap.String("request_id", requestid.Get(c)),
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError, common.ErrorResponse{
					Code:    common.ErrCodeInternalError,
					Message: common.ErrInternalError.Message,
				})
			}
		}()

		c.Next()
	}
}
