// Package lookup 營養查詢 HTTP 處理器
package lookup

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"nutrition-lookup/internal/api/middleware"
	"nutrition-lookup/internal/core/nutrition"
	"nutrition-lookup/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Service 查詢服務
type Service interface {
	FindNutrition(ctx context.Context, query string, lc nutrition.LookupContext) (*nutrition.ProviderResult, error)
	FindByBarcode(ctx context.Context, barcode string, lc nutrition.LookupContext) (*nutrition.ProviderResult, error)
}

// Request 文字查詢請求
type Request struct {
	Query        string  `json:"query" binding:"required"`
	Locale       string  `json:"locale"`
	Region       string  `json:"region"`
	CategoryHint string  `json:"category_hint"`
	Mode         string  `json:"mode"`
	PortionGrams float64 `json:"portion_grams"`
	Debug        bool    `json:"debug"`
}

// Response 查詢回應
type Response struct {
	RequestID    string                       `json:"request_id,omitempty"`
	Food         *nutrition.CanonicalFood     `json:"food"`
	Confidence   float64                      `json:"confidence"`
	IsSuspicious bool                         `json:"is_suspicious"`
	PortionGrams float64                      `json:"portion_grams"`
	Portion      nutrition.CanonicalNutrients `json:"portion"`
	Debug        map[string]interface{}       `json:"debug,omitempty"`
}

// Handler 查詢處理器
type Handler struct {
	service Service
	debug   bool
}

// NewHandler 創建查詢處理器；debug 為 true 時錯誤回應包含細節
func NewHandler(service Service, debug bool) *Handler {
	return &Handler{service: service, debug: debug}
}

// HandleLookup POST /api/v1/nutrition/lookup
func (h *Handler) HandleLookup(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, common.NewValidationError("invalid request body: "+err.Error()))
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		h.respondError(c, common.NewValidationError("query is required"))
		return
	}
	if req.PortionGrams < 0 {
		h.respondError(c, common.NewValidationError("portion_grams must not be negative"))
		return
	}

	lc := nutrition.LookupContext{
		Locale:       req.Locale,
		Region:       nutrition.Region(req.Region),
		CategoryHint: nutrition.CategoryHint(req.CategoryHint),
		Mode:         nutrition.Mode(req.Mode),
	}
	middleware.AnnotateLookup(c, middleware.LookupLog{Query: req.Query, Locale: req.Locale, Mode: req.Mode})

	result, err := h.service.FindNutrition(c.Request.Context(), req.Query, lc)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, result, req.PortionGrams, req.Debug)
}

// HandleBarcode GET /api/v1/nutrition/barcode/:code
func (h *Handler) HandleBarcode(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	if nutrition.NormalizeBarcode(code) == "" {
		h.respondError(c, common.ErrInvalidBarcode)
		return
	}

	lc := nutrition.LookupContext{
		Locale: c.Query("locale"),
		Region: nutrition.Region(c.Query("region")),
	}
	middleware.AnnotateLookup(c, middleware.LookupLog{Barcode: code, Locale: lc.Locale})

	result, err := h.service.FindByBarcode(c.Request.Context(), code, lc)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respond(c, result, 0, c.Query("debug") == "true")
}

func (h *Handler) respond(c *gin.Context, result *nutrition.ProviderResult, portion float64, debug bool) {
	if result == nil || result.Food == nil {
		h.respondError(c, common.ErrNutritionUnknown)
		return
	}

	middleware.AnnotateResult(c, result)

	if portion <= 0 {
		portion = result.Food.DefaultPortionG
	}

	resp := Response{
		RequestID:    requestid.Get(c),
		Food:         result.Food,
		Confidence:   result.Confidence,
		IsSuspicious: result.IsSuspicious,
		PortionGrams: portion,
		Portion:      ScaleNutrients(result.Food.Per100g, portion),
	}
	if debug {
		resp.Debug = result.Debug
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	if errors.Is(err, nutrition.ErrInvalidContext) {
		err = common.NewValidationError(err.Error())
	}

	status, body := common.ToErrorResponse(err, h.debug)
	if status >= http.StatusInternalServerError {
		common.LogError("營養查詢失敗",
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", requestid.Get(c)),
			zap.Error(err),
		)
	}
	c.AbortWithStatusJSON(status, body)
}

// ScaleNutrients 將每 100g 數值換算為指定份量；缺少的營養素維持 nil
func ScaleNutrients(per100g nutrition.CanonicalNutrients, grams float64) nutrition.CanonicalNutrients {
	factor := grams / 100
	scale := func(v *float64) *float64 {
		if v == nil {
			return nil
		}
		return nutrition.Float(*v * factor)
	}

	return nutrition.CanonicalNutrients{
		Calories: scale(per100g.Calories),
		Protein:  scale(per100g.Protein),
		Carbs:    scale(per100g.Carbs),
		Fat:      scale(per100g.Fat),
		Fiber:    scale(per100g.Fiber),
		Sugars:   scale(per100g.Sugars),
		SatFat:   scale(per100g.SatFat),
		Sodium:   scale(per100g.Sodium),
	}
}
