// Package nutrition 營養查詢協調器：資料模型、資料來源合約、區域解析、驗證與結果選擇
package nutrition

import (
	"errors"
	"fmt"
	"strings"

	"nutrition-lookup/internal/core/matching"
)

// Mode 查詢模式
type Mode = matching.Mode

// Outcome 驗證結果
type Outcome = matching.Outcome

const (
	ModeIngredient = matching.ModeIngredient
	ModePackaged   = matching.ModePackaged
)

// Region 資料來源區域
type Region string

const (
	RegionUS    Region = "US"
	RegionCH    Region = "CH"
	RegionEU    Region = "EU"
	RegionOther Region = "OTHER"
)

// FoodCategory 食物型態（影響預設份量與合理熱量區間）
type FoodCategory string

const (
	CategoryDrink   FoodCategory = "drink"
	CategorySolid   FoodCategory = "solid"
	CategoryUnknown FoodCategory = "unknown"
)

// CategoryHint 呼叫端提供的食物類別預期
type CategoryHint string

const (
	HintNone   CategoryHint = ""
	HintVeg    CategoryHint = "veg"
	HintGrain  CategoryHint = "grain"
	HintLegume CategoryHint = "legume"
	HintFruit  CategoryHint = "fruit"
)

// 預設份量（公克/毫升）
const (
	DefaultDrinkPortion = 250
	DefaultSolidPortion = 100
)

// ErrInvalidContext 查詢參數格式錯誤（程式錯誤，非查無資料）
var ErrInvalidContext = errors.New("invalid lookup context")

// CanonicalNutrients 每 100g/100ml 的營養素，nil 表示來源未提供（不等於 0）
type CanonicalNutrients struct {
	Calories *float64 `json:"calories,omitempty"`
	Protein  *float64 `json:"protein,omitempty"`
	Carbs    *float64 `json:"carbs,omitempty"`
	Fat      *float64 `json:"fat,omitempty"`
	Fiber    *float64 `json:"fiber,omitempty"`
	Sugars   *float64 `json:"sugars,omitempty"`
	SatFat   *float64 `json:"sat_fat,omitempty"`
	// Sodium 單位為毫克
	Sodium *float64 `json:"sodium,omitempty"`
}

// CanonicalFood 與資料來源無關的標準食物表示。建立後不應再修改
type CanonicalFood struct {
	ProviderID      string             `json:"provider_id"`
	ProviderFoodID  string             `json:"provider_food_id"`
	DisplayName     string             `json:"display_name"`
	OriginalQuery   string             `json:"original_query"`
	Category        FoodCategory       `json:"category"`
	Per100g         CanonicalNutrients `json:"per_100g"`
	DefaultPortionG float64            `json:"default_portion_g"`
	Meta            map[string]string  `json:"meta,omitempty"`
}

// DefaultPortion 依食物型態取得預設份量
func DefaultPortion(category FoodCategory) float64 {
	if category == CategoryDrink {
		return DefaultDrinkPortion
	}
	return DefaultSolidPortion
}

// LookupContext 單次查詢的參數
type LookupContext struct {
	Locale        string       `json:"locale"`
	Region        Region       `json:"region,omitempty"`
	CategoryHint  CategoryHint `json:"category_hint,omitempty"`
	Mode          Mode         `json:"mode,omitempty"`
	OriginalQuery string       `json:"original_query,omitempty"`
}

// normalized 驗證並補齊預設值；未知的 mode/region/category 為程式錯誤
func (lc LookupContext) normalized(query string) (LookupContext, error) {
	if lc.Mode == "" {
		lc.Mode = ModeIngredient
	}
	if !lc.Mode.Valid() {
		return lc, fmt.Errorf("%w: unknown mode %q", ErrInvalidContext, lc.Mode)
	}

	lc.Region = Region(strings.ToUpper(string(lc.Region)))
	switch lc.Region {
	case "", RegionUS, RegionCH, RegionEU, RegionOther:
	default:
		return lc, fmt.Errorf("%w: unknown region %q", ErrInvalidContext, lc.Region)
	}

	switch lc.CategoryHint {
	case HintNone, HintVeg, HintGrain, HintLegume, HintFruit:
	default:
		return lc, fmt.Errorf("%w: unknown category hint %q", ErrInvalidContext, lc.CategoryHint)
	}

	if lc.OriginalQuery == "" {
		lc.OriginalQuery = query
	}
	return lc, nil
}

// ProviderResult 資料來源回傳的候選結果
type ProviderResult struct {
	Food         *CanonicalFood         `json:"food"`
	Confidence   float64                `json:"confidence"`
	IsSuspicious bool                   `json:"is_suspicious"`
	Debug        map[string]interface{} `json:"debug,omitempty"`
}

// Float 取得 float64 指標
func Float(v float64) *float64 {
	return &v
}
