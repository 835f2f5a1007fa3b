package openfoodfacts

import (
	"strings"

	"nutrition-lookup/internal/core/matching"
	"nutrition-lookup/internal/core/nutrition"
	"nutrition-lookup/internal/pkg/common"
)

const (
	kjPerKcal = 4.184
	// saltToSodiumMg 食鹽（g）換算鈉（mg）
	saltToSodiumMg = 400
)

// searchResponse /cgi/search.pl 回應
type searchResponse struct {
	Count    interface{} `json:"count"`
	Products []product   `json:"products"`
}

// productResponse /api/v2/product 回應
type productResponse struct {
	Status  interface{} `json:"status"`
	Product product     `json:"product"`
}

// product 上游欄位型態不固定（數值可能是字串），以 map 保留原始內容
type product map[string]interface{}

func statusOf(v interface{}) int {
	f, ok := common.NumberToFloat(v)
	if !ok {
		return 0
	}
	return int(f)
}

func (p product) str(key string) string {
	s, _ := p[key].(string)
	return strings.TrimSpace(s)
}

func (p product) code() string { return p.str("code") }

func (p product) name(lang string) string {
	if lang != "" {
		if n := p.str("product_name_" + lang); n != "" {
			return n
		}
	}
	if n := p.str("product_name"); n != "" {
		return n
	}
	return p.str("generic_name")
}

func (p product) brand() string {
	brands := p.str("brands")
	if i := strings.Index(brands, ","); i >= 0 {
		brands = brands[:i]
	}
	return strings.TrimSpace(brands)
}

func (p product) categories() []string {
	raw, _ := p["categories_tags"].([]interface{})
	out := make([]string, 0, len(raw))
	for _, c := range raw {
		if s, ok := c.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// isDrink 依分類標籤判斷；沒有分類時以名稱判斷
func (p product) isDrink(lang string) bool {
	categories := p.categories()
	if len(categories) == 0 {
		return matching.LooksLikeDrink(p.name(lang))
	}
	for _, c := range categories {
		if strings.Contains(c, "beverages") || strings.Contains(c, "drinks") {
			return true
		}
	}
	return false
}

func (p product) nutriment(key string) (float64, bool) {
	n, _ := p["nutriments"].(map[string]interface{})
	if n == nil {
		return 0, false
	}
	return common.NumberToFloat(n[key])
}

// calories 優先取 kcal，否則由 kJ 換算
func (p product) calories() (float64, bool) {
	if v, ok := p.nutriment("energy-kcal_100g"); ok {
		return v, true
	}
	if v, ok := p.nutriment("energy-kj_100g"); ok {
		return v / kjPerKcal, true
	}
	if v, ok := p.nutriment("energy_100g"); ok {
		return v / kjPerKcal, true
	}
	return 0, false
}

func (p product) grams(key string) *float64 {
	if v, ok := p.nutriment(key); ok {
		return nutrition.Float(v)
	}
	return nil
}

func (p product) nutrients() nutrition.CanonicalNutrients {
	var out nutrition.CanonicalNutrients
	if kcal, ok := p.calories(); ok {
		out.Calories = nutrition.Float(kcal)
	}
	out.Protein = p.grams("proteins_100g")
	out.Carbs = p.grams("carbohydrates_100g")
	out.Fat = p.grams("fat_100g")
	out.Fiber = p.grams("fiber_100g")
	out.Sugars = p.grams("sugars_100g")
	out.SatFat = p.grams("saturated-fat_100g")

	if sodium, ok := p.nutriment("sodium_100g"); ok {
		out.Sodium = nutrition.Float(sodium * 1000)
	} else if salt, ok := p.nutriment("salt_100g"); ok {
		out.Sodium = nutrition.Float(salt * saltToSodiumMg)
	}
	return out
}

// servingGrams 份量合理時才使用上游的建議份量
func (p product) servingGrams() (float64, bool) {
	v, ok := common.NumberToFloat(p["serving_quantity"])
	if !ok || v <= 0 || v > 1000 {
		return 0, false
	}
	return v, true
}
