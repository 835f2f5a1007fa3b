package usda

import (
	"strings"

	"nutrition-lookup/internal/core/nutrition"
)

// searchResponse /foods/search 回應
type searchResponse struct {
	TotalHits int          `json:"totalHits"`
	Foods     []searchFood `json:"foods"`
}

// searchFood 搜尋結果中的單一食物；營養素數值皆為每 100g
type searchFood struct {
	FdcID           int64          `json:"fdcId"`
	Description     string         `json:"description"`
	DataType        string         `json:"dataType"`
	BrandOwner      string         `json:"brandOwner"`
	BrandName       string         `json:"brandName"`
	GtinUpc         string         `json:"gtinUpc"`
	FoodCategory    string         `json:"foodCategory"`
	ServingSize     float64        `json:"servingSize"`
	ServingSizeUnit string         `json:"servingSizeUnit"`
	FoodNutrients   []foodNutrient `json:"foodNutrients"`
}

type foodNutrient struct {
	NutrientID   int     `json:"nutrientId"`
	NutrientName string  `json:"nutrientName"`
	UnitName     string  `json:"unitName"`
	Value        float64 `json:"value"`
}

func (f *searchFood) displayName() string {
	if f.DataType == barcodeBranch && f.BrandName != "" &&
		!strings.Contains(strings.ToLower(f.Description), strings.ToLower(f.BrandName)) {
		return f.BrandName + " " + f.Description
	}
	return f.Description
}

func (f *searchFood) nutrient(ids ...int) (foodNutrient, bool) {
	for _, id := range ids {
		for _, n := range f.FoodNutrients {
			if n.NutrientID == id {
				return n, true
			}
		}
	}
	return foodNutrient{}, false
}

// calories 優先使用 kcal 能量值，kJ 時換算
func (f *searchFood) calories() (float64, bool) {
	n, ok := f.nutrient(nutrientEnergy, nutrientEnergyAtwater, nutrientEnergySpecific)
	if !ok {
		return 0, false
	}
	if strings.EqualFold(n.UnitName, "kJ") {
		return n.Value / kjPerKcal, true
	}
	return n.Value, true
}

func (f *searchFood) grams(ids ...int) *float64 {
	n, ok := f.nutrient(ids...)
	if !ok {
		return nil
	}
	switch strings.ToUpper(n.UnitName) {
	case "MG":
		return nutrition.Float(n.Value / 1000)
	case "UG", "µG":
		return nutrition.Float(n.Value / 1e6)
	}
	return nutrition.Float(n.Value)
}

func (f *searchFood) nutrients() nutrition.CanonicalNutrients {
	var out nutrition.CanonicalNutrients
	if kcal, ok := f.calories(); ok {
		out.Calories = nutrition.Float(kcal)
	}
	out.Protein = f.grams(nutrientProtein)
	out.Fat = f.grams(nutrientFat)
	out.Carbs = f.grams(nutrientCarbs)
	out.Fiber = f.grams(nutrientFiber)
	out.Sugars = f.grams(nutrientSugars, nutrientSugarsLegacy)
	out.SatFat = f.grams(nutrientSatFat)

	if n, ok := f.nutrient(nutrientSodium); ok {
		mg := n.Value
		if strings.EqualFold(n.UnitName, "G") {
			mg = n.Value * 1000
		}
		out.Sodium = nutrition.Float(mg)
	}
	return out
}
