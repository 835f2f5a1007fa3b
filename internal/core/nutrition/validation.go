package nutrition

import (
	"fmt"
	"math"
	"strings"

	"nutrition-lookup/internal/core/matching"
)

// 合理熱量區間（kcal/100g）
const (
	OilMinKcal         = 650
	OilMaxKcal         = 950
	VegMaxKcal         = 150
	FruitMaxKcal       = 150
	AvocadoMaxKcal     = 250
	DriedFruitMaxKcal  = 400
	CookedGrainMaxKcal = 200
	SolidMinKcal       = 5
	SolidMaxKcal       = 900
	DrinkMaxKcal       = 150

	macroMinTolerance   = 50
	macroRatioTolerance = 0.25
)

var driedMarkers = []string{"dried", "dehydrated", "getrocknet", "gedörrt", "dörr", "raisin", "rosine", "sultan", "prune", "trocken"}

var cookedMarkers = []string{"cooked", "boiled", "steamed", "gekocht", "gedämpft", "gegart"}

// ValidateCandidate 候選結果的合理性驗證
//
// 依序：非食品 → 品牌/複合菜名誤配（ingredient）→ 類別提示上限 →
// 油脂熱量帶 → 常見食材預期區間 → 固體/飲品熱量與巨量營養素檢查 →
// 名稱比對（ingredient）。拒絕立即回傳，可疑原因累積。
func ValidateCandidate(food *CanonicalFood, lc LookupContext) Outcome {
	if food == nil {
		return matching.Reject("empty candidate")
	}

	name := food.DisplayName
	query := lc.OriginalQuery
	kcal := food.Per100g.Calories
	var suspicious []string

	if matching.IsNonFoodName(name) {
		return matching.Reject("non-food result")
	}

	if lc.Mode != ModePackaged && isBrandedCompoundMismatch(query, name) {
		return matching.Reject("branded/compound mismatch")
	}

	isFat := matching.IsOilOrFatName(name)

	if out := checkCategoryHint(lc, name, kcal, isFat); !out.IsValid {
		return out
	}

	if isFat {
		switch {
		case kcal == nil:
			suspicious = append(suspicious, "oil/fat without calories")
		case *kcal < OilMinKcal || *kcal > OilMaxKcal:
			return matching.Reject(fmt.Sprintf("oil/fat outside %d-%d kcal band: %.0f", OilMinKcal, OilMaxKcal, *kcal))
		}
	}

	if kcal != nil {
		if *kcal < 0 {
			return matching.Reject("negative calories")
		}
		if out := CheckExpectedRange(name, *kcal); out.IsSuspicious {
			suspicious = append(suspicious, out.Reason)
		}
	}

	if food.Category == CategoryDrink {
		if kcal != nil && *kcal > DrinkMaxKcal {
			suspicious = append(suspicious, fmt.Sprintf("drink above %d kcal", DrinkMaxKcal))
		}
	} else {
		out := checkSolid(food.Per100g, isFat)
		if !out.IsValid {
			return out
		}
		if out.IsSuspicious {
			suspicious = append(suspicious, out.Reason)
		}
	}

	if lc.Mode != ModePackaged && strings.TrimSpace(query) != "" {
		out := matching.ValidateMatch(query, name, ModeIngredient)
		if !out.IsValid {
			return out
		}
		if out.IsSuspicious {
			suspicious = append(suspicious, out.Reason)
		}
	}

	return Outcome{
		IsValid:      true,
		IsSuspicious: len(suspicious) > 0,
		Reason:       strings.Join(suspicious, "; "),
	}
}

// isBrandedCompoundMismatch 一兩個字的食材查詢命中以其他字開頭的加工品，或查詢字只出現在連接詞之後的複合菜名
func isBrandedCompoundMismatch(query, name string) bool {
	qTokens := matching.Tokenize(query)
	if len(qTokens) == 0 || len(qTokens) > 2 || matching.QueryImpliesProcessed(query) {
		return false
	}
	cTokens := matching.Tokenize(name)
	if len(cTokens) == 0 {
		return false
	}

	first := matching.Singularize(cTokens[0])
	for _, qt := range qTokens {
		for _, syn := range matching.GetSynonyms(qt) {
			if syn == first {
				return false
			}
		}
	}

	// "Räucherlachs mit Dill" 是複合菜；"Fish, tuna, light, canned in water" 仍是 tuna
	if _, afterConnector := matching.QueryPlacement(query, name); afterConnector {
		return true
	}
	return matching.IsLikelyProcessedFood(name, nil)
}

// checkCategoryHint 類別提示的熱量上限；任何提示配上油脂結果都是類別誤配
func checkCategoryHint(lc LookupContext, name string, kcal *float64, isFat bool) Outcome {
	if lc.CategoryHint == HintNone {
		return Outcome{IsValid: true}
	}
	if isFat {
		return matching.Reject(fmt.Sprintf("category mismatch: %s query resolved to oil/fat", lc.CategoryHint))
	}
	if kcal == nil {
		return Outcome{IsValid: true}
	}

	lowerName := strings.ToLower(name)
	haystack := lowerName + " " + strings.ToLower(lc.OriginalQuery)

	switch lc.CategoryHint {
	case HintVeg:
		if *kcal >= VegMaxKcal {
			return matching.Reject(fmt.Sprintf("vegetable above %d kcal: %.0f", VegMaxKcal, *kcal))
		}
	case HintFruit:
		limit := float64(FruitMaxKcal)
		switch {
		case containsAny(haystack, driedMarkers):
			limit = DriedFruitMaxKcal
		case strings.Contains(lowerName, "avocado"):
			limit = AvocadoMaxKcal
		}
		if *kcal >= limit {
			return matching.Reject(fmt.Sprintf("fruit above %.0f kcal: %.0f", limit, *kcal))
		}
	case HintGrain, HintLegume:
		if containsAny(haystack, cookedMarkers) && *kcal > CookedGrainMaxKcal {
			return matching.Reject(fmt.Sprintf("cooked %s above %d kcal: %.0f", lc.CategoryHint, CookedGrainMaxKcal, *kcal))
		}
	}
	return Outcome{IsValid: true}
}

// checkSolid 固體熱量區間與巨量營養素一致性
func checkSolid(n CanonicalNutrients, isFat bool) Outcome {
	if n.Calories == nil {
		return Outcome{IsValid: true}
	}
	kcal := *n.Calories

	if !isFat && kcal > SolidMaxKcal {
		return matching.Reject(fmt.Sprintf("solid above %d kcal: %.0f", SolidMaxKcal, kcal))
	}

	var reasons []string
	if kcal < SolidMinKcal {
		reasons = append(reasons, fmt.Sprintf("solid below %d kcal", SolidMinKcal))
	}

	if n.Protein != nil && n.Carbs != nil && n.Fat != nil {
		computed := 4*(*n.Protein) + 4*(*n.Carbs) + 9*(*n.Fat)
		tolerance := math.Max(macroMinTolerance, macroRatioTolerance*kcal)
		if math.Abs(computed-kcal) > tolerance {
			reasons = append(reasons, fmt.Sprintf("macro/calorie mismatch: computed %.0f vs reported %.0f", computed, kcal))
		}
	}

	return Outcome{
		IsValid:      true,
		IsSuspicious: len(reasons) > 0,
		Reason:       strings.Join(reasons, "; "),
	}
}
