package matching

import (
	"fmt"
	"strings"
)

// Mode 查詢模式
type Mode string

const (
	// ModeIngredient 原型食材（嚴格比對）
	ModeIngredient Mode = "ingredient"
	// ModePackaged 包裝食品（放寬比對）
	ModePackaged Mode = "packaged"
)

// Valid 是否為已知模式
func (m Mode) Valid() bool {
	return m == ModeIngredient || m == ModePackaged
}

// 名稱相似度門檻
const (
	IngredientAcceptScore = 0.55
	IngredientCleanScore  = 0.70
	PackagedAcceptScore   = 0.40
	PackagedCleanScore    = 0.60
)

// Outcome 比對/驗證結果
type Outcome struct {
	IsValid      bool    `json:"is_valid"`
	IsSuspicious bool    `json:"is_suspicious"`
	Reason       string  `json:"reason,omitempty"`
	Score        float64 `json:"score"`
}

// Reject 建立拒絕結果
func Reject(reason string) Outcome {
	return Outcome{IsValid: false, Reason: reason}
}

// condimentWords 醬料/加工調味品
var condimentWords = wordSet(
	"sauce", "paste", "ketchup", "pesto", "salsa", "dressing", "puree", "purée",
	"mayonnaise", "mayo", "mustard", "relish", "chutney", "jam", "jelly",
	"spread", "dip", "concentrate", "soße", "sosse", "senf", "konfitüre",
	"marmelade", "aufstrich", "tomatenmark", "püree",
)

// condimentSuffixes 德文複合字的醬料字尾，例如 tomatensauce
var condimentSuffixes = []string{"sauce", "soße", "sosse", "püree", "paste", "aufstrich"}

// vegetableWords 生鮮蔬菜（單數正規化）
var vegetableWords = wordSet(
	"tomato", "pepper", "carrot", "onion", "garlic", "cucumber", "spinach",
	"zucchini", "eggplant", "pumpkin", "squash", "mushroom", "broccoli",
	"cabbage", "lettuce", "celery", "beet", "beetroot", "radish", "leek", "kale",
	"cauliflower", "pea", "bean", "corn", "basil", "chili", "potato", "asparagus",
)

// ValidateMatch 依模式門檻驗證候選名稱
func ValidateMatch(query, candidate string, mode Mode) Outcome {
	if reason, bad := categoryMismatch(query, candidate); bad {
		return Reject(reason)
	}

	score := NameMatchScore(query, candidate)

	if mode == ModePackaged {
		switch {
		case score < PackagedAcceptScore:
			return Outcome{Reason: fmt.Sprintf("low name similarity %.2f", score), Score: score}
		case score < PackagedCleanScore:
			return Outcome{IsValid: true, IsSuspicious: true, Reason: fmt.Sprintf("weak name similarity %.2f", score), Score: score}
		}
		return Outcome{IsValid: true, Score: score}
	}

	if !MustTokensMatch(query, candidate) {
		return Outcome{Reason: "missing required query tokens", Score: score}
	}
	if IsOilOrFatName(candidate) != IsOilOrFatName(query) {
		return Outcome{Reason: "oil/fat mismatch between query and candidate", Score: score}
	}

	switch {
	case score < IngredientAcceptScore:
		return Outcome{Reason: fmt.Sprintf("low name similarity %.2f", score), Score: score}
	case score < IngredientCleanScore:
		return Outcome{IsValid: true, IsSuspicious: true, Reason: fmt.Sprintf("weak name similarity %.2f", score), Score: score}
	}
	return Outcome{IsValid: true, Score: score}
}

// categoryMismatch 醬料與生鮮蔬菜互相誤配（雙向）
func categoryMismatch(query, candidate string) (string, bool) {
	qTokens := scoringTokens(query)
	cTokens := scoringTokens(candidate)

	qCondiment := hasCondiment(qTokens)
	cCondiment := hasCondiment(cTokens)

	switch {
	case qCondiment && !cCondiment && hasVegetable(cTokens):
		return "category mismatch: condiment query resolved to raw vegetable", true
	case !qCondiment && hasVegetable(qTokens) && cCondiment:
		return "category mismatch: vegetable query resolved to condiment", true
	}
	return "", false
}

func hasCondiment(tokens []string) bool {
	for _, t := range tokens {
		if condimentWords[t] {
			return true
		}
		for _, suffix := range condimentSuffixes {
			if strings.HasSuffix(t, suffix) {
				return true
			}
		}
	}
	return false
}

func hasVegetable(tokens []string) bool {
	for _, t := range tokens {
		for _, s := range GetSynonyms(t) {
			if vegetableWords[s] {
				return true
			}
		}
	}
	return false
}
