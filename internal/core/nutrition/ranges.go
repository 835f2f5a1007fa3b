package nutrition

import (
	"fmt"
	"strings"

	"nutrition-lookup/internal/core/matching"
)

// RangeRule 常見食材的預期熱量區間（kcal/100g）
//
// Keywords 任一子字串命中顯示名稱即適用；Requires 非空時也必須命中其一；
// Excludes 命中任一即不適用。
type RangeRule struct {
	Name     string
	Keywords []string
	Requires []string
	Excludes []string
	Min      float64
	Max      float64
}

// expectedRanges 依序比對，第一個適用的規則生效
var expectedRanges = []RangeRule{
	{
		Name:     "carrot",
		Keywords: []string{"carrot", "karotte", "möhre", "rüebli"},
		Excludes: []string{"cake", "juice", "saft", "kuchen"},
		Min:      30,
		Max:      45,
	},
	{
		Name:     "cucumber",
		Keywords: []string{"cucumber", "gurke"},
		Excludes: []string{"pickle", "essig"},
		Min:      10,
		Max:      20,
	},
	{
		Name:     "rice cooked",
		Keywords: []string{"rice", "reis"},
		Requires: []string{"cooked", "boiled", "steamed", "gekocht"},
		Excludes: []string{"fried", "pudding", "cake", "milk", "milch"},
		Min:      120,
		Max:      140,
	},
	{
		Name:     "buckwheat",
		Keywords: []string{"buckwheat", "buchweizen"},
		Excludes: []string{"cooked", "gekocht", "noodle", "soba", "pancake"},
		Min:      300,
		Max:      350,
	},
	{
		Name:     "tomato",
		Keywords: []string{"tomato", "tomate"},
		Excludes: []string{"paste", "sauce", "ketchup", "dried", "mark", "püree", "puree", "soup", "juice", "getrocknet", "saft", "suppe"},
		Min:      15,
		Max:      25,
	},
	{
		Name:     "potato",
		Keywords: []string{"potato", "kartoffel"},
		Excludes: []string{"chip", "crisp", "fries", "fried", "pommes", "mashed", "salad", "salat", "sweet", "flake", "powder", "starch", "stärke", "püree"},
		Min:      70,
		Max:      90,
	},
	{
		Name:     "broccoli",
		Keywords: []string{"broccoli", "brokkoli"},
		Min:      25,
		Max:      40,
	},
	{
		Name:     "spinach",
		Keywords: []string{"spinach", "spinat"},
		Excludes: []string{"creamed", "rahm"},
		Min:      18,
		Max:      30,
	},
	{
		Name:     "apple",
		Keywords: []string{"apple", "apfel"},
		Excludes: []string{"juice", "saft", "sauce", "mus", "pie", "strudel", "dried", "chip", "kuchen", "cider", "vinegar", "essig", "butter", "pineapple"},
		Min:      45,
		Max:      60,
	},
	{
		Name:     "banana",
		Keywords: []string{"banana", "banane"},
		Excludes: []string{"chip", "dried", "bread", "brot"},
		Min:      85,
		Max:      100,
	},
	{
		Name:     "egg",
		Keywords: []string{"egg", "eier", "hühnerei"},
		Excludes: []string{"eggplant", "noodle", "nog", "yolk", "white", "powder", "dried", "pasta", "nudel", "salad", "roll", "substitute", "fried", "scrambled", "omelet", "veggie", "likör"},
		Min:      130,
		Max:      160,
	},
	{
		Name:     "chicken breast",
		Keywords: []string{"chicken", "hähnchen", "poulet", "huhn"},
		Requires: []string{"breast", "brust"},
		Excludes: []string{"breaded", "nugget", "fried", "skin"},
		Min:      100,
		Max:      175,
	},
	{
		Name:     "oats",
		Keywords: []string{"oats", "rolled oat", "haferflocken"},
		Excludes: []string{"cooked", "prepared", "porridge", "gekocht", "milk", "drink", "bar", "cookie"},
		Min:      350,
		Max:      400,
	},
	{
		Name:     "lentils cooked",
		Keywords: []string{"lentil", "linse"},
		Requires: []string{"cooked", "boiled", "gekocht"},
		Min:      100,
		Max:      130,
	},
	{
		Name:     "onion",
		Keywords: []string{"onion", "zwiebel"},
		Excludes: []string{"ring", "fried", "powder", "soup", "dried", "suppe"},
		Min:      35,
		Max:      45,
	},
	{
		Name:     "lettuce",
		Keywords: []string{"lettuce", "kopfsalat", "eisbergsalat"},
		Min:      10,
		Max:      20,
	},
	{
		Name:     "avocado",
		Keywords: []string{"avocado"},
		Excludes: []string{"oil", "öl"},
		Min:      150,
		Max:      240,
	},
	{
		Name:     "milk",
		Keywords: []string{"milk", "milch"},
		Excludes: []string{"powder", "dried", "condensed", "chocolate", "shake", "coconut", "almond", "soy", "oat", "rice", "buttermilk", "kondens", "pulver", "schoko", "cheese"},
		Min:      30,
		Max:      70,
	},
}

// matches 規則是否適用於已正規化的名稱
func (r RangeRule) matches(name string) bool {
	if !containsAny(name, r.Keywords) {
		return false
	}
	if len(r.Requires) > 0 && !containsAny(name, r.Requires) {
		return false
	}
	return !containsAny(name, r.Excludes)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// FindRangeRule 取得名稱適用的第一條預期區間規則
func FindRangeRule(name string) (RangeRule, bool) {
	normalized := matching.Normalize(name)
	for _, r := range expectedRanges {
		if r.matches(normalized) {
			return r, true
		}
	}
	return RangeRule{}, false
}

// CheckExpectedRange 熱量超出預期區間時標記可疑（不拒絕）
func CheckExpectedRange(name string, kcal float64) Outcome {
	rule, ok := FindRangeRule(name)
	if !ok || (kcal >= rule.Min && kcal <= rule.Max) {
		return Outcome{IsValid: true}
	}
	return Outcome{
		IsValid:      true,
		IsSuspicious: true,
		Reason:       fmt.Sprintf("%s expected %.0f-%.0f kcal, got %.0f", rule.Name, rule.Min, rule.Max, kcal),
	}
}
