package matching

import (
	"strings"
	"unicode/utf8"
)

// irregularPlurals 不規則複數與不可變形的詞。
// 這是啟發式詞幹處理，不追求語言學上的完整性。
var irregularPlurals = map[string]string{
	"tomatoes":  "tomato",
	"potatoes":  "potato",
	"mangoes":   "mango",
	"leaves":    "leaf",
	"loaves":    "loaf",
	"halves":    "half",
	"calves":    "calf",
	"knives":    "knife",
	"cookies":   "cookie",
	"brownies":  "brownie",
	"smoothies": "smoothie",
	"pies":      "pie",
	"geese":     "goose",

	// 以 -s 結尾但不是複數
	"hummus":    "hummus",
	"couscous":  "couscous",
	"asparagus": "asparagus",
	"citrus":    "citrus",
	"molasses":  "molasses",
	"swiss":     "swiss",
	"brussels":  "brussels",
	"grits":     "grits",
	"reis":      "reis",
	"mais":      "mais",
	"kürbis":    "kürbis",
	"ananas":    "ananas",
	"apfelmus":  "apfelmus",
	"quinoas":   "quinoa",
}

// Singularize 將英文複數轉為單數（簡易規則）
func Singularize(token string) string {
	if s, ok := irregularPlurals[token]; ok {
		return s
	}
	if utf8.RuneCountInString(token) < 4 {
		return token
	}

	switch {
	case strings.HasSuffix(token, "ies"):
		return strings.TrimSuffix(token, "ies") + "y"
	case strings.HasSuffix(token, "sses"),
		strings.HasSuffix(token, "oes"),
		strings.HasSuffix(token, "shes"),
		strings.HasSuffix(token, "ches"),
		strings.HasSuffix(token, "xes"):
		return token[:len(token)-2]
	case strings.HasSuffix(token, "ss"):
		return token
	case strings.HasSuffix(token, "s"):
		return token[:len(token)-1]
	}
	return token
}
