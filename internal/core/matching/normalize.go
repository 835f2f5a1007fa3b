// Package matching 食物名稱正規化與比對引擎
//
// 純函式、無 I/O。資料來源與查詢協調器都只向下依賴本套件。
package matching

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// minTokenLength 短於此長度的 token 會被丟棄（白名單除外）
const minTokenLength = 3

// shortFoodWords 允許保留的短食物詞
var shortFoodWords = map[string]bool{
	"egg": true, "oil": true, "pea": true, "fig": true, "yam": true,
	"rye": true, "soy": true, "tea": true, "oat": true, "ham": true,
	"cod": true, "ei": true, "öl": true,
}

// Normalize 轉小寫、移除非字母/數字/空白字元並壓縮空白
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(norm.NFC.String(text)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokenize 正規化後切詞，丟棄過短的 token
func Tokenize(text string) []string {
	fields := strings.Fields(Normalize(text))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) < minTokenLength && !shortFoodWords[f] {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// fieldsOf 正規化後的全部詞（不過濾長度）
func fieldsOf(text string) []string {
	return strings.Fields(Normalize(text))
}

// scoringTokens 取得用於評分的單數 token；全部被過濾時退回原始詞
func scoringTokens(text string) []string {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		tokens = strings.Fields(Normalize(text))
	}
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, Singularize(t))
	}
	return out
}

// uniqueStrings 去重並保留順序
func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// containsWord 以完整詞邊界判斷 haystack 是否包含 needle（皆須已正規化）
func containsWord(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	return strings.Contains(" "+haystack+" ", " "+needle+" ")
}
