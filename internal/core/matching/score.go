package matching

import "strings"

const (
	phraseBonus     = 0.15
	firstTokenBonus = 0.10
)

// NameMatchScore 計算查詢與候選名稱的相似度，範圍 [0,1]
//
// 基礎分數為查詢 token（含同義詞）出現在候選中的比例；
// 查詢整句出現在候選中或至少兩個 token 命中時加分；
// 候選的第一個詞即為查詢 token（或其同義詞）時再加分。
func NameMatchScore(query, candidate string) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	if q != "" && q == strings.ToLower(strings.TrimSpace(candidate)) {
		return 1
	}

	queryTokens := uniqueStrings(scoringTokens(query))
	if len(queryTokens) == 0 {
		return 0
	}
	candTokens := scoringTokens(candidate)
	if len(candTokens) == 0 {
		return 0
	}
	candSet := expandSynonyms(candTokens)

	hits := 0
	for _, qt := range queryTokens {
		if anyIn(GetSynonyms(qt), candSet) {
			hits++
		}
	}

	score := float64(hits) / float64(len(queryTokens))
	if hits >= 2 || containsWord(Normalize(candidate), Normalize(query)) {
		score += phraseBonus
	}
	for _, qt := range queryTokens {
		if areSynonyms(qt, candTokens[0]) {
			score += firstTokenBonus
			break
		}
	}

	return clamp01(score)
}

// ExtractMustTokens 取得查詢中必須出現在候選裡的 token
// 移除烹調形容詞、份量詞與數量；全部被移除時退回第一個原始詞
func ExtractMustTokens(query string) []string {
	var must []string
	for _, tok := range Tokenize(query) {
		s := Singularize(tok)
		if cookingAdjectives[tok] || cookingAdjectives[s] ||
			stopwords[tok] || stopwords[s] || quantityPattern.MatchString(s) {
			continue
		}
		must = append(must, s)
	}
	must = uniqueStrings(must)

	if len(must) == 0 {
		if fields := fieldsOf(query); len(fields) > 0 {
			must = append(must, fields[0])
		}
	}
	return must
}

// MustTokensMatch 任一必要 token（或其同義詞）出現在候選中即成立；
// 沒有必要 token 時回傳 false
func MustTokensMatch(query, candidate string) bool {
	must := ExtractMustTokens(query)
	if len(must) == 0 {
		return false
	}
	candSet := expandSynonyms(scoringTokens(candidate))
	for _, m := range must {
		if anyIn(GetSynonyms(m), candSet) {
			return true
		}
	}
	return false
}

func expandSynonyms(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens)*2)
	for _, t := range tokens {
		for _, s := range GetSynonyms(t) {
			set[s] = true
		}
	}
	return set
}

func anyIn(words []string, set map[string]bool) bool {
	for _, w := range words {
		if set[w] {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
