package matching

import "strings"

const (
	// MaxQueryVariants 查詢變體數量上限
	MaxQueryVariants = 6
	// maxSynonymSubstitutions 主詞同義詞替換數量上限
	maxSynonymSubstitutions = 3
)

// BuildQueryVariants 產生有序且不重複的查詢變體：
// 原始正規化字串、去除烹調形容詞、單數化、主詞同義詞替換
func BuildQueryVariants(query string) []string {
	normalized := Normalize(query)
	if normalized == "" {
		return nil
	}

	variants := make([]string, 0, MaxQueryVariants)
	seen := make(map[string]bool, MaxQueryVariants)
	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] || len(variants) >= MaxQueryVariants {
			return
		}
		seen[v] = true
		variants = append(variants, v)
	}

	add(normalized)

	tokens := strings.Fields(normalized)
	stripped := RemoveCookingAdjectives(tokens)
	if len(stripped) == 0 {
		stripped = tokens
	}
	add(strings.Join(stripped, " "))

	singular := make([]string, len(stripped))
	for i, t := range stripped {
		singular[i] = Singularize(t)
	}
	add(strings.Join(singular, " "))

	head := singular[0]
	substituted := 0
	for _, syn := range GetSynonyms(head) {
		if substituted >= maxSynonymSubstitutions {
			break
		}
		if syn == head || syn == stripped[0] {
			continue
		}
		replaced := append([]string{syn}, singular[1:]...)
		add(strings.Join(replaced, " "))
		substituted++
	}

	return variants
}
