package matching

import "regexp"

// cookingAdjectives 烹調/處理形容詞
var cookingAdjectives = wordSet(
	"cooked", "raw", "boiled", "fried", "grilled", "frozen", "sliced", "baked",
	"roasted", "steamed", "fresh", "chopped", "diced", "canned", "mashed",
	"poached", "sauteed", "sautéed", "stewed", "blanched", "peeled", "minced",
	"grated", "shredded", "toasted", "uncooked", "prepared", "drained",
	"broiled", "braised", "microwaved", "scrambled", "unprepared", "dry",
	// 德文
	"gekocht", "gekochte", "gekochter", "gekochtes", "roh", "rohe", "roher", "rohes",
	"gebraten", "gebratene", "gebratener", "gegrillt", "gegrillte", "gefroren",
	"tiefgekühlt", "geschnitten", "gebacken", "geröstet", "gedämpft", "gedünstet",
	"frisch", "frische", "frischer", "frisches", "gehackt", "püriert", "gerieben",
	"geschält", "blanchiert", "gesotten",
)

// stopwords 份量/泛用詞，不能當作必要 token
var stopwords = wordSet(
	"small", "medium", "large", "big", "mini", "extra", "whole", "piece",
	"slice", "cup", "gram", "serving", "portion", "food", "plain", "natural",
	"organic", "style", "type", "mixed", "assorted", "with", "and", "without",
	"the", "for", "from", "made", "kind",
	// 德文
	"klein", "kleine", "gross", "groß", "grosse", "große", "mittel", "stück",
	"natur", "bio", "mit", "und", "ohne", "der", "die", "das", "für", "vom",
)

// connectorWords 複合菜名的連接詞
var connectorWords = wordSet("mit", "with", "und", "and", "in", "im", "avec", "con", "auf")

// quantityPattern 純數量 token，例如 100g、2
var quantityPattern = regexp.MustCompile(`^\d+(g|kg|ml|l|oz|lb)?$`)

func wordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// IsCookingAdjective 是否為烹調形容詞
func IsCookingAdjective(token string) bool {
	return cookingAdjectives[token]
}

// RemoveCookingAdjectives 移除烹調形容詞
func RemoveCookingAdjectives(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if cookingAdjectives[t] {
			continue
		}
		out = append(out, t)
	}
	return out
}

// QueryPlacement 查詢字是否出現在名稱中，以及第一次出現是否在連接詞之後
func QueryPlacement(query, name string) (found, afterConnector bool) {
	qTokens := Tokenize(query)
	sawConnector := false
	for _, f := range fieldsOf(name) {
		if connectorWords[f] {
			sawConnector = true
			continue
		}
		for _, qt := range qTokens {
			if areSynonyms(qt, f) {
				return true, sawConnector
			}
		}
	}
	return false, false
}
