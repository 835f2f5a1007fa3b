package matching

// synonymGroups 同義詞群組（英文與德文，皆為單數正規化形式）
var synonymGroups = [][]string{
	{"mushroom", "champignon", "pilz"},
	{"zucchini", "courgette"},
	{"eggplant", "aubergine"},
	{"cilantro", "coriander", "koriander"},
	{"chickpea", "garbanzo", "kichererbse"},
	{"shrimp", "prawn", "garnele", "crevette"},
	{"potato", "kartoffel"},
	{"tomato", "tomate"},
	{"carrot", "karotte", "möhre", "rüebli"},
	{"cucumber", "gurke"},
	{"onion", "zwiebel"},
	{"garlic", "knoblauch"},
	{"apple", "apfel"},
	{"pear", "birne"},
	{"rice", "reis"},
	{"oat", "hafer"},
	{"buckwheat", "buchweizen"},
	{"lentil", "linse"},
	{"bean", "bohne"},
	{"pea", "erbse"},
	{"spinach", "spinat"},
	{"cabbage", "kohl"},
	{"beetroot", "beet", "rande"},
	{"corn", "maize", "mais"},
	{"oil", "öl"},
	{"egg", "ei"},
	{"salmon", "lachs"},
	{"cheese", "käse"},
	{"milk", "milch"},
	{"yogurt", "yoghurt", "joghurt"},
	{"arugula", "rocket", "rucola"},
	{"broccoli", "brokkoli"},
	{"pepper", "paprika", "peperoni"},
	{"chicken", "hähnchen", "poulet", "huhn"},
	{"banana", "banane"},
}

var synonymIndex = buildSynonymIndex(synonymGroups)

func buildSynonymIndex(groups [][]string) map[string][]string {
	index := make(map[string][]string)
	for _, group := range groups {
		for _, word := range group {
			index[word] = append(index[word], group...)
		}
	}
	return index
}

// GetSynonyms 回傳 token 本身、其單數形式與所有同義詞
func GetSynonyms(token string) []string {
	singular := Singularize(token)
	out := []string{token, singular}
	out = append(out, synonymIndex[token]...)
	out = append(out, synonymIndex[singular]...)
	return uniqueStrings(out)
}

// areSynonyms 判斷兩個 token 是否相同或互為同義詞
func areSynonyms(a, b string) bool {
	if a == b {
		return true
	}
	sb := Singularize(b)
	for _, s := range GetSynonyms(a) {
		if s == b || s == sb {
			return true
		}
	}
	return false
}
