package matching

import (
	"regexp"
	"strings"
)

// processedWords 加工食品/成品菜關鍵字
var processedWords = wordSet(
	"pizza", "burger", "hamburger", "cheeseburger", "sandwich", "wrap", "burrito",
	"taco", "lasagna", "lasagne", "nugget", "snack", "chip", "crisp", "cracker",
	"cookie", "biscuit", "cake", "muffin", "donut", "doughnut", "candy",
	"chocolate", "bar", "cereal", "granola", "pudding", "dessert", "soup",
	"meal", "dinner", "entree", "instant", "soda", "dressing", "breaded",
	"flavored", "flavoured", "frosting", "pastry", "pie", "ravioli", "fertiggericht",
	"riegel", "keks", "kuchen", "schokolade", "suppe", "menü", "gebäck",
)

// processedCategoryHints 來源分類標籤中表示加工食品的片段
var processedCategoryHints = []string{
	"snack", "meal", "dessert", "confectioner", "sweet", "biscuit", "ready",
	"pizza", "sandwich", "breakfast-cereal", "fast food", "fast-food",
}

// IsLikelyProcessedFood 依名稱、品牌符號或分類判斷是否為加工食品
func IsLikelyProcessedFood(name string, categories []string) bool {
	if strings.ContainsAny(name, "®™") {
		return true
	}
	for _, t := range scoringTokens(name) {
		if processedWords[t] {
			return true
		}
	}
	for _, c := range categories {
		lc := strings.ToLower(c)
		for _, hint := range processedCategoryHints {
			if strings.Contains(lc, hint) {
				return true
			}
		}
	}
	return false
}

// QueryImpliesProcessed 查詢本身是否就是加工食品
func QueryImpliesProcessed(query string) bool {
	for _, t := range scoringTokens(query) {
		if processedWords[t] {
			return true
		}
	}
	return false
}

// fatWords 油脂類名稱
var fatWords = wordSet(
	"oil", "öl", "butter", "margarine", "lard", "ghee", "schmalz", "shortening",
	"tallow", "suet", "butterschmalz", "bratbutter", "speiseöl",
)

// fatSuffixes 德文複合字，例如 olivenöl、gänseschmalz
var fatSuffixes = []string{"öl", "schmalz", "margarine"}

// fatDishWords 名稱含油脂字但整體是其他食物，例如 butter beans、butter cookie
var fatDishWords = wordSet(
	"apple", "bean", "chicken", "cookie", "biscuit", "croissant", "cake",
	"popcorn", "sauce", "buttermilk", "cream", "cracker", "bread", "toast",
	"soup", "lettuce", "caramel", "toffee", "candy", "chocolate", "cup", "icing",
	"frosting", "squash", "dressing", "keks", "kuchen", "erdnussbutter", "mandelmus",
)

// fatSourceWords 油的原料；配 butter/mus 時是抹醬，配 oil/öl 時仍是油
var fatSourceWords = wordSet(
	"peanut", "almond", "cashew", "hazelnut", "nut", "fish", "tuna", "sardine",
	"mackerel", "anchovy", "erdnuss", "mandel", "thunfisch", "sardelle",
)

// IsOilOrFatName 名稱是否為油脂類（排除「花生醬」「油漬鮪魚」等）
//
// 連接詞之後才出現的油脂字只是配料（"tuna in oil"）；
// 原料字只否定 butter 類（"peanut butter"），不否定 oil（"Oil, peanut"）。
func IsOilOrFatName(name string) bool {
	// 逗號分類式名稱以第一段為主體，例如 "Shortening, industrial, for cakes"
	if head, _, ok := strings.Cut(name, ","); ok {
		if f := fieldsOf(head); len(f) == 1 && isFatWord(Singularize(f[0])) {
			return true
		}
	}

	sawConnector := false
	isFat, isOil, hasSource := false, false, false
	for _, f := range fieldsOf(name) {
		s := Singularize(f)
		switch {
		case connectorWords[f]:
			sawConnector = true
		case fatDishWords[s]:
			return false
		case fatSourceWords[s]:
			hasSource = true
		case isFatWord(s):
			if isFat {
				continue
			}
			if sawConnector {
				return false
			}
			isFat = true
			isOil = isOilWord(s)
		}
	}
	return isFat && (isOil || !hasSource)
}

func isFatWord(token string) bool {
	return fatWords[token] || hasFatSuffix(token)
}

func isOilWord(token string) bool {
	return token == "oil" || strings.HasSuffix(token, "öl")
}

func hasFatSuffix(token string) bool {
	for _, suffix := range fatSuffixes {
		if strings.HasSuffix(token, suffix) && token != suffix {
			return true
		}
	}
	return false
}

// nonFoodWords 非食品（潤滑油、化妝品、保健品、寵物食品）
var nonFoodWords = wordSet(
	"motor", "engine", "lubricant", "lubricating", "hydraulic", "diesel",
	"gasoline", "petrol", "cosmetic", "shampoo", "lotion", "soap", "lipstick",
	"mascara", "moisturizer", "moisturiser", "deodorant", "toothpaste",
	"sunscreen", "perfume", "detergent", "supplement", "capsule", "tablet",
	"softgel", "pill", "multivitamin", "kibble", "puppy", "kitten",
	"motoröl", "kosmetik", "seife", "duschgel", "waschmittel", "hundefutter",
	"katzenfutter", "tierfutter", "nahrungsergänzung", "kapsel", "tablette",
)

// nonFoodPhrases 需以片語判斷的非食品
var nonFoodPhrases = []string{
	"baby oil", "body oil", "hair oil", "massage oil", "essential oil",
	"beard oil", "lamp oil", "gear oil", "cat food", "dog food", "pet food",
	"bird food", "dog treat", "cat treat",
}

// viscosityGrade 機油黏度，例如 5w30
var viscosityGrade = regexp.MustCompile(`^\d{1,2}w\d{2}$`)

// IsNonFoodName 名稱是否明顯不是食品
func IsNonFoodName(name string) bool {
	normalized := Normalize(name)
	for _, f := range strings.Fields(normalized) {
		if nonFoodWords[f] || nonFoodWords[Singularize(f)] || viscosityGrade.MatchString(f) {
			return true
		}
	}
	for _, phrase := range nonFoodPhrases {
		if strings.Contains(normalized, phrase) {
			return true
		}
	}
	return false
}

// drinkWords 飲品關鍵字
var drinkWords = wordSet(
	"juice", "drink", "beverage", "soda", "cola", "lemonade", "tea", "coffee",
	"smoothie", "milk", "water", "beer", "wine", "saft", "getränk", "milch",
	"tee", "kaffee", "wasser", "bier", "wein", "schorle", "limonade",
)

// notDrinkWords 含飲品字但為固體
var notDrinkWords = wordSet(
	"powder", "dried", "bar", "candy", "cheese", "pulver", "cracker",
	"cookie", "bread", "biscuit",
)

// LooksLikeDrink 名稱是否為飲品
func LooksLikeDrink(name string) bool {
	drink := false
	for _, t := range scoringTokens(name) {
		if notDrinkWords[t] {
			return false
		}
		if drinkWords[t] {
			drink = true
		}
	}
	return drink
}
