package swissfcdb

// component 成分參考資料
type component struct {
	ID   int    `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
	Unit string `json:"unit"`
}

// foodSummary 搜尋結果
type foodSummary struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// foodDetail 食物明細，數值為每 100g
type foodDetail struct {
	ID       int          `json:"id"`
	Name     string       `json:"name"`
	Category string       `json:"category"`
	Values   []valueEntry `json:"values"`
}

type valueEntry struct {
	ComponentID int     `json:"component_id"`
	Value       float64 `json:"value"`
}
