package localfood

import (
	"database/sql"
	"strings"

	"nutrition-lookup/internal/core/nutrition"
)

// foodRow local_foods 的一筆資料
type foodRow struct {
	ID              string
	Locale          string
	Name            string
	NormalizedName  string
	Aliases         []string
	Category        nutrition.FoodCategory
	Nutrients       nutrition.CanonicalNutrients
	DefaultPortionG float64
	Popularity      int
	Curated         bool
}

func (r *foodRow) scan(rows *sql.Rows) error {
	var (
		aliases, category                              string
		calories                                       float64
		protein, carbs, fat, fiber, sugars, satFat, na sql.NullFloat64
	)

	err := rows.Scan(
		&r.ID, &r.Locale, &r.Name, &r.NormalizedName, &aliases, &category,
		&calories, &protein, &carbs, &fat, &fiber, &sugars, &satFat, &na,
		&r.DefaultPortionG, &r.Popularity, &r.Curated,
	)
	if err != nil {
		return err
	}

	r.Aliases = splitAliases(aliases)
	r.Category = nutrition.FoodCategory(category)
	r.Nutrients = nutrition.CanonicalNutrients{
		Calories: nutrition.Float(calories),
		Protein:  nullable(protein),
		Carbs:    nullable(carbs),
		Fat:      nullable(fat),
		Fiber:    nullable(fiber),
		Sugars:   nullable(sugars),
		SatFat:   nullable(satFat),
		Sodium:   nullable(na),
	}
	return nil
}

// toCanonical 轉為標準食物；nil 資料回傳 nil
func (r *foodRow) toCanonical(query string) *nutrition.CanonicalFood {
	if r == nil {
		return nil
	}

	portion := r.DefaultPortionG
	if portion <= 0 {
		portion = nutrition.DefaultPortion(r.Category)
	}

	meta := map[string]string{"source": "imported"}
	if r.Curated {
		meta["source"] = "curated"
	}
	if r.Locale != "" {
		meta["locale"] = r.Locale
	}

	return &nutrition.CanonicalFood{
		ProviderID:      ProviderID,
		ProviderFoodID:  r.ID,
		DisplayName:     r.Name,
		OriginalQuery:   query,
		Category:        r.Category,
		Per100g:         r.Nutrients,
		DefaultPortionG: portion,
		Meta:            meta,
	}
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return nutrition.Float(v.Float64)
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func splitAliases(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, aliasSeparator)
}
