package localfood

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"nutrition-lookup/internal/core/matching"
	"nutrition-lookup/internal/core/nutrition"
	"nutrition-lookup/internal/pkg/common"

	"go.uber.org/zap"
)

// Entry 匯入格式（JSON 種子檔的一筆資料）
type Entry struct {
	ID              string                       `json:"id,omitempty"`
	Locale          string                       `json:"locale,omitempty"`
	Name            string                       `json:"name"`
	Aliases         []string                     `json:"aliases,omitempty"`
	Category        nutrition.FoodCategory       `json:"category,omitempty"`
	Per100g         nutrition.CanonicalNutrients `json:"per_100g"`
	DefaultPortionG float64                      `json:"default_portion_g,omitempty"`
	Popularity      int                          `json:"popularity,omitempty"`
	Curated         bool                         `json:"curated,omitempty"`
}

// Validate 檢查必要欄位
func (e Entry) Validate() error {
	if matching.Normalize(e.Name) == "" {
		return errors.New("name is required")
	}
	if e.Per100g.Calories == nil {
		return fmt.Errorf("%s: calories are required", e.Name)
	}
	if *e.Per100g.Calories < 0 {
		return fmt.Errorf("%s: calories must not be negative", e.Name)
	}
	switch e.Category {
	case "", nutrition.CategorySolid, nutrition.CategoryDrink:
	default:
		return fmt.Errorf("%s: unknown category %q", e.Name, e.Category)
	}
	return nil
}

// Import 以單一交易寫入（同 id 覆寫），回傳寫入筆數
func (s *Store) Import(ctx context.Context, entries []Entry) (int, error) {
	for i, e := range entries {
		if err := e.Validate(); err != nil {
			return 0, fmt.Errorf("entry %d: %w", i, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO local_foods (id, locale, name, normalized_name, aliases, category, calories, protein, carbs, fat, fiber, sugars, sat_fat, sodium, default_portion_g, popularity, curated)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            locale = excluded.locale,
            name = excluded.name,
            normalized_name = excluded.normalized_name,
            aliases = excluded.aliases,
            category = excluded.category,
            calories = excluded.calories,
            protein = excluded.protein,
            carbs = excluded.carbs,
            fat = excluded.fat,
            fiber = excluded.fiber,
            sugars = excluded.sugars,
            sat_fat = excluded.sat_fat,
            sodium = excluded.sodium,
            default_portion_g = excluded.default_portion_g,
            popularity = excluded.popularity,
            curated = excluded.curated
    `)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		locale, _ := localeKeys(e.Locale)
		normalized := matching.Normalize(e.Name)
		category := e.Category
		if category == "" {
			category = nutrition.CategorySolid
		}
		id := e.ID
		if id == "" {
			id = locale + ":" + normalized
		}

		n := e.Per100g
		_, err := stmt.ExecContext(ctx,
			id, locale, strings.TrimSpace(e.Name), normalized, joinAliases(e.Aliases), string(category),
			*n.Calories, nullFloat(n.Protein), nullFloat(n.Carbs), nullFloat(n.Fat), nullFloat(n.Fiber),
			nullFloat(n.Sugars), nullFloat(n.SatFat), nullFloat(n.Sodium),
			e.DefaultPortionG, e.Popularity, e.Curated,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert %s: %w", e.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}
	return len(entries), nil
}

// ImportJSONFile 匯入 JSON 陣列格式的種子檔
func (s *Store) ImportJSONFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	var entries []Entry
	if err := common.DecodeJSONStrict(f, &entries); err != nil {
		return 0, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}

	n, err := s.Import(ctx, entries)
	if err != nil {
		return 0, err
	}
	common.LogInfo("本地食物匯入完成", zap.String("file", path), zap.Int("count", n))
	return n, nil
}

// joinAliases 正規化並去除重複的別名
func joinAliases(aliases []string) string {
	seen := make(map[string]bool, len(aliases))
	out := make([]string, 0, len(aliases))
	for _, a := range aliases {
		n := matching.Normalize(a)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return strings.Join(out, aliasSeparator)
}
