// Package localfood 本地精選食物庫（sqlite）
package localfood

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"nutrition-lookup/internal/core/matching"
	"nutrition-lookup/internal/core/nutrition"
	"nutrition-lookup/internal/pkg/common"

	"github.com/agnivade/levenshtein"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const (
	containsLimit       = 10
	fuzzyMinSimilarity  = 0.85
	fuzzyLengthSlack    = 3
	aliasSeparator      = "|"
	selectFoodColumns   = `id, locale, name, normalized_name, aliases, category, calories, protein, carbs, fat, fiber, sugars, sat_fat, sodium, default_portion_g, popularity, curated`
	localeFilterClause  = `locale IN (?, ?, '')`
	curatedFilterClause = `curated = 1`
)

// Store 本地食物資料庫
type Store struct {
	db *sql.DB
}

var _ nutrition.LocalFoodStore = (*Store)(nil)

// Open 開啟（必要時建立）資料庫
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite 單一寫入者；:memory: 也需要共用同一連線
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// Close 關閉資料庫
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS local_foods (
        id TEXT PRIMARY KEY,
        locale TEXT NOT NULL DEFAULT '',
        name TEXT NOT NULL,
        normalized_name TEXT NOT NULL,
        aliases TEXT NOT NULL DEFAULT '',
        category TEXT NOT NULL DEFAULT 'solid',
        calories REAL NOT NULL,
        protein REAL,
        carbs REAL,
        fat REAL,
        fiber REAL,
        sugars REAL,
        sat_fat REAL,
        sodium REAL,
        default_portion_g REAL NOT NULL DEFAULT 0,
        popularity INTEGER NOT NULL DEFAULT 0,
        curated INTEGER NOT NULL DEFAULT 0
    );

    CREATE INDEX IF NOT EXISTS idx_local_foods_normalized ON local_foods(normalized_name);
    CREATE INDEX IF NOT EXISTS idx_local_foods_locale ON local_foods(locale);
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Count 資料筆數
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM local_foods`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count foods: %w", err)
	}
	return n, nil
}

// FindLocalFood 快速路徑查詢，只使用精選資料：
// 完全符合名稱或別名，其次依熱門度的整詞包含，最後是編輯距離
func (s *Store) FindLocalFood(ctx context.Context, query, locale string) (*nutrition.CanonicalFood, error) {
	normalized := matching.Normalize(query)
	if normalized == "" {
		return nil, nil
	}
	exactLocale, lang := localeKeys(locale)

	row, err := s.findExact(ctx, normalized, exactLocale, lang)
	if err != nil || row != nil {
		return row.toCanonical(query), err
	}

	row, err = s.findContains(ctx, query, normalized, exactLocale, lang)
	if err != nil || row != nil {
		return row.toCanonical(query), err
	}

	row, err = s.findFuzzy(ctx, normalized, exactLocale, lang)
	if err != nil || row != nil {
		return row.toCanonical(query), err
	}
	return nil, nil
}

func (s *Store) findExact(ctx context.Context, normalized, exactLocale, lang string) (*foodRow, error) {
	query := `SELECT ` + selectFoodColumns + ` FROM local_foods
        WHERE ` + curatedFilterClause + ` AND ` + localeFilterClause + `
          AND (normalized_name = ? OR ('|' || aliases || '|') LIKE ('%|' || ? || '|%'))
        ORDER BY (locale = ?) DESC, popularity DESC
        LIMIT 1`

	rows, err := s.queryRows(ctx, query, exactLocale, lang, normalized, normalized, exactLocale)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

func (s *Store) findContains(ctx context.Context, original, normalized, exactLocale, lang string) (*foodRow, error) {
	query := `SELECT ` + selectFoodColumns + ` FROM local_foods
        WHERE ` + curatedFilterClause + ` AND ` + localeFilterClause + `
          AND normalized_name LIKE ('%' || ? || '%')
        ORDER BY popularity DESC
        LIMIT ?`

	rows, err := s.queryRows(ctx, query, exactLocale, lang, normalized, containsLimit)
	if err != nil {
		return nil, err
	}

	queryIsFat := matching.IsOilOrFatName(original)
	for i := range rows {
		r := &rows[i]
		if !containsWholeWord(r.NormalizedName, normalized) {
			continue
		}
		if matching.IsOilOrFatName(r.Name) != queryIsFat {
			continue
		}
		outcome := matching.ValidateMatch(original, r.Name, matching.ModeIngredient)
		if outcome.IsValid && !outcome.IsSuspicious {
			return r, nil
		}
	}
	return nil, nil
}

func (s *Store) findFuzzy(ctx context.Context, normalized, exactLocale, lang string) (*foodRow, error) {
	length := utf8.RuneCountInString(normalized)
	query := `SELECT ` + selectFoodColumns + ` FROM local_foods
        WHERE ` + curatedFilterClause + ` AND ` + localeFilterClause + `
          AND length(normalized_name) BETWEEN ? AND ?`

	rows, err := s.queryRows(ctx, query, exactLocale, lang, length-fuzzyLengthSlack, length+fuzzyLengthSlack)
	if err != nil {
		return nil, err
	}

	var (
		best    *foodRow
		bestSim float64
	)
	for i := range rows {
		r := &rows[i]
		sim := similarity(normalized, r.NormalizedName)
		if sim < fuzzyMinSimilarity {
			continue
		}
		if best == nil || sim > bestSim || (sim == bestSim && r.Popularity > best.Popularity) {
			best, bestSim = r, sim
		}
	}
	if best != nil {
		common.LogDebug("本地食物模糊比對",
			zap.String("query", normalized),
			zap.String("match", best.NormalizedName),
			zap.Float64("similarity", bestSim),
		)
	}
	return best, nil
}

// search 供資料來源使用：名稱或別名包含指定詞的所有資料（精選與匯入）
func (s *Store) search(ctx context.Context, term, exactLocale, lang string, limit int) ([]foodRow, error) {
	query := `SELECT ` + selectFoodColumns + ` FROM local_foods
        WHERE ` + localeFilterClause + `
          AND (normalized_name LIKE ('%' || ? || '%') OR aliases LIKE ('%' || ? || '%'))
        ORDER BY curated DESC, popularity DESC
        LIMIT ?`
	return s.queryRows(ctx, query, exactLocale, lang, term, term, limit)
}

func (s *Store) queryRows(ctx context.Context, query string, args ...interface{}) ([]foodRow, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query local foods: %w", err)
	}
	defer rows.Close()

	var out []foodRow
	for rows.Next() {
		var r foodRow
		if err := r.scan(rows); err != nil {
			return nil, fmt.Errorf("failed to scan local food: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// localeKeys 回傳完整 locale 與語言碼，皆為小寫
func localeKeys(locale string) (string, string) {
	lang, country := nutrition.SplitLocale(locale)
	if country == "" {
		return lang, lang
	}
	return lang + "-" + strings.ToLower(country), lang
}

func containsWholeWord(haystack, needle string) bool {
	return strings.Contains(" "+haystack+" ", " "+needle+" ")
}

// similarity 以編輯距離換算的相似度，範圍 [0,1]
func similarity(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 0
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}
