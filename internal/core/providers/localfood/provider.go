package localfood

import (
	"context"
	"strings"

	"nutrition-lookup/internal/core/matching"
	"nutrition-lookup/internal/core/nutrition"
)

// ProviderID 資料來源識別碼
const ProviderID = "local"

const (
	providerPriority = 80
	searchLimit      = 25
	curatedWeight    = 0.95
	importedWeight   = 0.85
	minProviderScore = matching.IngredientAcceptScore
)

// Provider 以本地資料庫參與平行查詢（包含匯入的非精選資料）
type Provider struct {
	store   *Store
	enabled bool
}

var _ nutrition.Provider = (*Provider)(nil)

// NewProvider 創建本地資料來源
func NewProvider(store *Store, enabled bool) *Provider {
	return &Provider{store: store, enabled: enabled}
}

// ID 資料來源識別碼
func (p *Provider) ID() string { return ProviderID }

// IsAvailable 是否啟用
func (p *Provider) IsAvailable(nutrition.LookupContext) bool {
	return p.enabled && p.store != nil
}

// GetPriority 所有區域相同
func (p *Provider) GetPriority(nutrition.LookupContext) int {
	return providerPriority
}

// FindByText 以查詢變體搜尋並挑選名稱或別名分數最高者
func (p *Provider) FindByText(ctx context.Context, query string, lc nutrition.LookupContext) (*nutrition.ProviderResult, error) {
	exactLocale, lang := localeKeys(lc.Locale)

	var (
		best      *foodRow
		bestScore float64
		bestVar   string
	)
	for _, variant := range matching.BuildQueryVariants(query) {
		term := searchTerm(variant)
		if term == "" {
			continue
		}

		rows, err := p.store.search(ctx, term, exactLocale, lang, searchLimit)
		if err != nil {
			return nil, err
		}

		for i := range rows {
			r := &rows[i]
			if lc.Mode != nutrition.ModePackaged && !matching.MustTokensMatch(query, r.Name) {
				continue
			}
			score := rowScore(query, r)
			if best == nil || score > bestScore ||
				(score == bestScore && r.Curated && !best.Curated) {
				row := *r
				best, bestScore, bestVar = &row, score, variant
			}
		}
		if bestScore >= 1 {
			break
		}
	}

	if best == nil || bestScore < minProviderScore {
		return nil, nil
	}

	weight := importedWeight
	if best.Curated {
		weight = curatedWeight
	}
	return &nutrition.ProviderResult{
		Food:       best.toCanonical(query),
		Confidence: bestScore * weight,
		Debug: map[string]interface{}{
			"variant":    bestVar,
			"name_score": bestScore,
			"curated":    best.Curated,
		},
	}, nil
}

// rowScore 名稱與別名中的最高分
func rowScore(query string, r *foodRow) float64 {
	score := matching.NameMatchScore(query, r.Name)
	for _, alias := range r.Aliases {
		if s := matching.NameMatchScore(query, alias); s > score {
			score = s
		}
	}
	return score
}

// searchTerm 取變體中最長的詞作為資料庫篩選條件
func searchTerm(variant string) string {
	var term string
	for _, w := range strings.Fields(variant) {
		if len([]rune(w)) > len([]rune(term)) {
			term = w
		}
	}
	return term
}
