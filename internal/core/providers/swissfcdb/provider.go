// Package swissfcdb 瑞士食品成分資料庫資料來源
package swissfcdb

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"nutrition-lookup/internal/core/matching"
	"nutrition-lookup/internal/core/nutrition"
	"nutrition-lookup/internal/core/providers/restclient"
	"nutrition-lookup/internal/infrastructure/config"
	"nutrition-lookup/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ProviderID 資料來源識別碼
const ProviderID = "swissfcdb"

const (
	maxVariants       = 3
	searchLimit       = 10
	minNameScore      = matching.PackagedAcceptScore
	sourceWeight      = 0.95
	componentsLoadKey = "components"
	componentsTimeout = 10 * time.Second
	defaultLanguage   = "de"
)

var supportedLanguages = map[string]bool{"de": true, "fr": true, "it": true, "en": true}

// drinkCategoryWords 飲料分類（德/法/義/英）
var drinkCategoryWords = []string{"getränk", "boisson", "bevand", "beverage", "drink"}

// Provider 瑞士食品成分資料庫
type Provider struct {
	config config.SwissFCDBConfig
	client *restclient.Client

	group  singleflight.Group
	mu     sync.RWMutex
	loaded bool
	codes  map[int]string
}

var _ nutrition.Provider = (*Provider)(nil)

// New 創建瑞士資料來源
func New(cfg config.SwissFCDBConfig, cache nutrition.Cache) *Provider {
	return &Provider{
		config: cfg,
		client: restclient.New(ProviderID, restclient.Options{
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
		}, cache),
	}
}

// ID 資料來源識別碼
func (p *Provider) ID() string { return ProviderID }

// IsAvailable 是否啟用
func (p *Provider) IsAvailable(nutrition.LookupContext) bool {
	return p.config.Enabled && p.config.BaseURL != ""
}

// GetPriority 瑞士最優先，歐盟次之，其他區域不參與
func (p *Provider) GetPriority(lc nutrition.LookupContext) int {
	switch lc.Region {
	case nutrition.RegionCH:
		return 110
	case nutrition.RegionEU:
		return 70
	}
	return -1
}

// FindByText 文字查詢
func (p *Provider) FindByText(ctx context.Context, query string, lc nutrition.LookupContext) (*nutrition.ProviderResult, error) {
	if err := p.ensureComponents(ctx); err != nil {
		return nil, err
	}

	lang := language(lc.Locale)
	allowProcessed := lc.Mode == nutrition.ModePackaged || matching.QueryImpliesProcessed(query)

	variants := matching.BuildQueryVariants(query)
	if len(variants) > maxVariants {
		variants = variants[:maxVariants]
	}

	for _, variant := range variants {
		foods, err := p.search(ctx, variant, lang)
		if err != nil {
			return nil, err
		}

		best, score := pickBest(query, foods, allowProcessed, lc.Mode)
		if best == nil {
			continue
		}

		detail, err := p.detail(ctx, best.ID, lang)
		if err != nil {
			return nil, err
		}
		if detail == nil {
			continue
		}
		return p.toResult(detail, query, variant, score), nil
	}
	return nil, nil
}

// ensureComponents 載入成分代碼對照表；並行呼叫只會觸發一次請求，失敗時下次重試
func (p *Provider) ensureComponents(ctx context.Context) error {
	p.mu.RLock()
	loaded := p.loaded
	p.mu.RUnlock()
	if loaded {
		return nil
	}

	ch := p.group.DoChan(componentsLoadKey, func() (interface{}, error) {
		p.mu.RLock()
		done := p.loaded
		p.mu.RUnlock()
		if done {
			return nil, nil
		}

		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), componentsTimeout)
		defer cancel()

		codes, err := p.fetchComponents(loadCtx)
		if err != nil {
			return nil, err
		}

		p.mu.Lock()
		p.codes = codes
		p.loaded = true
		p.mu.Unlock()

		common.LogInfo("瑞士成分代碼載入完成", zap.Int("components", len(codes)))
		return nil, nil
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Provider) fetchComponents(ctx context.Context) (map[int]string, error) {
	params := url.Values{}
	params.Set("lang", defaultLanguage)

	var components []component
	if err := p.client.GetJSON(ctx, "/components", params, &components); err != nil {
		return nil, fmt.Errorf("failed to load components: %w", err)
	}

	codes := make(map[int]string, len(components))
	for _, c := range components {
		if c.Code != "" {
			codes[c.ID] = strings.ToUpper(c.Code)
		}
	}
	if len(codes) == 0 {
		return nil, errors.New("failed to load components: empty reference list")
	}
	return codes, nil
}

func (p *Provider) search(ctx context.Context, query, lang string) ([]foodSummary, error) {
	params := url.Values{}
	params.Set("search", query)
	params.Set("lang", lang)
	params.Set("limit", strconv.Itoa(searchLimit))

	var foods []foodSummary
	if err := p.client.GetJSON(ctx, "/foods", params, &foods); err != nil {
		if errors.Is(err, restclient.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return foods, nil
}

func (p *Provider) detail(ctx context.Context, id int, lang string) (*foodDetail, error) {
	params := url.Values{}
	params.Set("lang", lang)

	var food foodDetail
	if err := p.client.GetJSON(ctx, "/foods/"+strconv.Itoa(id), params, &food); err != nil {
		if errors.Is(err, restclient.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &food, nil
}

func pickBest(query string, foods []foodSummary, allowProcessed bool, mode nutrition.Mode) (*foodSummary, float64) {
	var (
		best      *foodSummary
		bestScore float64
	)
	for i := range foods {
		f := &foods[i]
		if f.Name == "" {
			continue
		}
		if !allowProcessed && matching.IsLikelyProcessedFood(f.Name, []string{f.Category}) {
			continue
		}
		if mode != nutrition.ModePackaged && !matching.MustTokensMatch(query, f.Name) {
			continue
		}
		if score := matching.NameMatchScore(query, f.Name); best == nil || score > bestScore {
			best, bestScore = f, score
		}
	}
	if best == nil || bestScore < minNameScore {
		return nil, 0
	}
	return best, bestScore
}

func (p *Provider) toResult(f *foodDetail, query, variant string, score float64) *nutrition.ProviderResult {
	p.mu.RLock()
	values := make(map[string]float64, len(f.Values))
	for _, v := range f.Values {
		if code, ok := p.codes[v.ComponentID]; ok {
			values[code] = v.Value
		}
	}
	p.mu.RUnlock()

	category := nutrition.CategorySolid
	if isDrinkCategory(f.Category) || matching.LooksLikeDrink(f.Name) {
		category = nutrition.CategoryDrink
	}

	food := &nutrition.CanonicalFood{
		ProviderID:      ProviderID,
		ProviderFoodID:  strconv.Itoa(f.ID),
		DisplayName:     f.Name,
		OriginalQuery:   query,
		Category:        category,
		Per100g:         mapNutrients(values),
		DefaultPortionG: nutrition.DefaultPortion(category),
	}
	if f.Category != "" {
		food.Meta = map[string]string{"category": f.Category}
	}

	return &nutrition.ProviderResult{
		Food:       food,
		Confidence: score * sourceWeight,
		Debug: map[string]interface{}{
			"variant":    variant,
			"name_score": score,
		},
	}
}

// mapNutrients 成分代碼對應到標準營養素；鈉原始單位即為毫克
func mapNutrients(values map[string]float64) nutrition.CanonicalNutrients {
	pick := func(codes ...string) *float64 {
		for _, c := range codes {
			if v, ok := values[c]; ok {
				return nutrition.Float(v)
			}
		}
		return nil
	}

	return nutrition.CanonicalNutrients{
		Calories: pick("ENERC_KCAL"),
		Protein:  pick("PROT", "PROT625"),
		Carbs:    pick("CHOAVL", "CHO"),
		Fat:      pick("FAT"),
		Fiber:    pick("FIBT"),
		Sugars:   pick("SUGAR"),
		SatFat:   pick("FASAT"),
		Sodium:   pick("NA"),
	}
}

func language(locale string) string {
	lang, _ := nutrition.SplitLocale(locale)
	if supportedLanguages[lang] {
		return lang
	}
	return defaultLanguage
}

func isDrinkCategory(category string) bool {
	lc := strings.ToLower(category)
	for _, w := range drinkCategoryWords {
		if strings.Contains(lc, w) {
			return true
		}
	}
	return false
}
