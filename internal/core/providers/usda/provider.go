// Package usda USDA FoodData Central 資料來源
package usda

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"nutrition-lookup/internal/core/matching"
	"nutrition-lookup/internal/core/nutrition"
	"nutrition-lookup/internal/core/providers/restclient"
	"nutrition-lookup/internal/infrastructure/config"
)

// ProviderID 資料來源識別碼
const ProviderID = "usda"

const (
	maxVariants   = 3
	minNameScore  = matching.PackagedAcceptScore
	kjPerKcal     = 4.184
	searchPath    = "/foods/search"
	barcodeBranch = "Branded"
)

// 營養素編號
const (
	nutrientEnergy         = 1008
	nutrientEnergyAtwater  = 2047
	nutrientEnergySpecific = 2048
	nutrientProtein        = 1003
	nutrientFat            = 1004
	nutrientCarbs          = 1005
	nutrientFiber          = 1079
	nutrientSugars         = 2000
	nutrientSugarsLegacy   = 1063
	nutrientSatFat         = 1258
	nutrientSodium         = 1093
)

// dataTypeWeight 資料類型可信度權重
var dataTypeWeight = map[string]float64{
	"Foundation":     1.0,
	"SR Legacy":      0.97,
	"Survey (FNDDS)": 0.92,
	barcodeBranch:    0.85,
	"Experimental":   0.8,
}

// Provider USDA FoodData Central
type Provider struct {
	config config.USDAConfig
	client *restclient.Client
}

var _ nutrition.BarcodeProvider = (*Provider)(nil)

// New 創建 USDA 資料來源
func New(cfg config.USDAConfig, cache nutrition.Cache) *Provider {
	client := restclient.New(ProviderID, restclient.Options{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		Headers: map[string]string{"X-Api-Key": cfg.APIKey},
	}, cache)

	return &Provider{config: cfg, client: client}
}

// ID 資料來源識別碼
func (p *Provider) ID() string { return ProviderID }

// IsAvailable 需啟用且設定 API Key
func (p *Provider) IsAvailable(nutrition.LookupContext) bool {
	return p.config.Enabled && p.config.APIKey != ""
}

// GetPriority 美國最優先，其他區域作為後備
func (p *Provider) GetPriority(lc nutrition.LookupContext) int {
	switch lc.Region {
	case nutrition.RegionUS:
		return 100
	case nutrition.RegionOther:
		return 60
	case nutrition.RegionEU:
		return 50
	case nutrition.RegionCH:
		return 40
	}
	return 50
}

// FindByText 依序嘗試查詢變體，回傳第一個合格的最佳結果
func (p *Provider) FindByText(ctx context.Context, query string, lc nutrition.LookupContext) (*nutrition.ProviderResult, error) {
	allowProcessed := lc.Mode == nutrition.ModePackaged || matching.QueryImpliesProcessed(query)

	variants := matching.BuildQueryVariants(query)
	if len(variants) > maxVariants {
		variants = variants[:maxVariants]
	}

	for _, variant := range variants {
		foods, err := p.search(ctx, variant, dataTypes(allowProcessed))
		if err != nil {
			return nil, err
		}

		if food, score := pickBest(query, foods, allowProcessed, lc.Mode); food != nil {
			return p.toResult(food, query, score, variant), nil
		}
	}
	return nil, nil
}

// GetByBarcode 以 gtinUpc 查詢品牌食品
func (p *Provider) GetByBarcode(ctx context.Context, code string, _ nutrition.LookupContext) (*nutrition.ProviderResult, error) {
	foods, err := p.search(ctx, code, []string{barcodeBranch})
	if err != nil {
		return nil, err
	}

	for i := range foods {
		if sameGTIN(foods[i].GtinUpc, code) {
			res := p.toResult(&foods[i], code, 1, code)
			res.Confidence = 0.9
			return res, nil
		}
	}
	return nil, nil
}

func (p *Provider) search(ctx context.Context, query string, types []string) ([]searchFood, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("pageSize", strconv.Itoa(p.pageSize()))
	params.Set("dataType", strings.Join(types, ","))

	var resp searchResponse
	if err := p.client.GetJSON(ctx, searchPath, params, &resp); err != nil {
		if errors.Is(err, restclient.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return resp.Foods, nil
}

func (p *Provider) pageSize() int {
	if p.config.PageSize > 0 {
		return p.config.PageSize
	}
	return 15
}

func dataTypes(allowProcessed bool) []string {
	types := []string{"Foundation", "SR Legacy", "Survey (FNDDS)"}
	if allowProcessed {
		types = append(types, barcodeBranch)
	}
	return types
}

// pickBest 過濾加工食品與缺少必要字詞的結果後，取名稱分數最高者
func pickBest(query string, foods []searchFood, allowProcessed bool, mode nutrition.Mode) (*searchFood, float64) {
	var (
		best      *searchFood
		bestScore float64
	)

	for i := range foods {
		f := &foods[i]
		if f.Description == "" {
			continue
		}
		if !allowProcessed && (f.DataType == barcodeBranch || matching.IsLikelyProcessedFood(f.Description, []string{f.FoodCategory})) {
			continue
		}
		if mode != nutrition.ModePackaged && !matching.MustTokensMatch(query, f.Description) {
			continue
		}
		if _, ok := f.calories(); !ok {
			continue
		}

		score := matching.NameMatchScore(query, f.Description)
		if best == nil || score > bestScore ||
			(score == bestScore && dataTypeWeight[f.DataType] > dataTypeWeight[best.DataType]) {
			best, bestScore = f, score
		}
	}

	if best == nil || bestScore < minNameScore {
		return nil, 0
	}
	return best, bestScore
}

func (p *Provider) toResult(f *searchFood, query string, score float64, variant string) *nutrition.ProviderResult {
	category := nutrition.CategorySolid
	if strings.Contains(strings.ToLower(f.FoodCategory), "beverage") || matching.LooksLikeDrink(f.Description) {
		category = nutrition.CategoryDrink
	}

	weight, ok := dataTypeWeight[f.DataType]
	if !ok {
		weight = 0.8
	}

	food := &nutrition.CanonicalFood{
		ProviderID:      ProviderID,
		ProviderFoodID:  strconv.FormatInt(f.FdcID, 10),
		DisplayName:     f.displayName(),
		OriginalQuery:   query,
		Category:        category,
		Per100g:         f.nutrients(),
		DefaultPortionG: nutrition.DefaultPortion(category),
		Meta: map[string]string{
			"data_type": f.DataType,
		},
	}
	if f.FoodCategory != "" {
		food.Meta["food_category"] = f.FoodCategory
	}
	if f.GtinUpc != "" {
		food.Meta["gtin"] = f.GtinUpc
	}
	if f.ServingSize > 0 && strings.EqualFold(f.ServingSizeUnit, "g") {
		food.DefaultPortionG = f.ServingSize
	}

	return &nutrition.ProviderResult{
		Food:       food,
		Confidence: score * weight,
		Debug: map[string]interface{}{
			"variant":    variant,
			"name_score": score,
			"data_type":  f.DataType,
		},
	}
}

// sameGTIN 忽略前導零比較條碼
func sameGTIN(a, b string) bool {
	a = strings.TrimLeft(strings.TrimSpace(a), "0")
	b = strings.TrimLeft(strings.TrimSpace(b), "0")
	return a != "" && a == b
}
