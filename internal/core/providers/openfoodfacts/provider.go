// Package openfoodfacts Open Food Facts 資料來源
package openfoodfacts

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"nutrition-lookup/internal/core/matching"
	"nutrition-lookup/internal/core/nutrition"
	"nutrition-lookup/internal/core/providers/restclient"
	"nutrition-lookup/internal/infrastructure/config"
)

// ProviderID 資料來源識別碼
const ProviderID = "openfoodfacts"

const (
	defaultBaseURL     = "https://%s.openfoodfacts.org"
	maxVariants        = 2
	minNameScore       = matching.PackagedAcceptScore
	textWeight         = 0.8
	barcodeConfidence  = 0.9
	unnamedConfidence  = 0.75
	textPriority       = 20
	packagedPriority   = 120
	defaultSearchLimit = 20
)

var searchFields = []string{
	"code", "product_name", "generic_name", "brands", "categories_tags",
	"nutriments", "serving_quantity",
}

// Provider Open Food Facts
type Provider struct {
	config config.OpenFoodFactsConfig
	client *restclient.Client
}

var _ nutrition.BarcodeProvider = (*Provider)(nil)

// New 創建 Open Food Facts 資料來源
func New(cfg config.OpenFoodFactsConfig, cache nutrition.Cache) *Provider {
	// 請求使用完整網址，依區域切換子網域
	client := restclient.New(ProviderID, restclient.Options{
		Timeout:   cfg.Timeout,
		UserAgent: cfg.UserAgent,
	}, cache)

	return &Provider{config: cfg, client: client}
}

// ID 資料來源識別碼
func (p *Provider) ID() string { return ProviderID }

// IsAvailable 是否啟用
func (p *Provider) IsAvailable(nutrition.LookupContext) bool {
	return p.config.Enabled
}

// GetPriority 包裝食品模式優先，否則作為最後的後備
func (p *Provider) GetPriority(lc nutrition.LookupContext) int {
	if lc.Mode == nutrition.ModePackaged {
		return packagedPriority
	}
	return textPriority
}

// FindByText 文字搜尋
func (p *Provider) FindByText(ctx context.Context, query string, lc nutrition.LookupContext) (*nutrition.ProviderResult, error) {
	lang, _ := nutrition.SplitLocale(lc.Locale)
	allowProcessed := lc.Mode == nutrition.ModePackaged || matching.QueryImpliesProcessed(query)

	variants := matching.BuildQueryVariants(query)
	if len(variants) > maxVariants {
		variants = variants[:maxVariants]
	}

	for _, variant := range variants {
		products, err := p.search(ctx, variant, lang, lc.Region)
		if err != nil {
			return nil, err
		}

		best, score := pickBest(query, products, lang, allowProcessed, lc.Mode)
		if best == nil {
			continue
		}

		res := p.toResult(best, query, lang)
		res.Confidence = score * textWeight
		res.Debug["variant"] = variant
		res.Debug["name_score"] = score
		return res, nil
	}
	return nil, nil
}

// GetByBarcode 以條碼取得產品
func (p *Provider) GetByBarcode(ctx context.Context, code string, lc nutrition.LookupContext) (*nutrition.ProviderResult, error) {
	lang, _ := nutrition.SplitLocale(lc.Locale)

	params := url.Values{}
	params.Set("fields", strings.Join(withLocalizedName(searchFields, lang), ","))

	var resp productResponse
	endpoint := p.baseURL(lc.Region) + "/api/v2/product/" + url.PathEscape(code) + ".json"
	if err := p.client.GetJSON(ctx, endpoint, params, &resp); err != nil {
		if errors.Is(err, restclient.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if statusOf(resp.Status) != 1 || resp.Product == nil {
		return nil, nil
	}
	if resp.Product.code() == "" {
		resp.Product["code"] = code
	}

	res := p.toResult(resp.Product, code, lang)
	res.Confidence = barcodeConfidence
	if resp.Product.name(lang) == "" {
		res.Confidence = unnamedConfidence
	}
	return res, nil
}

func (p *Provider) search(ctx context.Context, query, lang string, region nutrition.Region) ([]product, error) {
	params := url.Values{}
	params.Set("search_terms", query)
	params.Set("search_simple", "1")
	params.Set("action", "process")
	params.Set("json", "1")
	params.Set("page_size", strconv.Itoa(p.pageSize()))
	params.Set("fields", strings.Join(withLocalizedName(searchFields, lang), ","))

	var resp searchResponse
	if err := p.client.GetJSON(ctx, p.baseURL(region)+"/cgi/search.pl", params, &resp); err != nil {
		if errors.Is(err, restclient.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return resp.Products, nil
}

func (p *Provider) pageSize() int {
	if p.config.PageSize > 0 {
		return p.config.PageSize
	}
	return defaultSearchLimit
}

// baseURL 依區域選擇子網域；設定中沒有 %s 時直接使用
func (p *Provider) baseURL(region nutrition.Region) string {
	base := p.config.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	if !strings.Contains(base, "%s") {
		return strings.TrimRight(base, "/")
	}

	sub := "world"
	switch region {
	case nutrition.RegionUS:
		sub = "us"
	case nutrition.RegionCH:
		sub = "ch"
	}
	return fmt.Sprintf(base, sub)
}

func pickBest(query string, products []product, lang string, allowProcessed bool, mode nutrition.Mode) (product, float64) {
	var (
		best      product
		bestScore float64
	)
	for _, prod := range products {
		name := prod.name(lang)
		if name == "" {
			continue
		}
		if _, ok := prod.calories(); !ok {
			continue
		}
		if !allowProcessed && matching.IsLikelyProcessedFood(name, prod.categories()) {
			continue
		}
		if mode != nutrition.ModePackaged && !matching.MustTokensMatch(query, name) {
			continue
		}
		if score := matching.NameMatchScore(query, name); best == nil || score > bestScore {
			best, bestScore = prod, score
		}
	}
	if best == nil || bestScore < minNameScore {
		return nil, 0
	}
	return best, bestScore
}

func (p *Provider) toResult(prod product, query, lang string) *nutrition.ProviderResult {
	category := nutrition.CategorySolid
	if prod.isDrink(lang) {
		category = nutrition.CategoryDrink
	}

	name := prod.name(lang)
	if brand := prod.brand(); brand != "" && name != "" &&
		!strings.Contains(strings.ToLower(name), strings.ToLower(brand)) {
		name = name + " (" + brand + ")"
	}
	if name == "" {
		name = query
	}

	food := &nutrition.CanonicalFood{
		ProviderID:      ProviderID,
		ProviderFoodID:  prod.code(),
		DisplayName:     name,
		OriginalQuery:   query,
		Category:        category,
		Per100g:         prod.nutrients(),
		DefaultPortionG: nutrition.DefaultPortion(category),
		Meta:            map[string]string{"barcode": prod.code()},
	}
	if serving, ok := prod.servingGrams(); ok {
		food.DefaultPortionG = serving
	}

	return &nutrition.ProviderResult{
		Food:  food,
		Debug: map[string]interface{}{"categories": prod.categories()},
	}
}

func withLocalizedName(fields []string, lang string) []string {
	if lang == "" {
		return fields
	}
	out := make([]string, 0, len(fields)+1)
	out = append(out, fields...)
	return append(out, "product_name_"+lang)
}
