package openfoodfacts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nutrition-lookup/internal/core/nutrition"
	"nutrition-lookup/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchFixture = `{
  "count": 3,
  "products": [
    {
      "code": "7610000000001",
      "product_name": "Haferflocken Riegel",
      "categories_tags": ["en:snacks", "en:cereal-bars"],
      "nutriments": {"energy-kcal_100g": 420}
    },
    {
      "code": "7610000000002",
      "product_name": "Haferflocken",
      "product_name_de": "Haferflocken fein",
      "brands": "Migros Bio, Migros",
      "categories_tags": ["en:cereals-and-their-products"],
      "nutriments": {"energy_100g": "1556", "proteins_100g": 13.5, "salt_100g": 0.02},
      "serving_quantity": "40"
    },
    {
      "code": "7610000000003",
      "product_name": "Haferflocken ohne Nährwerte",
      "nutriments": {}
    }
  ]
}`

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(config.OpenFoodFactsConfig{
		Enabled:   true,
		BaseURL:   srv.URL,
		UserAgent: "nutrition-lookup-test/1.0",
		PageSize:  5,
		Timeout:   2 * time.Second,
	}, nil)
}

func TestFindByText(t *testing.T) {
	var gotUA, gotTerms string
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotTerms = r.URL.Query().Get("search_terms")
		assert.Equal(t, "/cgi/search.pl", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("json"))
		assert.Contains(t, r.URL.Query().Get("fields"), "product_name_de")
		_, _ = w.Write([]byte(searchFixture))
	})

	res, err := p.FindByText(context.Background(), "Haferflocken", nutrition.LookupContext{Locale: "de-CH", Mode: nutrition.ModeIngredient})
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, "nutrition-lookup-test/1.0", gotUA)
	assert.Equal(t, "haferflocken", gotTerms)
	assert.Equal(t, "7610000000002", res.Food.ProviderFoodID)
	assert.Equal(t, "Haferflocken fein (Migros Bio)", res.Food.DisplayName)
	assert.InDelta(t, 1556/kjPerKcal, *res.Food.Per100g.Calories, 0.001)
	assert.InDelta(t, 8, *res.Food.Per100g.Sodium, 0.001)
	assert.Equal(t, 40.0, res.Food.DefaultPortionG)
	assert.Greater(t, res.Confidence, 0.0)
	assert.LessOrEqual(t, res.Confidence, textWeight)
}

func TestGetByBarcode(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v2/product/7613035974685.json":
			_, _ = w.Write([]byte(`{
			  "status": 1,
			  "product": {
			    "code": "7613035974685",
			    "product_name": "Eistee Zitrone",
			    "categories_tags": ["en:beverages", "en:iced-teas"],
			    "nutriments": {"energy-kcal_100g": 28, "sugars_100g": 6.8, "sodium_100g": 0.01}
			  }
			}`))
		case "/api/v2/product/7610000000009.json":
			_, _ = w.Write([]byte(`{"status": 1, "product": {"nutriments": {"energy-kcal_100g": 100}}}`))
		default:
			_, _ = w.Write([]byte(`{"status": 0, "status_verbose": "product not found"}`))
		}
	})
	ctx := context.Background()

	res, err := p.GetByBarcode(ctx, "7613035974685", nutrition.LookupContext{Mode: nutrition.ModePackaged})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, nutrition.CategoryDrink, res.Food.Category)
	assert.Equal(t, float64(nutrition.DefaultDrinkPortion), res.Food.DefaultPortionG)
	assert.InDelta(t, 10, *res.Food.Per100g.Sodium, 0.001)
	assert.Equal(t, barcodeConfidence, res.Confidence)

	res, err = p.GetByBarcode(ctx, "7610000000009", nutrition.LookupContext{})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, unnamedConfidence, res.Confidence)
	assert.Equal(t, "7610000000009", res.Food.ProviderFoodID)

	res, err = p.GetByBarcode(ctx, "4000000000000", nutrition.LookupContext{})
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestGetByBarcode_UpstreamFailure(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := p.GetByBarcode(context.Background(), "7613035974685", nutrition.LookupContext{})
	assert.Error(t, err)
}

func TestBaseURLByRegion(t *testing.T) {
	p := New(config.OpenFoodFactsConfig{Enabled: true}, nil)

	assert.Equal(t, "https://us.openfoodfacts.org", p.baseURL(nutrition.RegionUS))
	assert.Equal(t, "https://ch.openfoodfacts.org", p.baseURL(nutrition.RegionCH))
	assert.Equal(t, "https://world.openfoodfacts.org", p.baseURL(nutrition.RegionEU))
	assert.True(t, strings.HasPrefix(p.baseURL(""), "https://world."))
}

func TestPriority(t *testing.T) {
	p := New(config.OpenFoodFactsConfig{Enabled: true}, nil)
	assert.Greater(t,
		p.GetPriority(nutrition.LookupContext{Mode: nutrition.ModePackaged}),
		p.GetPriority(nutrition.LookupContext{Mode: nutrition.ModeIngredient}),
	)
}

func TestProductNutrients(t *testing.T) {
	prod := product{"nutriments": map[string]interface{}{
		"energy-kcal_100g": "52,5",
		"fat_100g":         0.3,
		"salt_100g":        1.5,
	}}

	n := prod.nutrients()
	assert.InDelta(t, 52.5, *n.Calories, 0.001)
	assert.InDelta(t, 0.3, *n.Fat, 0.001)
	assert.InDelta(t, 600, *n.Sodium, 0.001)
	assert.Nil(t, n.Protein)
}
