package usda

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"nutrition-lookup/internal/core/nutrition"
	"nutrition-lookup/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchFixture = `{
  "totalHits": 3,
  "foods": [
    {
      "fdcId": 2258586,
      "description": "Carrot cake, with frosting",
      "dataType": "Branded",
      "brandName": "SWEETCO",
      "gtinUpc": "012345678905",
      "foodNutrients": [{"nutrientId": 1008, "unitName": "KCAL", "value": 410}]
    },
    {
      "fdcId": 170393,
      "description": "Carrots, raw",
      "dataType": "SR Legacy",
      "foodCategory": "Vegetables and Vegetable Products",
      "foodNutrients": [
        {"nutrientId": 1008, "unitName": "KCAL", "value": 41},
        {"nutrientId": 1003, "unitName": "G", "value": 0.93},
        {"nutrientId": 1004, "unitName": "G", "value": 0.24},
        {"nutrientId": 1005, "unitName": "G", "value": 9.58},
        {"nutrientId": 1079, "unitName": "G", "value": 2.8},
        {"nutrientId": 2000, "unitName": "G", "value": 4.74},
        {"nutrientId": 1093, "unitName": "MG", "value": 69}
      ]
    },
    {
      "fdcId": 999,
      "description": "Carrots, no energy",
      "dataType": "Foundation",
      "foodNutrients": []
    }
  ]
}`

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(config.USDAConfig{
		Enabled:  true,
		APIKey:   "test-key",
		BaseURL:  srv.URL,
		PageSize: 10,
		Timeout:  2 * time.Second,
	}, nil)
}

func TestFindByText_PicksBestWholeFood(t *testing.T) {
	var gotKey, gotTypes string
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Api-Key")
		gotTypes = r.URL.Query().Get("dataType")
		assert.Equal(t, "/foods/search", r.URL.Path)
		_, _ = w.Write([]byte(searchFixture))
	})

	res, err := p.FindByText(context.Background(), "carrot", nutrition.LookupContext{Mode: nutrition.ModeIngredient})
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, "test-key", gotKey)
	assert.NotContains(t, gotTypes, "Branded")

	assert.Equal(t, "170393", res.Food.ProviderFoodID)
	assert.Equal(t, "Carrots, raw", res.Food.DisplayName)
	assert.Equal(t, nutrition.CategorySolid, res.Food.Category)
	assert.InDelta(t, 41, *res.Food.Per100g.Calories, 0.001)
	assert.InDelta(t, 69, *res.Food.Per100g.Sodium, 0.001)
	assert.InDelta(t, 0.97, res.Confidence, 0.001)
	assert.Nil(t, res.Food.Per100g.SatFat)
}

func TestFindByText_PackagedModeIncludesBranded(t *testing.T) {
	var gotTypes string
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotTypes = r.URL.Query().Get("dataType")
		_, _ = w.Write([]byte(`{"foods":[]}`))
	})

	res, err := p.FindByText(context.Background(), "carrot cake", nutrition.LookupContext{Mode: nutrition.ModePackaged})
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Contains(t, gotTypes, "Branded")
}

func TestFindByText_NoAcceptableMatch(t *testing.T) {
	var calls atomic.Int32
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(searchFixture))
	})

	res, err := p.FindByText(context.Background(), "spinach", nutrition.LookupContext{Mode: nutrition.ModeIngredient})
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
	assert.LessOrEqual(t, calls.Load(), int32(maxVariants))
}

func TestFindByText_UpstreamError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := p.FindByText(context.Background(), "carrot", nutrition.LookupContext{})
	assert.Error(t, err)
}

func TestGetByBarcode(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Branded", r.URL.Query().Get("dataType"))
		_, _ = w.Write([]byte(searchFixture))
	})

	res, err := p.GetByBarcode(context.Background(), "0012345678905", nutrition.LookupContext{})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "SWEETCO Carrot cake, with frosting", res.Food.DisplayName)
	assert.Equal(t, 0.9, res.Confidence)
	assert.Equal(t, "012345678905", res.Food.Meta["gtin"])

	res, err = p.GetByBarcode(context.Background(), "4006381333931", nutrition.LookupContext{})
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestNutrients_KilojouleConversion(t *testing.T) {
	f := searchFood{FoodNutrients: []foodNutrient{
		{NutrientID: nutrientEnergyAtwater, UnitName: "kJ", Value: 418.4},
		{NutrientID: nutrientFat, UnitName: "MG", Value: 500},
		{NutrientID: nutrientSodium, UnitName: "G", Value: 0.4},
	}}

	n := f.nutrients()
	assert.InDelta(t, 100, *n.Calories, 0.001)
	assert.InDelta(t, 0.5, *n.Fat, 0.001)
	assert.InDelta(t, 400, *n.Sodium, 0.001)
}

func TestAvailabilityAndPriority(t *testing.T) {
	p := New(config.USDAConfig{Enabled: true}, nil)
	assert.False(t, p.IsAvailable(nutrition.LookupContext{}), "api key required")

	p = New(config.USDAConfig{Enabled: true, APIKey: "k"}, nil)
	assert.True(t, p.IsAvailable(nutrition.LookupContext{}))

	us := p.GetPriority(nutrition.LookupContext{Region: nutrition.RegionUS})
	ch := p.GetPriority(nutrition.LookupContext{Region: nutrition.RegionCH})
	assert.Greater(t, us, ch)
}

func TestDrinkDetection(t *testing.T) {
	f := &searchFood{Description: "Orange juice, raw", FoodCategory: "Beverages", DataType: "Foundation"}
	res := (&Provider{}).toResult(f, "orange juice", 1, "orange juice")
	assert.Equal(t, nutrition.CategoryDrink, res.Food.Category)
	assert.Equal(t, float64(nutrition.DefaultDrinkPortion), res.Food.DefaultPortionG)
	assert.True(t, strings.HasPrefix(res.Food.ProviderID, "usda"))
}
