package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nutrition-lookup/internal/core/nutrition"
	"nutrition-lookup/internal/infrastructure/config"
	"nutrition-lookup/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	result    *nutrition.ProviderResult
	err       error
	lastQuery string
	lastLC    nutrition.LookupContext
}

func (f *fakeService) FindNutrition(_ context.Context, query string, lc nutrition.LookupContext) (*nutrition.ProviderResult, error) {
	f.lastQuery, f.lastLC = query, lc
	return f.result, f.err
}

func (f *fakeService) FindByBarcode(_ context.Context, barcode string, lc nutrition.LookupContext) (*nutrition.ProviderResult, error) {
	f.lastQuery, f.lastLC = barcode, lc
	return f.result, f.err
}

type fakeReporter struct{ ready bool }

func (f fakeReporter) Status() map[string]interface{} {
	return map[string]interface{}{"providers": map[string]bool{"local": f.ready}}
}

func (f fakeReporter) Ready() bool { return f.ready }

func testConfig() *config.Config {
	return &config.Config{
		App:       config.AppConfig{Version: "test"},
		Server:    config.ServerConfig{RequestTimeout: time.Second, MaxBodyBytes: 1024},
		RateLimit: config.RateLimitConfig{Enabled: false},
	}
}

func carrotResult() *nutrition.ProviderResult {
	return &nutrition.ProviderResult{
		Food: &nutrition.CanonicalFood{
			ProviderID:      "local",
			DisplayName:     "Carrot",
			Category:        nutrition.CategorySolid,
			Per100g:         nutrition.CanonicalNutrients{Calories: nutrition.Float(41), Protein: nutrition.Float(1)},
			DefaultPortionG: 100,
		},
		Confidence: 0.98,
		Debug:      map[string]interface{}{"trace_id": "abc"},
	}
}

func init() {
	gin.SetMode(gin.TestMode)
}

func doRequest(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLookup_Found(t *testing.T) {
	svc := &fakeService{result: carrotResult()}
	r := SetupRouter(testConfig(), svc, nil)

	w := doRequest(r, http.MethodPost, "/api/v1/nutrition/lookup",
		`{"query":" carrot ","locale":"de-CH","mode":"ingredient","category_hint":"veg","portion_grams":150}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	assert.Equal(t, "carrot", svc.lastQuery)
	assert.Equal(t, "de-CH", svc.lastLC.Locale)
	assert.Equal(t, nutrition.HintVeg, svc.lastLC.CategoryHint)
	assert.Equal(t, 150.0, body["portion_grams"])
	assert.InDelta(t, 61.5, body["portion"].(map[string]interface{})["calories"], 0.001)
	assert.NotEmpty(t, body["request_id"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Nil(t, body["debug"], "debug trace only on request")
}

func TestLookup_DebugTrace(t *testing.T) {
	r := SetupRouter(testConfig(), &fakeService{result: carrotResult()}, nil)

	w := doRequest(r, http.MethodPost, "/api/v1/nutrition/lookup", `{"query":"carrot","debug":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"trace_id":"abc"`)
	assert.Contains(t, w.Body.String(), `"portion_grams":100`)
}

func TestLookup_Errors(t *testing.T) {
	tests := []struct {
		name   string
		svc    *fakeService
		body   string
		status int
		code   string
	}{
		{"unknown nutrition", &fakeService{}, `{"query":"dragonfruit"}`, http.StatusNotFound, "NUTRITION_UNKNOWN"},
		{"missing query", &fakeService{}, `{"locale":"en-US"}`, http.StatusBadRequest, common.ErrCodeInvalidRequest},
		{"blank query", &fakeService{}, `{"query":"   "}`, http.StatusBadRequest, common.ErrCodeInvalidRequest},
		{"malformed json", &fakeService{}, `{"query":`, http.StatusBadRequest, common.ErrCodeInvalidRequest},
		{"negative portion", &fakeService{}, `{"query":"apple","portion_grams":-1}`, http.StatusBadRequest, common.ErrCodeInvalidRequest},
		{"invalid context", &fakeService{err: nutrition.ErrInvalidContext}, `{"query":"apple","mode":"x"}`, http.StatusBadRequest, common.ErrCodeInvalidRequest},
		{"unexpected error", &fakeService{err: assert.AnError}, `{"query":"apple"}`, http.StatusInternalServerError, common.ErrCodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := SetupRouter(testConfig(), tt.svc, nil)
			w := doRequest(r, http.MethodPost, "/api/v1/nutrition/lookup", tt.body)
			assert.Equal(t, tt.status, w.Code)

			var body common.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
		})
	}
}

func TestBarcode(t *testing.T) {
	svc := &fakeService{result: carrotResult()}
	r := SetupRouter(testConfig(), svc, nil)

	w := doRequest(r, http.MethodGet, "/api/v1/nutrition/barcode/4006381333931?locale=de-DE", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "4006381333931", svc.lastQuery)
	assert.Equal(t, "de-DE", svc.lastLC.Locale)

	w = doRequest(r, http.MethodGet, "/api/v1/nutrition/barcode/not-a-code", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_BARCODE")
}

func TestBodySizeLimit(t *testing.T) {
	r := SetupRouter(testConfig(), &fakeService{result: carrotResult()}, nil)

	body := `{"query":"` + strings.Repeat("a", 2048) + `"}`
	w := doRequest(r, http.MethodPost, "/api/v1/nutrition/lookup", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, Requests: 2, Window: time.Minute}
	r := SetupRouter(cfg, &fakeService{result: carrotResult()}, nil)

	for i := 0; i < 2; i++ {
		w := doRequest(r, http.MethodPost, "/api/v1/nutrition/lookup", `{"query":"carrot"}`)
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := doRequest(r, http.MethodPost, "/api/v1/nutrition/lookup", `{"query":"carrot"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// 健康檢查不受限流
	w = doRequest(r, http.MethodGet, "/live", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthEndpoints(t *testing.T) {
	r := SetupRouter(testConfig(), &fakeService{}, fakeReporter{ready: true})

	w := doRequest(r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"version":"test"`)
	assert.Contains(t, w.Body.String(), `"components"`)

	assert.Equal(t, http.StatusOK, doRequest(r, http.MethodGet, "/ready", "").Code)
	assert.Equal(t, http.StatusOK, doRequest(r, http.MethodGet, "/live", "").Code)

	r = SetupRouter(testConfig(), &fakeService{}, fakeReporter{ready: false})
	assert.Equal(t, http.StatusServiceUnavailable, doRequest(r, http.MethodGet, "/ready", "").Code)

	r = SetupRouter(testConfig(), &fakeService{}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, doRequest(r, http.MethodGet, "/ready", "").Code)
}
