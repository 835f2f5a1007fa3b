package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"nutrition-lookup/internal/core/nutrition"
	"nutrition-lookup/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct {
	result *nutrition.ProviderResult
	err    error
	query  string
	lc     nutrition.LookupContext
	closed bool
}

func (s *stubService) FindNutrition(_ context.Context, query string, lc nutrition.LookupContext) (*nutrition.ProviderResult, error) {
	s.query, s.lc = query, lc
	return s.result, s.err
}

func (s *stubService) FindByBarcode(_ context.Context, barcode string, lc nutrition.LookupContext) (*nutrition.ProviderResult, error) {
	s.query, s.lc = barcode, lc
	return s.result, s.err
}

func (s *stubService) Close() error {
	s.closed = true
	return nil
}

func stubDeps(t *testing.T, svc *stubService) {
	t.Helper()
	origLoad, origNew := loadConfig, newService
	t.Cleanup(func() { loadConfig, newService = origLoad, origNew })

	loadConfig = func() (*config.Config, error) {
		return &config.Config{}, nil
	}
	newService = func(context.Context, *config.Config) (Service, error) {
		return svc, nil
	}
}

func oliveOil() *nutrition.ProviderResult {
	return &nutrition.ProviderResult{
		Food: &nutrition.CanonicalFood{
			ProviderID:      "usda",
			DisplayName:     "Oil, olive, salad or cooking",
			Category:        nutrition.CategorySolid,
			Per100g:         nutrition.CanonicalNutrients{Calories: nutrition.Float(884), Fat: nutrition.Float(100)},
			DefaultPortionG: 100,
		},
		Confidence: 0.92,
	}
}

func run(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := runCLI(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunCLI_HelpLookup(t *testing.T) {
	code, stdout, stderr := run("help", "lookup")

	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "nutrition-cli lookup <query> [flags]")
	assert.Empty(t, stderr)
}

func TestRunCLI_LookupText(t *testing.T) {
	svc := &stubService{result: oliveOil()}
	stubDeps(t, svc)

	code, stdout, stderr := run("lookup", "olive", "oil", "--locale", "de-CH", "--hint", "veg", "--portion", "10")

	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, "olive oil", svc.query)
	assert.Equal(t, "de-CH", svc.lc.Locale)
	assert.Equal(t, nutrition.HintVeg, svc.lc.CategoryHint)
	assert.Equal(t, nutrition.ModeIngredient, svc.lc.Mode)
	assert.Contains(t, stdout, "Oil, olive, salad or cooking")
	assert.Contains(t, stdout, "884.0 kcal")
	assert.Contains(t, stdout, "88.4 kcal")
	assert.True(t, svc.closed)
}

func TestRunCLI_LookupJSON(t *testing.T) {
	stubDeps(t, &stubService{result: oliveOil()})

	code, stdout, _ := run("lookup", "olive oil", "--json")
	require.Equal(t, ExitSuccess, code)

	var resp struct {
		Confidence   float64 `json:"confidence"`
		PortionGrams float64 `json:"portion_grams"`
		Food         struct {
			ProviderID string `json:"provider_id"`
		} `json:"food"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "usda", resp.Food.ProviderID)
	assert.Equal(t, 100.0, resp.PortionGrams)
	assert.InDelta(t, 0.92, resp.Confidence, 1e-9)
}

func TestRunCLI_LookupNotFound(t *testing.T) {
	stubDeps(t, &stubService{})

	code, _, stderr := run("lookup", "dragonfruit")

	assert.Equal(t, ExitNotFound, code)
	assert.Contains(t, stderr, "error[nutrition_unknown]")
}

func TestRunCLI_LookupNotFoundJSON(t *testing.T) {
	stubDeps(t, &stubService{})

	code, _, stderr := run("lookup", "dragonfruit", "--json")

	assert.Equal(t, ExitNotFound, code)
	var payload jsonErrorPayload
	require.NoError(t, json.Unmarshal([]byte(stderr), &payload))
	assert.Equal(t, "NUTRITION_UNKNOWN", payload.Error.Code)
	assert.Equal(t, ExitNotFound, payload.Error.ExitCode)
}

func TestRunCLI_InvalidArgs(t *testing.T) {
	stubDeps(t, &stubService{err: nutrition.ErrInvalidContext})

	tests := []struct {
		name string
		args []string
	}{
		{"missing query", []string{"lookup"}},
		{"unknown flag", []string{"lookup", "apple", "--bogus"}},
		{"negative portion", []string{"lookup", "apple", "--portion", "-5"}},
		{"invalid context", []string{"lookup", "apple", "--mode", "raw"}},
		{"invalid barcode", []string{"barcode", "1234"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := run(tt.args...)
			assert.Equal(t, ExitInvalidArgs, code, stderr)
			assert.Contains(t, stderr, "error[invalid_args]")
		})
	}
}

func TestRunCLI_UpstreamFailure(t *testing.T) {
	stubDeps(t, &stubService{err: assert.AnError})

	code, _, stderr := run("lookup", "apple")

	assert.Equal(t, ExitUpstream, code)
	assert.Contains(t, stderr, "error[upstream_error]")
}

func TestRunCLI_Barcode(t *testing.T) {
	svc := &stubService{result: oliveOil()}
	stubDeps(t, svc)

	code, stdout, stderr := run("barcode", "4006381333931", "--locale", "fr-CH")

	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, "4006381333931", svc.query)
	assert.Equal(t, "fr-CH", svc.lc.Locale)
	assert.Contains(t, stdout, "Oil, olive")
}

func TestRunCLI_ImportLocal(t *testing.T) {
	dir := t.TempDir()
	seed := filepath.Join(dir, "foods.json")
	db := filepath.Join(dir, "local.db")
	require.NoError(t, os.WriteFile(seed, []byte(`[
		{"locale":"de-CH","name":"Karotte","aliases":["Rüebli"],"category":"solid","per_100g":{"calories":41,"protein":0.9},"curated":true},
		{"locale":"en","name":"Olive oil","per_100g":{"calories":884,"fat":100},"curated":true}
	]`), 0o644))

	code, stdout, stderr := run("import-local", seed, "--db", db)
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "imported 2 foods")
	assert.Contains(t, stdout, "(2 total)")

	// 重複匯入為更新
	code, stdout, _ = run("import-local", seed, "--db", db, "--json")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, `"total":2`)
}

func TestRunCLI_ImportLocalErrors(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "local.db")

	code, _, stderr := run("import-local", filepath.Join(dir, "missing.json"), "--db", db)
	assert.Equal(t, ExitInvalidArgs, code)
	assert.Contains(t, stderr, "file not found")

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[{"name":"","per_100g":{"calories":1}}]`), 0o644))
	code, _, _ = run("import-local", bad, "--db", db)
	assert.Equal(t, ExitInvalidArgs, code)
}
