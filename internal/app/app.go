// Package app 依設定組裝快取、本地食物庫、資料來源與查詢協調器
package app

import (
	"context"
	"errors"
	"fmt"

	"nutrition-lookup/internal/core/cache"
	"nutrition-lookup/internal/core/nutrition"
	"nutrition-lookup/internal/core/providers/localfood"
	"nutrition-lookup/internal/core/providers/openfoodfacts"
	"nutrition-lookup/internal/core/providers/swissfcdb"
	"nutrition-lookup/internal/core/providers/usda"
	"nutrition-lookup/internal/infrastructure/config"
	"nutrition-lookup/internal/pkg/common"

	"go.uber.org/zap"
)

// App 應用程式元件
type App struct {
	Config       *config.Config
	Cache        cache.Store
	Local        *localfood.Store
	Orchestrator *nutrition.Orchestrator
}

// New 建立所有元件；失敗時釋放已建立的資源
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := cache.New(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}

	a := &App{Config: cfg, Cache: store}

	if cfg.Providers.LocalFood.Enabled {
		local, err := openLocalStore(ctx, cfg.Providers.LocalFood)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.Local = local
	}

	providers := []nutrition.Provider{
		usda.New(cfg.Providers.USDA, store),
		swissfcdb.New(cfg.Providers.SwissFCDB, store),
		openfoodfacts.New(cfg.Providers.OpenFoodFacts, store),
	}

	// 避免把 nil *Store 包進介面
	var fastPath nutrition.LocalFoodStore
	if a.Local != nil {
		providers = append(providers, localfood.NewProvider(a.Local, true))
		if cfg.Lookup.LocalFastPath {
			fastPath = a.Local
		}
	}

	a.Orchestrator = nutrition.NewOrchestrator(cfg, store, fastPath, providers...)

	common.LogInfo("應用元件初始化完成",
		zap.String("cache_driver", cfg.Cache.Driver),
		zap.Bool("local_food", a.Local != nil),
		zap.Strings("providers", providerIDs(providers)),
		zap.String("usda_api_key", config.MaskAPIKey(cfg.Providers.USDA.APIKey)),
	)
	return a, nil
}

func openLocalStore(ctx context.Context, cfg config.LocalFoodConfig) (*localfood.Store, error) {
	local, err := localfood.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open local food database: %w", err)
	}

	if cfg.SeedFile != "" {
		if _, err := local.ImportJSONFile(ctx, cfg.SeedFile); err != nil {
			_ = local.Close()
			return nil, fmt.Errorf("failed to seed local food database: %w", err)
		}
	}
	return local, nil
}

// FindNutrition 以文字查詢營養資料
func (a *App) FindNutrition(ctx context.Context, query string, lc nutrition.LookupContext) (*nutrition.ProviderResult, error) {
	return a.Orchestrator.FindNutrition(ctx, query, lc)
}

// FindByBarcode 以條碼查詢營養資料
func (a *App) FindByBarcode(ctx context.Context, barcode string, lc nutrition.LookupContext) (*nutrition.ProviderResult, error) {
	return a.Orchestrator.FindByBarcode(ctx, barcode, lc)
}

// Status 快取統計與各資料來源的啟用狀態
func (a *App) Status() map[string]interface{} {
	providers := make(map[string]bool)
	if a.Orchestrator != nil {
		for _, p := range a.Orchestrator.Providers() {
			providers[p.ID()] = p.IsAvailable(nutrition.LookupContext{})
		}
	}

	status := map[string]interface{}{"providers": providers}
	if a.Cache != nil {
		status["cache"] = a.Cache.GetStats()
	}
	return status
}

// Ready 至少一個資料來源可用
func (a *App) Ready() bool {
	if a.Orchestrator == nil {
		return false
	}
	for _, p := range a.Orchestrator.Providers() {
		if p.IsAvailable(nutrition.LookupContext{}) {
			return true
		}
	}
	return false
}

// Close 釋放快取與資料庫
func (a *App) Close() error {
	var errs []error
	if a.Cache != nil {
		errs = append(errs, a.Cache.Close())
	}
	if a.Local != nil {
		errs = append(errs, a.Local.Close())
	}
	return errors.Join(errs...)
}

func providerIDs(providers []nutrition.Provider) []string {
	ids := make([]string, 0, len(providers))
	for _, p := range providers {
		ids = append(ids, p.ID())
	}
	return ids
}
