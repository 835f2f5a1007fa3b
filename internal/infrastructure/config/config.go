package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Lookup    LookupConfig    `mapstructure:"lookup"`
	Providers ProvidersConfig `mapstructure:"providers"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	LogLevel  string          `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// CacheConfig 緩存配置
type CacheConfig struct {
	// Driver: memory | redis | none
	Driver          string        `mapstructure:"driver"`
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	APITTL          time.Duration `mapstructure:"api_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	// Version 快取格式版本，變更即讓所有舊條目失效
	Version string `mapstructure:"version"`
}

// Enabled 是否啟用快取
func (c CacheConfig) Enabled() bool {
	return c.Driver != "" && c.Driver != "none"
}

// LookupConfig 查詢協調器設定
type LookupConfig struct {
	DefaultTimeout       time.Duration            `mapstructure:"default_timeout"`
	ProviderTimeouts     map[string]time.Duration `mapstructure:"provider_timeouts"`
	DefaultConfidence    float64                  `mapstructure:"default_confidence"`
	ProviderConfidence   map[string]float64       `mapstructure:"provider_confidence"`
	TieEpsilon           float64                  `mapstructure:"tie_epsilon"`
	BarcodeMinConfidence float64                  `mapstructure:"barcode_min_confidence"`
	LocalFastPath        bool                     `mapstructure:"local_fast_path"`
}

// TimeoutFor 取得指定資料來源的超時設定
func (c LookupConfig) TimeoutFor(providerID string) time.Duration {
	if d, ok := c.ProviderTimeouts[providerID]; ok && d > 0 {
		return d
	}
	return c.DefaultTimeout
}

// ConfidenceFor 取得指定資料來源的預設信心值
func (c LookupConfig) ConfidenceFor(providerID string) float64 {
	if v, ok := c.ProviderConfidence[providerID]; ok && v > 0 {
		return v
	}
	return c.DefaultConfidence
}

// ProvidersConfig 各資料來源設定
type ProvidersConfig struct {
	USDA          USDAConfig          `mapstructure:"usda"`
	SwissFCDB     SwissFCDBConfig     `mapstructure:"swissfcdb"`
	OpenFoodFacts OpenFoodFactsConfig `mapstructure:"openfoodfacts"`
	LocalFood     LocalFoodConfig     `mapstructure:"localfood"`
}

// USDAConfig USDA FoodData Central 設定
type USDAConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	APIKey   string        `mapstructure:"api_key"`
	BaseURL  string        `mapstructure:"base_url"`
	PageSize int           `mapstructure:"page_size"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// SwissFCDBConfig 瑞士食品成分資料庫設定
type SwissFCDBConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// OpenFoodFactsConfig Open Food Facts 設定
type OpenFoodFactsConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	BaseURL   string        `mapstructure:"base_url"`
	UserAgent string        `mapstructure:"user_agent"`
	PageSize  int           `mapstructure:"page_size"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// LocalFoodConfig 本地精選食物庫設定
type LocalFoodConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	DBPath   string `mapstructure:"db_path"`
	SeedFile string `mapstructure:"seed_file"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// .env 為選用
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定環境變量
	_ = v.BindEnv("providers.usda.api_key", "USDA_API_KEY", "FDC_API_KEY")
	_ = v.BindEnv("providers.usda.enabled", "USDA_ENABLED")
	_ = v.BindEnv("providers.swissfcdb.enabled", "SWISSFCDB_ENABLED")
	_ = v.BindEnv("providers.openfoodfacts.enabled", "OFF_ENABLED")
	_ = v.BindEnv("providers.localfood.db_path", "LOCAL_FOOD_DB")
	_ = v.BindEnv("providers.localfood.seed_file", "LOCAL_FOOD_SEED")
	_ = v.BindEnv("cache.driver", "CACHE_DRIVER")
	_ = v.BindEnv("cache.redis_addr", "REDIS_ADDR")
	_ = v.BindEnv("cache.redis_password", "REDIS_PASSWORD")
	_ = v.BindEnv("cache.version", "CACHE_VERSION")
	_ = v.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	_ = v.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	_ = v.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	_ = v.BindEnv("log_level", "LOG_LEVEL")

	// 選用的 YAML 設定檔
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// MaskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "nutrition-lookup")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "10s")
	v.SetDefault("server.max_body_bytes", 64<<10)

	// 快取設定
	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.max_size", 5000)
	v.SetDefault("cache.ttl", "168h")
	v.SetDefault("cache.api_ttl", "24h")
	v.SetDefault("cache.cleanup_interval", "10m")
	v.SetDefault("cache.version", "v3")

	// 查詢設定：本地型來源用短預算，網路型資料庫用長預算
	v.SetDefault("lookup.default_timeout", "2s")
	v.SetDefault("lookup.provider_timeouts", map[string]string{
		"local":         "300ms",
		"openfoodfacts": "2500ms",
		"usda":          "3s",
		"swissfcdb":     "3500ms",
	})
	v.SetDefault("lookup.default_confidence", 0.7)
	v.SetDefault("lookup.provider_confidence", map[string]float64{
		"local":         0.9,
		"swissfcdb":     0.85,
		"usda":          0.8,
		"openfoodfacts": 0.6,
	})
	v.SetDefault("lookup.tie_epsilon", 0.02)
	v.SetDefault("lookup.barcode_min_confidence", 0.7)
	v.SetDefault("lookup.local_fast_path", true)

	// 資料來源設定
	v.SetDefault("providers.usda.enabled", true)
	v.SetDefault("providers.usda.base_url", "https://api.nal.usda.gov/fdc/v1")
	v.SetDefault("providers.usda.page_size", 15)
	v.SetDefault("providers.usda.timeout", "5s")
	v.SetDefault("providers.swissfcdb.enabled", true)
	v.SetDefault("providers.swissfcdb.base_url", "https://api.webapp.prod.blv.foodcomposition.ch/api")
	v.SetDefault("providers.swissfcdb.timeout", "5s")
	v.SetDefault("providers.openfoodfacts.enabled", true)
	v.SetDefault("providers.openfoodfacts.base_url", "https://%s.openfoodfacts.org")
	v.SetDefault("providers.openfoodfacts.user_agent", "nutrition-lookup/1.0 (+https://github.com/nutrition-lookup)")
	v.SetDefault("providers.openfoodfacts.page_size", 20)
	v.SetDefault("providers.openfoodfacts.timeout", "5s")
	v.SetDefault("providers.localfood.enabled", true)
	v.SetDefault("providers.localfood.db_path", "data/local_foods.db")
	v.SetDefault("providers.localfood.seed_file", "")

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("log_level", "info")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	// 驗證快取設定
	switch config.Cache.Driver {
	case "memory", "redis", "none", "":
	default:
		return fmt.Errorf("unknown cache driver %q", config.Cache.Driver)
	}
	if config.Cache.Enabled() {
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
		if config.Cache.Version == "" {
			return fmt.Errorf("cache version is required")
		}
	}
	if config.Cache.Driver == "memory" {
		if config.Cache.MaxSize <= 0 {
			return fmt.Errorf("invalid cache max size")
		}
		if config.Cache.CleanupInterval <= 0 {
			return fmt.Errorf("invalid cache cleanup interval")
		}
	}

	// 驗證查詢設定
	if config.Lookup.DefaultTimeout <= 0 {
		return fmt.Errorf("invalid lookup default timeout")
	}
	if config.Lookup.TieEpsilon < 0 {
		return fmt.Errorf("invalid lookup tie epsilon")
	}
	if config.Lookup.BarcodeMinConfidence < 0 || config.Lookup.BarcodeMinConfidence > 1 {
		return fmt.Errorf("barcode min confidence must be within [0,1]")
	}

	if config.RateLimit.Enabled && (config.RateLimit.Requests <= 0 || config.RateLimit.Window <= 0) {
		return fmt.Errorf("invalid rate limit")
	}

	return nil
}
