// Package cli 營養查詢命令列工具
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"nutrition-lookup/internal/api/handlers/lookup"
	"nutrition-lookup/internal/app"
	"nutrition-lookup/internal/infrastructure/config"
	"nutrition-lookup/internal/pkg/common"

	"github.com/spf13/cobra"
)

// Service 命令列使用的查詢服務
type Service interface {
	lookup.Service
	Close() error
}

var (
	flagLocale   string
	flagRegion   string
	flagJSON     bool
	flagLogLevel string
)

// 測試時替換
var (
	loadConfig = config.LoadConfig
	newService = func(ctx context.Context, cfg *config.Config) (Service, error) {
		return app.New(ctx, cfg)
	}
)

var rootCmd = &cobra.Command{
	Use:   "nutrition-cli",
	Short: "Look up per-100g nutrition for foods and barcodes",
	Long: "Command line client for the nutrition lookup pipeline.\n" +
		"Queries the local food table, USDA FoodData Central, the Swiss food composition\n" +
		"database and Open Food Facts, and prints the best validated match.",
	Example: `  nutrition-cli lookup "olive oil"
  nutrition-cli lookup "corn cooked" --hint grain --locale en-US
  nutrition-cli barcode 4006381333931 --json
  nutrition-cli import-local foods.json --db data/local_foods.db`,
}

func init() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagLocale, "locale", "l", "en-US", "Locale of the query (e.g. de-CH)")
	pf.StringVarP(&flagRegion, "region", "r", "", "Region override: US, CH, EU or OTHER")
	pf.BoolVar(&flagJSON, "json", false, "Output as JSON")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error); logging is off when empty")
}

// Execute 執行命令列並以對應的結束碼離開
func Execute() {
	os.Exit(runCLI(os.Args[1:], os.Stdout, os.Stderr))
}

func runCLI(args []string, stdout, stderr io.Writer) int {
	resetCLIState()

	setCommandIO(rootCmd, stdout, stderr)
	rootCmd.SetArgs(args)

	if err := rootCmd.Execute(); err != nil {
		cliErr := classifyCLIError(err)
		if hasJSONPreference(args) {
			if jerr := printCLIErrorJSON(stderr, cliErr); jerr != nil {
				fmt.Fprintln(stderr, formatCLIErrorText(classifyCLIError(jerr)))
				return ExitInternal
			}
		} else {
			fmt.Fprintln(stderr, formatCLIErrorText(cliErr))
		}
		return cliErr.ExitCode
	}
	return ExitSuccess
}

func setCommandIO(cmd *cobra.Command, stdout, stderr io.Writer) {
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	for _, child := range cmd.Commands() {
		setCommandIO(child, stdout, stderr)
	}
}

func resetCLIState() {
	flagLocale = "en-US"
	flagRegion = ""
	flagJSON = false
	flagLogLevel = ""
	flagMode = "ingredient"
	flagHint = ""
	flagPortion = 0
	flagDebug = false
	flagDBPath = ""
}

func hasJSONPreference(args []string) bool {
	for _, arg := range args {
		if arg == "--" {
			return false
		}
		if arg == "--json" || strings.HasPrefix(arg, "--json=") && arg != "--json=false" {
			return true
		}
	}
	return false
}

// setup 載入設定並初始化日誌
func setup() (*config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, invalidArgsError(err.Error(), "Check the .env file or config.yaml.")
	}
	if flagLogLevel != "" {
		if err := common.InitLogger(flagLogLevel); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// withService 建立查詢服務並在結束後釋放
func withService(cmd *cobra.Command, fn func(Service) error) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	svc, err := newService(cmd.Context(), cfg)
	if err != nil {
		return upstreamError("initializing lookup", err)
	}
	defer func() {
		_ = svc.Close()
		common.Sync()
	}()

	return fn(svc)
}
