package cli

import (
	"errors"
	"fmt"
	"strings"

	"nutrition-lookup/internal/core/nutrition"

	"github.com/spf13/cobra"
)

var (
	flagMode    string
	flagHint    string
	flagPortion float64
	flagDebug   bool
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <query>",
	Short: "Look up nutrition for a food name",
	Long:  "Resolve a free-text food name to validated per-100g nutrition values.",
	Example: `  nutrition-cli lookup "olive oil"
  nutrition-cli lookup Karotte --locale de-CH
  nutrition-cli lookup "corn cooked" --hint grain --portion 150`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLookup,
}

var barcodeCmd = &cobra.Command{
	Use:   "barcode <code>",
	Short: "Look up nutrition for a packaged product barcode",
	Example: `  nutrition-cli barcode 4006381333931
  nutrition-cli barcode 7610200337010 --locale fr-CH --json`,
	Args: cobra.ExactArgs(1),
	RunE: runBarcode,
}

func init() {
	f := lookupCmd.Flags()
	f.StringVarP(&flagMode, "mode", "m", "ingredient", "Lookup mode: ingredient or packaged")
	f.StringVar(&flagHint, "hint", "", "Category hint: veg, grain, legume or fruit")
	f.Float64VarP(&flagPortion, "portion", "p", 0, "Portion in grams (defaults to the food's default portion)")
	f.BoolVar(&flagDebug, "debug", false, "Include the lookup trace")

	barcodeCmd.Flags().Float64VarP(&flagPortion, "portion", "p", 0, "Portion in grams (defaults to the food's default portion)")
	barcodeCmd.Flags().BoolVar(&flagDebug, "debug", false, "Include the lookup trace")

	rootCmd.AddCommand(lookupCmd, barcodeCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return invalidArgsError("query must not be empty", `nutrition-cli lookup "olive oil"`)
	}
	if flagPortion < 0 {
		return invalidArgsError("--portion must not be negative")
	}

	lc := nutrition.LookupContext{
		Locale:       flagLocale,
		Region:       nutrition.Region(flagRegion),
		CategoryHint: nutrition.CategoryHint(flagHint),
		Mode:         nutrition.Mode(flagMode),
	}

	return withService(cmd, func(svc Service) error {
		result, err := svc.FindNutrition(cmd.Context(), query, lc)
		if err != nil {
			return lookupError(err)
		}
		if result == nil || result.Food == nil {
			return notFoundError(
				fmt.Sprintf("no trustworthy nutrition data for %q", query),
				"Try a more specific name.",
				"Try --mode packaged for branded products.",
			)
		}
		return printResult(cmd.OutOrStdout(), result, flagPortion, flagDebug, flagJSON)
	})
}

func runBarcode(cmd *cobra.Command, args []string) error {
	code := strings.TrimSpace(args[0])
	if nutrition.NormalizeBarcode(code) == "" {
		return invalidArgsError(
			fmt.Sprintf("invalid barcode %q", code),
			"Use an 8, 12, 13 or 14 digit GTIN with a valid check digit.",
		)
	}

	lc := nutrition.LookupContext{
		Locale: flagLocale,
		Region: nutrition.Region(flagRegion),
	}

	return withService(cmd, func(svc Service) error {
		result, err := svc.FindByBarcode(cmd.Context(), code, lc)
		if err != nil {
			return lookupError(err)
		}
		if result == nil || result.Food == nil {
			return notFoundError(fmt.Sprintf("no product found for barcode %s", code))
		}
		return printResult(cmd.OutOrStdout(), result, flagPortion, flagDebug, flagJSON)
	})
}

func lookupError(err error) error {
	if errors.Is(err, nutrition.ErrInvalidContext) {
		return invalidArgsError(err.Error(),
			"--mode accepts ingredient or packaged.",
			"--hint accepts veg, grain, legume or fruit.",
			"--region accepts US, CH, EU or OTHER.",
		)
	}
	return upstreamError("looking up nutrition", err)
}
