package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"nutrition-lookup/internal/api/handlers/lookup"
	"nutrition-lookup/internal/core/nutrition"

	"github.com/charmbracelet/lipgloss"
)

// 終端輸出樣式
var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Faint(true)
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
)

type nutrientRow struct {
	label string
	unit  string
	per   *float64
	total *float64
}

func printResult(w io.Writer, result *nutrition.ProviderResult, portion float64, debug, asJSON bool) error {
	food := result.Food
	if portion <= 0 {
		portion = food.DefaultPortionG
	}
	scaled := lookup.ScaleNutrients(food.Per100g, portion)

	if asJSON {
		resp := lookup.Response{
			Food:         food,
			Confidence:   result.Confidence,
			IsSuspicious: result.IsSuspicious,
			PortionGrams: portion,
			Portion:      scaled,
		}
		if debug {
			resp.Debug = result.Debug
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	fmt.Fprintf(w, "\n%s  %s\n", titleStyle.Render(food.DisplayName), dimStyle.Render("["+food.ProviderID+"]"))
	fmt.Fprintf(w, "confidence %.2f  category %s\n", result.Confidence, food.Category)
	if result.IsSuspicious {
		fmt.Fprintln(w, warningStyle.Render("values outside the plausible range, double-check before use"))
	}

	unit := "g"
	if food.Category == nutrition.CategoryDrink {
		unit = "ml"
	}
	fmt.Fprintf(w, "\n%s\n", headerStyle.Render(fmt.Sprintf("%-14s %12s %12s", "", "per 100"+unit, fmt.Sprintf("per %.0f%s", portion, unit))))

	rows := []nutrientRow{
		{"Calories", "kcal", food.Per100g.Calories, scaled.Calories},
		{"Protein", "g", food.Per100g.Protein, scaled.Protein},
		{"Carbs", "g", food.Per100g.Carbs, scaled.Carbs},
		{"  Sugars", "g", food.Per100g.Sugars, scaled.Sugars},
		{"Fat", "g", food.Per100g.Fat, scaled.Fat},
		{"  Saturated", "g", food.Per100g.SatFat, scaled.SatFat},
		{"Fiber", "g", food.Per100g.Fiber, scaled.Fiber},
		{"Sodium", "mg", food.Per100g.Sodium, scaled.Sodium},
	}
	for _, row := range rows {
		if row.per == nil {
			continue
		}
		fmt.Fprintf(w, "%-14s %12s %12s\n", row.label,
			valueStyle.Render(fmt.Sprintf("%.1f %s", *row.per, row.unit)),
			fmt.Sprintf("%.1f %s", *row.total, row.unit),
		)
	}

	if debug && len(result.Debug) > 0 {
		fmt.Fprintf(w, "\n%s\n", dimStyle.Render("trace"))
		keys := make([]string, 0, len(result.Debug))
		for k := range result.Debug {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %s: %v\n", k, result.Debug[k])
		}
	}
	fmt.Fprintln(w)
	return nil
}
