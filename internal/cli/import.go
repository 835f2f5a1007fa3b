package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"nutrition-lookup/internal/core/providers/localfood"

	"github.com/spf13/cobra"
)

var flagDBPath string

var importCmd = &cobra.Command{
	Use:   "import-local <file.json>",
	Short: "Import foods into the local food table",
	Long: "Upsert entries from a JSON array into the SQLite local food table.\n" +
		"Entries without an id are keyed by locale and normalized name, so re-importing updates them.",
	Example: `  nutrition-cli import-local data/local_foods.json
  nutrition-cli import-local extra.json --db /var/lib/nutrition/local_foods.db`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&flagDBPath, "db", "", "SQLite database path (defaults to providers.localfood.db_path)")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	dbPath := flagDBPath
	if dbPath == "" {
		cfg, err := setup()
		if err != nil {
			return err
		}
		dbPath = cfg.Providers.LocalFood.DBPath
	}

	store, err := localfood.Open(dbPath)
	if err != nil {
		return upstreamError("opening local food database", err)
	}
	defer store.Close()

	n, err := store.ImportJSONFile(cmd.Context(), args[0])
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return invalidArgsError(fmt.Sprintf("file not found: %s", args[0]))
		}
		return invalidArgsError(err.Error(), "Each entry needs a name and per_100g.calories.")
	}

	total, err := store.Count(cmd.Context())
	if err != nil {
		return upstreamError("counting local foods", err)
	}

	if flagJSON {
		fmt.Fprintf(cmd.OutOrStdout(), "{\"imported\":%d,\"total\":%d,\"db\":%q}\n", n, total, dbPath)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d foods into %s (%d total)\n", n, dbPath, total)
	return nil
}
