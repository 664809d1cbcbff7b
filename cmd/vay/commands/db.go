package commands

import (
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/pyatni4ka/ProjectVay-sub001/config"
	"github.com/pyatni4ka/ProjectVay-sub001/db"
	"github.com/pyatni4ka/ProjectVay-sub001/display"
	"github.com/pyatni4ka/ProjectVay-sub001/errors"
	"github.com/pyatni4ka/ProjectVay-sub001/logger"
	"github.com/pyatni4ka/ProjectVay-sub001/storage"
)

// DbCmd represents the db (database) command
var DbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the catalog database",
	Long: `db — Manage the catalog database

Examples:
  vay db migrate    # Apply pending schema migrations
  vay db stats      # Show row counts and the latest run`,
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE:  runDbMigrate,
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog statistics",
	Long:  "Display row counts per table and the most recent ingestion run.",
	RunE:  runDbStats,
}

var statsLimitFlag int

func init() {
	DbCmd.AddCommand(dbMigrateCmd)
	DbCmd.AddCommand(dbStatsCmd)
	dbStatsCmd.Flags().IntVar(&statsLimitFlag, "limit", 10, "Number of recent source snapshots to show")
}

func runDbMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	database, err := db.OpenWithMigrations(cfg.Database.Path, logger.Logger)
	if err != nil {
		return errors.Wrap(err, "failed to migrate database")
	}
	defer database.Close()

	pterm.Success.Printf("Database %s migrated", cfg.Database.Path)
	pterm.Println()
	return nil
}

func runDbStats(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	database, err := db.Open(cfg.Database.Path, logger.Logger)
	if err != nil {
		return errors.Wrap(err, "failed to open database")
	}
	defer database.Close()

	store := storage.NewStore(database, logger.Logger)
	counts, err := store.TableCounts()
	if err != nil {
		return errors.Wrap(err, "failed to count rows")
	}

	latest, err := store.LatestRun()
	if err != nil && !errors.IsNotFound(err) {
		return errors.Wrap(err, "failed to load latest run")
	}

	snapshots, err := store.LatestSnapshots(statsLimitFlag)
	if err != nil {
		return errors.Wrap(err, "failed to load snapshots")
	}

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(map[string]interface{}{
			"database_path": cfg.Database.Path,
			"table_counts":  counts,
			"latest_run":    latest,
			"snapshots":     snapshots,
		})
	}

	pterm.DefaultHeader.Printf("Catalog statistics for %s", cfg.Database.Path)
	pterm.Println()

	rows := pterm.TableData{{"Table", "Rows"}}
	for _, table := range []string{
		"products_master",
		"recipes_corpus",
		"recipe_ingredients_norm",
		"ingredient_synonyms_ru",
		"price_signals",
		"source_snapshots",
		"ingestion_runs",
	} {
		rows = append(rows, []string{table, strconv.Itoa(counts[table])})
	}
	pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	pterm.Println()

	if latest == nil {
		pterm.Info.Println("No ingestion runs recorded yet")
		return nil
	}
	pterm.Info.Printf("Latest run: %s (%s, started %s)", latest.RunID, latest.Status, latest.StartedAt)
	pterm.Println()
	if latest.Summary != nil {
		totals := latest.Summary.Totals()
		pterm.Printf("  Sources: %d, products: %d, recipes: %d, prices: %d, synonyms: %d\n",
			len(latest.Summary.Sources), totals.Products, totals.Recipes, totals.Prices, totals.Synonyms)
	}

	if len(snapshots) > 0 {
		pterm.Println()
		snapRows := pterm.TableData{{"Source", "Run", "Products", "Recipes", "Prices", "Synonyms", "Captured"}}
		for _, snap := range snapshots {
			snapRows = append(snapRows, []string{
				snap.SourceID,
				snap.RunID,
				strconv.Itoa(snap.Counts.Products),
				strconv.Itoa(snap.Counts.Recipes),
				strconv.Itoa(snap.Counts.Prices),
				strconv.Itoa(snap.Counts.Synonyms),
				snap.CapturedAt,
			})
		}
		pterm.DefaultTable.WithHasHeader().WithData(snapRows).Render()
	}
	return nil
}
