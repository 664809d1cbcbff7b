package commands

import (
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/pyatni4ka/ProjectVay-sub001/adapters/offdump"
	"github.com/pyatni4ka/ProjectVay-sub001/adapters/pricefeed"
	"github.com/pyatni4ka/ProjectVay-sub001/adapters/schemaorg"
	"github.com/pyatni4ka/ProjectVay-sub001/config"
	"github.com/pyatni4ka/ProjectVay-sub001/db"
	"github.com/pyatni4ka/ProjectVay-sub001/display"
	"github.com/pyatni4ka/ProjectVay-sub001/errors"
	"github.com/pyatni4ka/ProjectVay-sub001/ingest"
	"github.com/pyatni4ka/ProjectVay-sub001/ingest/license"
	"github.com/pyatni4ka/ProjectVay-sub001/ingest/quality"
	"github.com/pyatni4ka/ProjectVay-sub001/ingest/types"
	"github.com/pyatni4ka/ProjectVay-sub001/internal/httpclient"
	"github.com/pyatni4ka/ProjectVay-sub001/logger"
	"github.com/pyatni4ka/ProjectVay-sub001/storage"
)

// IngestCmd represents the ingest command
var IngestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run the ingestion pipeline",
	Long: `ingest — Run the ingestion pipeline

Executes one batch run over the configured sources: license gate, fetch,
normalize, dedupe, quality scoring, idempotent persistence.

Examples:
  vay ingest run --offdump ./products.csv
  vay ingest run --recipes-url https://recipes.example/borsch --recipes-risk medium
  vay ingest run --pricefeed ./feeds.yaml --max-risk low`,
}

var ingestRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one ingestion run",
	Long:  "Run every configured source once and record the outcome in the run log.",
	RunE:  runIngest,
}

var (
	offdumpFlag      string
	recipeURLsFlag   []string
	recipeRiskFlag   string
	pricefeedFlag    string
	maxItemsFlag     int
	maxRiskFlag      string
	minScoreFlag     float64
	fetchTimeoutFlag time.Duration
)

func init() {
	IngestCmd.AddCommand(ingestRunCmd)

	ingestRunCmd.Flags().StringVar(&offdumpFlag, "offdump", "", "Product dump source (local path or URL)")
	ingestRunCmd.Flags().StringSliceVar(&recipeURLsFlag, "recipes-url", nil, "Recipe page URL (repeatable)")
	ingestRunCmd.Flags().StringVar(&recipeRiskFlag, "recipes-risk", "medium", "License risk of the recipe pages: low, medium, high")
	ingestRunCmd.Flags().StringVar(&pricefeedFlag, "pricefeed", "", "Price feed manifest path (YAML)")
	ingestRunCmd.Flags().IntVar(&maxItemsFlag, "max-items", 0, "Per-source item cap (0 = from config)")
	ingestRunCmd.Flags().StringVar(&maxRiskFlag, "max-risk", "", "License risk ceiling: low, medium, high (default from config)")
	ingestRunCmd.Flags().Float64Var(&minScoreFlag, "min-score", quality.DefaultMinScore, "Quality score admission threshold")
	ingestRunCmd.Flags().DurationVar(&fetchTimeoutFlag, "fetch-timeout", 30*time.Second, "HTTP fetch timeout per request")
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	registry := buildRegistry()
	if len(registry) == 0 {
		pterm.Warning.Println("No sources configured; pass --offdump, --recipes-url or --pricefeed")
		return nil
	}

	database, err := db.OpenWithMigrations(cfg.Database.Path, logger.Logger)
	if err != nil {
		return errors.Wrap(err, "failed to open database")
	}
	defer database.Close()

	maxItems := cfg.Ingest.MaxItemsPerSource
	if maxItemsFlag > 0 {
		maxItems = maxItemsFlag
	}
	maxRisk := cfg.Ingest.MaxLicenseRisk
	if maxRiskFlag != "" {
		maxRisk = maxRiskFlag
	}

	runner := ingest.NewRunner(
		storage.NewStore(database, logger.Logger),
		registry,
		ingest.Options{
			MaxLicenseRisk:    license.Normalize(maxRisk, types.LicenseRiskHigh),
			MaxItemsPerSource: maxItems,
			Region:            cfg.Ingest.Region,
			MinQualityScore:   minScoreFlag,
		},
		logger.Logger,
	)

	jsonOutput := display.ShouldOutputJSON(cmd)
	var spinner *pterm.SpinnerPrinter
	if !jsonOutput {
		spinner, _ = pterm.DefaultSpinner.Start("Running ingestion pipeline...")
	}

	summary, err := runner.Run(cmd.Context())
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return errors.Wrap(err, "ingestion run failed")
	}

	if jsonOutput {
		return display.OutputJSON(summary)
	}
	renderSummary(summary)
	return nil
}

func buildRegistry() ingest.Registry {
	var registry ingest.Registry
	if offdumpFlag != "" {
		registry = append(registry, offdump.New(offdumpFlag, logger.Logger))
	}
	if len(recipeURLsFlag) > 0 {
		client := httpclient.New(fetchTimeoutFlag, 2)
		risk := license.Normalize(recipeRiskFlag, types.LicenseRiskMedium)
		registry = append(registry, schemaorg.New(recipeURLsFlag, risk, client, logger.Logger))
	}
	if pricefeedFlag != "" {
		client := httpclient.New(fetchTimeoutFlag, 2)
		registry = append(registry, pricefeed.New(pricefeedFlag, client, logger.Logger))
	}
	return registry
}

func renderSummary(summary *types.RunSummary) {
	pterm.Println()
	switch summary.Status {
	case types.RunStatusSuccess:
		pterm.Success.Printf("Run %s completed", summary.RunID)
	case types.RunStatusPartial:
		pterm.Warning.Printf("Run %s completed with failed sources", summary.RunID)
	default:
		pterm.Error.Printf("Run %s finished with status %s", summary.RunID, summary.Status)
	}
	pterm.Println()

	rows := pterm.TableData{{"Source", "Status", "Products", "Recipes", "Prices", "Synonyms", "Reason"}}
	for _, src := range summary.Sources {
		rows = append(rows, []string{
			src.ID,
			string(src.Status),
			strconv.Itoa(src.Products),
			strconv.Itoa(src.Recipes),
			strconv.Itoa(src.Prices),
			strconv.Itoa(src.Synonyms),
			src.Reason,
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(rows).Render()

	totals := summary.Totals()
	pterm.Println()
	pterm.Info.Printf("Totals: %d products, %d recipes, %d prices, %d synonyms",
		totals.Products, totals.Recipes, totals.Prices, totals.Synonyms)
	pterm.Println()
}
