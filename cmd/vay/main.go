package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pyatni4ka/ProjectVay-sub001/cmd/vay/commands"
	"github.com/pyatni4ka/ProjectVay-sub001/logger"
)

var rootCmd = &cobra.Command{
	Use:   "vay",
	Short: "Vay - food catalog ingestion pipeline",
	Long: `Vay - batch ingestion pipeline for the food catalog.

Vay harvests product, recipe and price data from heterogeneous sources,
filters it through a license gate, dedupe and quality scoring, and lands
it in an embedded SQLite catalog with full run provenance.

Available commands:
  ingest  - Run the ingestion pipeline
  db      - Manage the catalog database
  config  - Show and initialize configuration
  version - Show version information

Examples:
  vay ingest run --offdump ./dump.csv    # Ingest a product dump
  vay db migrate                         # Apply schema migrations
  vay db stats                           # Show catalog statistics
  vay config show                        # Show effective configuration`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Root().PersistentFlags().GetBool("json")
		if err := logger.Initialize(jsonOutput); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("json", false, "Output results as JSON")

	rootCmd.AddCommand(commands.IngestCmd)
	rootCmd.AddCommand(commands.DbCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
