// Package cmd defines the command-line interface for rtei.
package cmd

import (
	"github.com/rtei-org/rtei/internal/contract"
	"github.com/rtei-org/rtei/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(chartCmd)
	rootCmd.AddCommand(mapCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(bakeCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the snapshot subcommands to the parent snapshot command
	snapshotCmd.AddCommand(snapshotStatusCmd)
	snapshotCmd.AddCommand(snapshotClearCmd)
	snapshotCmd.AddCommand(snapshotExportCmd)
	snapshotCmd.AddCommand(snapshotMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("data-dir", contract.DefaultDataDir, "Directory holding scores_per_country.json, indicators.json and countries.json")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or html or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().Int("cache-size", contract.DefaultCacheSize, "Number of decoded data files kept in memory")
	rootCmd.PersistentFlags().String("snapshot-backend", string(schema.SQLiteBackend), "Snapshot backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("snapshot-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of chartCmd to Viper
	chartCmd.Flags().String("chart", schema.CompareChart, "Chart key: compare or country or theme or a configured profile")
	chartCmd.Flags().String("country", "", "ISO2 code of the country, required for the country chart")
	if err := viper.BindPFlags(chartCmd.Flags()); err != nil {
		contract.LogFatal("Error binding chart flags", err)
	}

	// Bind all flags of mapCmd to Viper
	mapCmd.Flags().String("index", schema.OverallCode, "Indicator code the map is colored by")
	if err := viper.BindPFlags(mapCmd.Flags()); err != nil {
		contract.LogFatal("Error binding map flags", err)
	}

	// Bind all flags of scoresCmd to Viper
	scoresCmd.Flags().String("sort", schema.OverallCode, "Indicator code or 'name' to sort by")
	scoresCmd.Flags().Bool("desc", false, "Sort in descending order")
	if err := viper.BindPFlags(scoresCmd.Flags()); err != nil {
		contract.LogFatal("Error binding scores flags", err)
	}

	// Bind all flags of bakeCmd to Viper
	bakeCmd.Flags().String("output-dir", contract.DefaultOutputDir, "Directory the baked charts are written to")
	bakeCmd.Flags().Int("workers", 0, "Number of concurrent chart derivations (0 = one per CPU)")
	bakeCmd.Flags().String("publish", "", "Publish baked files: dir or s3")
	bakeCmd.Flags().String("publish-dir", "", "Destination directory when publishing to dir")
	bakeCmd.Flags().Bool("watch", false, "Re-bake whenever a data file changes")
	bakeCmd.Flags().String("debounce", contract.DefaultDebounce.String(), "Quiet period before a watched change triggers a bake")
	if err := viper.BindPFlags(bakeCmd.Flags()); err != nil {
		contract.LogFatal("Error binding bake flags", err)
	}

	// Bind all flags of snapshotExportCmd to Viper
	snapshotExportCmd.Flags().Int64("run-id", 0, "Bake run to export (0 = latest)")
	if err := viper.BindPFlags(snapshotExportCmd.Flags()); err != nil {
		contract.LogFatal("Error binding snapshot export flags", err)
	}

	// Bind all flags of snapshotMigrateCmd to Viper
	snapshotMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(snapshotMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding snapshot migrate flags", err)
	}
}
