package cmd

import (
	"fmt"

	"github.com/rtei-org/rtei/internal/contract"
	"github.com/rtei-org/rtei/internal/iocache"
	"github.com/rtei-org/rtei/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// snapshotBackend reads and validates the snapshot backend settings.
func snapshotBackend() (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}

	backend := schema.DatabaseBackend(viper.GetString("snapshot-backend"))
	if backend == "" {
		backend = schema.NoneBackend
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", "", fmt.Errorf("invalid snapshot backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	connStr := viper.GetString("snapshot-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// snapshotStoreSetup loads minimal configuration needed for snapshot operations.
// This is used by commands that need the store without a data directory.
func snapshotStoreSetup() error {
	backend, connStr, err := snapshotBackend()
	if err != nil {
		return err
	}
	if err := iocache.InitStores(backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize snapshot store: %w", err)
	}

	cfg.SnapshotBackend = backend
	cfg.SnapshotDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// snapshotStoreSetupWrapper wraps snapshotStoreSetup to provide PreRunE for snapshot commands.
func snapshotStoreSetupWrapper(_ *cobra.Command, _ []string) error {
	return snapshotStoreSetup()
}

// snapshotMigrateSetup validates the backend without opening the store, so
// migrations can run on a fresh database.
func snapshotMigrateSetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := snapshotBackend()
	if err != nil {
		return err
	}

	// For SQLite backend with empty connection string, use default path
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = iocache.GetSnapshotDBFilePath()
	}

	cfg.SnapshotBackend = backend
	cfg.SnapshotDBConnect = connStr
	return nil
}

// snapshotCmd focused on snapshot management.
//
// Note: Snapshot subcommands use minimal initialization instead of the full
// sharedSetup, so they work without a data directory.
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage the history of baked charts",
	Long: `Manage the snapshots recorded by bake runs.

Every bake run stores its configuration, duration and each baked document,
keyed by chart, code and format. This keeps a history of what was published.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show snapshot statistics
  export  - Export a run to Parquet
  clear   - Remove all snapshots
  migrate - Run database schema migrations`,
}

// snapshotStatusCmd shows snapshot status.
var snapshotStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display snapshot statistics and connection details",
	Long: `Show the backend, connection state, number of runs and snapshots,
the latest run and the schema version.

Examples:
  rtei snapshot status`,
	PreRunE: snapshotStoreSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := iocache.Manager.GetSnapshotStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get snapshot status", err)
		}
		iocache.PrintSnapshotStatus(status)
	},
}

// snapshotClearCmd clears the snapshot store.
var snapshotClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all bake runs and snapshots",
	Long: `Delete every stored bake run and snapshot.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the snapshot tables

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  rtei snapshot export --output-file backup.parquet
  rtei snapshot clear`,
	PreRunE: snapshotMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearSnapshots(cfg.SnapshotBackend, cfg.SnapshotDBConnect, cfg.SnapshotDBConnect); err != nil {
			contract.LogFatal("Failed to clear snapshots", err)
		}
		fmt.Println("Snapshots cleared successfully.")
	},
}

// snapshotExportCmd exports a bake run to Parquet.
var snapshotExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the snapshots of a bake run to Parquet",
	Long: `Export the baked documents of one run to Parquet for analytics tools.

Requires: --output-file parameter

Examples:
  # Export the latest run
  rtei snapshot export --output-file snapshots.parquet

  # Export a specific run
  rtei snapshot export --run-id 3 --output-file run3.parquet`,
	PreRunE: snapshotStoreSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExecuteSnapshotExport(cfg.OutputFile, viper.GetInt64("run-id")); err != nil {
			contract.LogFatal("Failed to export snapshots", err)
		}
	},
}

// snapshotMigrateCmd runs database migrations for the snapshot store.
var snapshotMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the snapshot store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  rtei snapshot migrate

  # Rollback to the initial state
  rtei snapshot migrate --target-version 0`,
	PreRunE: snapshotMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateSnapshots(cfg.SnapshotBackend, cfg.SnapshotDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
