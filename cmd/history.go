package cmd

import (
	"fmt"
	"os"

	"github.com/repomind/repomind/core"
	"github.com/repomind/repomind/internal/contract"
	"github.com/repomind/repomind/internal/iocache"
	"github.com/repomind/repomind/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// historyBackendFromConfig reads and validates the history backend settings.
func historyBackendFromConfig() (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}

	// Handle empty backend as NoneBackend
	backend := contract.ParseBackend(viper.GetString("history-backend"))
	connStr := viper.GetString("history-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// historySetup loads minimal configuration needed for history operations.
// This is used by commands that need history access without full shared setup.
func historySetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := historyBackendFromConfig()
	if err != nil {
		return err
	}

	// Initialize stores with the loaded config (no memo cache for history commands)
	if err := iocache.InitStores("", "", backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize history: %w", err)
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	cfg.Output = schema.OutputMode(viper.GetString("output"))
	cfg.Width = viper.GetInt("width")
	cfg.UseColors, _ = contract.ParseBoolString(viper.GetString("color"))

	return nil
}

// historyMigrateSetup loads minimal configuration needed for migrate operations.
// This is a specialized setup that does NOT initialize stores or create tables,
// allowing migrations to run on a fresh database.
func historyMigrateSetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := historyBackendFromConfig()
	if err != nil {
		return err
	}

	// For SQLite backend with empty connection string, use default path
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = contract.GetHistoryDBFilePath()
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr

	return nil
}

// historyCmd focused on run history management.
//
// Note: History subcommands use minimal initialization (historySetup) instead of
// the full sharedSetup. This avoids validating the inference settings for
// simple history operations.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the record of past analyses",
	Long: `Manage the run history that records every analysis.

When enabled, RepoMind records for each run:
- Repository URL and name, model and timing
- Outcome (success or failed) with the error message
- File count, contributor count and language counts
- Whether the memo cache served the result

Supported backends: SQLite, MySQL, PostgreSQL, or none (default, disabled)

Subcommands:
  status  - Show history statistics
  list    - Show the most recent runs
  export  - Export runs to Parquet for analytics
  clear   - Remove all recorded runs
  migrate - Run database schema migrations

Examples:
  # Record runs in SQLite
  repomind analyze https://github.com/pallets/flask --history-backend sqlite

  # Show them
  repomind history list --history-backend sqlite`,
}

// historyClearCmd clears the run history.
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded runs",
	Long: `Delete every recorded analysis run.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  repomind history export --history-backend sqlite --output-file backup.parquet
  repomind history clear --history-backend sqlite`,
	PreRunE: historySetup,
	Run: func(_ *cobra.Command, _ []string) {
		// The SQLite file cannot be removed while the store holds it open
		iocache.CloseCaching()
		if err := iocache.ClearHistory(cfg.HistoryBackend, contract.GetHistoryDBFilePath(), cfg.HistoryDBConnect); err != nil {
			contract.LogFatal("Failed to clear history", err)
		}
		fmt.Println("History cleared successfully.")
	},
}

// historyStatusCmd shows history status.
var historyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display history statistics and connection details",
	Long: `Show the backend, its connectivity, the number of recorded runs and
the newest and oldest run times.

Examples:
  repomind history status --history-backend sqlite`,
	PreRunE: historySetup,
	Run: func(_ *cobra.Command, _ []string) {
		store := cacheManager.GetRunStore()
		if store == nil {
			contract.LogFatal("Failed to get history status", fmt.Errorf("history is not initialized"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get history status", err)
		}
		iocache.PrintHistoryStatus(os.Stdout, status)
	},
}

// historyListCmd prints the most recent runs.
var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the most recent analysis runs",
	Long: `Print recent runs newest first, as a table, JSON or CSV.

Examples:
  repomind history list --history-backend sqlite --limit 5
  repomind history list --history-backend sqlite --output csv --output-file runs.csv`,
	PreRunE: historySetup,
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return core.ExecuteHistoryList(cfg, cacheManager, limit)
	},
}

// historyExportCmd exports run history to a Parquet file.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export run history to Parquet for BI tools and analytics",
	Long: `Export all recorded runs to a Parquet file.

Requires: --output-file parameter

Examples:
  repomind history export --history-backend sqlite --output-file runs.parquet

  # Query with DuckDB
  duckdb -c "SELECT repo_name, count(*) FROM read_parquet('runs.parquet') GROUP BY 1"`,
	PreRunE: historySetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExecuteHistoryExport(os.Stdout, cacheManager.GetRunStore(), cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export history", err)
		}
	},
}

// historyMigrateCmd runs database migrations for the history store.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the run history store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  repomind history migrate --history-backend sqlite

  # Rollback to initial state
  repomind history migrate --history-backend sqlite --target-version 0`,
	PreRunE: historyMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		schemaVersion, err := iocache.MigrateHistory(cfg.HistoryBackend, cfg.HistoryDBConnect, targetVersion)
		if err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
		fmt.Printf("History schema is at version %d.\n", schemaVersion)
	},
}
