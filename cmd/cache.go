package cmd

import (
	"fmt"
	"os"

	"github.com/repomind/repomind/internal/contract"
	"github.com/repomind/repomind/internal/iocache"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cacheSetup loads minimal configuration needed for cache operations.
// This is used by commands that need cache access without full shared setup.
func cacheSetup(_ *cobra.Command, _ []string) error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	// Get cache-related config values
	backend := contract.ParseBackend(viper.GetString("cache-backend"))
	connStr := viper.GetString("cache-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	// Initialize caching with the loaded config (no history tracking for cache commands)
	if err := iocache.InitStores(backend, connStr, "", ""); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr

	return nil
}

// cacheCmd focused on memo cache management.
//
// Note: Cache subcommands use minimal initialization (cacheSetup) instead of
// the full sharedSetup. This avoids validating the inference settings for
// simple cache operations.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the analysis memo cache",
	Long: `Manage the cache that lets repeated analyses skip the clone.

RepoMind memoizes each analysis by normalized repository URL for --cache-ttl.
The memory backend lives for one process; the SQL backends survive restarts
and can be shared by several servers.

Supported backends: memory (default), SQLite, MySQL, PostgreSQL, or none

Subcommands:
  status - Show cache statistics and connection info
  clear  - Remove all cached analyses

Examples:
  # Check a shared SQLite cache
  repomind cache status --cache-backend sqlite

  # Clear it
  repomind cache clear --cache-backend sqlite`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all memoized analyses",
	Long: `Delete all memoized analyses from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the cache table
For memory/none: Nothing to do

Examples:
  repomind cache clear --cache-backend sqlite

  # Clear a MySQL cache (set connection string via env variable)
  REPOMIND_CACHE_BACKEND=mysql REPOMIND_CACHE_DB_CONNECT="..." repomind cache clear`,
	PreRunE: cacheSetup,
	Run: func(_ *cobra.Command, _ []string) {
		// The SQLite file cannot be removed while the store holds it open
		iocache.CloseCaching()
		if err := iocache.ClearCache(cfg.CacheBackend, contract.GetCacheDBFilePath(), cfg.CacheDBConnect); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and connection details",
	Long: `Show the backend, its connectivity, the number of memoized analyses
and the newest and oldest entry times.

Examples:
  repomind cache status --cache-backend sqlite`,
	PreRunE: cacheSetup,
	Run: func(_ *cobra.Command, _ []string) {
		store := cacheManager.GetCacheStore()
		if store == nil {
			contract.LogFatal("Failed to get cache status", fmt.Errorf("cache is not initialized"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		iocache.PrintCacheStatus(os.Stdout, status)
	},
}
