// Package cmd defines the command-line interface for repomind.
package cmd

import (
	"github.com/repomind/repomind/internal/contract"
	"github.com/repomind/repomind/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(historyCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("endpoint", contract.DefaultEndpoint, "Base URL of the Ollama-compatible inference server")
	rootCmd.PersistentFlags().String("model", contract.DefaultModel, "Model used for summaries and chat")
	rootCmd.PersistentFlags().String("git-backend", string(schema.GoGitBackend), "Git implementation: gogit or cli")
	rootCmd.PersistentFlags().String("temp-dir", "", "Parent directory for temporary clones (default: OS temp dir)")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or json or csv")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("log-level", contract.DefaultLogLevel, "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.MemoryBackend), "Memo cache backend: memory or sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname?parseTime=true)")
	rootCmd.PersistentFlags().String("cache-ttl", contract.DefaultCacheTTL.String(), "How long an analysis is reused for the same repository")
	rootCmd.PersistentFlags().String("history-backend", "", "Run history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Database connection string for run history (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("summary-timeout", contract.DefaultSummaryTimeout.String(), "Timeout for the summary request")
	rootCmd.PersistentFlags().String("chat-timeout", contract.DefaultChatTimeout.String(), "Timeout for a streamed chat answer")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Flags local to a single command are read directly from cobra, since
	// viper would share one key between commands.
	analyzeCmd.Flags().Bool("no-summary", false, "Skip the AI summary")
	analyzeCmd.Flags().Bool("readme", false, "Include the README in text output")
	analyzeCmd.Flags().String("preview-out", "", "Write the preview image to this file")

	chatCmd.Flags().StringP("question", "q", "", "Ask a single question instead of starting a chat session")
	chatCmd.Flags().Bool("no-summary", false, "Skip the AI summary before chatting")

	// Bind all flags of serveCmd to Viper
	serveCmd.Flags().String("listen", contract.DefaultListenAddr, "Address the HTTP API listens on")
	serveCmd.Flags().Float64("rate-limit", contract.DefaultRateLimit, "Analyze requests per second accepted by the HTTP API")
	if err := viper.BindPFlags(serveCmd.Flags()); err != nil {
		contract.LogFatal("Error binding serve flags", err)
	}

	historyListCmd.Flags().Int("limit", contract.DefaultHistoryLimit, "Number of runs to display (0 = all)")

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}
