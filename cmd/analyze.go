package cmd

import (
	"os"

	"github.com/repomind/repomind/core"
	"github.com/spf13/cobra"
)

// analyzeCmd analyzes one repository and prints the result.
var analyzeCmd = &cobra.Command{
	Use:   "analyze <repo-url>",
	Short: "Clone a repository and report its languages, dependencies and activity",
	Long: `Shallow-clone a Git repository and extract what a newcomer needs to know.

Reports:
- Repository size, file count and a truncated file tree
- Language and extension statistics
- Dependencies from requirements.txt, package.json, go.mod, Cargo.toml and pyproject.toml
- Contributor count, latest commit date and a monthly commit histogram
- An AI summary from the configured model (skip with --no-summary)

Analyses are memoized per repository for --cache-ttl, so repeated runs
do not clone again.

Examples:
  # Analyze a repository with an AI summary
  repomind analyze https://github.com/pallets/flask

  # Skip the summary and print JSON
  repomind analyze https://github.com/pallets/flask --no-summary --output json

  # Save the preview image and include the README
  repomind analyze https://github.com/charmbracelet/glow --readme --preview-out preview.png`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetup,
	RunE: func(cmd *cobra.Command, args []string) error {
		noSummary, _ := cmd.Flags().GetBool("no-summary")
		readme, _ := cmd.Flags().GetBool("readme")
		previewOut, _ := cmd.Flags().GetString("preview-out")
		return core.ExecuteAnalyze(rootCtx, cfg, cacheManager, args[0], core.AnalyzeOptions{
			Summarize:  !noSummary,
			ShowReadme: readme,
			PreviewOut: previewOut,
		})
	},
}

// chatCmd analyzes a repository and answers questions about it.
var chatCmd = &cobra.Command{
	Use:   "chat <repo-url>",
	Short: "Ask questions about a repository",
	Long: `Analyze a repository, then chat about it with the configured model.

Without --question, an interactive session reads one question per line
from stdin until 'exit', 'quit' or end of input. Answers are printed as
they stream in. Each question is sent with the repository context only,
not with the earlier questions and answers.

Examples:
  # Start an interactive session
  repomind chat https://github.com/spf13/cobra

  # Ask a single question
  repomind chat https://github.com/spf13/cobra -q "How are subcommands registered?"`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetup,
	RunE: func(cmd *cobra.Command, args []string) error {
		question, _ := cmd.Flags().GetString("question")
		noSummary, _ := cmd.Flags().GetBool("no-summary")
		return core.ExecuteChat(rootCtx, cfg, cacheManager, args[0], question,
			core.AnalyzeOptions{Summarize: !noSummary}, os.Stdin, cmd.OutOrStdout())
	},
}

// modelsCmd lists the models on the inference server.
var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models available on the inference server",
	Long: `Show the inference server version and every model it serves, with
family, parameter size and disk size. Use this to pick a value for --model.

Examples:
  repomind models
  repomind models --endpoint http://gpu-box:11434 --output json`,
	PreRunE: remoteSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		return core.ExecuteModels(rootCtx, cfg)
	},
}
