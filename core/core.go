// Package core has core logic for repository analysis, summarization and chat.
package core

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/repomind/repomind/internal/contract"
	"github.com/repomind/repomind/internal/logger"
	"github.com/repomind/repomind/internal/ollama"
	"github.com/repomind/repomind/internal/outwriter"
	"github.com/repomind/repomind/schema"
)

// AnalyzeOptions holds the per-invocation switches of the analyze and chat commands.
type AnalyzeOptions struct {
	Summarize  bool
	ShowReadme bool
	PreviewOut string
}

// NoSummaryNotice replaces a summary that was requested but could not be produced.
const NoSummaryNotice = "No AI summary available: the inference server could not be reached."

// ModelLister is the part of the inference client used by the models command.
type ModelLister interface {
	ListModels(ctx context.Context) ([]schema.ModelInfo, error)
	Version(ctx context.Context) (string, error)
}

// AnalyzeAndSummarize analyzes rawURL and, when summarize is set, attaches an AI summary.
// A failed summary does not fail the analysis; it is reported in SummaryErr.
func AnalyzeAndSummarize(ctx context.Context, analyzer *Analyzer, client contract.InferenceClient, rawURL string, summarize bool) (*Analysis, error) {
	analysis, err := analyzer.Analyze(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if !summarize || client == nil {
		return analysis, nil
	}
	summary, err := client.Summarize(ctx, analysis.Result)
	if err != nil {
		contract.LogWarn("AI summary unavailable", err)
		analysis.SummaryErr = err
		return analysis, nil
	}
	analysis.Result = analysis.Result.WithSummary(summary)
	return analysis, nil
}

// ExecuteAnalyze runs one analysis and prints it in the configured format.
// It serves as the main entry point for the 'analyze' command.
func ExecuteAnalyze(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, rawURL string, opts AnalyzeOptions) error {
	client, err := ollama.FromConfig(cfg)
	if err != nil {
		return err
	}
	analyzer := NewAnalyzer(cfg, NewGitClient(cfg), mgr)
	return runAnalyze(ctx, cfg, analyzer, client, rawURL, opts)
}

func runAnalyze(ctx context.Context, cfg *contract.Config, analyzer *Analyzer, client contract.InferenceClient, rawURL string, opts AnalyzeOptions) error {
	start := time.Now()
	analysis, err := AnalyzeAndSummarize(ctx, analyzer, client, rawURL, opts.Summarize)
	if err != nil {
		return err
	}
	if opts.PreviewOut != "" {
		if err := writePreview(opts.PreviewOut, analysis.Result); err != nil {
			return err
		}
	}
	view := outwriter.AnalysisOptions{ShowReadme: opts.ShowReadme, CacheHit: analysis.CacheHit}
	return outwriter.NewOutWriter().WriteAnalysis(analysis.Result, view, cfg, time.Since(start))
}

// writePreview saves the preview image bytes to path.
func writePreview(path string, result *schema.AnalysisResult) error {
	if len(result.PreviewImage) == 0 {
		logger.Warnf("no preview image found in %s", result.RepoName)
		return nil
	}
	if err := os.WriteFile(path, result.PreviewImage, 0o644); err != nil {
		return fmt.Errorf("failed to write preview image: %w", err)
	}
	fmt.Fprintf(os.Stderr, "💾 Wrote preview image %s to %s\n", result.PreviewImagePath, path)
	return nil
}

// ExecuteChat analyzes rawURL and answers questions about it. With a question it answers
// once; otherwise it reads questions from in until EOF or "exit".
// It serves as the main entry point for the 'chat' command.
func ExecuteChat(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, rawURL, question string, opts AnalyzeOptions, in io.Reader, out io.Writer) error {
	client, err := ollama.FromConfig(cfg)
	if err != nil {
		return err
	}
	analyzer := NewAnalyzer(cfg, NewGitClient(cfg), mgr)
	return runChat(ctx, analyzer, client, rawURL, question, opts, in, out)
}

func runChat(ctx context.Context, analyzer *Analyzer, client contract.InferenceClient, rawURL, question string, opts AnalyzeOptions, in io.Reader, out io.Writer) error {
	analysis, err := AnalyzeAndSummarize(ctx, analyzer, client, rawURL, opts.Summarize)
	if err != nil {
		return err
	}
	session := NewSession()
	session.ReplaceResult(strings.TrimSpace(rawURL), analysis.Result)

	if question != "" {
		return streamAnswer(ctx, session, client, question, out)
	}

	fmt.Fprintf(out, "💬 Chatting about %s. Type 'exit' to quit.\n", analysis.Result.RepoName)
	if analysis.Result.HasSummary() {
		fmt.Fprintf(out, "\n%s\n", analysis.Result.AISummary)
	} else if analysis.SummaryErr != nil {
		fmt.Fprintf(out, "\n%s\n", NoSummaryNotice)
	}
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\n> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		q := strings.TrimSpace(scanner.Text())
		switch q {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		if err := streamAnswer(ctx, session, client, q, out); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// streamAnswer prints the answer chunks as they arrive.
func streamAnswer(ctx context.Context, session *Session, client contract.InferenceClient, question string, out io.Writer) error {
	for chunk := range session.Ask(ctx, client, question) {
		if _, err := io.WriteString(out, chunk); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(out)
	return err
}

// ExecuteModels lists the models served by the inference server.
// It serves as the main entry point for the 'models' command.
func ExecuteModels(ctx context.Context, cfg *contract.Config) error {
	client, err := ollama.FromConfig(cfg)
	if err != nil {
		return err
	}
	return runModels(ctx, cfg, client)
}

func runModels(ctx context.Context, cfg *contract.Config, lister ModelLister) error {
	version, err := lister.Version(ctx)
	if err != nil {
		return err
	}
	models, err := lister.ListModels(ctx)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteModels(models, version, cfg)
}

// ExecuteHistoryList prints the most recent recorded runs; limit 0 lists all of them.
// It serves as the main entry point for the 'history list' command.
func ExecuteHistoryList(cfg *contract.Config, mgr contract.CacheManager, limit int) error {
	var runs contract.RunStore
	if mgr != nil {
		runs = mgr.GetRunStore()
	}
	if runs == nil {
		return errors.New("run history is not initialized")
	}
	records, err := runs.ListRuns(limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	return outwriter.NewOutWriter().WriteRuns(records, cfg)
}
