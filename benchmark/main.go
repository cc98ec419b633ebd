// Package main provides a performance benchmarking tool for the RepoMind CLI.
// It measures analyze times across repositories of different sizes, once with
// the memo cache disabled and once with a SQLite memo cache, treating the first
// cached run as cold and averaging the rest as warm. Results are written as CSV.
//
// Prerequisites:
// - repomind binary installed and available in PATH
// - git available in PATH when using --git-backend cli
// - network access to the benchmarked repositories
//
// Usage: go run benchmark/main.go [git-backend]
//
//	git-backend: gogit (default) or cli
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	Repository  string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	GitBackend  string
	Timeout     time.Duration
	NoCacheRuns int
	CacheRuns   int
	TestRepos   []string
}

func main() {
	gitBackend := "gogit"
	if len(os.Args) == 2 {
		gitBackend = os.Args[1]
	} else if len(os.Args) > 2 {
		fmt.Printf("Usage: %s [git-backend]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		GitBackend:  gitBackend,
		Timeout:     5 * time.Minute,
		NoCacheRuns: 3,
		CacheRuns:   4,
		TestRepos: []string{
			"https://github.com/mitchellh/go-homedir",
			"https://github.com/pallets/flask",
			"https://github.com/sharkdp/fd",
			"https://github.com/git/git",
		},
	}

	if _, err := exec.LookPath("repomind"); err != nil {
		fmt.Printf("Prerequisites check failed: repomind binary not found in PATH\n")
		os.Exit(1)
	}

	// Clear the cache using repomind cache clear
	fmt.Printf("Clearing cache...\n")
	clearCmd := exec.Command("repomind", "cache", "clear", "--cache-backend", "sqlite")
	if output, err := clearCmd.CombinedOutput(); err != nil {
		fmt.Printf("Warning: failed to clear cache: %v\nOutput: %s\n", err, string(output))
	} else {
		fmt.Printf("Cache cleared successfully\n")
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// runBenchmarks executes the analyze benchmark for every configured repository
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d repos, %v timeout, %s backend, no-cache: %d runs, cache: %d runs\n",
		len(config.TestRepos), config.Timeout, config.GitBackend, config.NoCacheRuns, config.CacheRuns)

	for _, repo := range config.TestRepos {
		fmt.Printf("Benchmarking %s\n", repo)
		results = append(results, runBenchmarkSuite(config, repo))
	}

	return results
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for a repository
func runBenchmarkSuite(config BenchmarkConfig, repo string) BenchmarkResult {
	// Helper to run a benchmark phase
	runPhase := func(cacheBackend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, repo, cacheBackend, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avgTime = fmt.Sprintf("%.3fs", sum/float64(len(times)))
		}
		return cold, avgTime
	}

	// Phase 1: No-cache runs always clone
	_, noCacheAvg := runPhase("none", config.NoCacheRuns, "No-cache")

	// Phase 2: Cache runs clone once, then hit the memo
	coldTime, warmAvg := runPhase("sqlite", config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Repository:  repo,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark analyzes repo numRuns times with the given cache backend and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, repo, cacheBackend string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := []string{
		"analyze", repo,
		"--no-summary",
		"--color", "no",
		"--cache-backend", cacheBackend,
		"--git-backend", config.GitBackend,
	}

	var times []float64
	for run := 1; run <= numRuns; run++ {
		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		start := time.Now()
		output, err := exec.CommandContext(ctx, "repomind", args...).CombinedOutput()
		elapsed := time.Since(start).Seconds()
		cancel()

		// A cached run must be served from the memo after the first one
		wantMemo := cacheBackend != "none" && run > 1
		if err == nil && isSuccess(output, wantMemo) {
			times = append(times, elapsed)
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	if cacheBackend == "none" {
		warmTimes = times
	}
	return
}

// isSuccess checks the completion footer of the text output
func isSuccess(output []byte, wantMemo bool) bool {
	outputStr := string(output)
	if !strings.Contains(outputStr, "Analysis completed in") {
		return false
	}
	if wantMemo {
		return strings.Contains(outputStr, "from memo cache")
	}
	return true
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/repomind_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	if err := writer.Write([]string{"repo", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Write results
	for _, result := range results {
		if err := writer.Write([]string{result.Repository, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, result := range results {
		fmt.Printf("  %-45s: No-cache: %s, Cold: %s, Warm: %s\n", result.Repository, result.NoCacheTime, result.ColdTime, result.WarmTime)
	}
}
