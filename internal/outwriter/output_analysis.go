package outwriter

import (
	"cmp"
	"encoding/csv"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/repomind/repomind/internal/contract"
	"github.com/repomind/repomind/schema"
)

// AnalysisOptions adjusts how an analysis is printed.
type AnalysisOptions struct {
	ShowReadme bool // Include the rendered README in text output
	CacheHit   bool // The result came from the memo cache
}

// noSummaryText is shown in place of a missing AI summary.
const noSummaryText = "No AI summary available."

// Histogram bars take a third of the rendering width.
const barColumnShare = 3

// WriteAnalysisResult outputs one analysis, dispatching based on the output format configured.
func WriteAnalysisResult(result *schema.AnalysisResult, opts AnalysisOptions, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeAnalysisCSV(w, result)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		// Default to human-readable report
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeAnalysisText(w, result, opts, cfg, duration)
		}, "Wrote report")
	}
	return nil
}

// languageRow is one entry of the language table.
type languageRow struct {
	Name  string
	Count int
}

// sortedLanguages orders languages by file count, then by name.
func sortedLanguages(languages map[string]int) []languageRow {
	rows := make([]languageRow, 0, len(languages))
	for name, count := range languages {
		rows = append(rows, languageRow{Name: name, Count: count})
	}
	slices.SortFunc(rows, func(a, b languageRow) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return rows
}

// writeAnalysisText writes the human-readable report.
func writeAnalysisText(w io.Writer, r *schema.AnalysisResult, opts AnalysisOptions, cfg *contract.Config, duration time.Duration) error {
	width := terminalWidth(cfg)
	colors := cfg.UseColors && cfg.OutputFile == ""

	var sb strings.Builder
	sb.WriteString(renderHeader("📦 "+r.RepoName, r.RepoURL, colors))

	// 1. Overview
	sb.WriteString(renderSection("Overview", colors))
	overview := [][]string{
		{"Repository Size", r.RepoSize},
		{"Total Files", strconv.Itoa(r.TotalFiles)},
		{"Contributors", strconv.Itoa(r.Contributors)},
		{"Latest Commit", r.LatestCommitDate},
		{"Languages", strconv.Itoa(len(r.Languages))},
	}
	if r.PreviewImagePath != "" {
		overview = append(overview, []string{"Preview Image", r.PreviewImagePath})
	}
	if err := renderTable(&sb, []string{"Metric", "Value"}, overview, tw.AlignLeft); err != nil {
		return err
	}

	// 2. Languages
	if len(r.Languages) > 0 {
		sb.WriteString(renderSection("Languages", colors))
		total := 0
		for _, n := range r.Languages {
			total += n
		}
		var rows [][]string
		for _, l := range sortedLanguages(r.Languages) {
			rows = append(rows, []string{l.Name, strconv.Itoa(l.Count), formatShare(l.Count, total)})
		}
		if err := renderTable(&sb, []string{"Language", "Files", "Share"}, rows, tw.AlignRight); err != nil {
			return err
		}
	}

	// 3. Commit activity
	if len(r.CommitPatterns) > 0 {
		sb.WriteString(renderSection("Commit Activity", colors))
		highest := r.CommitPatterns.Max()
		barWidth := width / barColumnShare
		var rows [][]string
		for _, month := range r.CommitPatterns.Months() {
			n := r.CommitPatterns[month]
			rows = append(rows, []string{month, strconv.Itoa(n), renderBar(n, highest, barWidth)})
		}
		if err := renderTable(&sb, []string{"Month", "Commits", "Activity"}, rows, tw.AlignLeft); err != nil {
			return err
		}
	}

	// 4. Dependencies
	if len(r.Dependencies) > 0 {
		sb.WriteString(renderSection("Dependencies", colors))
		var rows [][]string
		for _, manifest := range slices.Sorted(maps.Keys(r.Dependencies)) {
			deps := r.Dependencies[manifest]
			rows = append(rows, []string{manifest, strconv.Itoa(len(deps)), strings.Join(deps, ", ")})
		}
		if err := renderTable(&sb, []string{"Manifest", "Count", "Packages"}, rows, tw.AlignLeft); err != nil {
			return err
		}
	}

	// 5. File tree
	sb.WriteString(renderSection("File Tree", colors))
	sb.WriteString(r.FileTree)
	sb.WriteString("\n")

	// 6. AI summary
	sb.WriteString(renderSection("AI Summary", colors))
	if r.HasSummary() {
		sb.WriteString(renderMarkdown(r.AISummary, width, colors))
	} else {
		sb.WriteString(noSummaryText + "\n")
	}

	// 7. README
	if opts.ShowReadme {
		sb.WriteString(renderSection("README", colors))
		if r.Readme == schema.ReadmeNotFound {
			sb.WriteString(r.Readme + "\n")
		} else {
			sb.WriteString(renderMarkdown(r.Readme, width, colors))
		}
	}

	source := "fresh clone"
	if opts.CacheHit {
		source = "memo cache"
	}
	fmt.Fprintf(&sb, "\nAnalysis completed in %v from %s. Cache backend: %s\n", duration.Round(time.Millisecond), source, cfg.CacheBackend)

	_, err := io.WriteString(w, sb.String())
	return err
}

// renderTable writes a bordered table with the given alignment to w.
func renderTable(w io.Writer, headers []string, rows [][]string, align tw.Align) error {
	table := tablewriter.NewWriter(w)
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = align
	})
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

// writeAnalysisCSV flattens an analysis into section,key,value rows.
func writeAnalysisCSV(w io.Writer, r *schema.AnalysisResult) error {
	return writeCSVWithHeader(w, []string{"section", "key", "value"}, func(cw *csv.Writer) error {
		records := [][]string{
			{"overview", "repo_name", r.RepoName},
			{"overview", "repo_url", r.RepoURL},
			{"overview", "repo_size", r.RepoSize},
			{"overview", "total_files", strconv.Itoa(r.TotalFiles)},
			{"overview", "contributors", strconv.Itoa(r.Contributors)},
			{"overview", "latest_commit_date", r.LatestCommitDate},
			{"overview", "preview_image_path", r.PreviewImagePath},
		}
		for _, l := range sortedLanguages(r.Languages) {
			records = append(records, []string{"language", l.Name, strconv.Itoa(l.Count)})
		}
		for _, month := range r.CommitPatterns.Months() {
			records = append(records, []string{"commits", month, strconv.Itoa(r.CommitPatterns[month])})
		}
		for _, manifest := range slices.Sorted(maps.Keys(r.Dependencies)) {
			for _, dep := range r.Dependencies[manifest] {
				records = append(records, []string{"dependency", manifest, dep})
			}
		}
		if r.HasSummary() {
			records = append(records, []string{"summary", "ai_summary", r.AISummary})
		}
		return cw.WriteAll(records)
	})
}
