package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/repomind/repomind/internal/contract"
	"github.com/repomind/repomind/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *schema.AnalysisResult {
	return &schema.AnalysisResult{
		RepoName:         "widgets",
		RepoURL:          "https://github.com/acme/widgets",
		Languages:        map[string]int{"Go": 6, "Markdown": 2, "Shell": 2},
		Readme:           "# Widgets\n\nMakes widgets.",
		Dependencies:     map[string][]string{"Go (go.mod)": {"github.com/spf13/cobra", "go.uber.org/zap"}},
		TotalFiles:       12,
		Contributors:     3,
		LatestCommitDate: "02 Jan 2024",
		RepoSize:         "2.00 KB",
		FileTree:         "📂 widgets/\n    📄 main.go",
		PreviewImagePath: "docs/screenshot.png",
		CommitPatterns:   schema.CommitHistogram{"2023-12": 2, "2024-01": 8},
	}
}

func plainConfig() *contract.Config {
	return &contract.Config{Output: schema.TextOut, Width: 80, CacheBackend: schema.MemoryBackend, Model: "llama3:8b"}
}

func TestTerminalWidth(t *testing.T) {
	tests := []struct {
		name     string
		width    int
		expected int
	}{
		{"override", 100, 100},
		{"clamped low", 10, minWidth},
		{"clamped high", 500, maxWidth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, terminalWidth(&contract.Config{Width: tt.width}))
		})
	}

	detected := terminalWidth(&contract.Config{})
	assert.GreaterOrEqual(t, detected, minWidth)
	assert.LessOrEqual(t, detected, maxWidth)
}

func TestRenderBar(t *testing.T) {
	assert.Equal(t, "", renderBar(0, 10, 20))
	assert.Equal(t, "", renderBar(5, 0, 20))
	assert.Equal(t, strings.Repeat("█", 20), renderBar(10, 10, 20))
	assert.Equal(t, strings.Repeat("█", 10), renderBar(5, 10, 20))
	assert.Equal(t, "█", renderBar(1, 1000, 20), "positive values are always visible")
}

func TestFormatShare(t *testing.T) {
	assert.Equal(t, "50.0%", formatShare(1, 2))
	assert.Equal(t, "0.0%", formatShare(1, 0))
}

func TestSortedLanguages(t *testing.T) {
	rows := sortedLanguages(map[string]int{"Shell": 2, "Go": 6, "Markdown": 2})
	require.Len(t, rows, 3)
	assert.Equal(t, "Go", rows[0].Name)
	assert.Equal(t, "Markdown", rows[1].Name, "ties are ordered by name")
	assert.Equal(t, "Shell", rows[2].Name)
}

func TestRenderHeader(t *testing.T) {
	assert.Equal(t, "title\nsub\n", renderHeader("title", "sub", false))
	assert.Equal(t, "title\n", renderHeader("title", "", false))
	assert.Contains(t, renderHeader("title", "sub", true), "title")
}

func TestRenderMarkdown(t *testing.T) {
	assert.Empty(t, renderMarkdown("   ", 80, false))
	out := renderMarkdown("# Heading\n\nSome **bold** text.", 80, false)
	assert.Contains(t, out, "Heading")
	assert.Contains(t, out, "bold")
}

func TestWriteAnalysisText(t *testing.T) {
	t.Run("without summary", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeAnalysisText(&buf, sampleResult(), AnalysisOptions{}, plainConfig(), 1500*time.Millisecond))
		out := buf.String()

		assert.Contains(t, out, "📦 widgets")
		assert.Contains(t, out, "https://github.com/acme/widgets")
		assert.Contains(t, out, "2.00 KB")
		assert.Contains(t, out, "02 Jan 2024")
		assert.Contains(t, out, "docs/screenshot.png")
		assert.Contains(t, out, "60.0%")
		assert.Contains(t, out, "2024-01")
		assert.Contains(t, out, "█")
		assert.Contains(t, out, "go.uber.org/zap")
		assert.Contains(t, out, "📄 main.go")
		assert.Contains(t, out, noSummaryText)
		assert.NotContains(t, out, "Makes widgets")
		assert.Contains(t, out, "from fresh clone")
		assert.Contains(t, out, "Cache backend: memory")
	})

	t.Run("with summary and readme", func(t *testing.T) {
		var buf bytes.Buffer
		result := sampleResult().WithSummary("**Project Purpose:** builds widgets")
		opts := AnalysisOptions{ShowReadme: true, CacheHit: true}
		require.NoError(t, writeAnalysisText(&buf, result, opts, plainConfig(), time.Second))
		out := buf.String()

		assert.Contains(t, out, "builds widgets")
		assert.NotContains(t, out, noSummaryText)
		assert.Contains(t, out, "Makes widgets")
		assert.Contains(t, out, "from memo cache")
	})

	t.Run("missing readme", func(t *testing.T) {
		var buf bytes.Buffer
		result := sampleResult()
		result.Readme = schema.ReadmeNotFound
		require.NoError(t, writeAnalysisText(&buf, result, AnalysisOptions{ShowReadme: true}, plainConfig(), time.Second))
		assert.Contains(t, buf.String(), schema.ReadmeNotFound)
	})

	t.Run("empty sections omitted", func(t *testing.T) {
		var buf bytes.Buffer
		result := &schema.AnalysisResult{RepoName: "empty", LatestCommitDate: schema.NotAvailable, FileTree: "📂 empty/"}
		require.NoError(t, writeAnalysisText(&buf, result, AnalysisOptions{}, plainConfig(), time.Second))
		out := buf.String()
		assert.NotContains(t, out, "Commit Activity")
		assert.NotContains(t, out, "Dependencies")
		assert.Contains(t, out, schema.NotAvailable)
	})
}

func TestWriteAnalysisCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeAnalysisCSV(&buf, sampleResult().WithSummary("summary")))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"section", "key", "value"}, records[0])
	assert.Contains(t, records, []string{"overview", "repo_name", "widgets"})
	assert.Contains(t, records, []string{"language", "Go", "6"})
	assert.Contains(t, records, []string{"commits", "2023-12", "2"})
	assert.Contains(t, records, []string{"dependency", "Go (go.mod)", "github.com/spf13/cobra"})
	assert.Contains(t, records, []string{"summary", "ai_summary", "summary"})
}

func TestWriteAnalysisResultToFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("json", func(t *testing.T) {
		cfg := plainConfig()
		cfg.Output = schema.JSONOut
		cfg.OutputFile = filepath.Join(dir, "out.json")
		result := sampleResult()
		result.PreviewImage = []byte{1, 2, 3}

		require.NoError(t, WriteAnalysisResult(result, AnalysisOptions{}, cfg, time.Second))
		data, err := os.ReadFile(cfg.OutputFile)
		require.NoError(t, err)

		var decoded schema.AnalysisResult
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, "widgets", decoded.RepoName)
		assert.Equal(t, []byte{1, 2, 3}, decoded.PreviewImage)
		assert.Contains(t, string(data), `"preview_image": "AQID"`)
	})

	t.Run("text", func(t *testing.T) {
		cfg := plainConfig()
		cfg.UseColors = true
		cfg.OutputFile = filepath.Join(dir, "out.txt")

		require.NoError(t, NewOutWriter().WriteAnalysis(sampleResult(), AnalysisOptions{}, cfg, time.Second))
		data, err := os.ReadFile(cfg.OutputFile)
		require.NoError(t, err)
		assert.Contains(t, string(data), "📦 widgets")
		assert.NotContains(t, string(data), "\x1b[", "files never get ANSI styling")
	})

	t.Run("unwritable path", func(t *testing.T) {
		cfg := plainConfig()
		cfg.Output = schema.CSVOut
		cfg.OutputFile = filepath.Join(dir, "missing", "out.csv")
		assert.Error(t, WriteAnalysisResult(sampleResult(), AnalysisOptions{}, cfg, time.Second))
	})
}

func sampleRuns() []schema.RunRecord {
	ms := int64(1500)
	errMsg := "clone failed"
	return []schema.RunRecord{
		{RunID: 2, RepoURL: "https://github.com/acme/missing", RepoName: "missing", Model: "llama3:8b",
			StartTime: time.Date(2024, 3, 1, 10, 1, 0, 0, time.UTC), Status: "failed", ErrorMessage: &errMsg},
		{RunID: 1, RepoURL: "https://github.com/acme/widgets", RepoName: "widgets", Model: "llama3:8b",
			StartTime: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), DurationMs: &ms, Status: "success",
			TotalFiles: 12, Contributors: 3, CacheHit: true},
	}
}

func TestWriteRunsTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeRunsTable(&buf, sampleRuns(), false))
	out := buf.String()

	assert.Contains(t, out, "widgets")
	assert.Contains(t, out, "Failed")
	assert.Contains(t, out, "Success")
	assert.Contains(t, out, "1.5s")
	assert.Contains(t, out, "hit")
	assert.Contains(t, out, "Showing 2 runs")
}

func TestWriteRunsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeRunsCSV(&buf, sampleRuns()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "run_id", records[0][0])
	assert.Equal(t, []string{
		"2", "https://github.com/acme/missing", "missing", "llama3:8b", "2024-03-01T10:01:00Z", "",
		"failed", "clone failed", "0", "0", "false",
	}, records[1])
	assert.Equal(t, "1500", records[2][5])
	assert.Equal(t, "true", records[2][10])
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "-", formatDuration(nil))
	ms := int64(250)
	assert.Equal(t, "250ms", formatDuration(&ms))
}

func TestWriteModelList(t *testing.T) {
	models := []schema.ModelInfo{{
		Name: "llama3:8b", Family: "llama", Parameters: "8.0B", Size: 5 * 1024 * 1024,
		ModifiedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}}
	dir := t.TempDir()

	cfg := plainConfig()
	cfg.OutputFile = filepath.Join(dir, "models.txt")
	require.NoError(t, WriteModelList(models, "0.12.11", cfg))
	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "5.00 MB")
	assert.Contains(t, string(data), "Inference server version: 0.12.11")

	cfg.Output = schema.JSONOut
	cfg.OutputFile = filepath.Join(dir, "models.json")
	require.NoError(t, NewOutWriter().WriteModels(models, "0.12.11", cfg))
	data, err = os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"version": "0.12.11"`)
	assert.Contains(t, string(data), `"family": "llama"`)
}
