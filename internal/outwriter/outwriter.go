// Package outwriter has output and writer logic.
package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/repomind/repomind/internal/contract"
	"github.com/repomind/repomind/schema"
	"golang.org/x/term"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteAnalysis prints an analysis using the configured output format.
func (ow *OutWriter) WriteAnalysis(result *schema.AnalysisResult, opts AnalysisOptions, cfg *contract.Config, duration time.Duration) error {
	return WriteAnalysisResult(result, opts, cfg, duration)
}

// WriteRuns prints recorded runs using the configured output format.
func (ow *OutWriter) WriteRuns(runs []schema.RunRecord, cfg *contract.Config) error {
	return WriteRunRecords(runs, cfg)
}

// WriteModels prints the models served by the inference server.
func (ow *OutWriter) WriteModels(models []schema.ModelInfo, version string, cfg *contract.Config) error {
	return WriteModelList(models, version, cfg)
}

// Default and bounds for the rendering width.
const (
	defaultWidth = 80
	minWidth     = 40
	maxWidth     = 120
)

// terminalWidth returns the width used for wrapping Markdown and sizing bars.
func terminalWidth(cfg *contract.Config) int {
	width := cfg.Width
	if width == 0 { // Not set by override
		detected, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detected <= 0 {
			// Conservative default for pipes and CI
			detected = defaultWidth
		}
		width = detected
	}
	return min(max(width, minWidth), maxWidth)
}

// writeWithFile handles the common pattern of opening a file, writing to it, and cleaning up.
// It accepts a writer function that takes an io.Writer and returns an error.
func writeWithFile(outputFile string, writer func(io.Writer) error, successMsg string) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	// Only close if it's not stdout
	if file != os.Stdout {
		defer func() { _ = file.Close() }()
	}

	if err := writer(file); err != nil {
		return err
	}

	if file != os.Stdout {
		fmt.Fprintf(os.Stderr, "💾 %s to %s\n", successMsg, outputFile)
	}
	return nil
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSVWithHeader handles the common pattern of creating a CSV writer,
// writing a header, and writing data rows.
func writeCSVWithHeader(w io.Writer, header []string, writeRows func(*csv.Writer) error) error {
	csvWriter := csv.NewWriter(w)
	defer csvWriter.Flush()

	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	return writeRows(csvWriter)
}
