package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/repomind/repomind/internal/contract"
	"github.com/repomind/repomind/internal/extract"
	"github.com/repomind/repomind/schema"
)

// WriteRunRecords outputs recorded runs, dispatching based on the output format configured.
func WriteRunRecords(runs []schema.RunRecord, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, runs)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRunsCSV(w, runs)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRunsTable(w, runs, cfg.UseColors && cfg.OutputFile == "")
		}, "Wrote table")
	}
	return nil
}

// formatDuration renders an optional run duration in milliseconds.
func formatDuration(ms *int64) string {
	if ms == nil {
		return "-"
	}
	return (time.Duration(*ms) * time.Millisecond).String()
}

func formatCacheHit(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}

// writeRunsTable writes runs as a human-readable table.
func writeRunsTable(w io.Writer, runs []schema.RunRecord, colors bool) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"ID", "Repository", "Model", "Started", "Duration", "Status", "Files", "Cache"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, r := range runs {
		status := contract.GetPlainStatusLabel(r.Status)
		if colors {
			status = contract.GetColorStatusLabel(r.Status)
		}
		data = append(data, []string{
			strconv.FormatInt(r.RunID, 10),
			r.RepoName,
			r.Model,
			r.StartTime.Local().Format(time.DateTime),
			formatDuration(r.DurationMs),
			status,
			strconv.Itoa(r.TotalFiles),
			formatCacheHit(r.CacheHit),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Showing %d runs\n", len(runs))
	return err
}

// writeRunsCSV writes runs in CSV format.
func writeRunsCSV(w io.Writer, runs []schema.RunRecord) error {
	header := []string{
		"run_id", "repo_url", "repo_name", "model", "start_time", "duration_ms",
		"status", "error_message", "total_files", "contributors", "cache_hit",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range runs {
			duration, errMsg := "", ""
			if r.DurationMs != nil {
				duration = strconv.FormatInt(*r.DurationMs, 10)
			}
			if r.ErrorMessage != nil {
				errMsg = *r.ErrorMessage
			}
			rec := []string{
				strconv.FormatInt(r.RunID, 10),
				r.RepoURL,
				r.RepoName,
				r.Model,
				r.StartTime.UTC().Format(time.RFC3339),
				duration,
				r.Status,
				errMsg,
				strconv.Itoa(r.TotalFiles),
				strconv.Itoa(r.Contributors),
				strconv.FormatBool(r.CacheHit),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteModelList outputs the models served by the inference server.
func WriteModelList(models []schema.ModelInfo, version string, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, struct {
				Version string             `json:"version"`
				Models  []schema.ModelInfo `json:"models"`
			}{version, models})
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"name", "family", "parameters", "size_bytes", "modified_at"}, func(cw *csv.Writer) error {
				for _, m := range models {
					if err := cw.Write([]string{
						m.Name, m.Family, m.Parameters,
						strconv.FormatInt(m.Size, 10),
						m.ModifiedAt.UTC().Format(time.RFC3339),
					}); err != nil {
						return err
					}
				}
				return nil
			})
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			table := tablewriter.NewWriter(w)
			table.Header([]string{"Model", "Family", "Parameters", "Size", "Modified"})
			var data [][]string
			for _, m := range models {
				data = append(data, []string{
					m.Name, m.Family, m.Parameters,
					extract.FormatSize(m.Size),
					m.ModifiedAt.Local().Format(time.DateOnly),
				})
			}
			if err := table.Bulk(data); err != nil {
				return err
			}
			if err := table.Render(); err != nil {
				return err
			}
			_, err := fmt.Fprintf(w, "Inference server version: %s (default model: %s)\n", version, cfg.Model)
			return err
		}, "Wrote table")
	}
}
