package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/repomind/repomind/internal/contract"
	"github.com/repomind/repomind/internal/parquet"
)

// ExecuteHistoryExport writes every recorded run in store to a Parquet file.
func ExecuteHistoryExport(w io.Writer, store contract.RunStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("run history is not initialized")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no run history found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting %d runs from %s backend...\n", status.TotalRuns, status.Backend)

	runs, err := store.ListRuns(0)
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}

	if err := parquet.WriteRunsParquet(parquet.ConvertRunRecords(runs), outputFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d runs to: %s\n", len(runs), outputFile)
	return nil
}
