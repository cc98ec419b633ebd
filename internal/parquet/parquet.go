// Package parquet exports RepoMind run history to Parquet files
// using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/repomind/repomind/schema"
)

// Run represents a single recorded analysis run.
// This struct maps to the repomind_runs database table.
type Run struct {
	// RunID is the unique identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	// RepoURL is the URL that was analyzed
	RepoURL string `parquet:"repo_url,snappy,dict"`

	// RepoName is the last path segment of RepoURL
	RepoName string `parquet:"repo_name,snappy,dict"`

	// Model is the inference model configured for the run
	Model string `parquet:"model,snappy,dict"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// DurationMs is the duration of the run in milliseconds (nullable)
	DurationMs *int64 `parquet:"duration_ms,optional,snappy"`

	// Status is running, success or failed
	Status string `parquet:"status,snappy,dict"`

	// ErrorMessage explains a failed run (nullable)
	ErrorMessage *string `parquet:"error_message,optional,snappy"`

	// TotalFiles is the number of files in the clone
	TotalFiles int32 `parquet:"total_files,snappy"`

	// Contributors is the number of distinct author emails
	Contributors int32 `parquet:"contributors,snappy"`

	// Languages is the JSON-encoded language breakdown (nullable)
	Languages *string `parquet:"languages,optional,snappy"`

	// CacheHit reports whether the result came from the memo cache
	CacheHit bool `parquet:"cache_hit"`
}

// WriteRunsParquet writes a slice of Run structs to a Parquet file.
func WriteRunsParquet(data []Run, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// The schema is derived from the Run struct tags
	writer := parquet.NewGenericWriter[Run](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ReadRunsParquet reads every Run from a Parquet file written by WriteRunsParquet.
func ReadRunsParquet(path string) ([]Run, error) {
	rows, err := parquet.ReadFile[Run](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet file: %w", err)
	}
	return rows, nil
}

// ConvertRunRecords converts schema.RunRecord to Run for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	result := make([]Run, len(records))
	for i, record := range records {
		result[i] = Run{
			RunID:        record.RunID,
			RepoURL:      record.RepoURL,
			RepoName:     record.RepoName,
			Model:        record.Model,
			StartTime:    record.StartTime,
			EndTime:      record.EndTime,
			DurationMs:   record.DurationMs,
			Status:       record.Status,
			ErrorMessage: record.ErrorMessage,
			TotalFiles:   int32(record.TotalFiles),
			Contributors: int32(record.Contributors),
			Languages:    record.Languages,
			CacheHit:     record.CacheHit,
		}
	}
	return result
}
