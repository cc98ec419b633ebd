package parquet

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/repomind/repomind/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRuns() []Run {
	now := time.Now()
	end := now.Add(2 * time.Second)
	duration := int64(2000)
	langs := `{"Go":12}`
	failure := "clone failed"
	return []Run{
		{
			RunID:        1,
			RepoURL:      "https://github.com/acme/widgets",
			RepoName:     "widgets",
			Model:        "llama3:8b",
			StartTime:    now,
			EndTime:      &end,
			DurationMs:   &duration,
			Status:       "success",
			TotalFiles:   40,
			Contributors: 3,
			Languages:    &langs,
		},
		{
			RunID:        2,
			RepoURL:      "https://github.com/acme/missing",
			RepoName:     "missing",
			Model:        "llama3:8b",
			StartTime:    now,
			Status:       "failed",
			ErrorMessage: &failure,
		},
		{
			RunID:     3,
			RepoURL:   "https://github.com/acme/widgets",
			RepoName:  "widgets",
			Model:     "mistral",
			StartTime: now,
			Status:    "success",
			CacheHit:  true,
		},
	}
}

func TestRunStructTags(t *testing.T) {
	s := parquet.SchemaOf(new(Run))
	require.NotNil(t, s)

	expectedColumns := []string{
		"run_id", "repo_url", "repo_name", "model", "start_time", "end_time", "duration_ms",
		"status", "error_message", "total_files", "contributors", "languages", "cache_hit",
	}
	for _, colName := range expectedColumns {
		_, ok := s.Lookup(colName)
		assert.True(t, ok, "Column %s should exist in schema", colName)
	}
}

func TestWriteAndReadRunsParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "runs.parquet")
	data := sampleRuns()

	require.NoError(t, WriteRunsParquet(data, outputPath))

	info, err := os.Stat(outputPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	readData, err := ReadRunsParquet(outputPath)
	require.NoError(t, err)
	require.Len(t, readData, len(data))

	for i := range data {
		assert.Equal(t, data[i].RunID, readData[i].RunID)
		assert.Equal(t, data[i].RepoURL, readData[i].RepoURL)
		assert.Equal(t, data[i].Status, readData[i].Status)
		assert.Equal(t, data[i].CacheHit, readData[i].CacheHit)
		assert.WithinDuration(t, data[i].StartTime, readData[i].StartTime, time.Nanosecond)

		if data[i].EndTime == nil {
			assert.Nil(t, readData[i].EndTime)
		} else {
			require.NotNil(t, readData[i].EndTime)
			assert.WithinDuration(t, *data[i].EndTime, *readData[i].EndTime, time.Nanosecond)
		}
		assert.Equal(t, data[i].DurationMs, readData[i].DurationMs)
		assert.Equal(t, data[i].ErrorMessage, readData[i].ErrorMessage)
		assert.Equal(t, data[i].Languages, readData[i].Languages)
	}
}

func TestWriteRunsParquetEmptyData(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "empty.parquet")
	require.NoError(t, WriteRunsParquet([]Run{}, outputPath))

	info, err := os.Stat(outputPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0), "Output file should contain schema even if empty")
}

func TestWriteRunsParquetInvalidPath(t *testing.T) {
	err := WriteRunsParquet(sampleRuns(), "/nonexistent/directory/output.parquet")
	assert.Error(t, err)
}

func TestReadRunsParquetMissingFile(t *testing.T) {
	_, err := ReadRunsParquet(filepath.Join(t.TempDir(), "nope.parquet"))
	assert.Error(t, err)
}

func TestConvertRunRecords(t *testing.T) {
	end := time.Now()
	duration := int64(1500)
	records := []schema.RunRecord{
		{
			RunID:        7,
			RepoURL:      "https://github.com/acme/widgets",
			RepoName:     "widgets",
			Model:        "llama3:8b",
			StartTime:    end.Add(-1500 * time.Millisecond),
			EndTime:      &end,
			DurationMs:   &duration,
			Status:       "success",
			TotalFiles:   12,
			Contributors: 2,
			CacheHit:     true,
		},
	}

	got := ConvertRunRecords(records)
	require.Len(t, got, 1)
	assert.Equal(t, int64(7), got[0].RunID)
	assert.Equal(t, int32(12), got[0].TotalFiles)
	assert.Equal(t, int32(2), got[0].Contributors)
	assert.Equal(t, &duration, got[0].DurationMs)
	assert.True(t, got[0].CacheHit)
	assert.Empty(t, ConvertRunRecords(nil))
}
