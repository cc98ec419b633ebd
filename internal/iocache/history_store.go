package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/repomind/repomind/internal/contract"
	"github.com/repomind/repomind/schema"
)

// runsTable holds one row per analysis run.
const runsTable = "repomind_runs"

// runStatusRunning marks a run that has begun but not ended.
const runStatusRunning = "running"

// RunStoreImpl implements the RunStore interface.
type RunStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.RunStore = &RunStoreImpl{} // Compile-time check

// NewRunStore creates a new RunStore with the specified backend.
func NewRunStore(backend schema.DatabaseBackend, connStr string) (contract.RunStore, error) {
	switch backend {
	case schema.NoneBackend:
		// Return a no-op store for disabled tracking
		return &RunStoreImpl{backend: backend}, nil
	case schema.SQLiteBackend, schema.MySQLBackend, schema.PostgreSQLBackend:
	default:
		return nil, fmt.Errorf("unsupported history backend: %s", backend)
	}

	db, err := openDB(backend, connStr, GetHistoryDBFilePath())
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(getCreateRunsQuery(backend)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", runsTable, err)
	}

	return &RunStoreImpl{db: db, backend: backend}, nil
}

// getCreateRunsQuery returns the CREATE TABLE query for the runs table.
// It matches the first embedded migration for each backend.
func getCreateRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(runsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				repo_url VARCHAR(1024) NOT NULL,
				repo_name VARCHAR(255) NOT NULL,
				model VARCHAR(255) NOT NULL,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms BIGINT,
				status VARCHAR(20) NOT NULL,
				error_message TEXT,
				total_files INT NOT NULL DEFAULT 0,
				contributors INT NOT NULL DEFAULT 0,
				languages TEXT,
				cache_hit BOOLEAN NOT NULL DEFAULT FALSE
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				repo_url TEXT NOT NULL,
				repo_name TEXT NOT NULL,
				model TEXT NOT NULL,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms BIGINT,
				status TEXT NOT NULL,
				error_message TEXT,
				total_files INT NOT NULL DEFAULT 0,
				contributors INT NOT NULL DEFAULT 0,
				languages TEXT,
				cache_hit BOOLEAN NOT NULL DEFAULT FALSE
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				repo_url TEXT NOT NULL,
				repo_name TEXT NOT NULL,
				model TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				status TEXT NOT NULL,
				error_message TEXT,
				total_files INTEGER NOT NULL DEFAULT 0,
				contributors INTEGER NOT NULL DEFAULT 0,
				languages TEXT,
				cache_hit INTEGER NOT NULL DEFAULT 0
			);
		`, quotedTableName)
	}
}

// placeholders returns n comma-separated placeholders for the backend.
func (rs *RunStoreImpl) placeholders(n int) string {
	ph := make([]string, n)
	for i := range n {
		ph[i] = getPlaceholder(rs.backend, i+1)
	}
	return strings.Join(ph, ", ")
}

// BeginRun creates a new run and returns its unique ID.
func (rs *RunStoreImpl) BeginRun(repoURL, model string, startTime time.Time) (int64, error) {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return 0, nil
	}

	quotedTableName := quoteTableName(runsTable, rs.backend)
	args := []any{repoURL, contract.RepoNameFromURL(repoURL), model, formatTime(startTime, rs.backend), runStatusRunning}
	query := fmt.Sprintf(`INSERT INTO %s (repo_url, repo_name, model, start_time, status) VALUES (%s)`,
		quotedTableName, rs.placeholders(len(args)))

	var runID int64
	var err error
	switch rs.backend {
	case schema.PostgreSQLBackend:
		err = rs.db.QueryRow(query+" RETURNING run_id", args...).Scan(&runID)
	default: // SQLite and MySQL
		var result sql.Result
		result, err = rs.db.Exec(query, args...)
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return runID, nil
}

// EndRun updates the run with completion data.
func (rs *RunStoreImpl) EndRun(runID int64, endTime time.Time, outcome schema.RunOutcome) error {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil
	}

	quotedTableName := quoteTableName(runsTable, rs.backend)
	row := rs.db.QueryRow(fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`,
		quotedTableName, getPlaceholder(rs.backend, 1)), runID)
	startTime, err := rs.scanTime(row)
	if err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}

	var languages *string
	if len(outcome.Languages) > 0 {
		data, err := json.Marshal(outcome.Languages)
		if err != nil {
			return fmt.Errorf("failed to marshal languages: %w", err)
		}
		s := string(data)
		languages = &s
	}
	var errMsg *string
	if outcome.Err != "" {
		errMsg = &outcome.Err
	}

	sets := []string{"end_time", "run_duration_ms", "status", "error_message", "total_files", "contributors", "languages", "cache_hit"}
	for i, col := range sets {
		sets[i] = fmt.Sprintf("%s = %s", col, getPlaceholder(rs.backend, i+1))
	}
	updateQuery := fmt.Sprintf(`UPDATE %s SET %s WHERE run_id = %s`,
		quotedTableName, strings.Join(sets, ", "), getPlaceholder(rs.backend, len(sets)+1))
	args := []any{
		formatTime(endTime, rs.backend),
		endTime.Sub(startTime).Milliseconds(),
		string(outcome.Status),
		errMsg,
		outcome.TotalFiles,
		outcome.Contributors,
		languages,
		outcome.CacheHit,
		runID,
	}

	if _, err := rs.db.Exec(updateQuery, args...); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// scanTime reads a single time column, handling SQLite's text storage.
func (rs *RunStoreImpl) scanTime(row *sql.Row) (time.Time, error) {
	if rs.backend != schema.SQLiteBackend {
		var t time.Time
		err := row.Scan(&t)
		return t, err
	}
	var s string
	if err := row.Scan(&s); err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, s)
}

// ListRuns returns up to limit runs, newest first. A non-positive limit returns all runs.
func (rs *RunStoreImpl) ListRuns(limit int) ([]schema.RunRecord, error) {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, repo_url, repo_name, model, start_time, end_time, run_duration_ms,
		status, error_message, total_files, contributors, languages, cache_hit
		FROM %s ORDER BY run_id DESC`, quoteTableName(runsTable, rs.backend))
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var record schema.RunRecord

		switch rs.backend {
		case schema.SQLiteBackend:
			var startTimeStr string
			var endTimeStr *string
			if err := rows.Scan(&record.RunID, &record.RepoURL, &record.RepoName, &record.Model,
				&startTimeStr, &endTimeStr, &record.DurationMs, &record.Status, &record.ErrorMessage,
				&record.TotalFiles, &record.Contributors, &record.Languages, &record.CacheHit); err != nil {
				return nil, fmt.Errorf("failed to scan run: %w", err)
			}
			if record.StartTime, err = time.Parse(time.RFC3339Nano, startTimeStr); err != nil {
				return nil, fmt.Errorf("failed to parse start_time: %w", err)
			}
			if endTimeStr != nil {
				endTime, err := time.Parse(time.RFC3339Nano, *endTimeStr)
				if err != nil {
					return nil, fmt.Errorf("failed to parse end_time: %w", err)
				}
				record.EndTime = &endTime
			}
		default: // MySQL and PostgreSQL store as native datetime
			if err := rows.Scan(&record.RunID, &record.RepoURL, &record.RepoName, &record.Model,
				&record.StartTime, &record.EndTime, &record.DurationMs, &record.Status, &record.ErrorMessage,
				&record.TotalFiles, &record.Contributors, &record.Languages, &record.CacheHit); err != nil {
				return nil, fmt.Errorf("failed to scan run: %w", err)
			}
		}

		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetStatus returns status information about the run store.
func (rs *RunStoreImpl) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:   string(rs.backend),
		Connected: rs.db != nil,
	}

	if rs.backend == schema.NoneBackend || rs.db == nil {
		return status, nil
	}

	quotedTableName := quoteTableName(runsTable, rs.backend)

	row := rs.db.QueryRow(fmt.Sprintf(`SELECT COUNT(*), COUNT(DISTINCT repo_url) FROM %s`, quotedTableName))
	if err := row.Scan(&status.TotalRuns, &status.DistinctRepos); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}
	if status.TotalRuns == 0 {
		return status, nil
	}

	row = rs.db.QueryRow(fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE status = %s`,
		quotedTableName, getPlaceholder(rs.backend, 1)), string(schema.RunFailed))
	if err := row.Scan(&status.FailedRuns); err != nil {
		return status, fmt.Errorf("failed to get failed runs: %w", err)
	}

	row = rs.db.QueryRow(fmt.Sprintf(`SELECT run_id FROM %s ORDER BY run_id DESC LIMIT 1`, quotedTableName))
	if err := row.Scan(&status.LastRunID); err != nil {
		return status, fmt.Errorf("failed to get last run id: %w", err)
	}

	var err error
	row = rs.db.QueryRow(fmt.Sprintf(`SELECT start_time FROM %s ORDER BY run_id DESC LIMIT 1`, quotedTableName))
	if status.LastRunTime, err = rs.scanTime(row); err != nil {
		return status, fmt.Errorf("failed to get last run time: %w", err)
	}

	row = rs.db.QueryRow(fmt.Sprintf(`SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1`, quotedTableName))
	if status.OldestRunTime, err = rs.scanTime(row); err != nil {
		return status, fmt.Errorf("failed to get oldest run time: %w", err)
	}

	return status, nil
}

// Close closes the underlying connection.
func (rs *RunStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}
