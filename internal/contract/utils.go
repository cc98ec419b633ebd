package contract

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/repomind/repomind/internal/logger"
	"github.com/repomind/repomind/schema"
)

// Color variables for console output.
var (
	SuccessColor = color.New(color.FgGreen, color.Bold) // SuccessColor marks completed runs.
	FailedColor  = color.New(color.FgRed, color.Bold)   // FailedColor marks failed runs.
	MutedColor   = color.New(color.FgCyan)              // MutedColor marks informational values.
)

// GetPlainStatusLabel returns the plain text label for a run status.
func GetPlainStatusLabel(status string) string {
	switch schema.RunStatus(status) {
	case schema.RunSuccess:
		return "Success"
	case schema.RunFailed:
		return "Failed"
	default:
		return "Running"
	}
}

// GetColorStatusLabel returns a colored run status label for console output.
func GetColorStatusLabel(status string) string {
	text := GetPlainStatusLabel(status)
	switch schema.RunStatus(status) {
	case schema.RunSuccess:
		return SuccessColor.Sprint(text)
	case schema.RunFailed:
		return FailedColor.Sprint(text)
	default:
		return MutedColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path selects os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	logger.Errorf("%s: %v", msg, err)
	logger.Sync()
	os.Exit(1)
}

// LogWarn logs a warning message.
func LogWarn(msg string, err error) {
	logger.Warnf("%s: %v", msg, err)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for the memo cache.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".repomind_cache.db"
	}
	return filepath.Join(homeDir, ".repomind_cache.db")
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for run history.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".repomind_history.db"
	}
	return filepath.Join(homeDir, ".repomind_history.db")
}

// NormalizeRepoURL returns the canonical form of a repository URL used for memoization:
// surrounding space, trailing slashes and a ".git" suffix are removed and the host is lowercased.
func NormalizeRepoURL(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimRight(s, "/")
	s = strings.TrimSuffix(s, ".git")
	s = strings.TrimRight(s, "/")
	if u, err := url.Parse(s); err == nil && u.Scheme != "" && u.Host != "" {
		u.Scheme = strings.ToLower(u.Scheme)
		u.Host = strings.ToLower(u.Host)
		return u.String()
	}
	return s
}

// RepoNameFromURL derives the repository name from the last path segment of the URL.
func RepoNameFromURL(raw string) string {
	s := strings.TrimRight(strings.TrimSpace(raw), "/")
	if i := strings.LastIndexAny(s, "/:"); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSuffix(s, ".git")
}

// ValidateRepoURL rejects input that cannot name a remote repository.
func ValidateRepoURL(raw string) error {
	s := strings.TrimSpace(raw)
	if s == "" {
		return fmt.Errorf("repository URL cannot be empty")
	}
	if RepoNameFromURL(s) == "" {
		return fmt.Errorf("cannot derive a repository name from %q", raw)
	}
	return nil
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
