// Package schema has the data types shared across RepoMind packages.
package schema

import (
	"slices"
	"time"
)

// AnalysisResult is the aggregate produced by one analysis run.
// Only AISummary changes after construction; use WithSummary for that.
type AnalysisResult struct {
	RepoName         string              `json:"repo_name"`
	RepoURL          string              `json:"repo_url"`
	Languages        map[string]int      `json:"languages"`
	Readme           string              `json:"readme"`
	Dependencies     map[string][]string `json:"dependencies"`
	TotalFiles       int                 `json:"total_files"`
	Contributors     int                 `json:"contributors"`
	LatestCommitDate string              `json:"latest_commit_date"`
	RepoSize         string              `json:"repo_size"`
	FileTree         string              `json:"file_tree"`
	PreviewImage     []byte              `json:"preview_image,omitempty"`
	PreviewImagePath string              `json:"preview_image_path,omitempty"`
	CommitPatterns   CommitHistogram     `json:"commit_patterns"`
	AISummary        string              `json:"ai_summary,omitempty"`
	AnalyzedAt       time.Time           `json:"analyzed_at"`
}

// WithSummary returns a copy of the result with the AI summary set.
func (r *AnalysisResult) WithSummary(summary string) *AnalysisResult {
	out := *r
	out.AISummary = summary
	return &out
}

// HasSummary reports whether an AI summary is attached.
func (r *AnalysisResult) HasSummary() bool {
	return r.AISummary != ""
}

// CommitHistogram maps a "YYYY-MM" key to the number of commits in that month.
type CommitHistogram map[string]int

// Months returns the histogram keys in ascending calendar order.
func (h CommitHistogram) Months() []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Max returns the largest monthly count.
func (h CommitHistogram) Max() int {
	highest := 0
	for _, v := range h {
		highest = max(highest, v)
	}
	return highest
}

// Commit is the slice of commit data the summarizer needs.
type Commit struct {
	AuthorEmail string
	When        time.Time
}

// ChatMessage is one entry of a session transcript.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// RunRecord is one row of the analysis history.
type RunRecord struct {
	RunID        int64      `json:"run_id"`
	RepoURL      string     `json:"repo_url"`
	RepoName     string     `json:"repo_name"`
	Model        string     `json:"model"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	DurationMs   *int64     `json:"duration_ms,omitempty"`
	Status       string     `json:"status"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	TotalFiles   int        `json:"total_files"`
	Contributors int        `json:"contributors"`
	Languages    *string    `json:"languages,omitempty"`
	CacheHit     bool       `json:"cache_hit"`
}

// ModelInfo describes a model served by the inference server.
type ModelInfo struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	Family     string    `json:"family"`
	Parameters string    `json:"parameters"`
	ModifiedAt time.Time `json:"modified_at"`
}

// RunOutcome holds what gets recorded when an analysis run ends.
type RunOutcome struct {
	Status       RunStatus
	Err          string
	TotalFiles   int
	Contributors int
	Languages    map[string]int
	CacheHit     bool
}

// ChatContext is the slice of an analysis sent along with every chat question.
type ChatContext struct {
	RepoName   string         `json:"repo_name"`
	AISummary  string         `json:"ai_summary"`
	Languages  map[string]int `json:"languages"`
	FileTree   string         `json:"file_tree"`
	FullReadme string         `json:"full_readme"`
}

// ChatContext returns the context used to answer questions about the result.
func (r *AnalysisResult) ChatContext() ChatContext {
	return ChatContext{
		RepoName:   r.RepoName,
		AISummary:  r.AISummary,
		Languages:  r.Languages,
		FileTree:   r.FileTree,
		FullReadme: r.Readme,
	}
}
