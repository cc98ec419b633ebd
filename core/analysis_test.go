package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/repomind/repomind/internal/contract"
	"github.com/repomind/repomind/internal/iocache"
	"github.com/repomind/repomind/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const widgetsURL = "https://github.com/acme/widgets.git"

// fixtureFiles is the working tree produced by the mocked clone.
var fixtureFiles = map[string]string{
	"README.md":               "# Widgets\n",
	"main.go":                 "package main\n",
	"requirements.txt":        "flask==2.0\nrequests>=2.28\n",
	"package.json":            `{"dependencies":{"react":"^18"},"devDependencies":{"jest":"^29"}}`,
	"docs/guide.md":           "guide",
	"assets/logo.png":         "png",
	"assets/screenshot_2.png": "png-screenshot",
}

func writeFixture(t *testing.T, dir string) {
	t.Helper()
	for name, content := range fixtureFiles {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

var fixtureCommits = []schema.Commit{
	{AuthorEmail: "a@example.com", When: time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)},
	{AuthorEmail: "b@example.com", When: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
}

// mockClone makes the mocked GitClient materialize the fixture on Clone.
func mockClone(t *testing.T, git *contract.MockGitClient) {
	git.On("Clone", mock.Anything, widgetsURL, mock.AnythingOfType("string"), contract.CloneDepth).
		Run(func(args mock.Arguments) { writeFixture(t, args.String(2)) }).
		Return(nil)
	git.On("RecentCommits", mock.Anything, mock.AnythingOfType("string"), contract.MaxCommits).
		Return(fixtureCommits, nil)
}

func newTestAnalyzer(t *testing.T, git contract.GitClient, mgr contract.CacheManager) *Analyzer {
	t.Helper()
	cfg := &contract.Config{TempDir: t.TempDir(), CacheTTL: time.Hour, Model: "llama3:8b"}
	return NewAnalyzer(cfg, git, mgr)
}

func memoryManager(runs contract.RunStore) *iocache.MockCacheManager {
	mgr := &iocache.MockCacheManager{}
	mgr.On("GetCacheStore").Return(iocache.NewMemoryCacheStore())
	mgr.On("GetRunStore").Return(runs)
	return mgr
}

func TestAnalyze(t *testing.T) {
	git := &contract.MockGitClient{}
	mockClone(t, git)
	analyzer := newTestAnalyzer(t, git, nil)

	analysis, err := analyzer.Analyze(context.Background(), widgetsURL)
	require.NoError(t, err)
	assert.False(t, analysis.CacheHit)

	r := analysis.Result
	assert.Equal(t, "widgets", r.RepoName)
	assert.Equal(t, widgetsURL, r.RepoURL)
	assert.Equal(t, len(fixtureFiles), r.TotalFiles)
	assert.Equal(t, 2, r.Contributors)
	assert.Equal(t, "10 Feb 2024", r.LatestCommitDate)
	assert.Equal(t, schema.CommitHistogram{"2024-01": 1, "2024-02": 1}, r.CommitPatterns)
	assert.Equal(t, []string{"flask", "requests"}, r.Dependencies["Python (requirements.txt)"])
	assert.Equal(t, []string{"react", "jest"}, r.Dependencies["JavaScript (package.json)"])
	assert.Equal(t, "# Widgets\n", r.Readme)
	assert.Equal(t, "assets/screenshot_2.png", r.PreviewImagePath)
	assert.Equal(t, []byte("png-screenshot"), r.PreviewImage)
	assert.Equal(t, 1, r.Languages["Go"])
	assert.Equal(t, 2, r.Languages["Markdown"])
	assert.Contains(t, r.FileTree, "📂 widgets/")
	assert.Empty(t, r.AISummary)

	entries, err := os.ReadDir(analyzer.tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "the workspace is removed after analysis")
	git.AssertExpectations(t)
}

func TestAnalyzeMemoizes(t *testing.T) {
	git := &contract.MockGitClient{}
	mockClone(t, git)
	analyzer := newTestAnalyzer(t, git, memoryManager(nil))

	first, err := analyzer.Analyze(context.Background(), widgetsURL)
	require.NoError(t, err)
	assert.False(t, first.CacheHit)

	// Same repository spelled differently
	second, err := analyzer.Analyze(context.Background(), "https://GitHub.com/acme/widgets/")
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Result.RepoName, second.Result.RepoName)
	assert.Equal(t, first.Result.Dependencies, second.Result.Dependencies)

	git.AssertNumberOfCalls(t, "Clone", 1)
	git.AssertNumberOfCalls(t, "RecentCommits", 1)
}

func TestAnalyzeMemoExpires(t *testing.T) {
	git := &contract.MockGitClient{}
	mockClone(t, git)
	analyzer := newTestAnalyzer(t, git, memoryManager(nil))

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	analyzer.now = func() time.Time { return now }

	_, err := analyzer.Analyze(context.Background(), widgetsURL)
	require.NoError(t, err)

	now = now.Add(59 * time.Minute)
	hit, err := analyzer.Analyze(context.Background(), widgetsURL)
	require.NoError(t, err)
	assert.True(t, hit.CacheHit)

	now = now.Add(2 * time.Minute)
	miss, err := analyzer.Analyze(context.Background(), widgetsURL)
	require.NoError(t, err)
	assert.False(t, miss.CacheHit)

	git.AssertNumberOfCalls(t, "Clone", 2)
}

func TestAnalyzeCloneFailure(t *testing.T) {
	git := &contract.MockGitClient{}
	git.On("Clone", mock.Anything, widgetsURL, mock.AnythingOfType("string"), contract.CloneDepth).
		Return(errors.New("repository not found"))

	runs := &iocache.MockRunStore{}
	runs.On("BeginRun", widgetsURL, "llama3:8b", mock.AnythingOfType("time.Time")).Return(int64(7), nil)
	runs.On("EndRun", int64(7), mock.AnythingOfType("time.Time"), mock.MatchedBy(func(o schema.RunOutcome) bool {
		return o.Status == schema.RunFailed && o.Err != ""
	})).Return(nil)

	analyzer := newTestAnalyzer(t, git, memoryManager(runs))
	analysis, err := analyzer.Analyze(context.Background(), widgetsURL)
	assert.Nil(t, analysis)

	var cloneErr *contract.CloneError
	require.ErrorAs(t, err, &cloneErr)
	assert.Equal(t, widgetsURL, cloneErr.URL)
	git.AssertNotCalled(t, "RecentCommits", mock.Anything, mock.Anything, mock.Anything)
	runs.AssertExpectations(t)

	entries, err := os.ReadDir(analyzer.tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAnalyzeHistoryErrorsAreIgnored(t *testing.T) {
	git := &contract.MockGitClient{}
	mockClone(t, git)

	runs := &iocache.MockRunStore{}
	runs.On("BeginRun", widgetsURL, "llama3:8b", mock.AnythingOfType("time.Time")).Return(int64(0), errors.New("db down"))

	analyzer := newTestAnalyzer(t, git, memoryManager(runs))
	_, err := analyzer.Analyze(context.Background(), widgetsURL)
	require.NoError(t, err)
	runs.AssertNotCalled(t, "EndRun", mock.Anything, mock.Anything, mock.Anything)
}

func TestAnalyzeRecordsRuns(t *testing.T) {
	git := &contract.MockGitClient{}
	mockClone(t, git)

	runs := &iocache.MockRunStore{}
	runs.On("BeginRun", widgetsURL, "llama3:8b", mock.AnythingOfType("time.Time")).Return(int64(1), nil)
	runs.On("EndRun", int64(1), mock.AnythingOfType("time.Time"), mock.MatchedBy(func(o schema.RunOutcome) bool {
		return o.Status == schema.RunSuccess && !o.CacheHit && o.Contributors == 2
	})).Return(nil).Once()
	runs.On("EndRun", int64(1), mock.AnythingOfType("time.Time"), mock.MatchedBy(func(o schema.RunOutcome) bool {
		return o.Status == schema.RunSuccess && o.CacheHit
	})).Return(nil).Once()

	analyzer := newTestAnalyzer(t, git, memoryManager(runs))
	for range 2 {
		_, err := analyzer.Analyze(context.Background(), widgetsURL)
		require.NoError(t, err)
	}
	runs.AssertExpectations(t)
}

func TestAnalyzeRejectsInvalidURL(t *testing.T) {
	git := &contract.MockGitClient{}
	analyzer := newTestAnalyzer(t, git, nil)

	for _, raw := range []string{"", "   ", "https://github.com/acme/.git"} {
		_, err := analyzer.Analyze(context.Background(), raw)
		assert.Error(t, err, "input %q", raw)
	}
	git.AssertNotCalled(t, "Clone", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestNewGitClient(t *testing.T) {
	assert.IsType(t, &contract.LocalGitClient{}, NewGitClient(&contract.Config{GitBackend: schema.CLIBackend}))
	assert.IsType(t, &contract.GoGitClient{}, NewGitClient(&contract.Config{GitBackend: schema.GoGitBackend}))
}
