package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/repomind/repomind/internal/contract"
	"github.com/repomind/repomind/internal/extract"
	"github.com/repomind/repomind/internal/logger"
	"github.com/repomind/repomind/internal/workspace"
	"github.com/repomind/repomind/schema"
)

// Analysis is the outcome of Analyzer.Analyze.
type Analysis struct {
	Result   *schema.AnalysisResult
	CacheHit bool
	Duration time.Duration
	// SummaryErr is set when a requested summary could not be produced.
	SummaryErr error
}

// Analyzer clones, inspects and memoizes repositories.
type Analyzer struct {
	git     contract.GitClient
	mgr     contract.CacheManager
	tempDir string
	ttl     time.Duration
	model   string

	// now is replaced in tests.
	now func() time.Time
}

// NewAnalyzer builds an Analyzer from the validated config. mgr may be nil to disable
// memoization and history.
func NewAnalyzer(cfg *contract.Config, git contract.GitClient, mgr contract.CacheManager) *Analyzer {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = contract.DefaultCacheTTL
	}
	return &Analyzer{
		git:     git,
		mgr:     mgr,
		tempDir: cfg.TempDir,
		ttl:     ttl,
		model:   cfg.Model,
		now:     time.Now,
	}
}

// NewGitClient returns the GitClient selected by the config.
func NewGitClient(cfg *contract.Config) contract.GitClient {
	if cfg.GitBackend == schema.CLIBackend {
		return contract.NewLocalGitClient()
	}
	return contract.NewGoGitClient()
}

// Analyze returns the analysis of the repository at rawURL. A result computed for the same
// normalized URL within the TTL is returned without cloning again.
func (a *Analyzer) Analyze(ctx context.Context, rawURL string) (*Analysis, error) {
	if err := contract.ValidateRepoURL(rawURL); err != nil {
		return nil, err
	}
	repoURL := strings.TrimSpace(rawURL)
	key := memoKey(contract.NormalizeRepoURL(repoURL))
	start := a.now()

	runs := a.runStore()
	runID := a.beginRun(runs, repoURL, start)

	if store := a.cacheStore(); store != nil {
		if cached := checkCacheHit(store, key, a.ttl, start); cached != nil {
			logger.Debugf("memo hit for %s", repoURL)
			a.endRun(runs, runID, schema.RunOutcome{
				Status:       schema.RunSuccess,
				TotalFiles:   cached.TotalFiles,
				Contributors: cached.Contributors,
				Languages:    cached.Languages,
				CacheHit:     true,
			})
			return &Analysis{Result: cached, CacheHit: true, Duration: a.now().Sub(start)}, nil
		}
	}

	result, err := a.analyzeFresh(ctx, repoURL)
	if err != nil {
		a.endRun(runs, runID, schema.RunOutcome{Status: schema.RunFailed, Err: err.Error()})
		return nil, err
	}

	if store := a.cacheStore(); store != nil {
		storeResult(store, key, result, a.now())
	}
	a.endRun(runs, runID, schema.RunOutcome{
		Status:       schema.RunSuccess,
		TotalFiles:   result.TotalFiles,
		Contributors: result.Contributors,
		Languages:    result.Languages,
	})
	return &Analysis{Result: result, Duration: a.now().Sub(start)}, nil
}

// analyzeFresh clones repoURL into a new workspace and inspects it.
// The workspace is always released before returning.
func (a *Analyzer) analyzeFresh(ctx context.Context, repoURL string) (*schema.AnalysisResult, error) {
	repoName := contract.RepoNameFromURL(repoURL)

	ws, err := workspace.New(a.tempDir, repoName)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := ws.Release(); err != nil {
			logger.Debugf("workspace cleanup incomplete: %v", err)
		}
	}()

	dir := ws.CloneDir()
	if err := a.git.Clone(ctx, repoURL, dir, contract.CloneDepth); err != nil {
		var cloneErr *contract.CloneError
		if errors.As(err, &cloneErr) {
			return nil, err
		}
		return nil, &contract.CloneError{URL: repoURL, Err: err}
	}

	commits, err := a.git.RecentCommits(ctx, dir, contract.MaxCommits)
	if err != nil {
		return nil, fmt.Errorf("failed to read commit history: %w", err)
	}
	if len(commits) > contract.MaxCommits {
		commits = commits[:contract.MaxCommits]
	}
	history := SummarizeCommits(commits)

	meta, err := extract.Extract(dir, repoName)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect working tree: %w", err)
	}

	return &schema.AnalysisResult{
		RepoName:         repoName,
		RepoURL:          repoURL,
		Languages:        meta.Languages,
		Readme:           meta.Readme,
		Dependencies:     meta.Dependencies,
		TotalFiles:       meta.TotalFiles,
		Contributors:     history.Contributors,
		LatestCommitDate: history.LatestCommitDate,
		RepoSize:         meta.Size,
		FileTree:         meta.FileTree,
		PreviewImage:     meta.PreviewImage,
		PreviewImagePath: meta.PreviewPath,
		CommitPatterns:   history.Histogram,
		AnalyzedAt:       a.now().UTC(),
	}, nil
}

func (a *Analyzer) cacheStore() contract.CacheStore {
	if a.mgr == nil {
		return nil
	}
	return a.mgr.GetCacheStore()
}

func (a *Analyzer) runStore() contract.RunStore {
	if a.mgr == nil {
		return nil
	}
	return a.mgr.GetRunStore()
}

// beginRun records the start of a run; history failures never fail the analysis.
func (a *Analyzer) beginRun(runs contract.RunStore, repoURL string, start time.Time) int64 {
	if runs == nil {
		return 0
	}
	id, err := runs.BeginRun(repoURL, a.model, start)
	if err != nil {
		contract.LogWarn("Run tracking initialization failed", err)
		return 0
	}
	return id
}

func (a *Analyzer) endRun(runs contract.RunStore, runID int64, outcome schema.RunOutcome) {
	if runs == nil || runID <= 0 {
		return
	}
	if err := runs.EndRun(runID, a.now(), outcome); err != nil {
		contract.LogWarn("Failed to finalize run tracking", err)
	}
}
