package contract

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/repomind/repomind/schema"
)

// LocalGitClient implements the GitClient interface by executing the
// local 'git' binary installed on the machine.
type LocalGitClient struct{}

var _ GitClient = &LocalGitClient{} // Compile-time check

// NewLocalGitClient creates a new instance of the local Git client.
func NewLocalGitClient() *LocalGitClient {
	return &LocalGitClient{}
}

// Run executes a git command and returns its stdout output.
// An empty repoPath runs git without -C.
func (c *LocalGitClient) Run(ctx context.Context, repoPath string, args ...string) ([]byte, error) {
	fullArgs := args
	if repoPath != "" {
		fullArgs = append([]string{"-C", repoPath}, args...)
	}
	cmd := exec.CommandContext(ctx, "git", fullArgs...)
	out, err := cmd.Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderr := strings.TrimSpace(string(exitErr.Stderr))
		return nil, fmt.Errorf("git %s failed: %s", args[0], stderr)
	} else if err != nil {
		return nil, fmt.Errorf("git command failed: %w. Ensure Git is installed and available on your PATH", err)
	}
	return out, nil
}

// Clone implements the GitClient interface.
func (c *LocalGitClient) Clone(ctx context.Context, url, dir string, depth int) error {
	args := []string{
		"clone",
		"--quiet",
		"--no-tags",
		"--depth", strconv.Itoa(depth),
		url, dir,
	}
	if _, err := c.Run(ctx, "", args...); err != nil {
		return &CloneError{URL: url, Err: err}
	}
	return nil
}

// RecentCommits implements the GitClient interface.
func (c *LocalGitClient) RecentCommits(ctx context.Context, dir string, limit int) ([]schema.Commit, error) {
	args := []string{
		"log",
		fmt.Sprintf("-n%d", limit),
		"--pretty=format:%ae|%ct",
	}
	out, err := c.Run(ctx, dir, args...)
	if err != nil {
		// A freshly initialized repository has no HEAD to log from
		if strings.Contains(err.Error(), "does not have any commits") {
			return []schema.Commit{}, nil
		}
		return nil, err
	}
	return parseCommitLog(string(out))
}

// parseCommitLog reads "email|unix-seconds" lines as produced by RecentCommits.
func parseCommitLog(out string) ([]schema.Commit, error) {
	commits := []schema.Commit{}
	for line := range strings.SplitSeq(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		sep := strings.LastIndex(line, "|")
		if sep < 0 {
			return nil, fmt.Errorf("unexpected git log line %q", line)
		}
		secs, err := strconv.ParseInt(line[sep+1:], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid commit time in %q: %w", line, err)
		}
		commits = append(commits, schema.Commit{
			AuthorEmail: line[:sep],
			When:        time.Unix(secs, 0),
		})
	}
	return commits, nil
}
