package contract

import (
	"context"
	"errors"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/repomind/repomind/schema"
)

// GoGitClient implements the GitClient interface in-process with go-git,
// so no git binary is required.
type GoGitClient struct{}

var _ GitClient = &GoGitClient{} // Compile-time check

// NewGoGitClient creates a new go-git backed client.
func NewGoGitClient() *GoGitClient {
	return &GoGitClient{}
}

// Clone implements the GitClient interface.
func (c *GoGitClient) Clone(ctx context.Context, url, dir string, depth int) error {
	_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:          url,
		Depth:        depth,
		SingleBranch: true,
		Tags:         git.NoTags,
	})
	if err != nil {
		return &CloneError{URL: url, Err: err}
	}
	return nil
}

// RecentCommits implements the GitClient interface.
func (c *GoGitClient) RecentCommits(ctx context.Context, dir string, limit int) ([]schema.Commit, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return nil, err
	}

	head, err := repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return []schema.Commit{}, nil
	} else if err != nil {
		return nil, err
	}

	iter, err := repo.Log(&git.LogOptions{From: head.Hash(), Order: git.LogOrderCommitterTime})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	commits := make([]schema.Commit, 0, limit)
	err = iter.ForEach(func(commit *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		commits = append(commits, schema.Commit{
			AuthorEmail: commit.Author.Email,
			When:        commit.Committer.When,
		})
		if len(commits) >= limit {
			return storer.ErrStop
		}
		return nil
	})
	// Walking past the shallow boundary reaches parents that were never fetched
	if errors.Is(err, plumbing.ErrObjectNotFound) && len(commits) > 0 {
		return commits, nil
	}
	if err != nil {
		return nil, err
	}
	return commits, nil
}
