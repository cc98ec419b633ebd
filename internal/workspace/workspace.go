// Package workspace manages the temporary directories repositories are cloned into.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/repomind/repomind/internal/contract"
	"github.com/repomind/repomind/internal/logger"
)

// Removal retry policy for Release.
const (
	DefaultAttempts   = 3
	DefaultRetryDelay = time.Second
)

// unsafeName matches characters that should not reach a directory name.
var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Workspace is a uniquely named temporary directory holding one clone.
type Workspace struct {
	Dir        string
	Attempts   int
	RetryDelay time.Duration

	// remove deletes the tree; replaced in tests.
	remove func(string) error
}

// New creates a fresh directory under root named after the repository and the current time.
// An empty root selects the OS temp dir.
func New(root, repoName string) (*Workspace, error) {
	if root == "" {
		root = os.TempDir()
	}
	name := unsafeName.ReplaceAllString(repoName, "_")
	if name == "" {
		name = "repo"
	}
	pattern := fmt.Sprintf("repomind_%s_%d_*", name, time.Now().UnixNano())
	dir, err := os.MkdirTemp(root, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace under %s: %w", root, err)
	}
	logger.Debugf("created workspace %s", dir)
	return &Workspace{
		Dir:        dir,
		Attempts:   DefaultAttempts,
		RetryDelay: DefaultRetryDelay,
		remove:     ForceRemoveAll,
	}, nil
}

// CloneDir returns the directory the repository is cloned into.
// Cloning into a child keeps the workspace itself owned by us.
func (w *Workspace) CloneDir() string {
	return filepath.Join(w.Dir, "repo")
}

// Release removes the workspace, retrying whole-tree removal with a constant delay.
// A final failure is logged and returned as a *contract.CleanupError for callers to log.
func (w *Workspace) Release() error {
	if w == nil || w.Dir == "" {
		return nil
	}
	attempts := max(w.Attempts, 1)
	remove := w.remove
	if remove == nil {
		remove = ForceRemoveAll
	}

	tries := 0
	_, err := backoff.Retry(context.Background(), func() (struct{}, error) {
		tries++
		if err := remove(w.Dir); err != nil {
			logger.Debugf("removing %s failed (attempt %d): %v", w.Dir, tries, err)
			return struct{}{}, err
		}
		return struct{}{}, nil
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(w.RetryDelay)),
		backoff.WithMaxTries(uint(attempts)),
	)
	if err != nil {
		cleanupErr := &contract.CleanupError{Dir: w.Dir, Attempts: tries, Err: err}
		logger.Warnf("%v", cleanupErr)
		return cleanupErr
	}
	logger.Debugf("removed workspace %s", w.Dir)
	return nil
}

// ForceRemoveAll deletes path recursively. When an entry cannot be removed because of
// permissions, it makes the entry and its parent writable and retries that entry once.
func ForceRemoveAll(path string) error {
	info, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	} else if err != nil {
		return err
	}

	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if errors.Is(err, fs.ErrPermission) {
			_ = os.Chmod(path, 0o700)
			entries, err = os.ReadDir(path)
		}
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if err := ForceRemoveAll(filepath.Join(path, entry.Name())); err != nil {
				return err
			}
		}
	}

	return removeEntry(path, info)
}

// removeEntry removes a single file or empty directory, clearing read-only bits on failure.
func removeEntry(path string, info fs.FileInfo) error {
	err := os.Remove(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if !errors.Is(err, fs.ErrPermission) {
		return err
	}
	if info.Mode()&fs.ModeSymlink == 0 {
		_ = os.Chmod(path, info.Mode().Perm()|0o200)
	}
	if parent := filepath.Dir(path); parent != path {
		if pinfo, perr := os.Stat(parent); perr == nil {
			_ = os.Chmod(parent, pinfo.Mode().Perm()|0o700)
		}
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
