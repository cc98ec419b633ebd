package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/repomind/repomind/internal/logger"
)

// TruncationMarker ends a tree summary that ran out of budget.
const TruncationMarker = "…"

// errBudget stops the traversal once the item budget is spent.
var errBudget = errors.New("tree budget exhausted")

// FileTree renders a depth-first listing of root: each directory line is followed by
// its files and then its subdirectories, both sorted by name, indented four spaces per level.
// At most maxItems entries are written; if more remain, a final marker line is added.
func FileTree(root, label string, maxItems int) (string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", root, err)
	}

	var lines []string
	emit := func(line string) error {
		if len(lines) >= maxItems {
			return errBudget
		}
		lines = append(lines, line)
		return nil
	}

	var visit func(dir, name string, level int, entries []os.DirEntry) error
	visit = func(dir, name string, level int, entries []os.DirEntry) error {
		if err := emit(fmt.Sprintf("%s📂 %s/", indent(level), name)); err != nil {
			return err
		}
		files, dirs := splitEntries(entries)
		for _, f := range files {
			if err := emit(fmt.Sprintf("%s📄 %s", indent(level+1), f)); err != nil {
				return err
			}
		}
		for _, d := range dirs {
			sub := filepath.Join(dir, d)
			children, err := os.ReadDir(sub)
			if err != nil {
				logger.Debugf("skipping unreadable directory %s: %v", sub, err)
				children = nil
			}
			if err := visit(sub, d, level+1, children); err != nil {
				return err
			}
		}
		return nil
	}

	if err := visit(root, label, 0, entries); err != nil {
		if !errors.Is(err, errBudget) {
			return "", err
		}
		lines = append(lines, TruncationMarker)
	}
	return strings.Join(lines, "\n"), nil
}

// splitEntries separates file names from directory names, dropping .git.
// Symlinks are listed as files and never followed.
func splitEntries(entries []os.DirEntry) (files, dirs []string) {
	for _, e := range entries {
		if e.Name() == vcsDir {
			continue
		}
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		} else {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	sort.Strings(dirs)
	return files, dirs
}

func indent(level int) string {
	return strings.Repeat(" ", 4*level)
}
