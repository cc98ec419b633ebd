// Package extract derives static metadata from a cloned working tree without modifying it.
package extract

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/repomind/repomind/internal/contract"
)

// vcsDir is the version-control metadata directory excluded from every walk.
const vcsDir = ".git"

// Metadata is everything extracted from a working tree.
type Metadata struct {
	SizeBytes    int64
	Size         string
	FileTree     string
	Extensions   map[string]int
	Languages    map[string]int
	TotalFiles   int
	Dependencies map[string][]string
	Readme       string
	PreviewImage []byte
	PreviewPath  string
}

// fileEntry is a regular file seen during the walk.
type fileEntry struct {
	rel  string // slash-separated path relative to the root
	size int64
}

// Extract walks root and computes all metadata. label names the root in the tree summary.
func Extract(root, label string) (*Metadata, error) {
	files, err := walkFiles(root)
	if err != nil {
		return nil, err
	}

	tree, err := FileTree(root, label, contract.MaxTreeItems)
	if err != nil {
		return nil, err
	}

	size := totalSize(files)
	names := relPaths(files)
	exts := ExtensionStats(names)
	meta := &Metadata{
		SizeBytes:    size,
		Size:         FormatSize(size),
		FileTree:     tree,
		Extensions:   exts,
		Languages:    DetectLanguages(exts),
		TotalFiles:   len(files),
		Dependencies: FindDependencies(root),
		Readme:       FindReadme(root),
	}

	image, path, err := loadPreview(root, names)
	if err != nil {
		contract.LogWarn("Error reading preview image", err)
	} else {
		meta.PreviewImage = image
		meta.PreviewPath = path
	}
	return meta, nil
}

func relPaths(files []fileEntry) []string {
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.rel)
	}
	return names
}

// walkFiles lists regular files under root in lexical walk order.
// Symlinks are skipped and so is anything inside a .git directory.
func walkFiles(root string) ([]fileEntry, error) {
	var files []fileEntry
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			// Unreadable subtrees are left out rather than failing the extraction
			if errors.Is(err, fs.ErrPermission) {
				return fs.SkipDir
			}
			return err
		}
		if d.Name() == vcsDir && path != root {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, fileEntry{rel: filepath.ToSlash(rel), size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return files, nil
}
