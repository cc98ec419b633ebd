package extract

import (
	"os"
	"path/filepath"
	"strings"
)

// imageExts are the suffixes considered for a preview image.
var imageExts = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
}

// previewKeywords are tried in priority order against candidate paths.
var previewKeywords = []string{"preview", "screenshot", "demo", "cover", "hero", "banner"}

// ImageCandidates keeps the image files of paths, preserving order.
func ImageCandidates(paths []string) []string {
	var out []string
	for _, p := range paths {
		if _, ok := imageExts[strings.ToLower(filepath.Ext(p))]; ok {
			out = append(out, p)
		}
	}
	return out
}

// SelectPreview picks the preview image among candidates. For each keyword in priority
// order, the first candidate whose lowercase path contains it wins; otherwise the first
// candidate is used. It reports false when there are no candidates.
func SelectPreview(candidates []string) (string, bool) {
	for _, keyword := range previewKeywords {
		for _, c := range candidates {
			if strings.Contains(strings.ToLower(c), keyword) {
				return c, true
			}
		}
	}
	if len(candidates) > 0 {
		return candidates[0], true
	}
	return "", false
}

// FindPreviewImage returns the bytes and relative path of the preview image under root.
// It returns nil when the tree has no images.
func FindPreviewImage(root string) ([]byte, string, error) {
	files, err := walkFiles(root)
	if err != nil {
		return nil, "", err
	}
	return loadPreview(root, relPaths(files))
}

// loadPreview selects the preview among the walked paths and reads it.
func loadPreview(root string, paths []string) ([]byte, string, error) {
	path, ok := SelectPreview(ImageCandidates(paths))
	if !ok {
		return nil, "", nil
	}
	data, err := readFile(root, path)
	if err != nil {
		return nil, "", err
	}
	return data, path, nil
}

// readFile reads a slash-separated path relative to root.
func readFile(root, rel string) ([]byte, error) {
	return os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
}
