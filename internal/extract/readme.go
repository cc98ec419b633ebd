package extract

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/repomind/repomind/internal/contract"
	"github.com/repomind/repomind/schema"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// readmeNames are checked at the tree root in priority order.
var readmeNames = []string{"README.md", "readme.md", "README.rst", "README.txt", "README"}

// FindReadme returns the text of the first README found at root,
// or schema.ReadmeNotFound when none exists.
func FindReadme(root string) string {
	for _, name := range readmeNames {
		data, err := os.ReadFile(filepath.Join(root, name))
		if err != nil {
			if !os.IsNotExist(err) {
				contract.LogWarn("Error reading "+name, err)
			}
			continue
		}
		return DecodeText(data)
	}
	return schema.ReadmeNotFound
}

// DecodeText decodes file contents permissively: a UTF-8 or UTF-16 byte order mark
// selects the encoding and invalid byte sequences are dropped.
func DecodeText(data []byte) string {
	decoded, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), data)
	if err != nil {
		decoded = data
	}
	return strings.ToValidUTF8(string(decoded), "")
}
