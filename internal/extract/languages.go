package extract

import (
	"path"
	"strings"
)

// languageByExt is the closed set of extensions attributed to a language.
var languageByExt = map[string]string{
	".py":    "Python",
	".js":    "JavaScript",
	".jsx":   "JavaScript",
	".ts":    "TypeScript",
	".tsx":   "TypeScript",
	".java":  "Java",
	".cpp":   "C++",
	".hpp":   "C++",
	".c":     "C",
	".h":     "C",
	".cs":    "C#",
	".go":    "Go",
	".rs":    "Rust",
	".html":  "HTML",
	".css":   "CSS",
	".md":    "Markdown",
	".rb":    "Ruby",
	".php":   "PHP",
	".kt":    "Kotlin",
	".swift": "Swift",
	".sh":    "Shell",
	".scala": "Scala",
}

// Ext returns the lowercase suffix of a file name, or "" when it has none.
// A leading dot marks a hidden file, not an extension.
func Ext(name string) string {
	base := strings.TrimLeft(path.Base(name), ".")
	ext := path.Ext(base)
	if ext == "." {
		return ""
	}
	return strings.ToLower(ext)
}

// ExtensionStats counts files per lowercase extension. Files without one are not counted.
func ExtensionStats(paths []string) map[string]int {
	stats := make(map[string]int)
	for _, p := range paths {
		if ext := Ext(p); ext != "" {
			stats[ext]++
		}
	}
	return stats
}

// DetectLanguages folds extension counts into language counts.
// Extensions outside the known set are dropped.
func DetectLanguages(extensions map[string]int) map[string]int {
	languages := make(map[string]int)
	for ext, count := range extensions {
		if lang, ok := LanguageFor(ext); ok {
			languages[lang] += count
		}
	}
	return languages
}

// LanguageFor returns the language attributed to an extension.
func LanguageFor(ext string) (string, bool) {
	lang, ok := languageByExt[strings.ToLower(ext)]
	return lang, ok
}
