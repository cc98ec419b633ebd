package extract

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/repomind/repomind/internal/contract"
	"github.com/repomind/repomind/internal/logger"
	"github.com/tidwall/gjson"
	"golang.org/x/mod/modfile"
)

// Manifest labels used as keys of the dependency map.
const (
	PythonRequirements = "Python (requirements.txt)"
	JavaScriptPackage  = "JavaScript (package.json)"
	GoModule           = "Go (go.mod)"
	RustCargo          = "Rust (Cargo.toml)"
	PythonProject      = "Python (pyproject.toml)"
)

// manifestParser reads one manifest file's contents into package names.
type manifestParser struct {
	file  string
	label string
	parse func(data []byte) ([]string, error)
}

var manifestParsers = []manifestParser{
	{"requirements.txt", PythonRequirements, ParseRequirements},
	{"package.json", JavaScriptPackage, ParsePackageJSON},
	{"go.mod", GoModule, ParseGoMod},
	{"Cargo.toml", RustCargo, ParseCargoToml},
	{"pyproject.toml", PythonProject, ParsePyProject},
}

// requirementDelimiters end the package name in a PEP 508 style requirement.
const requirementDelimiters = "=<>!~;[ @\t"

// FindDependencies reads the known manifests at the root of the tree.
// A manifest that fails to parse is logged and left out.
func FindDependencies(root string) map[string][]string {
	deps := make(map[string][]string)
	for _, mp := range manifestParsers {
		data, err := os.ReadFile(filepath.Join(root, mp.file))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			contract.LogWarn("Error reading "+mp.file, err)
			continue
		}
		names, err := mp.parse(data)
		if err != nil {
			logger.Warnf("%v", &contract.ManifestParseError{Manifest: mp.file, Err: err})
			continue
		}
		deps[mp.label] = capList(names, contract.MaxDependencies)
	}
	return deps
}

// ParseRequirements extracts package names from a pip requirements file,
// skipping comments, blank lines and pip options.
func ParseRequirements(data []byte) ([]string, error) {
	var names []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		if name := requirementName(line); name != "" {
			names = append(names, name)
		}
	}
	return names, scanner.Err()
}

// requirementName cuts a requirement at its first version or marker delimiter.
func requirementName(spec string) string {
	if i := strings.IndexAny(spec, requirementDelimiters); i >= 0 {
		spec = spec[:i]
	}
	return strings.TrimSpace(spec)
}

// ParsePackageJSON returns runtime dependency names followed by development ones,
// each in document order.
func ParsePackageJSON(data []byte) ([]string, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("invalid JSON")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, errors.New("top-level value is not an object")
	}

	var names []string
	for _, section := range []string{"dependencies", "devDependencies"} {
		block := doc.Get(section)
		if !block.Exists() {
			continue
		}
		if !block.IsObject() {
			return nil, fmt.Errorf("%s is not an object", section)
		}
		block.ForEach(func(key, _ gjson.Result) bool {
			names = append(names, key.String())
			return true
		})
	}
	return names, nil
}

// ParseGoMod returns the direct requirements of a go.mod file.
func ParseGoMod(data []byte) ([]string, error) {
	f, err := modfile.Parse("go.mod", data, nil)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, req := range f.Require {
		if req.Indirect {
			continue
		}
		names = append(names, req.Mod.Path)
	}
	return names, nil
}

// ParseCargoToml returns [dependencies] followed by [dev-dependencies], in file order.
func ParseCargoToml(data []byte) ([]string, error) {
	var raw map[string]any
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, err
	}
	runtime := tableKeys(md, "dependencies")
	dev := tableKeys(md, "dev-dependencies")
	return append(runtime, dev...), nil
}

// ParsePyProject returns project.dependencies, falling back to Poetry's dependency table.
func ParsePyProject(data []byte) ([]string, error) {
	var doc struct {
		Project struct {
			Dependencies []string `toml:"dependencies"`
		} `toml:"project"`
	}
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, spec := range doc.Project.Dependencies {
		if name := requirementName(strings.TrimSpace(spec)); name != "" {
			names = append(names, name)
		}
	}
	if len(names) > 0 {
		return names, nil
	}
	for _, name := range tableKeys(md, "tool", "poetry", "dependencies") {
		if !strings.EqualFold(name, "python") {
			names = append(names, name)
		}
	}
	return names, nil
}

// tableKeys lists the direct child keys of a TOML table in definition order.
func tableKeys(md toml.MetaData, table ...string) []string {
	var keys []string
	seen := make(map[string]struct{})
	for _, key := range md.Keys() {
		if len(key) != len(table)+1 || !hasPrefix(key, table) {
			continue
		}
		name := key[len(table)]
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		keys = append(keys, name)
	}
	return keys
}

func hasPrefix(key toml.Key, prefix []string) bool {
	for i, p := range prefix {
		if key[i] != p {
			return false
		}
	}
	return true
}

// capList truncates names to at most n entries.
func capList(names []string, n int) []string {
	if names == nil {
		return []string{}
	}
	if len(names) > n {
		return names[:n]
	}
	return names
}
