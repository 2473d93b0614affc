// Package modules maps instance files to module identifiers. By default a
// module is the file's directory; a MODULES.toml declaration file can
// override the grouping with explicit module roots.
package modules

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// DeclarationFile is the default filename for module declarations.
const DeclarationFile = "MODULES.toml"

// Declaration represents a declared module in MODULES.toml
type Declaration struct {
	// Name is the human-readable name of the module
	Name string `toml:"name"`

	// Path is the project-relative path to the module root
	Path string `toml:"path"`

	// Responsibility is a one-line description of what this module does
	Responsibility string `toml:"responsibility,omitempty"`

	// Owner is the owner reference (e.g., @team-name or user@email.com)
	Owner string `toml:"owner,omitempty"`
}

// DeclarationsFile represents the root structure of MODULES.toml
type DeclarationsFile struct {
	// Version is the schema version
	Version int `toml:"version"`

	// Modules is the list of declared modules
	Modules []Declaration `toml:"module"`
}

// Mapper resolves a file path to its module. With no declarations every
// directory is its own module.
type Mapper struct {
	// roots maps a normalized declared path to the module name, longest
	// prefix wins.
	roots map[string]string
}

// NewMapper returns a mapper with no declarations.
func NewMapper() *Mapper {
	return &Mapper{roots: make(map[string]string)}
}

// ParseDeclarations parses a MODULES.toml file from the given path.
func ParseDeclarations(filePath string) (*DeclarationsFile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", DeclarationFile, err)
	}

	var file DeclarationsFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", DeclarationFile, err)
	}

	if file.Version < 1 {
		file.Version = 1
	}

	for i, decl := range file.Modules {
		if decl.Path == "" {
			return nil, fmt.Errorf("module declaration %d missing required 'path' field", i)
		}
	}
	return &file, nil
}

// LoadMapper builds a mapper from MODULES.toml under projectRoot. A missing
// file is not an error; the result falls back to directory grouping.
func LoadMapper(projectRoot string) (*Mapper, error) {
	m := NewMapper()

	filePath := filepath.Join(projectRoot, DeclarationFile)
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return m, nil
	}

	file, err := ParseDeclarations(filePath)
	if err != nil {
		return nil, err
	}

	for _, decl := range file.Modules {
		name := decl.Name
		if name == "" {
			name = normalize(decl.Path)
		}
		m.roots[normalize(decl.Path)] = name
	}
	return m, nil
}

// ModuleOf resolves a file to its module name. Declared roots take
// precedence, matched by longest path prefix; otherwise the containing
// directory is the module.
func (m *Mapper) ModuleOf(file string) string {
	f := normalize(file)

	best := ""
	for root := range m.roots {
		if root != "" && (f == root || strings.HasPrefix(f, root+"/")) && len(root) > len(best) {
			best = root
		}
	}
	if best != "" {
		return m.roots[best]
	}
	return path.Dir(f)
}

// Declared returns the declared module names, sorted.
func (m *Mapper) Declared() []string {
	names := make([]string, 0, len(m.roots))
	for _, name := range m.roots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalize(p string) string {
	return strings.Trim(filepath.ToSlash(path.Clean(filepath.ToSlash(p))), "/")
}
