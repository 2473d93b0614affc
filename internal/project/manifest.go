// Package project handles multi-project batch manifests. A projects.toml
// file lists the source trees to analyze in one batch invocation.
package project

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// ManifestFile is the default batch manifest filename.
const ManifestFile = "projects.toml"

// Manifest represents a batch manifest stored in projects.toml
type Manifest struct {
	// Name is an optional label for the batch
	Name string `toml:"name,omitempty"`

	// Projects is the list of source trees to analyze
	Projects []Entry `toml:"project"`
}

// Entry represents one project in the manifest
type Entry struct {
	// Name is the project identifier, used in output paths
	Name string `toml:"name"`

	// Path is the filesystem path to the project root
	Path string `toml:"path"`

	// Backend overrides the extraction backend for this project
	Backend string `toml:"backend,omitempty"`

	// ScipIndexPath overrides the index location for this project
	ScipIndexPath string `toml:"scip_index_path,omitempty"`

	// Tags are optional labels for categorization
	Tags []string `toml:"tags,omitempty"`
}

// LoadManifest reads and validates a projects.toml file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks entries for required fields and duplicate names.
func (m *Manifest) Validate() error {
	if len(m.Projects) == 0 {
		return fmt.Errorf("manifest has no projects")
	}
	seen := make(map[string]bool)
	for i, p := range m.Projects {
		if p.Name == "" {
			return fmt.Errorf("project %d missing required 'name' field", i)
		}
		if p.Path == "" {
			return fmt.Errorf("project %q missing required 'path' field", p.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate project name %q", p.Name)
		}
		seen[p.Name] = true
		switch p.Backend {
		case "", "scip", "synthetic":
		default:
			return fmt.Errorf("project %q has unknown backend %q", p.Name, p.Backend)
		}
	}
	return nil
}
