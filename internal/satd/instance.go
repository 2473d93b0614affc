// Package satd defines the canonical model for Self-Admitted Technical Debt
// instances. Instances are produced by a detector (or loaded from a prior
// run), registered in a Corpus, and treated as immutable for the remainder
// of an analysis run.
package satd

import (
	"encoding/hex"
	"fmt"
	"path/filepath"
	"sort"

	"golang.org/x/crypto/blake2b"
)

// DebtType classifies a SATD instance by the kind of debt it admits.
type DebtType string

const (
	DebtDesign         DebtType = "Design"
	DebtImplementation DebtType = "Implementation"
	DebtDocumentation  DebtType = "Documentation"
	DebtDefect         DebtType = "Defect"
	DebtTest           DebtType = "Test"
	DebtRequirement    DebtType = "Requirement"
	DebtArchitecture   DebtType = "Architecture"
	DebtOther          DebtType = "Other"
)

// KnownDebtTypes lists every recognized debt type in classification
// precedence order.
var KnownDebtTypes = []DebtType{
	DebtDesign,
	DebtImplementation,
	DebtDocumentation,
	DebtDefect,
	DebtTest,
	DebtRequirement,
	DebtArchitecture,
	DebtOther,
}

// Normalize maps an arbitrary debt type string onto a known DebtType.
// Unknown values fall back to Other rather than failing the run.
func (d DebtType) Normalize() DebtType {
	for _, known := range KnownDebtTypes {
		if d == known {
			return d
		}
	}
	return DebtOther
}

// Instance represents a single detected SATD comment.
type Instance struct {
	// ID is a stable unique identifier for the instance
	ID string `json:"id"`

	// File is the repo-relative path of the file containing the comment
	File string `json:"file"`

	// Line is the 1-indexed line number of the comment
	Line int `json:"line"`

	// Content is the raw comment text
	Content string `json:"content"`

	// DebtType classifies the admitted debt
	DebtType DebtType `json:"debtType"`

	// IsExplicit is true when an explicit marker (TODO, FIXME, ...) matched
	IsExplicit bool `json:"isExplicit"`

	// IsImplicit is true when an implicit debt phrase matched
	IsImplicit bool `json:"isImplicit"`
}

// Module returns the module identifier of the instance, which is the
// directory of its file unless overridden by a module declaration.
func (in *Instance) Module() string {
	return filepath.ToSlash(filepath.Dir(in.File))
}

// idHashLength is the number of hex characters kept from the content hash.
const idHashLength = 12

// MakeID derives a stable instance identifier from file, line and content.
func MakeID(file string, line int, content string) string {
	sum := blake2b.Sum256([]byte(fmt.Sprintf("%s:%d:%s", file, line, content)))
	return fmt.Sprintf("%s_%d_%s",
		sanitizePathComponent(file), line, hex.EncodeToString(sum[:])[:idHashLength])
}

func sanitizePathComponent(p string) string {
	out := make([]byte, len(p))
	for i := 0; i < len(p); i++ {
		c := p[i]
		switch c {
		case '/', '\\', ':', ' ':
			out[i] = '_'
		default:
			out[i] = c
		}
	}
	return string(out)
}

// Corpus is the set of instances under analysis for a single run.
type Corpus struct {
	instances map[string]*Instance
	order     []string
}

// NewCorpus creates an empty corpus.
func NewCorpus() *Corpus {
	return &Corpus{
		instances: make(map[string]*Instance),
	}
}

// Add registers an instance. Re-adding an existing ID is ignored so that
// duplicate detector hits on the same comment collapse to one instance.
func (c *Corpus) Add(in *Instance) {
	if in == nil || in.ID == "" {
		return
	}
	if _, ok := c.instances[in.ID]; ok {
		return
	}
	c.instances[in.ID] = in
	c.order = append(c.order, in.ID)
}

// Get returns the instance with the given ID, or nil.
func (c *Corpus) Get(id string) *Instance {
	return c.instances[id]
}

// Has reports whether an instance with the given ID is registered.
func (c *Corpus) Has(id string) bool {
	_, ok := c.instances[id]
	return ok
}

// Len returns the number of registered instances.
func (c *Corpus) Len() int {
	return len(c.instances)
}

// Instances returns all instances in insertion order.
func (c *Corpus) Instances() []*Instance {
	out := make([]*Instance, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.instances[id])
	}
	return out
}

// IDs returns all instance IDs sorted lexicographically.
func (c *Corpus) IDs() []string {
	ids := make([]string, 0, len(c.instances))
	for id := range c.instances {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
