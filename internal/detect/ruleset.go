package detect

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"satdmap/internal/satd"
)

// Ruleset defines the markers and phrases that identify SATD comments and
// the keyword patterns used to classify debt types. A custom ruleset can be
// loaded from YAML; the defaults cover common conventions.
type Ruleset struct {
	// ExplicitMarkers are tokens that mark a comment as debt outright.
	ExplicitMarkers []string `yaml:"explicitMarkers"`

	// ImplicitPhrases are softer admissions matched case-insensitively.
	ImplicitPhrases []string `yaml:"implicitPhrases"`

	// TypePatterns maps a debt type to its classification keywords. The
	// first matching type in TypeOrder wins.
	TypePatterns map[string][]string `yaml:"typePatterns"`

	// TypeOrder fixes classification precedence across types.
	TypeOrder []string `yaml:"typeOrder"`
}

// DefaultRuleset returns the built-in detection rules.
func DefaultRuleset() *Ruleset {
	return &Ruleset{
		ExplicitMarkers: []string{
			"TODO", "FIXME", "HACK", "XXX", "BUG", "ISSUE", "DEBT",
		},
		ImplicitPhrases: []string{
			"temporary solution", "need to refactor", "workaround", "not ideal",
		},
		TypePatterns: map[string][]string{
			string(satd.DebtDesign):         {"design", "architectural", "abstract"},
			string(satd.DebtImplementation): {"implementation", "inefficient", "optimize", "performance"},
			string(satd.DebtDocumentation):  {"document", "comment", "explain", "clarify"},
			string(satd.DebtDefect):         {"bug", "error", "incorrect", "wrong"},
			string(satd.DebtTest):           {"test", "testing", "validation", "verify"},
			string(satd.DebtRequirement):    {"requirement", "specification", "feature"},
			string(satd.DebtArchitecture):   {"architecture", "component", "coupling", "structure"},
		},
		TypeOrder: []string{
			string(satd.DebtDesign),
			string(satd.DebtImplementation),
			string(satd.DebtDocumentation),
			string(satd.DebtDefect),
			string(satd.DebtTest),
			string(satd.DebtRequirement),
			string(satd.DebtArchitecture),
		},
	}
}

// LoadRuleset reads a ruleset from a YAML file. Empty sections fall back to
// the defaults so a partial override stays usable.
func LoadRuleset(path string) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ruleset %s: %w", path, err)
	}

	var rs Ruleset
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("parse ruleset %s: %w", path, err)
	}

	defaults := DefaultRuleset()
	if len(rs.ExplicitMarkers) == 0 {
		rs.ExplicitMarkers = defaults.ExplicitMarkers
	}
	if len(rs.ImplicitPhrases) == 0 {
		rs.ImplicitPhrases = defaults.ImplicitPhrases
	}
	if len(rs.TypePatterns) == 0 {
		rs.TypePatterns = defaults.TypePatterns
		rs.TypeOrder = defaults.TypeOrder
	}
	if len(rs.TypeOrder) == 0 {
		for _, dt := range defaults.TypeOrder {
			if _, ok := rs.TypePatterns[dt]; ok {
				rs.TypeOrder = append(rs.TypeOrder, dt)
			}
		}
	}
	return &rs, nil
}

// MatchExplicit reports whether the comment carries an explicit debt
// marker.
func (r *Ruleset) MatchExplicit(comment string) bool {
	lower := strings.ToLower(comment)
	for _, marker := range r.ExplicitMarkers {
		if strings.Contains(lower, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}

// MatchImplicit reports whether the comment contains an implicit debt
// phrase.
func (r *Ruleset) MatchImplicit(comment string) bool {
	lower := strings.ToLower(comment)
	for _, phrase := range r.ImplicitPhrases {
		if strings.Contains(lower, strings.ToLower(phrase)) {
			return true
		}
	}
	return false
}

// Classify assigns a debt type from the comment plus surrounding context.
// Falls back to Other when no pattern matches.
func (r *Ruleset) Classify(comment, context string) satd.DebtType {
	full := strings.ToLower(comment + " " + context)
	for _, dt := range r.TypeOrder {
		for _, pattern := range r.TypePatterns[dt] {
			if strings.Contains(full, strings.ToLower(pattern)) {
				return satd.DebtType(dt)
			}
		}
	}
	return satd.DebtOther
}
