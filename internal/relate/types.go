// Package relate merges raw structural dependency signals between SATD
// instances into a deduplicated relationship set and the directed graph
// built from it.
package relate

import "strings"

// DepType is the structural dependency type of a raw edge.
type DepType string

const (
	DepCall    DepType = "call"
	DepData    DepType = "data"
	DepControl DepType = "control"
	DepModule  DepType = "module"
)

// baseStrengths assigns each dependency type a fixed base strength.
// Module dependencies are the strongest structural signal.
var baseStrengths = map[DepType]float64{
	DepCall:    0.8,
	DepData:    0.7,
	DepControl: 0.6,
	DepModule:  0.9,
}

// BaseStrength returns the base strength of a dependency type, or 0 with
// ok=false for unknown types.
func (d DepType) BaseStrength() (float64, bool) {
	s, ok := baseStrengths[d]
	return s, ok
}

// Valid reports whether d is a recognized dependency type.
func (d DepType) Valid() bool {
	_, ok := baseStrengths[d]
	return ok
}

// RawEdge is a single-typed candidate edge produced by an external
// structural extractor. Duplicates and multi-typed pairs are expected.
type RawEdge struct {
	SourceID    string  `json:"sourceId"`
	TargetID    string  `json:"targetId"`
	Type        DepType `json:"type"`
	Description string  `json:"description,omitempty"`
}

// Relationship is a merged edge between an ordered pair of instances.
// At most one Relationship exists per (SourceID, TargetID) pair.
type Relationship struct {
	SourceID string `json:"sourceId"`
	TargetID string `json:"targetId"`

	// Types is the sorted union of dependency types observed for the pair
	Types []DepType `json:"types"`

	// Weight is the maximum base strength among the merged types
	Weight float64 `json:"weight"`

	// Description is free text carried for diagnostics only
	Description string `json:"description,omitempty"`

	// ChainIDs lists the chains in which this edge is a consecutive pair;
	// populated by the chain constructor
	ChainIDs []string `json:"chainIds,omitempty"`

	// InChain is true when ChainIDs is non-empty
	InChain bool `json:"inChain"`
}

// HasType reports whether the merged edge includes the given type.
func (r *Relationship) HasType(t DepType) bool {
	for _, rt := range r.Types {
		if rt == t {
			return true
		}
	}
	return false
}

// TypeNames returns the merged type names as plain strings.
func (r *Relationship) TypeNames() []string {
	names := make([]string, len(r.Types))
	for i, t := range r.Types {
		names[i] = string(t)
	}
	return names
}

// TypesString renders the merged types as a pipe-separated list for
// display and CSV export.
func (r *Relationship) TypesString() string {
	return strings.Join(r.TypeNames(), "|")
}
