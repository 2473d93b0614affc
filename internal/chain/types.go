// Package chain discovers, deduplicates, and summarizes propagation chains
// in the merged SATD dependency graph. A chain is a simple path of length
// >= 2 nodes; enumeration is bounded by a hop limit and an optional path
// budget because path counts grow combinatorially with graph density.
package chain

import "strings"

// Chain is a simple path in the dependency graph.
type Chain struct {
	// ID is assigned after deterministic sorting ("chain-1", "chain-2", ...)
	ID string `json:"id"`

	// Nodes is the ordered instance ID sequence; no node repeats
	Nodes []string `json:"nodes"`

	// Length is len(Nodes)
	Length int `json:"length"`
}

// Key returns the identity of the chain: its exact node sequence.
// Two chains are the same chain iff their keys are equal.
func (c *Chain) Key() string {
	return strings.Join(c.Nodes, ",")
}

// Contains reports whether the chain includes the given node.
func (c *Chain) Contains(id string) bool {
	for _, n := range c.Nodes {
		if n == id {
			return true
		}
	}
	return false
}

// Metrics summarizes the chain set over one corpus.
type Metrics struct {
	// ChainCount is the number of unique chains
	ChainCount int `json:"chainCount"`

	// AverageChainLength is the mean node count across chains, 0 if none
	AverageChainLength float64 `json:"averageChainLength"`

	// MaximumChainLength is the longest chain's node count, 0 if none
	MaximumChainLength int `json:"maximumChainLength"`

	// ParticipationRate is |nodes appearing in any chain| / |corpus|
	ParticipationRate float64 `json:"participationRate"`

	// CrossModuleRate is |chains spanning >1 module| / |chains|
	CrossModuleRate float64 `json:"crossModuleRate"`
}

// Result is the output of chain construction.
type Result struct {
	// Chains is the deduplicated chain set, sorted by length descending
	// with deterministic tie-breaks
	Chains []*Chain `json:"chains"`

	// Metrics are the corpus-level chain metrics
	Metrics Metrics `json:"metrics"`

	// Truncated is true when the path budget was exhausted mid-enumeration
	// and Chains holds only the paths found so far. This is a documented
	// approximation, not an error.
	Truncated bool `json:"truncated"`
}

// LongestFor returns the length of the longest chain containing the node,
// 0 when the node participates in no chain.
func (r *Result) LongestFor(id string) int {
	longest := 0
	for _, c := range r.Chains {
		if c.Length > longest && c.Contains(id) {
			longest = c.Length
		}
	}
	return longest
}
