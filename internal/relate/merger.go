package relate

import (
	"fmt"
	"sort"

	"satdmap/internal/graph"
	"satdmap/internal/logging"
	"satdmap/internal/satd"
)

// MergeResult holds the merged relationship set and the graph built from it.
type MergeResult struct {
	// Relationships is the deduplicated merged edge set, sorted by
	// (SourceID, TargetID)
	Relationships []*Relationship

	// Graph is the directed dependency graph: nodes are every instance ID
	// in the corpus, edges are the merged relationships
	Graph *graph.Graph

	// Dropped counts raw edges rejected as malformed
	Dropped int

	// Warnings describes each rejected raw edge
	Warnings []string
}

// Merger turns raw candidate edges into merged relationships.
// Construct one per run; it holds no state across Merge calls.
type Merger struct {
	logger *logging.Logger
}

// NewMerger creates a merger.
func NewMerger(logger *logging.Logger) *Merger {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Merger{logger: logger}
}

// Merge consumes raw edges and produces the merged relationship set and
// graph. Malformed edges (self-loops, unknown endpoints, unknown types)
// are dropped with a warning; they never fail the batch.
func (m *Merger) Merge(corpus *satd.Corpus, raw []RawEdge) *MergeResult {
	result := &MergeResult{
		Graph: graph.New(),
	}

	type pairKey struct {
		source, target string
	}
	merged := make(map[pairKey]*Relationship)

	for _, edge := range raw {
		if warning := m.validate(corpus, edge); warning != "" {
			result.Dropped++
			result.Warnings = append(result.Warnings, warning)
			m.logger.Warn("Dropped malformed raw edge", map[string]interface{}{
				"source": edge.SourceID,
				"target": edge.TargetID,
				"type":   string(edge.Type),
				"reason": warning,
			})
			continue
		}

		key := pairKey{source: edge.SourceID, target: edge.TargetID}
		rel, ok := merged[key]
		if !ok {
			rel = &Relationship{
				SourceID:    edge.SourceID,
				TargetID:    edge.TargetID,
				Description: edge.Description,
			}
			merged[key] = rel
		}
		if !rel.HasType(edge.Type) {
			rel.Types = append(rel.Types, edge.Type)
		}
		if rel.Description == "" {
			rel.Description = edge.Description
		}
	}

	// Every registered instance is a node, related or not; scorers still
	// need to resolve isolated nodes.
	for _, id := range corpus.IDs() {
		result.Graph.AddNode(id)
	}

	result.Relationships = make([]*Relationship, 0, len(merged))
	for _, rel := range merged {
		sort.Slice(rel.Types, func(i, j int) bool { return rel.Types[i] < rel.Types[j] })
		rel.Weight = mergedWeight(rel.Types)
		result.Relationships = append(result.Relationships, rel)
	}

	sort.Slice(result.Relationships, func(i, j int) bool {
		a, b := result.Relationships[i], result.Relationships[j]
		if a.SourceID != b.SourceID {
			return a.SourceID < b.SourceID
		}
		return a.TargetID < b.TargetID
	})

	for _, rel := range result.Relationships {
		result.Graph.AddEdge(rel.SourceID, rel.TargetID, rel.Weight, rel.TypeNames())
	}

	m.logger.Debug("Merged raw edges", map[string]interface{}{
		"raw":     len(raw),
		"merged":  len(result.Relationships),
		"dropped": result.Dropped,
	})

	return result
}

func (m *Merger) validate(corpus *satd.Corpus, edge RawEdge) string {
	if !edge.Type.Valid() {
		return fmt.Sprintf("unknown dependency type %q on edge %s -> %s", edge.Type, edge.SourceID, edge.TargetID)
	}
	if edge.SourceID == edge.TargetID {
		return fmt.Sprintf("self-loop on %s", edge.SourceID)
	}
	if !corpus.Has(edge.SourceID) {
		return fmt.Sprintf("unknown source instance %s", edge.SourceID)
	}
	if !corpus.Has(edge.TargetID) {
		return fmt.Sprintf("unknown target instance %s", edge.TargetID)
	}
	return ""
}

// mergedWeight is the maximum base strength among the merged types.
func mergedWeight(types []DepType) float64 {
	weight := 0.0
	for _, t := range types {
		if s, ok := t.BaseStrength(); ok && s > weight {
			weight = s
		}
	}
	return weight
}
