// Package engine orchestrates the SATD relationship and chain analysis:
// raw edges are merged into a dependency graph, propagation chains are
// enumerated over it, and every instance receives a SIR score. The engine
// is constructed fresh per run and holds no state afterwards.
package engine

import (
	"satdmap/internal/chain"
	"satdmap/internal/graph"
	"satdmap/internal/logging"
	"satdmap/internal/relate"
	"satdmap/internal/satd"
	"satdmap/internal/sir"
)

// Options bundles the knobs of all analysis stages.
type Options struct {
	Chain chain.Options
	Sir   sir.Options
}

// DefaultOptions returns defaults for every stage.
func DefaultOptions() Options {
	return Options{
		Chain: chain.DefaultOptions(),
		Sir:   sir.DefaultOptions(),
	}
}

// Result is the complete outcome of one analysis run.
type Result struct {
	// Relationships is the merged, chain-annotated edge set
	Relationships []*relate.Relationship

	// Graph is the merged dependency graph
	Graph *graph.Graph

	// Chains is the deduplicated, sorted chain set
	Chains []*chain.Chain

	// Metrics are corpus-level chain metrics
	Metrics chain.Metrics

	// Scores are per-instance SIR results, ranked
	Scores []*sir.Result

	// Warnings lists recoverable conditions (dropped malformed edges)
	Warnings []string

	// Truncated is true when chain enumeration exhausted its path budget
	Truncated bool
}

// Engine runs the full analysis pipeline over one corpus snapshot.
type Engine struct {
	opts   Options
	logger *logging.Logger
}

// New creates an engine.
func New(opts Options, logger *logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{opts: opts, logger: logger}
}

// Run executes merge, chain construction, and scoring. It never fails on
// well-formed input: malformed edges become warnings, budget exhaustion
// becomes Truncated, and an empty corpus yields an empty result.
func (e *Engine) Run(corpus *satd.Corpus, raw []relate.RawEdge) *Result {
	merged := relate.NewMerger(e.logger).Merge(corpus, raw)

	chains := chain.NewBuilder(e.opts.Chain, e.logger).Build(merged.Graph, corpus)
	chain.Annotate(merged.Relationships, chains.Chains)

	scores := sir.NewScorer(e.opts.Sir, e.logger).Score(corpus, merged.Graph, chains)

	e.logger.Info("Analysis run complete", map[string]interface{}{
		"instances":     corpus.Len(),
		"relationships": len(merged.Relationships),
		"chains":        len(chains.Chains),
		"dropped":       merged.Dropped,
		"truncated":     chains.Truncated,
	})

	return &Result{
		Relationships: merged.Relationships,
		Graph:         merged.Graph,
		Chains:        chains.Chains,
		Metrics:       chains.Metrics,
		Scores:        scores,
		Warnings:      merged.Warnings,
		Truncated:     chains.Truncated,
	}
}
