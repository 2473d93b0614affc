package chain

import (
	"fmt"
	"sort"

	"satdmap/internal/graph"
	"satdmap/internal/logging"
	"satdmap/internal/relate"
	"satdmap/internal/satd"
)

// maxHopsCeiling is the hard safety bound on configured hop limits.
// Exhaustive analysis on small graphs may raise MaxHops, but never past
// this; the original study used the same cutoff.
const maxHopsCeiling = 20

// Options configures chain construction.
type Options struct {
	// MaxHops bounds the edge count of enumerated paths (default: 5)
	MaxHops int

	// MaxPaths caps the number of candidate paths collected before
	// enumeration stops with Truncated=true (default: 100000, 0 = default)
	MaxPaths int

	// ModuleOf resolves an instance ID to its module identifier for the
	// cross-module metric. When nil, the directory of the instance's file
	// is used.
	ModuleOf func(id string) string
}

// DefaultOptions returns sensible defaults for chain construction.
func DefaultOptions() Options {
	return Options{
		MaxHops:  5,
		MaxPaths: 100000,
	}
}

// Builder constructs chains from a merged dependency graph.
// Construct one per run.
type Builder struct {
	opts   Options
	logger *logging.Logger
}

// NewBuilder creates a chain builder.
func NewBuilder(opts Options, logger *logging.Logger) *Builder {
	if opts.MaxHops <= 0 {
		opts.MaxHops = 5
	}
	if opts.MaxHops > maxHopsCeiling {
		opts.MaxHops = maxHopsCeiling
	}
	if opts.MaxPaths <= 0 {
		opts.MaxPaths = 100000
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Builder{opts: opts, logger: logger}
}

// Build enumerates bounded simple paths in the graph, deduplicates them,
// assigns chain IDs, and computes corpus metrics. The corpus is needed for
// the participation and cross-module metrics.
func (b *Builder) Build(g *graph.Graph, corpus *satd.Corpus) *Result {
	result := &Result{}

	unique := make(map[string]*Chain)
	budget := b.opts.MaxPaths

	// Sorted source order plus sorted neighbor expansion makes enumeration
	// (and therefore truncation) deterministic. Truncated is set only when
	// a path is actually skipped: spending the budget on the final path of
	// the graph still yields a complete chain set.
	for _, source := range g.Nodes() {
		budget = b.enumerateFrom(g, source, unique, budget, &result.Truncated)
		if result.Truncated {
			break
		}
	}

	result.Chains = make([]*Chain, 0, len(unique))
	for _, c := range unique {
		result.Chains = append(result.Chains, c)
	}

	sortChains(result.Chains)

	for i, c := range result.Chains {
		c.ID = fmt.Sprintf("chain-%d", i+1)
	}

	result.Metrics = b.computeMetrics(result.Chains, corpus)

	b.logger.Debug("Chain construction complete", map[string]interface{}{
		"chains":    len(result.Chains),
		"truncated": result.Truncated,
		"maxHops":   b.opts.MaxHops,
	})

	return result
}

// enumerateFrom walks all simple paths starting at source with at most
// MaxHops edges, recording every prefix of >= 2 nodes as a candidate chain.
// Returns the remaining path budget; truncated is set when a further path
// exists but the budget is already spent.
func (b *Builder) enumerateFrom(g *graph.Graph, source string, unique map[string]*Chain, budget int, truncated *bool) int {
	onPath := map[string]bool{source: true}
	path := []string{source}

	var walk func() int
	walk = func() int {
		if len(path)-1 >= b.opts.MaxHops {
			return budget
		}
		current := path[len(path)-1]
		for _, next := range g.OutNeighbors(current) {
			if onPath[next] {
				// Revisiting a node would close a cycle; simple paths
				// never do.
				continue
			}
			if budget <= 0 {
				*truncated = true
				return budget
			}
			onPath[next] = true
			path = append(path, next)

			nodes := make([]string, len(path))
			copy(nodes, path)
			candidate := &Chain{Nodes: nodes, Length: len(nodes)}
			key := candidate.Key()
			if _, seen := unique[key]; !seen {
				unique[key] = candidate
			}
			budget--

			budget = walk()

			path = path[:len(path)-1]
			delete(onPath, next)

			if *truncated {
				return budget
			}
		}
		return budget
	}

	return walk()
}

// sortChains orders chains by length descending, then by first node ID,
// then lexicographically by the full node sequence.
func sortChains(chains []*Chain) {
	sort.Slice(chains, func(i, j int) bool {
		a, b := chains[i], chains[j]
		if a.Length != b.Length {
			return a.Length > b.Length
		}
		if a.Nodes[0] != b.Nodes[0] {
			return a.Nodes[0] < b.Nodes[0]
		}
		return a.Key() < b.Key()
	})
}

// Annotate sets ChainIDs and InChain on every relationship whose ordered
// pair appears as a consecutive pair in some chain.
func Annotate(relationships []*relate.Relationship, chains []*Chain) {
	type pair struct{ from, to string }
	edgeChains := make(map[pair][]string)

	for _, c := range chains {
		for i := 0; i+1 < len(c.Nodes); i++ {
			p := pair{from: c.Nodes[i], to: c.Nodes[i+1]}
			edgeChains[p] = append(edgeChains[p], c.ID)
		}
	}

	for _, rel := range relationships {
		ids := edgeChains[pair{from: rel.SourceID, to: rel.TargetID}]
		rel.ChainIDs = ids
		rel.InChain = len(ids) > 0
	}
}

func (b *Builder) computeMetrics(chains []*Chain, corpus *satd.Corpus) Metrics {
	return ComputeMetrics(chains, corpus, b.opts.ModuleOf)
}

// ComputeMetrics derives corpus-level metrics from a chain set. moduleOf
// may be nil, in which case the directory of each instance's file is its
// module.
func ComputeMetrics(chains []*Chain, corpus *satd.Corpus, moduleOf func(id string) string) Metrics {
	m := Metrics{ChainCount: len(chains)}
	if len(chains) == 0 {
		return m
	}

	totalLength := 0
	participants := make(map[string]bool)
	crossModule := 0

	for _, c := range chains {
		totalLength += c.Length
		if c.Length > m.MaximumChainLength {
			m.MaximumChainLength = c.Length
		}

		modules := make(map[string]bool)
		for _, id := range c.Nodes {
			participants[id] = true
			modules[resolveModule(id, corpus, moduleOf)] = true
		}
		if len(modules) > 1 {
			crossModule++
		}
	}

	m.AverageChainLength = float64(totalLength) / float64(len(chains))
	if corpus.Len() > 0 {
		m.ParticipationRate = float64(len(participants)) / float64(corpus.Len())
	}
	m.CrossModuleRate = float64(crossModule) / float64(len(chains))

	return m
}

func resolveModule(id string, corpus *satd.Corpus, moduleOf func(id string) string) string {
	if moduleOf != nil {
		return moduleOf(id)
	}
	if in := corpus.Get(id); in != nil {
		return in.Module()
	}
	return ""
}
