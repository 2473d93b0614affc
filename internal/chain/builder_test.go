package chain

import (
	"math"
	"reflect"
	"testing"

	"satdmap/internal/graph"
	"satdmap/internal/relate"
	"satdmap/internal/satd"
)

func linearCorpus(t *testing.T, ids ...string) *satd.Corpus {
	t.Helper()
	c := satd.NewCorpus()
	for i, id := range ids {
		c.Add(&satd.Instance{
			ID:       id,
			File:     "src/core/" + id + ".go",
			Line:     i + 1,
			Content:  "TODO: pending",
			DebtType: satd.DebtDesign,
		})
	}
	return c
}

func callGraph(edges [][2]string) *graph.Graph {
	g := graph.New()
	for _, e := range edges {
		g.AddEdge(e[0], e[1], 0.8, []string{"call"})
	}
	return g
}

func chainKeys(chains []*Chain) []string {
	keys := make([]string, len(chains))
	for i, c := range chains {
		keys[i] = c.Key()
	}
	return keys
}

func TestLinearChainScenario(t *testing.T) {
	// A -> B -> C -> D with max_hops=3 yields exactly 6 chains.
	corpus := linearCorpus(t, "A", "B", "C", "D")
	g := callGraph([][2]string{{"A", "B"}, {"B", "C"}, {"C", "D"}})

	b := NewBuilder(Options{MaxHops: 3}, nil)
	result := b.Build(g, corpus)

	want := []string{
		"A,B,C,D",
		"A,B,C",
		"B,C,D",
		"A,B",
		"B,C",
		"C,D",
	}
	if got := chainKeys(result.Chains); !reflect.DeepEqual(got, want) {
		t.Fatalf("Chains = %v, want %v", got, want)
	}

	if result.Metrics.MaximumChainLength != 4 {
		t.Errorf("MaximumChainLength = %d, want 4", result.Metrics.MaximumChainLength)
	}
	wantAvg := 16.0 / 6.0
	if math.Abs(result.Metrics.AverageChainLength-wantAvg) > 1e-9 {
		t.Errorf("AverageChainLength = %v, want %v", result.Metrics.AverageChainLength, wantAvg)
	}
	if result.Metrics.ParticipationRate != 1.0 {
		t.Errorf("ParticipationRate = %v, want 1.0", result.Metrics.ParticipationRate)
	}
	// All instances share one directory
	if result.Metrics.CrossModuleRate != 0.0 {
		t.Errorf("CrossModuleRate = %v, want 0", result.Metrics.CrossModuleRate)
	}
	if result.Truncated {
		t.Error("Did not expect truncation")
	}

	// IDs assigned in sorted order
	if result.Chains[0].ID != "chain-1" || result.Chains[5].ID != "chain-6" {
		t.Errorf("Unexpected chain IDs: %s ... %s", result.Chains[0].ID, result.Chains[5].ID)
	}
}

func TestDisconnectedNodesYieldNoChains(t *testing.T) {
	// Scenario B: X and Y with no edges.
	corpus := linearCorpus(t, "X", "Y")
	g := graph.New()
	g.AddNode("X")
	g.AddNode("Y")

	result := NewBuilder(DefaultOptions(), nil).Build(g, corpus)

	if len(result.Chains) != 0 {
		t.Fatalf("Expected zero chains, got %d", len(result.Chains))
	}
	m := result.Metrics
	if m.AverageChainLength != 0 || m.MaximumChainLength != 0 || m.ParticipationRate != 0 || m.CrossModuleRate != 0 {
		t.Errorf("Expected all-zero metrics, got %+v", m)
	}
}

func TestEmptyGraph(t *testing.T) {
	result := NewBuilder(DefaultOptions(), nil).Build(graph.New(), satd.NewCorpus())
	if len(result.Chains) != 0 || result.Truncated {
		t.Error("Expected empty result for empty graph")
	}
}

func TestCycleIsSafeAndProducesNoDegenerateChains(t *testing.T) {
	// A -> B -> A: enumeration terminates and both 2-node paths appear.
	corpus := linearCorpus(t, "A", "B")
	g := callGraph([][2]string{{"A", "B"}, {"B", "A"}})

	result := NewBuilder(Options{MaxHops: 5}, nil).Build(g, corpus)

	want := []string{"A,B", "B,A"}
	if got := chainKeys(result.Chains); !reflect.DeepEqual(got, want) {
		t.Fatalf("Chains = %v, want %v", got, want)
	}
	for _, c := range result.Chains {
		seen := make(map[string]bool)
		for _, n := range c.Nodes {
			if seen[n] {
				t.Errorf("Chain %s repeats node %s", c.ID, n)
			}
			seen[n] = true
		}
	}
}

func TestDirectionDistinguishesChains(t *testing.T) {
	// [A,B,C] and [C,B,A] are distinct chains.
	corpus := linearCorpus(t, "A", "B", "C")
	g := callGraph([][2]string{{"A", "B"}, {"B", "C"}, {"C", "B"}, {"B", "A"}})

	result := NewBuilder(Options{MaxHops: 2}, nil).Build(g, corpus)

	keys := make(map[string]bool)
	for _, c := range result.Chains {
		keys[c.Key()] = true
	}
	if !keys["A,B,C"] || !keys["C,B,A"] {
		t.Errorf("Expected both [A,B,C] and [C,B,A]; got %v", chainKeys(result.Chains))
	}
}

func TestMaxHopsBoundsPathLength(t *testing.T) {
	corpus := linearCorpus(t, "A", "B", "C", "D", "E")
	g := callGraph([][2]string{{"A", "B"}, {"B", "C"}, {"C", "D"}, {"D", "E"}})

	result := NewBuilder(Options{MaxHops: 2}, nil).Build(g, corpus)

	for _, c := range result.Chains {
		if c.Length > 3 {
			t.Errorf("Chain %v exceeds max_hops=2 (length %d)", c.Nodes, c.Length)
		}
	}
	if result.Metrics.MaximumChainLength != 3 {
		t.Errorf("MaximumChainLength = %d, want 3", result.Metrics.MaximumChainLength)
	}
}

func TestPathBudgetTruncates(t *testing.T) {
	corpus := linearCorpus(t, "A", "B", "C", "D")
	g := callGraph([][2]string{{"A", "B"}, {"B", "C"}, {"C", "D"}})

	result := NewBuilder(Options{MaxHops: 3, MaxPaths: 2}, nil).Build(g, corpus)

	if !result.Truncated {
		t.Fatal("Expected truncation with MaxPaths=2")
	}
	if len(result.Chains) == 0 || len(result.Chains) > 2 {
		t.Errorf("Expected partial results within budget, got %d chains", len(result.Chains))
	}
}

func TestExactBudgetIsNotTruncated(t *testing.T) {
	// Spending the budget on the final path still yields a complete set.
	corpus := linearCorpus(t, "A", "B")
	g := callGraph([][2]string{{"A", "B"}})

	result := NewBuilder(Options{MaxHops: 3, MaxPaths: 1}, nil).Build(g, corpus)

	if result.Truncated {
		t.Error("Enumeration completed within budget yet Truncated=true")
	}
	if got := chainKeys(result.Chains); !reflect.DeepEqual(got, []string{"A,B"}) {
		t.Fatalf("Chains = %v, want [A,B]", got)
	}

	// Same with a multi-path graph whose budget matches its path count.
	corpus = linearCorpus(t, "A", "B", "C", "D")
	g = callGraph([][2]string{{"A", "B"}, {"B", "C"}, {"C", "D"}})

	result = NewBuilder(Options{MaxHops: 3, MaxPaths: 6}, nil).Build(g, corpus)

	if result.Truncated {
		t.Error("Budget equal to total path count should not report truncation")
	}
	if len(result.Chains) != 6 {
		t.Errorf("Expected the complete 6-chain set, got %d", len(result.Chains))
	}

	// One fewer and a path is skipped.
	result = NewBuilder(Options{MaxHops: 3, MaxPaths: 5}, nil).Build(g, corpus)
	if !result.Truncated {
		t.Error("Expected truncation with MaxPaths=5")
	}
}

func TestTruncationIsDeterministic(t *testing.T) {
	corpus := linearCorpus(t, "A", "B", "C", "D")
	g := callGraph([][2]string{{"A", "B"}, {"B", "C"}, {"C", "D"}, {"A", "C"}, {"B", "D"}})

	var first []string
	for i := 0; i < 3; i++ {
		result := NewBuilder(Options{MaxHops: 3, MaxPaths: 4}, nil).Build(g, corpus)
		keys := chainKeys(result.Chains)
		if i == 0 {
			first = keys
			continue
		}
		if !reflect.DeepEqual(keys, first) {
			t.Fatalf("Truncated output differs across runs: %v vs %v", first, keys)
		}
	}
}

func TestCrossModuleRate(t *testing.T) {
	c := satd.NewCorpus()
	c.Add(&satd.Instance{ID: "A", File: "auth/handler.py", Line: 1, Content: "TODO", DebtType: satd.DebtDesign})
	c.Add(&satd.Instance{ID: "B", File: "auth/session.py", Line: 2, Content: "TODO", DebtType: satd.DebtDesign})
	c.Add(&satd.Instance{ID: "C", File: "billing/invoice.py", Line: 3, Content: "TODO", DebtType: satd.DebtDesign})

	// A->B stays inside auth; B->C crosses into billing.
	g := callGraph([][2]string{{"A", "B"}, {"B", "C"}})

	result := NewBuilder(Options{MaxHops: 1}, nil).Build(g, c)

	if result.Metrics.ChainCount != 2 {
		t.Fatalf("Expected 2 chains, got %d", result.Metrics.ChainCount)
	}
	if result.Metrics.CrossModuleRate != 0.5 {
		t.Errorf("CrossModuleRate = %v, want 0.5", result.Metrics.CrossModuleRate)
	}
}

func TestModuleOfOverride(t *testing.T) {
	corpus := linearCorpus(t, "A", "B")
	g := callGraph([][2]string{{"A", "B"}})

	opts := Options{MaxHops: 1, ModuleOf: func(id string) string {
		if id == "A" {
			return "mod-alpha"
		}
		return "mod-beta"
	}}
	result := NewBuilder(opts, nil).Build(g, corpus)

	if result.Metrics.CrossModuleRate != 1.0 {
		t.Errorf("CrossModuleRate = %v, want 1.0 with override", result.Metrics.CrossModuleRate)
	}
}

func TestAnnotate(t *testing.T) {
	corpus := linearCorpus(t, "A", "B", "C")
	g := callGraph([][2]string{{"A", "B"}, {"B", "C"}})
	result := NewBuilder(Options{MaxHops: 2}, nil).Build(g, corpus)

	rels := []*relate.Relationship{
		{SourceID: "A", TargetID: "B", Types: []relate.DepType{relate.DepCall}, Weight: 0.8},
		{SourceID: "B", TargetID: "C", Types: []relate.DepType{relate.DepCall}, Weight: 0.8},
		{SourceID: "C", TargetID: "A", Types: []relate.DepType{relate.DepCall}, Weight: 0.8},
	}
	// C->A exists as a relationship but not as a graph edge here, so no
	// chain covers it.
	Annotate(rels, result.Chains)

	if !rels[0].InChain || len(rels[0].ChainIDs) == 0 {
		t.Errorf("Expected A->B annotated with chains, got %+v", rels[0])
	}
	// A->B is consecutive in both [A,B] and [A,B,C]
	if len(rels[0].ChainIDs) != 2 {
		t.Errorf("Expected A->B in 2 chains, got %v", rels[0].ChainIDs)
	}
	if rels[2].InChain || rels[2].ChainIDs != nil {
		t.Errorf("Expected C->A unannotated, got %+v", rels[2])
	}
}

func TestMaxHopsCeilingApplied(t *testing.T) {
	b := NewBuilder(Options{MaxHops: 500}, nil)
	if b.opts.MaxHops != maxHopsCeiling {
		t.Errorf("MaxHops = %d, want ceiling %d", b.opts.MaxHops, maxHopsCeiling)
	}
}
