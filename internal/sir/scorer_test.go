package sir

import (
	"math"
	"testing"

	"satdmap/internal/chain"
	"satdmap/internal/graph"
	"satdmap/internal/satd"
)

func testCorpus(t *testing.T) *satd.Corpus {
	t.Helper()
	c := satd.NewCorpus()
	c.Add(&satd.Instance{ID: "A", File: "core/a.go", Line: 1, Content: "TODO: refactor structure", DebtType: satd.DebtDesign})
	c.Add(&satd.Instance{ID: "B", File: "core/b.go", Line: 2, Content: "FIXME: wrong result", DebtType: satd.DebtDefect})
	c.Add(&satd.Instance{ID: "C", File: "util/c.go", Line: 3, Content: "HACK: inefficient loop", DebtType: satd.DebtImplementation})
	return c
}

func buildChains(t *testing.T, g *graph.Graph, corpus *satd.Corpus, maxHops int) *chain.Result {
	t.Helper()
	return chain.NewBuilder(chain.Options{MaxHops: maxHops}, nil).Build(g, corpus)
}

func TestScoreLinearGraph(t *testing.T) {
	corpus := testCorpus(t)
	g := graph.New()
	g.AddEdge("A", "B", 0.8, []string{"call"})
	g.AddEdge("B", "C", 0.8, []string{"call"})

	chains := buildChains(t, g, corpus, 2)
	results := NewScorer(DefaultOptions(), nil).Score(corpus, g, chains)

	byID := make(map[string]*Result)
	for _, r := range results {
		byID[r.InstanceID] = r
	}

	a := byID["A"]
	if a.OutgoingInfluence != 2 || a.IncomingDependency != 0 {
		t.Errorf("A reachability = (%d out, %d in), want (2, 0)", a.OutgoingInfluence, a.IncomingDependency)
	}
	c := byID["C"]
	if c.OutgoingInfluence != 0 || c.IncomingDependency != 2 {
		t.Errorf("C reachability = (%d out, %d in), want (0, 2)", c.OutgoingInfluence, c.IncomingDependency)
	}

	// All three nodes sit on the globally longest chain [A,B,C].
	for id, r := range byID {
		if r.ChainLengthFactor != 1.0 {
			t.Errorf("ChainLengthFactor(%s) = %v, want 1.0", id, r.ChainLengthFactor)
		}
	}

	// A: severity 8, composite = 0.4*8 + 0.3*2 - 0.1*0 + 0.4*1 = 4.2
	if math.Abs(a.Score-4.2) > 1e-9 {
		t.Errorf("Score(A) = %v, want 4.2", a.Score)
	}
	// C: severity 5, composite = 0.4*5 + 0 - 0.2 + 0.4 = 2.2
	if math.Abs(c.Score-2.2) > 1e-9 {
		t.Errorf("Score(C) = %v, want 2.2", c.Score)
	}

	// Sorted by score descending
	if results[0].InstanceID != "A" {
		t.Errorf("Expected A ranked first, got %s", results[0].InstanceID)
	}

	// Normalization by max observed: A gets 1.0 -> Top
	if a.NormalizedScore != 1.0 || a.Tier != TierTop {
		t.Errorf("A normalized = %v tier %s, want 1.0 Top", a.NormalizedScore, a.Tier)
	}
}

func TestIsolatedNodeStillScored(t *testing.T) {
	corpus := testCorpus(t)
	g := graph.New()
	g.AddEdge("A", "B", 0.8, []string{"call"})
	g.AddNode("C")

	chains := buildChains(t, g, corpus, 5)
	results := NewScorer(DefaultOptions(), nil).Score(corpus, g, chains)

	var c *Result
	for _, r := range results {
		if r.InstanceID == "C" {
			c = r
		}
	}
	if c == nil {
		t.Fatal("Expected result for isolated node C")
	}
	if c.OutgoingInfluence != 0 || c.IncomingDependency != 0 || c.ChainLengthFactor != 0 {
		t.Errorf("Isolated node should have zero graph components, got %+v", c)
	}
	if c.Severity != 5 {
		t.Errorf("Severity(C) = %v, want 5", c.Severity)
	}
}

func TestScoreWithNilGraphAndChains(t *testing.T) {
	corpus := testCorpus(t)
	results := NewScorer(DefaultOptions(), nil).Score(corpus, nil, nil)

	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	for _, r := range results {
		if r.OutgoingInfluence != 0 || r.IncomingDependency != 0 || r.ChainLengthFactor != 0 {
			t.Errorf("Expected severity-only scoring, got %+v", r)
		}
	}
}

func TestTieringThresholds(t *testing.T) {
	// Scenario E: 0.75 -> Top, 0.45 -> Mid, 0.1 -> Bottom.
	s := NewScorer(DefaultOptions(), nil)
	tests := []struct {
		normalized float64
		want       Tier
	}{
		{0.75, TierTop},
		{0.7, TierTop},
		{0.45, TierMid},
		{0.4, TierMid},
		{0.39, TierBottom},
		{0.1, TierBottom},
		{0.0, TierBottom},
	}
	for _, tt := range tests {
		if got := s.tierFor(tt.normalized); got != tt.want {
			t.Errorf("tierFor(%v) = %s, want %s", tt.normalized, got, tt.want)
		}
	}
}

func TestCustomWeightsInjectable(t *testing.T) {
	corpus := satd.NewCorpus()
	corpus.Add(&satd.Instance{ID: "A", File: "a.go", Line: 1, Content: "TODO", DebtType: satd.DebtOther})

	opts := DefaultOptions()
	opts.Weights = Weights{Severity: 1.0}
	results := NewScorer(opts, nil).Score(corpus, nil, nil)

	if results[0].Score != 5 {
		t.Errorf("Score = %v, want severity-only 5", results[0].Score)
	}
}

func TestNormalizeCeiling(t *testing.T) {
	corpus := satd.NewCorpus()
	corpus.Add(&satd.Instance{ID: "A", File: "a.go", Line: 1, Content: "TODO", DebtType: satd.DebtArchitecture})

	opts := DefaultOptions()
	opts.NormalizeCeiling = 7.2 // raw score = 0.4*9 = 3.6 -> normalized 0.5
	results := NewScorer(opts, nil).Score(corpus, nil, nil)

	r := results[0]
	if math.Abs(r.NormalizedScore-0.5) > 1e-9 {
		t.Errorf("NormalizedScore = %v, want 0.5", r.NormalizedScore)
	}
	if r.Tier != TierMid {
		t.Errorf("Tier = %s, want Mid", r.Tier)
	}
}

func TestNormalizedScoreBounds(t *testing.T) {
	corpus := testCorpus(t)
	g := graph.New()
	g.AddEdge("A", "B", 0.8, []string{"call"})
	g.AddEdge("B", "C", 0.8, []string{"call"})
	chains := buildChains(t, g, corpus, 5)

	opts := DefaultOptions()
	opts.NormalizeCeiling = 0.5 // Deliberately below max raw score
	results := NewScorer(opts, nil).Score(corpus, g, chains)

	for _, r := range results {
		if r.NormalizedScore < 0 || r.NormalizedScore > 1 {
			t.Errorf("NormalizedScore(%s) = %v out of [0,1]", r.InstanceID, r.NormalizedScore)
		}
	}
}

func TestEmptyCorpus(t *testing.T) {
	results := NewScorer(DefaultOptions(), nil).Score(satd.NewCorpus(), graph.New(), nil)
	if len(results) != 0 {
		t.Errorf("Expected no results for empty corpus, got %d", len(results))
	}
}
