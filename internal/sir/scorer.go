// Package sir ranks SATD instances by their estimated downstream impact.
// The SIR (SATD Impact Ripple) score blends intrinsic severity, forward
// and backward graph reachability, and participation in long chains.
package sir

import (
	"sort"

	"satdmap/internal/chain"
	"satdmap/internal/graph"
	"satdmap/internal/logging"
	"satdmap/internal/satd"
)

// Tier is the coarse priority bucket assigned from the normalized score.
type Tier string

const (
	TierTop    Tier = "Top"
	TierMid    Tier = "Mid"
	TierBottom Tier = "Bottom"
)

// Weights are the composite score coefficients. Incoming dependency counts
// against the score: debt many others depend on is riskier to touch first.
type Weights struct {
	Severity    float64 `json:"severity"`
	Outgoing    float64 `json:"outgoing"`
	Incoming    float64 `json:"incoming"`
	ChainLength float64 `json:"chainLength"`
}

// DefaultWeights returns the canonical weight set.
func DefaultWeights() Weights {
	return Weights{
		Severity:    0.4,
		Outgoing:    0.3,
		Incoming:    0.1,
		ChainLength: 0.4,
	}
}

// Thresholds are the tier cutoffs applied to the normalized score.
type Thresholds struct {
	// Top is the minimum normalized score for the Top tier
	Top float64 `json:"top"`

	// Mid is the minimum normalized score for the Mid tier
	Mid float64 `json:"mid"`
}

// DefaultThresholds returns the canonical tier cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{Top: 0.7, Mid: 0.4}
}

// Options configures the scorer.
type Options struct {
	Weights    Weights
	Thresholds Thresholds

	// NormalizeCeiling, when > 0, is used as the normalization denominator
	// instead of the maximum observed score in the run.
	NormalizeCeiling float64
}

// DefaultOptions returns scorer defaults.
func DefaultOptions() Options {
	return Options{
		Weights:    DefaultWeights(),
		Thresholds: DefaultThresholds(),
	}
}

// Result is the per-instance scoring outcome.
type Result struct {
	InstanceID string `json:"instanceId"`

	// Severity is the intrinsic severity on the 1-10 scale
	Severity float64 `json:"severity"`

	// OutgoingInfluence counts graph descendants
	OutgoingInfluence int `json:"outgoingInfluence"`

	// IncomingDependency counts graph ancestors
	IncomingDependency int `json:"incomingDependency"`

	// ChainLengthFactor is longest containing chain / corpus maximum, in [0,1]
	ChainLengthFactor float64 `json:"chainLengthFactor"`

	// Score is the raw composite SIR score
	Score float64 `json:"score"`

	// NormalizedScore is Score projected onto [0,1]
	NormalizedScore float64 `json:"normalizedScore"`

	// Tier is the bucket assigned from NormalizedScore
	Tier Tier `json:"tier"`
}

// Scorer computes SIR results for a corpus. Construct one per run.
type Scorer struct {
	opts   Options
	logger *logging.Logger
}

// NewScorer creates a scorer, filling zero-valued options with defaults.
func NewScorer(opts Options, logger *logging.Logger) *Scorer {
	defaults := DefaultOptions()
	if opts.Weights == (Weights{}) {
		opts.Weights = defaults.Weights
	}
	if opts.Thresholds == (Thresholds{}) {
		opts.Thresholds = defaults.Thresholds
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scorer{opts: opts, logger: logger}
}

// Score computes a Result for every instance in the corpus. Instances
// absent from the graph still receive a severity score with zero
// reachability and chain factor. Results are sorted by raw score
// descending, ties broken by instance ID.
func (s *Scorer) Score(corpus *satd.Corpus, g *graph.Graph, chains *chain.Result) []*Result {
	maxChainLength := 0
	if chains != nil {
		maxChainLength = chains.Metrics.MaximumChainLength
	}

	results := make([]*Result, 0, corpus.Len())
	for _, in := range corpus.Instances() {
		r := &Result{
			InstanceID: in.ID,
			Severity:   Severity(in),
		}
		if g != nil && g.HasNode(in.ID) {
			r.OutgoingInfluence = g.Descendants(in.ID)
			r.IncomingDependency = g.Ancestors(in.ID)
		}
		if chains != nil && maxChainLength > 0 {
			r.ChainLengthFactor = float64(chains.LongestFor(in.ID)) / float64(maxChainLength)
		}

		w := s.opts.Weights
		r.Score = w.Severity*r.Severity +
			w.Outgoing*float64(r.OutgoingInfluence) -
			w.Incoming*float64(r.IncomingDependency) +
			w.ChainLength*r.ChainLengthFactor

		results = append(results, r)
	}

	s.normalizeAndTier(results)

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].InstanceID < results[j].InstanceID
	})

	s.logger.Debug("SIR scoring complete", map[string]interface{}{
		"instances": len(results),
	})

	return results
}

func (s *Scorer) normalizeAndTier(results []*Result) {
	ceiling := s.opts.NormalizeCeiling
	if ceiling <= 0 {
		for _, r := range results {
			if r.Score > ceiling {
				ceiling = r.Score
			}
		}
	}

	for _, r := range results {
		if ceiling > 0 {
			normalized := r.Score / ceiling
			if normalized < 0 {
				normalized = 0
			}
			if normalized > 1 {
				normalized = 1
			}
			r.NormalizedScore = normalized
		}
		r.Tier = s.tierFor(r.NormalizedScore)
	}
}

func (s *Scorer) tierFor(normalized float64) Tier {
	switch {
	case normalized >= s.opts.Thresholds.Top:
		return TierTop
	case normalized >= s.opts.Thresholds.Mid:
		return TierMid
	default:
		return TierBottom
	}
}
