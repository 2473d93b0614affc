// Package extract discovers candidate dependency edges between technical
// debt instances. Two extractors are provided: one backed by a SCIP code
// index, and a seeded probabilistic one for experiments on corpora where
// no index is available.
package extract

import (
	"satdmap/internal/relate"
	"satdmap/internal/satd"
)

// Extractor produces raw dependency edges for a corpus. Edges are candidates
// only; validation and merging happen downstream.
type Extractor interface {
	Extract(corpus *satd.Corpus) ([]relate.RawEdge, error)
}
