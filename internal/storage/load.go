package storage

import (
	"fmt"
	"strings"

	"satdmap/internal/chain"
	"satdmap/internal/relate"
	"satdmap/internal/satd"
	"satdmap/internal/sir"
)

// LoadInstances reconstructs the corpus of a stored run.
func (db *DB) LoadInstances(runID string) (*satd.Corpus, error) {
	rows, err := db.conn.Query(`
		SELECT id, file, line, content, debt_type, is_explicit, is_implicit
		FROM instances WHERE run_id = ? ORDER BY file, line`, runID)
	if err != nil {
		return nil, fmt.Errorf("load instances: %w", err)
	}
	defer rows.Close()

	corpus := satd.NewCorpus()
	for rows.Next() {
		var in satd.Instance
		var debtType string
		var explicit, implicit int
		if err := rows.Scan(&in.ID, &in.File, &in.Line, &in.Content,
			&debtType, &explicit, &implicit); err != nil {
			return nil, fmt.Errorf("scan instance: %w", err)
		}
		in.DebtType = satd.DebtType(debtType)
		in.IsExplicit = explicit != 0
		in.IsImplicit = implicit != 0
		corpus.Add(&in)
	}
	return corpus, rows.Err()
}

// LoadRelationships returns a stored run's merged edge set, sorted by
// source then target as the merger emits them.
func (db *DB) LoadRelationships(runID string) ([]*relate.Relationship, error) {
	rows, err := db.conn.Query(`
		SELECT source_id, target_id, types, weight, in_chain, chain_ids
		FROM relationships WHERE run_id = ? ORDER BY source_id, target_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("load relationships: %w", err)
	}
	defer rows.Close()

	var rels []*relate.Relationship
	for rows.Next() {
		var rel relate.Relationship
		var types, chainIDs string
		var inChain int
		if err := rows.Scan(&rel.SourceID, &rel.TargetID, &types, &rel.Weight, &inChain, &chainIDs); err != nil {
			return nil, fmt.Errorf("scan relationship: %w", err)
		}
		for _, name := range strings.Split(types, "|") {
			if name != "" {
				rel.Types = append(rel.Types, relate.DepType(name))
			}
		}
		if chainIDs != "" {
			rel.ChainIDs = strings.Split(chainIDs, ",")
		}
		rel.InChain = inChain != 0
		rels = append(rels, &rel)
	}
	return rels, rows.Err()
}

// LoadChains returns a stored run's chains in their original order
// (longest first, then by node sequence).
func (db *DB) LoadChains(runID string) ([]*chain.Chain, error) {
	rows, err := db.conn.Query(`
		SELECT id, nodes, length
		FROM chains WHERE run_id = ?
		ORDER BY length DESC, nodes`, runID)
	if err != nil {
		return nil, fmt.Errorf("load chains: %w", err)
	}
	defer rows.Close()

	var chains []*chain.Chain
	for rows.Next() {
		var c chain.Chain
		var nodes string
		if err := rows.Scan(&c.ID, &nodes, &c.Length); err != nil {
			return nil, fmt.Errorf("scan chain: %w", err)
		}
		c.Nodes = strings.Split(nodes, ",")
		chains = append(chains, &c)
	}
	return chains, rows.Err()
}

// LoadScores returns a stored run's scores, highest first.
func (db *DB) LoadScores(runID string) ([]*sir.Result, error) {
	rows, err := db.conn.Query(`
		SELECT instance_id, severity, out_dependencies, in_dependencies,
			chain_length_factor, score, normalized, tier
		FROM scores WHERE run_id = ?
		ORDER BY score DESC, instance_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("load scores: %w", err)
	}
	defer rows.Close()

	var scores []*sir.Result
	for rows.Next() {
		var s sir.Result
		var tier string
		if err := rows.Scan(&s.InstanceID, &s.Severity, &s.OutgoingInfluence,
			&s.IncomingDependency, &s.ChainLengthFactor, &s.Score,
			&s.NormalizedScore, &tier); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		s.Tier = sir.Tier(tier)
		scores = append(scores, &s)
	}
	return scores, rows.Err()
}
