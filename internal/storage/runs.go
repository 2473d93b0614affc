package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"satdmap/internal/engine"
	"satdmap/internal/satd"
)

// Run summarizes one persisted analysis run.
type Run struct {
	ID                string    `json:"id"`
	ProjectRoot       string    `json:"projectRoot"`
	StartedAt         time.Time `json:"startedAt"`
	FinishedAt        time.Time `json:"finishedAt"`
	InstanceCount     int       `json:"instanceCount"`
	RelationshipCount int       `json:"relationshipCount"`
	ChainCount        int       `json:"chainCount"`
	Truncated         bool      `json:"truncated"`
	Warnings          []string  `json:"warnings"`
}

// SaveRun persists a full engine result and returns the new run ID.
func (db *DB) SaveRun(projectRoot string, corpus *satd.Corpus, result *engine.Result, startedAt time.Time) (string, error) {
	runID := uuid.NewString()
	finishedAt := time.Now().UTC()

	warnings, err := json.Marshal(result.Warnings)
	if err != nil {
		return "", fmt.Errorf("encode warnings: %w", err)
	}

	err = db.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			INSERT INTO runs (id, project_root, started_at, finished_at,
				instance_count, relationship_count, chain_count, truncated, warnings_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, projectRoot,
			startedAt.UTC().Format(time.RFC3339Nano), finishedAt.Format(time.RFC3339Nano),
			corpus.Len(), len(result.Relationships), len(result.Chains),
			boolInt(result.Truncated), string(warnings),
		); err != nil {
			return err
		}

		for _, in := range corpus.Instances() {
			if _, err := tx.Exec(`
				INSERT INTO instances (run_id, id, file, line, content, debt_type, is_explicit, is_implicit)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				runID, in.ID, in.File, in.Line, in.Content, string(in.DebtType),
				boolInt(in.IsExplicit), boolInt(in.IsImplicit),
			); err != nil {
				return err
			}
		}

		for _, rel := range result.Relationships {
			if _, err := tx.Exec(`
				INSERT INTO relationships (run_id, source_id, target_id, types, weight, in_chain, chain_ids)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				runID, rel.SourceID, rel.TargetID, rel.TypesString(), rel.Weight,
				boolInt(rel.InChain), strings.Join(rel.ChainIDs, ","),
			); err != nil {
				return err
			}
		}

		for _, c := range result.Chains {
			if _, err := tx.Exec(`
				INSERT INTO chains (run_id, id, nodes, length)
				VALUES (?, ?, ?, ?)`,
				runID, c.ID, strings.Join(c.Nodes, ","), c.Length,
			); err != nil {
				return err
			}
		}

		for _, s := range result.Scores {
			if _, err := tx.Exec(`
				INSERT INTO scores (run_id, instance_id, severity, out_dependencies,
					in_dependencies, chain_length_factor, score, normalized, tier)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				runID, s.InstanceID, s.Severity, s.OutgoingInfluence, s.IncomingDependency,
				s.ChainLengthFactor, s.Score, s.NormalizedScore, string(s.Tier),
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("save run: %w", err)
	}

	db.logger.Info("run saved", map[string]interface{}{
		"runId":     runID,
		"instances": corpus.Len(),
		"chains":    len(result.Chains),
	})
	return runID, nil
}

// ListRuns returns all runs, most recent first.
func (db *DB) ListRuns() ([]*Run, error) {
	rows, err := db.conn.Query(`
		SELECT id, project_root, started_at, finished_at,
			instance_count, relationship_count, chain_count, truncated, warnings_json
		FROM runs ORDER BY started_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns a single run by ID, or nil when not found.
func (db *DB) GetRun(runID string) (*Run, error) {
	rows, err := db.conn.Query(`
		SELECT id, project_root, started_at, finished_at,
			instance_count, relationship_count, chain_count, truncated, warnings_json
		FROM runs WHERE id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanRun(rows)
}

// DeleteRun removes a run and all its rows.
func (db *DB) DeleteRun(runID string) error {
	_, err := db.conn.Exec("DELETE FROM runs WHERE id = ?", runID)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	return nil
}

func scanRun(rows *sql.Rows) (*Run, error) {
	var run Run
	var started, finished, warningsJSON string
	var truncated int
	if err := rows.Scan(&run.ID, &run.ProjectRoot, &started, &finished,
		&run.InstanceCount, &run.RelationshipCount, &run.ChainCount,
		&truncated, &warningsJSON); err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}

	var err error
	if run.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if run.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
		return nil, fmt.Errorf("parse finished_at: %w", err)
	}
	run.Truncated = truncated != 0
	if err := json.Unmarshal([]byte(warningsJSON), &run.Warnings); err != nil {
		return nil, fmt.Errorf("decode warnings: %w", err)
	}
	return &run, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
