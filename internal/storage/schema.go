package storage

import "database/sql"

const schemaVersion = 2

// initializeSchema creates all tables and applies migrations for databases
// written by earlier versions. Statements are idempotent so reopening a
// current database is a no-op.
func (db *DB) initializeSchema() error {
	return db.WithTx(func(tx *sql.Tx) error {
		for _, create := range []func(*sql.Tx) error{
			createSchemaVersionTable,
			createRunsTable,
			createInstancesTable,
			createRelationshipsTable,
			createChainsTable,
			createScoresTable,
		} {
			if err := create(tx); err != nil {
				return err
			}
		}
		current, err := currentSchemaVersion(tx)
		if err != nil {
			return err
		}
		if current == 1 {
			// v2 added per-relationship chain membership.
			if _, err := tx.Exec(
				"ALTER TABLE relationships ADD COLUMN chain_ids TEXT NOT NULL DEFAULT ''",
			); err != nil {
				return err
			}
		}
		return setSchemaVersion(tx, schemaVersion)
	})
}

func createSchemaVersionTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	return err
}

// currentSchemaVersion returns the recorded version, or 0 for a fresh
// database.
func currentSchemaVersion(tx *sql.Tx) (int, error) {
	var version int
	err := tx.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return version, nil
}

func setSchemaVersion(tx *sql.Tx, version int) error {
	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

// createRunsTable records one row per completed analysis run.
func createRunsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			project_root TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			instance_count INTEGER NOT NULL,
			relationship_count INTEGER NOT NULL,
			chain_count INTEGER NOT NULL,
			truncated INTEGER NOT NULL DEFAULT 0,
			warnings_json TEXT NOT NULL DEFAULT '[]'
		)
	`)
	return err
}

func createInstancesTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS instances (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			id TEXT NOT NULL,
			file TEXT NOT NULL,
			line INTEGER NOT NULL,
			content TEXT NOT NULL,
			debt_type TEXT NOT NULL,
			is_explicit INTEGER NOT NULL,
			is_implicit INTEGER NOT NULL,
			PRIMARY KEY (run_id, id)
		)
	`)
	return err
}

func createRelationshipsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS relationships (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			source_id TEXT NOT NULL,
			target_id TEXT NOT NULL,
			types TEXT NOT NULL,
			weight REAL NOT NULL,
			in_chain INTEGER NOT NULL,
			chain_ids TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (run_id, source_id, target_id)
		)
	`)
	return err
}

func createChainsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS chains (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			id TEXT NOT NULL,
			nodes TEXT NOT NULL,
			length INTEGER NOT NULL,
			PRIMARY KEY (run_id, id)
		)
	`)
	return err
}

func createScoresTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS scores (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			instance_id TEXT NOT NULL,
			severity REAL NOT NULL,
			out_dependencies INTEGER NOT NULL,
			in_dependencies INTEGER NOT NULL,
			chain_length_factor REAL NOT NULL,
			score REAL NOT NULL,
			normalized REAL NOT NULL,
			tier TEXT NOT NULL,
			PRIMARY KEY (run_id, instance_id)
		)
	`)
	return err
}
