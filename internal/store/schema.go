// Package store persists completed simulation batches to SQLite and
// exports them for external analysis.
package store

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaVersion is the current schema version.
const SchemaVersion = 1

// schemaV1 is the initial schema for the batch store.
const schemaV1 = `
-- One row per Monte Carlo batch. The full config and cross-run
-- aggregate ride along as documents; the hot columns are broken out.
CREATE TABLE IF NOT EXISTS batches (
    id TEXT PRIMARY KEY,
    created_at TEXT NOT NULL,
    num_runs INTEGER NOT NULL,
    failed_runs INTEGER NOT NULL,
    elapsed_ns INTEGER NOT NULL,
    config_yaml TEXT NOT NULL,
    aggregate_json TEXT NOT NULL
);

-- Per-run summaries, one column per metric so SQL can slice them.
-- Seeds are stored as text: they are unsigned 64-bit values and
-- SQLite integers are signed.
CREATE TABLE IF NOT EXISTS runs (
    batch_id TEXT NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
    run INTEGER NOT NULL,
    seed TEXT NOT NULL,
    startups INTEGER NOT NULL,
    months_simulated INTEGER NOT NULL,
    failure_rate REAL NOT NULL,
    success_rate REAL NOT NULL,
    funded_rate REAL NOT NULL,
    total_funding REAL NOT NULL,
    mean_final_capital REAL NOT NULL,
    mean_final_pmf REAL NOT NULL,
    mean_final_valuation REAL NOT NULL,
    top_valuation REAL NOT NULL,
    mean_months_survived REAL NOT NULL,
    median_months_survived REAL NOT NULL,
    final_market_size REAL NOT NULL,
    error TEXT,
    PRIMARY KEY (batch_id, run)
);

-- Month-by-month population counts and means per run.
CREATE TABLE IF NOT EXISTS months (
    batch_id TEXT NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
    run INTEGER NOT NULL,
    month INTEGER NOT NULL,
    active INTEGER NOT NULL,
    funded_now INTEGER NOT NULL,
    funded_total INTEGER NOT NULL,
    failed INTEGER NOT NULL,
    exited INTEGER NOT NULL,
    mean_capital REAL NOT NULL,
    mean_pmf REAL NOT NULL,
    mean_valuation REAL NOT NULL,
    market_size REAL NOT NULL,
    PRIMARY KEY (batch_id, run, month)
);

-- Final per-agent outcomes, the analysis dataset.
CREATE TABLE IF NOT EXISTS agents (
    batch_id TEXT NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
    run INTEGER NOT NULL,
    agent_id INTEGER NOT NULL,
    final_status TEXT NOT NULL,
    months_survived INTEGER NOT NULL,
    funded INTEGER NOT NULL,
    funding_received REAL NOT NULL,
    final_capital REAL NOT NULL,
    final_pmf REAL NOT NULL,
    final_revenue REAL NOT NULL,
    final_valuation REAL NOT NULL,
    PRIMARY KEY (batch_id, run, agent_id)
);

CREATE INDEX IF NOT EXISTS idx_months_batch_run ON months(batch_id, run);
CREATE INDEX IF NOT EXISTS idx_agents_batch_status ON agents(batch_id, final_status);

-- Schema version
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
);
`

// initSchema initializes the database schema, creating tables on a
// fresh database and applying migrations on an existing one.
func initSchema(ctx context.Context, db *sql.DB) error {
	currentVersion, err := getSchemaVersion(ctx, db)
	if err != nil {
		// Schema version table doesn't exist yet, create fresh schema
		if err := createSchema(ctx, db); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
		return nil
	}

	if currentVersion < SchemaVersion {
		if err := migrateSchema(ctx, db, currentVersion); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}

	return nil
}

// getSchemaVersion returns the current schema version from the database.
// Returns an error if the schema_version table doesn't exist.
func getSchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var version int
	err := db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_version`).Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

// createSchema creates the initial database schema.
func createSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_version (version, applied_at) VALUES (?, datetime('now'))`,
		SchemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	return tx.Commit()
}

// migrateSchema applies migrations from currentVersion to SchemaVersion.
func migrateSchema(ctx context.Context, db *sql.DB, currentVersion int) error {
	// Only one version so far; v2 migrations go here.
	_ = currentVersion
	return nil
}

// CheckIntegrity runs PRAGMA integrity_check and foreign_key_check and
// reports any issue found.
func (s *Store) CheckIntegrity(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `PRAGMA integrity_check`)
	if err != nil {
		return fmt.Errorf("failed to run integrity_check: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var result string
		if err := rows.Scan(&result); err != nil {
			return fmt.Errorf("failed to scan integrity_check result: %w", err)
		}
		if result != "ok" {
			return fmt.Errorf("integrity_check failed: %s", result)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("integrity_check rows: %w", err)
	}

	fkRows, err := s.db.QueryContext(ctx, `PRAGMA foreign_key_check`)
	if err != nil {
		return fmt.Errorf("failed to run foreign_key_check: %w", err)
	}
	defer fkRows.Close()

	var fkErrors []string
	for fkRows.Next() {
		var table, parent sql.NullString
		var rowid, fkid sql.NullInt64
		if err := fkRows.Scan(&table, &rowid, &parent, &fkid); err != nil {
			return fmt.Errorf("failed to scan foreign_key_check result: %w", err)
		}
		fkErrors = append(fkErrors, fmt.Sprintf("table=%s rowid=%d parent=%s", table.String, rowid.Int64, parent.String))
	}
	if err := fkRows.Err(); err != nil {
		return fmt.Errorf("foreign_key_check rows: %w", err)
	}

	if len(fkErrors) > 0 {
		return fmt.Errorf("foreign_key_check failed: %v", fkErrors)
	}

	return nil
}
