package sqlitedb

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// OpenDb opens (or creates) the sqlite database and applies the schema.
func OpenDb(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		// nolint:all
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		// nolint:all
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := migrate(db); err != nil {
		// nolint:all
		db.Close()
		return nil, fmt.Errorf("failed to migrate sqlite db: %w", err)
	}

	return db, nil
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS rounds (
			id                     INTEGER PRIMARY KEY,
			status                 INTEGER NOT NULL,
			opened_at              INTEGER NOT NULL DEFAULT 0,
			closes_at              INTEGER NOT NULL DEFAULT 0,
			drawn_at               INTEGER NOT NULL DEFAULT 0,
			ended_at               INTEGER NOT NULL DEFAULT 0,
			winner                 TEXT NOT NULL DEFAULT '',
			winning_index          INTEGER NOT NULL DEFAULT 0,
			draw_hash              TEXT NOT NULL DEFAULT '',
			total_normalized_value INTEGER NOT NULL DEFAULT 0,
			total_entries          INTEGER NOT NULL DEFAULT 0,
			fee_owed               INTEGER NOT NULL DEFAULT 0,
			prize_claimed          INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rounds_ended ON rounds(ended_at)`,

		`CREATE TABLE IF NOT EXISTS contributions (
			round_id         INTEGER NOT NULL REFERENCES rounds(id),
			position         INTEGER NOT NULL,
			contributor      TEXT NOT NULL,
			asset_id         TEXT NOT NULL,
			raw_amount       INTEGER NOT NULL,
			normalized_value INTEGER NOT NULL,
			entry_count      INTEGER NOT NULL,
			claimed          INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (round_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_contributions_contributor
			ON contributions(round_id, contributor)`,

		`CREATE TABLE IF NOT EXISTS round_assets (
			round_id INTEGER NOT NULL REFERENCES rounds(id),
			asset_id TEXT NOT NULL,
			balance  INTEGER NOT NULL DEFAULT 0,
			paid_out INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (round_id, asset_id)
		)`,

		`CREATE TABLE IF NOT EXISTS assets (
			id                TEXT PRIMARY KEY,
			precision         INTEGER NOT NULL,
			active            INTEGER NOT NULL DEFAULT 1,
			min_contribution  INTEGER NOT NULL DEFAULT 0,
			relative_worth_bp INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS pool_params (
			id               INTEGER PRIMARY KEY CHECK (id = 1),
			value_per_entry  INTEGER NOT NULL,
			round_duration   INTEGER NOT NULL,
			fee_bp           INTEGER NOT NULL,
			fee_recipient    TEXT NOT NULL,
			capacity         INTEGER NOT NULL,
			min_participants INTEGER NOT NULL,
			keeper           TEXT NOT NULL,
			outflow_allowed  INTEGER NOT NULL DEFAULT 1,
			paused           INTEGER NOT NULL DEFAULT 0
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func extractDb(config ...interface{}) (*sql.DB, error) {
	if len(config) != 1 {
		return nil, fmt.Errorf("invalid config")
	}
	db, ok := config[0].(*sql.DB)
	if !ok {
		return nil, fmt.Errorf("cannot open sqlite repository: invalid config")
	}
	return db, nil
}
