package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaVersion is the current integer migration number. Changing the
// schema bumps this and appends a migration to migrations below;
// the store's own embedded relational file tracks which version it is
// at in schema_migrations.
const schemaVersion = 1

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER NOT NULL);`,

	`CREATE TABLE IF NOT EXISTS memories (
		id            TEXT PRIMARY KEY,
		agent_id      TEXT NOT NULL,
		layer         TEXT NOT NULL,
		category      TEXT NOT NULL,
		content       TEXT NOT NULL,
		importance    REAL NOT NULL,
		confidence    REAL NOT NULL,
		decay_score   REAL NOT NULL,
		access_count  INTEGER NOT NULL DEFAULT 0,
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL,
		expires_at    TEXT,
		superseded_by TEXT,
		is_pinned     INTEGER NOT NULL DEFAULT 0,
		source        TEXT NOT NULL DEFAULT '',
		metadata      TEXT NOT NULL DEFAULT '{}'
	);`,
	`CREATE INDEX IF NOT EXISTS idx_memories_agent_layer ON memories(agent_id, layer);`,
	`CREATE INDEX IF NOT EXISTS idx_memories_agent_category ON memories(agent_id, category);`,
	`CREATE INDEX IF NOT EXISTS idx_memories_superseded ON memories(superseded_by);`,

	`CREATE VIRTUAL TABLE IF NOT EXISTS memories_fts USING fts5(
		id UNINDEXED, agent_id UNINDEXED, content, tokenize='unicode61'
	);`,

	`CREATE TABLE IF NOT EXISTS vectors (
		id         TEXT PRIMARY KEY,
		agent_id   TEXT NOT NULL,
		dims       INTEGER NOT NULL,
		vector     BLOB NOT NULL,
		created_at TEXT NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_vectors_agent ON vectors(agent_id);`,

	`CREATE TABLE IF NOT EXISTS relations (
		id         TEXT PRIMARY KEY,
		agent_id   TEXT NOT NULL,
		subject    TEXT NOT NULL,
		predicate  TEXT NOT NULL,
		object     TEXT NOT NULL,
		confidence REAL NOT NULL,
		expired    INTEGER NOT NULL DEFAULT 0,
		memory_id  TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_relations_agent ON relations(agent_id);`,

	`CREATE TABLE IF NOT EXISTS extraction_logs (
		id               TEXT PRIMARY KEY,
		agent_id         TEXT NOT NULL,
		channel          TEXT NOT NULL,
		exchange_preview TEXT NOT NULL,
		raw_output       TEXT NOT NULL,
		parsed_json      TEXT NOT NULL,
		written_count    INTEGER NOT NULL,
		deduped_count    INTEGER NOT NULL,
		smart_updated    INTEGER NOT NULL,
		latency_millis   INTEGER NOT NULL,
		created_at       TEXT NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_extraction_logs_agent ON extraction_logs(agent_id);`,

	`CREATE TABLE IF NOT EXISTS agents (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		config_json TEXT NOT NULL DEFAULT '{}',
		profile     TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);`,
}

// migrate applies every statement in migrations inside a single
// transaction, then records schemaVersion if the table was empty —
// the same "apply once, stamp the version" idiom the teacher's
// repository initialization uses, adapted from DynamoDB table-ensure
// calls to SQL DDL.
func migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning migration transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range migrations {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("applying migration statement: %w", err)
		}
	}

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&count); err != nil {
		return fmt.Errorf("checking schema_migrations: %w", err)
	}
	if count == 0 {
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version) VALUES (?)`, schemaVersion); err != nil {
			return fmt.Errorf("stamping schema version: %w", err)
		}
	}

	return tx.Commit()
}
