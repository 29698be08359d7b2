// Package storage is the embedded relational store (C4): it persists
// chunks, their embeddings, and a synchronized full-text mirror, and
// exposes the CRUD/bulk operations the Pipeline and SearchEngine need.
package storage

import (
	"database/sql"
	"fmt"
	"time"
)

const currentSchemaVersion = "1.0"

// CreateSchema creates the chunks table, the sequence_references edge
// table, the chunks_fts virtual table, and their indexes. All table
// DDL runs in one transaction; the FTS5 virtual table is created
// outside it, matching SQLite's restriction on virtual tables inside
// a pending transaction when the module itself performs schema
// bookkeeping.
func CreateSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("storage: begin schema transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("storage: enable foreign keys: %w", err)
	}

	tables := []struct {
		name string
		ddl  string
	}{
		{"chunks", createChunksTable},
		{"sequence_references", createSequenceReferencesTable},
		{"store_metadata", createStoreMetadataTable},
	}
	for _, table := range tables {
		if _, err := tx.Exec(table.ddl); err != nil {
			return fmt.Errorf("storage: create %s table: %w", table.name, err)
		}
	}

	for i, idx := range getAllIndexes() {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("storage: create index %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: commit schema transaction: %w", err)
	}

	if _, err := db.Exec(createChunksFTSTable); err != nil {
		return fmt.Errorf("storage: create FTS5 index: %w", err)
	}

	return UpdateSchemaVersion(db, currentSchemaVersion)
}

// GetSchemaVersion returns "0" for a brand-new database (store_metadata
// does not exist yet).
func GetSchemaVersion(db *sql.DB) (string, error) {
	var tableExists int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='store_metadata'`).Scan(&tableExists)
	if err != nil {
		return "", fmt.Errorf("storage: check store_metadata existence: %w", err)
	}
	if tableExists == 0 {
		return "0", nil
	}

	var version string
	err = db.QueryRow(`SELECT value FROM store_metadata WHERE key = 'schema_version'`).Scan(&version)
	if err == sql.ErrNoRows {
		return "0", nil
	}
	if err != nil {
		return "", fmt.Errorf("storage: query schema version: %w", err)
	}
	return version, nil
}

// UpdateSchemaVersion records the schema version in store_metadata.
func UpdateSchemaVersion(db *sql.DB, version string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := db.Exec(`
		INSERT INTO store_metadata (key, value, updated_at) VALUES ('schema_version', ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, version, now)
	if err != nil {
		return fmt.Errorf("storage: update schema version: %w", err)
	}
	return nil
}

const createChunksTable = `
CREATE TABLE chunks (
    id                     INTEGER PRIMARY KEY AUTOINCREMENT,
    file_path              TEXT NOT NULL,
    file_hash              TEXT NOT NULL,
    resource_name          TEXT NOT NULL,
    resource_type          TEXT NOT NULL,
    chunk_type             TEXT NOT NULL,
    chunk_index            INTEGER NOT NULL,
    start_line             INTEGER NOT NULL,
    end_line               INTEGER NOT NULL,
    embedding              BLOB NOT NULL,
    parent_chunk_id        INTEGER,
    timestamp              INTEGER NOT NULL,
    content_hash           TEXT NOT NULL,
    semantic_type          TEXT NOT NULL,
    semantic_intent        TEXT NOT NULL,
    context_json           TEXT NOT NULL,
    sequence_key           TEXT,
    is_sequence_definition INTEGER NOT NULL DEFAULT 0,
    referenced_sequences   TEXT,
    embedding_text         TEXT NOT NULL,
    FOREIGN KEY (parent_chunk_id) REFERENCES chunks(id) ON DELETE SET NULL
)
`

const createSequenceReferencesTable = `
CREATE TABLE sequence_references (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    caller_chunk_id  INTEGER NOT NULL,
    callee_chunk_id  INTEGER NOT NULL,
    sequence_key     TEXT NOT NULL,
    timestamp        INTEGER NOT NULL,
    FOREIGN KEY (caller_chunk_id) REFERENCES chunks(id) ON DELETE CASCADE,
    FOREIGN KEY (callee_chunk_id) REFERENCES chunks(id) ON DELETE CASCADE
)
`

const createStoreMetadataTable = `
CREATE TABLE store_metadata (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at TEXT NOT NULL
)
`

// chunks_fts mirrors chunks on chunk_id (the FTS invariant of §3);
// rows are written by application-level delete-then-insert, not
// triggers, since every write path already runs inside the same
// transaction as the chunks-table write.
const createChunksFTSTable = `
CREATE VIRTUAL TABLE chunks_fts USING fts5(
    chunk_id UNINDEXED,
    embedding_text,
    tokenize = 'unicode61 remove_diacritics 0'
)
`

func getAllIndexes() []string {
	return []string{
		"CREATE UNIQUE INDEX idx_chunks_identity ON chunks(file_path, chunk_index, start_line, end_line)",
		"CREATE INDEX idx_chunks_file_path ON chunks(file_path)",
		"CREATE INDEX idx_chunks_chunk_type ON chunks(chunk_type)",
		"CREATE INDEX idx_chunks_sequence_key ON chunks(sequence_key)",
		"CREATE INDEX idx_chunks_parent ON chunks(parent_chunk_id)",
		"CREATE INDEX idx_seqref_caller ON sequence_references(caller_chunk_id)",
		"CREATE INDEX idx_seqref_callee ON sequence_references(callee_chunk_id)",
	}
}
