package storage

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
	"github.com/maypok86/otter"
)

// embeddingCacheWeight bounds the decoded-embedding LRU by approximate
// byte size rather than entry count, mirroring the teacher's
// weight-based file cache.
const embeddingCacheWeight = 32 * 1024 * 1024 // 32MB of decoded float32 vectors

// Store is the embedded relational store (C4): one SQLite database per
// project, holding chunks, the sequence_references edge table, and the
// chunks_fts mirror.
type Store struct {
	db    *sql.DB
	path  string
	cache otter.Cache[int64, []float32]

	// StrictReferenceTypeMatch controls whether FindDefinition honors
	// the "type:" qualifier of a reference. Defaults to false,
	// preserving the documented (possibly unintended) legacy behavior
	// of matching on name alone — see DESIGN.md's Open Question entry.
	StrictReferenceTypeMatch bool
}

// Open opens (creating if absent) the SQLite database at path,
// applying the fault-recovery policy of §4.4/§7: an ABI-mismatch-class
// failure is surfaced immediately with no retry; any other open
// failure triggers exactly one recovery attempt (delete the primary
// file and its WAL/SHM sidecars, then reopen once).
func Open(path string) (*Store, error) {
	db, err := openAndInit(path)
	if err != nil {
		if IsABIMismatch(err) {
			return nil, fmt.Errorf("storage: incompatible native sqlite3 driver: %w", err)
		}
		if removeErr := removeStoreFiles(path); removeErr != nil {
			return nil, fmt.Errorf("storage: open failed (%v) and recovery cleanup failed: %w", err, removeErr)
		}
		db, err = openAndInit(path)
		if err != nil {
			return nil, fmt.Errorf("storage: unrecoverable open failure after one retry: %w", err)
		}
	}

	cache, err := otter.MustBuilder[int64, []float32](embeddingCacheWeight).
		Cost(func(_ int64, v []float32) uint32 { return uint32(len(v)*4 + 8) }).
		CollectStats().
		Build()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: build embedding cache: %w", err)
	}

	return &Store{db: db, path: path, cache: cache}, nil
}

func openAndInit(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := GetSchemaVersion(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("check schema version: %w", err)
	}
	if version == "0" {
		if err := CreateSchema(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	return db, nil
}

func removeStoreFiles(path string) error {
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(path + suffix); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// Close releases the database handle and clears the decoded-embedding
// cache.
func (s *Store) Close() error {
	s.cache.Close()
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("storage: close: %w", err)
	}
	return nil
}

// DB returns the raw handle for components (SearchEngine's BM25 stage)
// that need to run ad hoc SQL.
func (s *Store) DB() *sql.DB { return s.db }
