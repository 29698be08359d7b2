package storage

import (
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/minuraashen/synapse-semantic-index/internal/chunker"
)

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Insert writes a new chunk row plus its chunks_fts mirror row in one
// transaction and sets c.ID to the store-assigned id.
func (s *Store) Insert(c *chunker.Chunk) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("storage: insert: begin: %w", err)
	}
	defer tx.Rollback()

	id, err := insertChunkRow(tx, c)
	if err != nil {
		return 0, err
	}
	if _, err := tx.Exec("INSERT INTO chunks_fts (chunk_id, embedding_text) VALUES (?, ?)", id, c.EmbeddingText); err != nil {
		return 0, fmt.Errorf("storage: insert: fts sync: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("storage: insert: commit: %w", err)
	}
	c.ID = id
	return id, nil
}

func insertChunkRow(tx *sql.Tx, c *chunker.Chunk) (int64, error) {
	ctxJSON, err := contextToJSON(c.Context)
	if err != nil {
		return 0, fmt.Errorf("storage: insert: %w", err)
	}
	refsNS, err := refsToJSON(c.ReferencedSequences)
	if err != nil {
		return 0, fmt.Errorf("storage: insert: %w", err)
	}

	res, err := sq.Insert("chunks").
		Columns(chunkColumns[1:]...). // skip auto-assigned "id"
		Values(
			c.FilePath, c.FileHash, c.ResourceName, c.ResourceType, c.ChunkType,
			c.ChunkIndex, c.StartLine, c.EndLine, SerializeEmbedding(c.Embedding),
			nullableInt64(c.ParentChunkID), c.Timestamp, c.ContentHash, c.SemanticType,
			c.SemanticIntent, ctxJSON, nullableString(c.SequenceKey),
			boolToInt(c.IsSequenceDefinition), refsNS, c.EmbeddingText,
		).
		RunWith(tx).
		Exec()
	if err != nil {
		return 0, fmt.Errorf("storage: insert chunk: %w", err)
	}
	return res.LastInsertId()
}

// Update rewrites every mutable column of an existing row (identified
// by c.ID), re-syncs its chunks_fts mirror via delete-then-insert (FTS5
// has no in-place update), and invalidates the decoded-embedding cache
// entry so a stale vector can never be read back.
func (s *Store) Update(c *chunker.Chunk) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: update: begin: %w", err)
	}
	defer tx.Rollback()

	ctxJSON, err := contextToJSON(c.Context)
	if err != nil {
		return fmt.Errorf("storage: update: %w", err)
	}
	refsNS, err := refsToJSON(c.ReferencedSequences)
	if err != nil {
		return fmt.Errorf("storage: update: %w", err)
	}

	_, err = sq.Update("chunks").
		Set("file_hash", c.FileHash).
		Set("resource_name", c.ResourceName).
		Set("resource_type", c.ResourceType).
		Set("chunk_type", c.ChunkType).
		Set("chunk_index", c.ChunkIndex).
		Set("start_line", c.StartLine).
		Set("end_line", c.EndLine).
		Set("embedding", SerializeEmbedding(c.Embedding)).
		Set("parent_chunk_id", nullableInt64(c.ParentChunkID)).
		Set("timestamp", c.Timestamp).
		Set("content_hash", c.ContentHash).
		Set("semantic_type", c.SemanticType).
		Set("semantic_intent", c.SemanticIntent).
		Set("context_json", ctxJSON).
		Set("sequence_key", nullableString(c.SequenceKey)).
		Set("is_sequence_definition", boolToInt(c.IsSequenceDefinition)).
		Set("referenced_sequences", refsNS).
		Set("embedding_text", c.EmbeddingText).
		Where(sq.Eq{"id": c.ID}).
		RunWith(tx).
		Exec()
	if err != nil {
		return fmt.Errorf("storage: update chunk %d: %w", c.ID, err)
	}

	if _, err := tx.Exec("DELETE FROM chunks_fts WHERE chunk_id = ?", c.ID); err != nil {
		return fmt.Errorf("storage: update: fts delete: %w", err)
	}
	if _, err := tx.Exec("INSERT INTO chunks_fts (chunk_id, embedding_text) VALUES (?, ?)", c.ID, c.EmbeddingText); err != nil {
		return fmt.Errorf("storage: update: fts insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: update: commit: %w", err)
	}
	s.cache.Delete(c.ID)
	return nil
}

// Delete removes a chunk row (cascading to sequence_references) and
// its FTS mirror row, invalidating the decoded-embedding cache.
func (s *Store) Delete(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: delete: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := sq.Delete("chunks").Where(sq.Eq{"id": id}).RunWith(tx).Exec(); err != nil {
		return fmt.Errorf("storage: delete chunk %d: %w", id, err)
	}
	if _, err := tx.Exec("DELETE FROM chunks_fts WHERE chunk_id = ?", id); err != nil {
		return fmt.Errorf("storage: delete: fts sync: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: delete: commit: %w", err)
	}
	s.cache.Delete(id)
	return nil
}

// DeleteByFile removes all chunks for filePath plus their FTS mirror
// rows.
func (s *Store) DeleteByFile(filePath string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: delete by file: begin: %w", err)
	}
	defer tx.Rollback()

	ids, err := queryIDsByFile(tx, filePath)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return tx.Commit()
	}

	if _, err := sq.Delete("chunks").Where(sq.Eq{"file_path": filePath}).RunWith(tx).Exec(); err != nil {
		return fmt.Errorf("storage: delete by file %s: %w", filePath, err)
	}
	if _, err := sq.Delete("chunks_fts").Where(sq.Eq{"chunk_id": ids}).RunWith(tx).Exec(); err != nil {
		return fmt.Errorf("storage: delete by file: fts sync: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: delete by file: commit: %w", err)
	}
	for _, id := range ids {
		s.cache.Delete(id)
	}
	return nil
}

func queryIDsByFile(tx *sql.Tx, filePath string) ([]int64, error) {
	rows, err := sq.Select("id").From("chunks").Where(sq.Eq{"file_path": filePath}).RunWith(tx).Query()
	if err != nil {
		return nil, fmt.Errorf("storage: query ids for file %s: %w", filePath, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("storage: scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteByFileWithIDs behaves like DeleteByFile but also returns the
// deleted ids. Pipeline calls it for deleted files and does not use the
// returned ids.
func (s *Store) DeleteByFileWithIDs(filePath string) ([]int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("storage: delete by file: begin: %w", err)
	}
	defer tx.Rollback()

	ids, err := queryIDsByFile(tx, filePath)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, tx.Commit()
	}
	if _, err := sq.Delete("chunks").Where(sq.Eq{"file_path": filePath}).RunWith(tx).Exec(); err != nil {
		return nil, fmt.Errorf("storage: delete by file %s: %w", filePath, err)
	}
	if _, err := sq.Delete("chunks_fts").Where(sq.Eq{"chunk_id": ids}).RunWith(tx).Exec(); err != nil {
		return nil, fmt.Errorf("storage: delete by file: fts sync: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("storage: delete by file: commit: %w", err)
	}
	for _, id := range ids {
		s.cache.Delete(id)
	}
	return ids, nil
}

// GetByFile returns every chunk for filePath in emission order.
func (s *Store) GetByFile(filePath string) ([]chunker.Chunk, error) {
	rows, err := sq.Select(chunkColumns...).From("chunks").
		Where(sq.Eq{"file_path": filePath}).
		OrderBy("chunk_index ASC").
		RunWith(s.db).Query()
	if err != nil {
		return nil, fmt.Errorf("storage: get by file %s: %w", filePath, err)
	}
	return scanChunkRows(rows)
}

// GetAll returns every chunk in the store, ordered by id.
func (s *Store) GetAll() ([]chunker.Chunk, error) {
	rows, err := sq.Select(chunkColumns...).From("chunks").OrderBy("id ASC").RunWith(s.db).Query()
	if err != nil {
		return nil, fmt.Errorf("storage: get all: %w", err)
	}
	return scanChunkRows(rows)
}

func scanChunkRows(rows *sql.Rows) ([]chunker.Chunk, error) {
	defer rows.Close()
	var out []chunker.Chunk
	for rows.Next() {
		c, err := scanChunkRow(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: scan chunk row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Count returns the total number of indexed chunks.
func (s *Store) Count() (int, error) {
	var n int
	err := sq.Select("COUNT(*)").From("chunks").RunWith(s.db).QueryRow().Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("storage: count: %w", err)
	}
	return n, nil
}

// LatestFileHashes returns the most recently written file_hash per
// file_path, used to warm-start the Scanner (§4.5).
func (s *Store) LatestFileHashes() (map[string]string, error) {
	// With MAX(), SQLite takes the bare file_hash from the newest row.
	rows, err := sq.Select("file_path", "file_hash", "MAX(timestamp)").From("chunks").
		GroupBy("file_path").
		RunWith(s.db).Query()
	if err != nil {
		return nil, fmt.Errorf("storage: latest file hashes: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var path, hash string
		var ts int64
		if err := rows.Scan(&path, &hash, &ts); err != nil {
			return nil, fmt.Errorf("storage: scan file hash: %w", err)
		}
		out[path] = hash
	}
	return out, rows.Err()
}

// FindDefinition resolves a qualified reference ("type:name") to its
// defining chunk. Per the Open Question of spec.md §9, the qualifier
// is parsed but, by default, ignored in the lookup — matching is on
// name alone unless StrictReferenceTypeMatch is set.
func (s *Store) FindDefinition(ref string) (*chunker.Chunk, error) {
	_, name := splitRef(ref)
	if name == "" {
		return nil, nil
	}

	qb := sq.Select(chunkColumns...).From("chunks").
		Where(sq.Eq{"sequence_key": name, "is_sequence_definition": 1}).
		Limit(1)
	if s.StrictReferenceTypeMatch {
		if refType, _ := splitRef(ref); refType != "" {
			qb = qb.Where(sq.Eq{"chunk_type": refType})
		}
	}

	row := qb.RunWith(s.db).QueryRow()
	c, err := scanChunkRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: find definition %q: %w", ref, err)
	}
	return &c, nil
}

func splitRef(ref string) (refType, name string) {
	i := strings.IndexByte(ref, ':')
	if i < 0 {
		return "", ref
	}
	return ref[:i], ref[i+1:]
}

// LinkReference inserts a caller->callee edge in sequence_references.
func (s *Store) LinkReference(callerChunkID, calleeChunkID int64, sequenceKey string, timestamp int64) error {
	_, err := sq.Insert("sequence_references").
		Columns("caller_chunk_id", "callee_chunk_id", "sequence_key", "timestamp").
		Values(callerChunkID, calleeChunkID, sequenceKey, timestamp).
		RunWith(s.db).
		Exec()
	if err != nil {
		return fmt.Errorf("storage: link reference %d->%d: %w", callerChunkID, calleeChunkID, err)
	}
	return nil
}

// AllReferences returns every sequence_references edge, used by the
// graph cycles diagnostic.
type ReferenceEdge struct {
	CallerChunkID int64
	CalleeChunkID int64
	SequenceKey   string
}

func (s *Store) AllReferences() ([]ReferenceEdge, error) {
	rows, err := sq.Select("caller_chunk_id", "callee_chunk_id", "sequence_key").
		From("sequence_references").RunWith(s.db).Query()
	if err != nil {
		return nil, fmt.Errorf("storage: all references: %w", err)
	}
	defer rows.Close()

	var out []ReferenceEdge
	for rows.Next() {
		var e ReferenceEdge
		if err := rows.Scan(&e.CallerChunkID, &e.CalleeChunkID, &e.SequenceKey); err != nil {
			return nil, fmt.Errorf("storage: scan reference edge: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// DecodedEmbedding returns chunk id's embedding, consulting the
// decoded-embedding cache before decoding the stored blob.
func (s *Store) DecodedEmbedding(id int64) ([]float32, bool) {
	return s.cache.Get(id)
}

// CacheEmbedding populates the decoded-embedding cache for id — called
// by SearchEngine's dense-scoring stage after a cache miss.
func (s *Store) CacheEmbedding(id int64, vec []float32) {
	s.cache.Set(id, vec)
}
