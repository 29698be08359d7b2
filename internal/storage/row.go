package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/minuraashen/synapse-semantic-index/internal/chunker"
)

var chunkColumns = []string{
	"id", "file_path", "file_hash", "resource_name", "resource_type",
	"chunk_type", "chunk_index", "start_line", "end_line", "embedding",
	"parent_chunk_id", "timestamp", "content_hash", "semantic_type",
	"semantic_intent", "context_json", "sequence_key",
	"is_sequence_definition", "referenced_sequences", "embedding_text",
}

func contextToJSON(ctx chunker.Context) (string, error) {
	if len(ctx) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(ctx)
	if err != nil {
		return "", fmt.Errorf("encode context: %w", err)
	}
	return string(b), nil
}

func jsonToContext(raw string) (chunker.Context, error) {
	if raw == "" {
		return chunker.Context{}, nil
	}
	var ctx chunker.Context
	if err := json.Unmarshal([]byte(raw), &ctx); err != nil {
		return nil, fmt.Errorf("decode context: %w", err)
	}
	return ctx, nil
}

func refsToJSON(refs []string) (sql.NullString, error) {
	if len(refs) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(refs)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode references: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func jsonToRefs(raw sql.NullString) ([]string, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var refs []string
	if err := json.Unmarshal([]byte(raw.String), &refs); err != nil {
		return nil, fmt.Errorf("decode references: %w", err)
	}
	return refs, nil
}

// scanChunkRow reads one chunks-table row (columns in chunkColumns
// order) into a chunker.Chunk.
func scanChunkRow(scanner interface {
	Scan(dest ...any) error
}) (chunker.Chunk, error) {
	var (
		c               chunker.Chunk
		embeddingBytes  []byte
		parentChunkID   sql.NullInt64
		contextJSON     string
		sequenceKey     sql.NullString
		isDefinitionInt int
		refsRaw         sql.NullString
	)

	err := scanner.Scan(
		&c.ID, &c.FilePath, &c.FileHash, &c.ResourceName, &c.ResourceType,
		&c.ChunkType, &c.ChunkIndex, &c.StartLine, &c.EndLine, &embeddingBytes,
		&parentChunkID, &c.Timestamp, &c.ContentHash, &c.SemanticType,
		&c.SemanticIntent, &contextJSON, &sequenceKey,
		&isDefinitionInt, &refsRaw, &c.EmbeddingText,
	)
	if err != nil {
		return chunker.Chunk{}, err
	}

	c.Embedding, err = DeserializeEmbedding(embeddingBytes)
	if err != nil {
		return chunker.Chunk{}, err
	}
	if parentChunkID.Valid {
		id := parentChunkID.Int64
		c.ParentChunkID = &id
	}
	c.Context, err = jsonToContext(contextJSON)
	if err != nil {
		return chunker.Chunk{}, err
	}
	if sequenceKey.Valid {
		c.SequenceKey = sequenceKey.String
	}
	c.IsSequenceDefinition = isDefinitionInt != 0
	c.ReferencedSequences, err = jsonToRefs(refsRaw)
	if err != nil {
		return chunker.Chunk{}, err
	}
	return c, nil
}

func nullableInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
