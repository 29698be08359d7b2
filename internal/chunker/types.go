// Package chunker decomposes a single XML configuration artifact into
// token-bounded, context-rich chunks suitable for embedding and
// retrieval.
package chunker

// Context is the schema-agnostic, tagged map propagated down the
// traversal. Values are either a nested attribute map
// (map[string]string), the artifact metadata map, or the bare tag name
// string for attribute-less structural wrappers (see propagateContext).
type Context map[string]any

// Chunk is the atomic unit of indexing, mirroring the persisted row
// shape in internal/storage.
type Chunk struct {
	// ID is store-assigned; zero until persisted.
	ID int64

	FilePath       string
	FileHash       string
	ChunkIndex     int
	StartLine      int
	EndLine        int
	ResourceName   string
	ResourceType   string
	ChunkType      string
	ParentChunkID  *int64
	ContentHash    string
	SemanticType   string
	SemanticIntent string
	Context        Context

	SequenceKey          string // empty unless IsSequenceDefinition
	IsSequenceDefinition bool
	ReferencedSequences  []string

	EmbeddingText string

	// Embedding is populated by the pipeline after chunking, not by
	// the chunker itself.
	Embedding []float32

	// Timestamp is last-write epoch milliseconds; set by the store.
	Timestamp int64
}

// estimateTokens is a cheap, deterministic token estimate (four
// characters per token) used purely for the size-gating decision —
// not an actual tokenizer, since the real Embedder is out of scope.
func estimateTokens(s string) int {
	return len(s) / 4
}
