package chunker

import (
	"fmt"

	"github.com/minuraashen/synapse-semantic-index/internal/merkle"
	"github.com/minuraashen/synapse-semantic-index/internal/registry"
)

// DefaultMaxTokens is used when a Chunker is constructed with
// maxTokens <= 0.
const DefaultMaxTokens = 512

// Chunker partitions one XML file into chunks per §4.2.
type Chunker struct {
	Registry  *registry.Registry
	MaxTokens int
}

// New returns a Chunker backed by reg, gating chunk size at maxTokens
// (DefaultMaxTokens if maxTokens <= 0).
func New(reg *registry.Registry, maxTokens int) *Chunker {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Chunker{Registry: reg, MaxTokens: maxTokens}
}

// chunkState carries the per-file state threaded through the recursive
// descent: the source lines (for range slicing), an accumulating
// ordered chunk list, and a running chunk_index counter.
type chunkState struct {
	chunker      *Chunker
	path         string
	fileHash     string
	lines        []string
	resourceType string
	chunks       []Chunk
	nextIndex    int
}

// ChunkFile parses content and emits the ordered chunk list for path,
// obeying every invariant of §3.
func (c *Chunker) ChunkFile(path string, content []byte, fileHash string) ([]Chunk, error) {
	doc, err := ParseXML(content)
	if err != nil {
		return nil, err
	}

	_, meta, ok := c.Registry.DetectArtifact(doc.Root.Tag, doc.Root.Attrs)
	if !ok {
		meta = registry.DetectAnyArtifact(path)
	}

	state := &chunkState{
		chunker:      c,
		path:         path,
		fileHash:     fileHash,
		lines:        splitLines(string(content)),
		resourceType: meta.Type,
	}

	rootCtx := artifactContext(meta)
	rootLocal := localName(doc.Root.Tag)
	for _, child := range doc.Root.Children {
		if err := state.walk(child, rootCtx, rootLocal); err != nil {
			return nil, err
		}
	}

	if len(state.chunks) == 0 {
		// Nothing below the root produced a chunk: force-emit the root
		// element whole rather than dropping the file's content.
		rawContent := sliceLines(state.lines, doc.Root.StartLine, doc.Root.EndLine)
		refs := extractReferences(rawContent)
		embeddingText := buildEmbeddingText(rootCtx, refs, rawContent)
		if err := state.emit(doc.Root, rootCtx, doc.Root.StartLine, doc.Root.EndLine, rawContent, refs, embeddingText); err != nil {
			return nil, err
		}
	}

	return state.chunks, nil
}

// walk implements §4.2 step 3's recursive descent with token gating.
func (s *chunkState) walk(n *Node, ctx Context, parentTag string) error {
	if !isChunkable(n, parentTag, s.chunker.Registry) {
		childCtx := propagateContext(ctx, n)
		for _, child := range n.Children {
			if err := s.walk(child, childCtx, localName(n.Tag)); err != nil {
				return err
			}
		}
		return nil
	}

	startLine, endLine := expandWrapperRange(s.lines, n.StartLine, n.EndLine)
	rawContent := sliceLines(s.lines, startLine, endLine)
	refs := extractReferences(rawContent)
	embeddingText := buildEmbeddingText(ctx, refs, rawContent)

	// Connector-style parents (Rule 2) never emit themselves whole: their
	// bare-text children are each their own chunk per §4.2 step 3, so
	// always descend regardless of token budget.
	fitsBudget := estimateTokens(embeddingText) <= s.chunker.MaxTokens
	if fitsBudget && !isConnectorStyle(n.Tag) {
		return s.emit(n, ctx, startLine, endLine, rawContent, refs, embeddingText)
	}

	childCtx := propagateContext(ctx, n)
	before := len(s.chunks)
	for _, child := range n.Children {
		if err := s.walk(child, childCtx, localName(n.Tag)); err != nil {
			return err
		}
	}
	if len(s.chunks) == before {
		// Either an oversized leaf, or a connector with no element
		// children (an atomic connector call): recursion produced
		// nothing, so force-emit rather than silently dropping it.
		return s.emit(n, ctx, startLine, endLine, rawContent, refs, embeddingText)
	}
	return nil
}

// emit builds and appends one Chunk using ctx (the *parent* context —
// n's own attributes are already present in rawContent).
func (s *chunkState) emit(n *Node, ctx Context, startLine, endLine int, rawContent string, refs []string, embeddingText string) error {
	chunkType := localName(n.Tag)
	semanticType := classifySemanticType(n.Tag, s.chunker.Registry)
	semanticIntent := classifySemanticIntent(n.Tag)

	contentHash, err := merkle.ComputeChunkHash(rawContent, semanticType, semanticIntent, ctx)
	if err != nil {
		return fmt.Errorf("chunker: %s: %w", s.path, err)
	}

	chunk := Chunk{
		FilePath:             s.path,
		FileHash:             s.fileHash,
		ChunkIndex:           s.nextIndex,
		StartLine:            startLine,
		EndLine:              endLine,
		ResourceName:         resourceName(n),
		ResourceType:         s.resourceType,
		ChunkType:            chunkType,
		ContentHash:          contentHash,
		SemanticType:         semanticType,
		SemanticIntent:       semanticIntent,
		Context:              ctx,
		ReferencedSequences:  refs,
		IsSequenceDefinition: isDefinitionChunkType(chunkType),
		EmbeddingText:        embeddingText,
	}
	if chunk.IsSequenceDefinition {
		chunk.SequenceKey = resourceName(n)
	}

	s.nextIndex++
	s.chunks = append(s.chunks, chunk)
	return nil
}

func resourceName(n *Node) string {
	for _, k := range []string{"name", "key", "context"} {
		if v, ok := n.Attrs[k]; ok && v != "" {
			return v
		}
	}
	return localName(n.Tag)
}
