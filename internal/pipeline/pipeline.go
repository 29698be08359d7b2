// Package pipeline implements C6: it orchestrates Scanner -> Chunker
// -> (reuse or embed) -> Store, guaranteeing incremental correctness
// per spec.md §4.6.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/minuraashen/synapse-semantic-index/internal/chunker"
	"github.com/minuraashen/synapse-semantic-index/internal/embed"
	"github.com/minuraashen/synapse-semantic-index/internal/scanner"
	"github.com/minuraashen/synapse-semantic-index/internal/storage"
)

// Pipeline wires the Scanner, Chunker, embedding Provider, and Store
// together into the two entry points of spec.md §4.6.
type Pipeline struct {
	store    *storage.Store
	scan     *scanner.Scanner
	chunk    *chunker.Chunker
	embedder embed.Provider
}

// New returns a Pipeline over the given collaborators.
func New(store *storage.Store, sc *scanner.Scanner, ch *chunker.Chunker, embedder embed.Provider) *Pipeline {
	return &Pipeline{store: store, scan: sc, chunk: ch, embedder: embedder}
}

// ProcessInitial warm-starts the scanner from the store's persisted
// file hashes (so untouched files are not re-indexed) and then runs a
// full scan-and-process pass over dirs.
func (p *Pipeline) ProcessInitial(ctx context.Context, dirs []string, onProgress ProgressFunc) error {
	hashes, err := p.store.LatestFileHashes()
	if err != nil {
		return fmt.Errorf("pipeline: process initial: %w", err)
	}
	p.scan.WarmStart(hashes)
	return p.scanAndProcess(ctx, dirs, onProgress)
}

// ProcessIncremental runs a scan-and-process pass over dirs without
// re-seeding the scanner, used for steady-state re-indexing (watcher
// events, notify_file_change).
func (p *Pipeline) ProcessIncremental(ctx context.Context, dirs []string, onProgress ProgressFunc) error {
	return p.scanAndProcess(ctx, dirs, onProgress)
}

func (p *Pipeline) scanAndProcess(ctx context.Context, dirs []string, onProgress ProgressFunc) error {
	if onProgress == nil {
		onProgress = noopProgress
	}
	onProgress(StageScanning, "scanning directories", 0, 0)
	changes, err := p.scan.Scan(dirs)
	if err != nil {
		return fmt.Errorf("pipeline: scan: %w", err)
	}
	return p.ProcessChanges(ctx, changes, onProgress)
}

// ProcessChanges is the shared funnel both entry points drive through:
// for every changed file it either drops all of that file's chunks
// (deletion) or re-chunks and reconciles against the existing rows.
func (p *Pipeline) ProcessChanges(ctx context.Context, changes []scanner.FileChange, onProgress ProgressFunc) error {
	if onProgress == nil {
		onProgress = noopProgress
	}
	total := len(changes)
	onProgress(StageScanning, fmt.Sprintf("%d changed files", total), 0, total)

	for i, change := range changes {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !change.Exists {
			onProgress(StageUpdating, change.Path, i, total)
			if _, err := p.store.DeleteByFileWithIDs(change.Path); err != nil {
				return fmt.Errorf("pipeline: delete %s: %w", change.Path, err)
			}
			continue
		}

		if err := p.processFile(ctx, change, i, total, onProgress); err != nil {
			log.Printf("pipeline: warning: failed to process %s: %v", change.Path, err)
			continue
		}
	}

	onProgress(StageComplete, "", total, total)
	return nil
}

// processFile re-chunks one changed file and reconciles the result
// against its existing rows per spec.md §4.6's slot-matching
// algorithm.
func (p *Pipeline) processFile(ctx context.Context, change scanner.FileChange, idx, total int, onProgress ProgressFunc) error {
	onProgress(StageScanning, change.Path, idx, total)

	content, err := os.ReadFile(change.Path)
	if err != nil {
		return fmt.Errorf("read %s: %w", change.Path, err)
	}

	newChunks, err := p.chunk.ChunkFile(change.Path, content, change.Hash)
	if err != nil {
		return fmt.Errorf("chunk %s: %w", change.Path, err)
	}

	existing, err := p.store.GetByFile(change.Path)
	if err != nil {
		return fmt.Errorf("load existing chunks for %s: %w", change.Path, err)
	}

	type slot struct {
		id          int64
		contentHash string
		embedding   []float32
	}
	bySlot := make(map[slotKey]slot, len(existing))
	for _, c := range existing {
		bySlot[keyOf(c)] = slot{id: c.ID, contentHash: c.ContentHash, embedding: c.Embedding}
	}

	matched := make(map[int64]bool, len(existing))
	needsEmbed := make([]int, 0)

	for i := range newChunks {
		if s, ok := bySlot[keyOf(newChunks[i])]; ok {
			newChunks[i].ID = s.id
			if s.contentHash == newChunks[i].ContentHash {
				newChunks[i].Embedding = s.embedding // reuse: keep embedding + id
			} else {
				needsEmbed = append(needsEmbed, i) // re-embed: overwrite
			}
			matched[s.id] = true
		} else {
			needsEmbed = append(needsEmbed, i) // insert: compute embedding
		}
	}

	if len(needsEmbed) > 0 {
		onProgress(StageEmbedding, change.Path, idx, total)
		texts := make([]string, len(needsEmbed))
		for i, ni := range needsEmbed {
			texts[i] = newChunks[ni].EmbeddingText
		}
		vecs, err := p.embedder.Embed(ctx, texts, embed.ModePassage)
		if err != nil {
			return fmt.Errorf("embed %s: %w", change.Path, err)
		}
		for i, ni := range needsEmbed {
			newChunks[ni].Embedding = vecs[i]
		}
	}

	onProgress(StageUpdating, change.Path, idx, total)
	newChunkIndexToID := make(map[int]int64, len(newChunks))
	now := time.Now().UnixMilli()
	for i := range newChunks {
		newChunks[i].Timestamp = now
		if newChunks[i].ID != 0 {
			if err := p.store.Update(&newChunks[i]); err != nil {
				return fmt.Errorf("update chunk %d in %s: %w", newChunks[i].ID, change.Path, err)
			}
		} else {
			id, err := p.store.Insert(&newChunks[i])
			if err != nil {
				return fmt.Errorf("insert chunk in %s: %w", change.Path, err)
			}
			matched[id] = true
		}
		newChunkIndexToID[newChunks[i].ChunkIndex] = newChunks[i].ID
	}

	for _, c := range existing {
		if !matched[c.ID] {
			if err := p.store.Delete(c.ID); err != nil {
				return fmt.Errorf("delete stale chunk %d in %s: %w", c.ID, change.Path, err)
			}
		}
	}

	p.resolveReferences(newChunks, newChunkIndexToID, now)
	return nil
}

// resolveReferences links every reference a freshly written chunk
// carries to its definition, best-effort: unresolved references are
// silently skipped per spec.md §4.6.
func (p *Pipeline) resolveReferences(chunks []chunker.Chunk, indexToID map[int]int64, timestamp int64) {
	for _, c := range chunks {
		if len(c.ReferencedSequences) == 0 {
			continue
		}
		callerID := indexToID[c.ChunkIndex]
		for _, ref := range c.ReferencedSequences {
			def, err := p.store.FindDefinition(ref)
			if err != nil || def == nil {
				continue
			}
			if err := p.store.LinkReference(callerID, def.ID, def.SequenceKey, timestamp); err != nil {
				log.Printf("pipeline: warning: failed to link reference %s: %v", ref, err)
			}
		}
	}
}

type slotKey struct {
	chunkIndex int
	startLine  int
	endLine    int
}

func keyOf(c chunker.Chunk) slotKey {
	return slotKey{chunkIndex: c.ChunkIndex, startLine: c.StartLine, endLine: c.EndLine}
}
