// Package search implements C7: the hybrid dense+sparse SearchEngine
// of spec.md §4.7.
package search

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/minuraashen/synapse-semantic-index/internal/chunker"
	"github.com/minuraashen/synapse-semantic-index/internal/embed"
	"github.com/minuraashen/synapse-semantic-index/internal/storage"
)

const (
	denseWeight = 0.85
	bm25Weight  = 0.15
	mmrLambda   = 0.7
	overlapMax  = 0.5
	scoreRound  = 1e-4
)

// DefaultScoreThreshold and DefaultTopK mirror spec.md §6's documented
// defaults.
const (
	DefaultScoreThreshold = 0.25
	DefaultTopK           = 10
)

// Result is one hybrid-ranked match, shaped per spec.md §4.7 step 10.
type Result struct {
	ChunkID   int64
	FilePath  string
	StartLine int
	EndLine   int
	Hierarchy []string
	Score     float64
}

// Engine answers hybrid search queries over a Store.
type Engine struct {
	store    *storage.Store
	embedder embed.Provider
}

// New returns an Engine over store, querying embedder for query
// vectors.
func New(store *storage.Store, embedder embed.Provider) *Engine {
	return &Engine{store: store, embedder: embedder}
}

// Search runs the full pipeline of spec.md §4.7: embed, adaptive-k,
// BM25 sparse stage, brute-force dense stage, fusion, filtering, MMR
// rerank, overlap dedup.
func (e *Engine) Search(ctx context.Context, query string, requestedK int, scoreThreshold float64, typeFilter string) ([]Result, error) {
	if requestedK <= 0 {
		requestedK = DefaultTopK
	}
	if scoreThreshold <= 0 {
		scoreThreshold = DefaultScoreThreshold
	}

	vecs, err := e.embedder.Embed(ctx, []string{query}, embed.ModeQuery)
	if err != nil {
		return nil, fmt.Errorf("search: embed query: %w", err)
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("search: embedder returned no vector")
	}
	queryVec := vecs[0]

	effectiveK := adaptiveK(query, requestedK)

	sparse := e.sparseScores(query, effectiveK)
	candidates, err := e.denseScores(queryVec)
	if err != nil {
		return nil, fmt.Errorf("search: dense scoring: %w", err)
	}

	for i := range candidates {
		bm25 := sparse[candidates[i].chunk.ID]
		candidates[i].hybrid = denseWeight*candidates[i].dense + bm25Weight*bm25
	}

	filtered := candidates[:0]
	for _, c := range candidates {
		if c.hybrid < scoreThreshold {
			continue
		}
		if typeFilter != "" && c.chunk.SemanticType != typeFilter {
			continue
		}
		filtered = append(filtered, c)
	}
	candidates = filtered

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].hybrid > candidates[j].hybrid })
	mmrPoolSize := 3 * effectiveK
	if mmrPoolSize > len(candidates) {
		mmrPoolSize = len(candidates)
	}
	pool := candidates[:mmrPoolSize]

	selected := mmrRerank(pool, queryVec, effectiveK)
	selected = dedupOverlap(selected)

	if len(selected) > effectiveK {
		selected = selected[:effectiveK]
	}

	out := make([]Result, len(selected))
	for i, c := range selected {
		out[i] = Result{
			ChunkID:   c.chunk.ID,
			FilePath:  c.chunk.FilePath,
			StartLine: c.chunk.StartLine,
			EndLine:   c.chunk.EndLine,
			Hierarchy: renderHierarchy(c.chunk),
			Score:     roundScore(c.hybrid),
		}
	}
	return out, nil
}

type scored struct {
	chunk  chunker.Chunk
	dense  float64
	hybrid float64
}

// sparseScores runs the FTS match stage and linearly normalizes BM25
// rank into [0, 1] across the returned set (best -> 1, worst -> 0). A
// query-syntax error is treated as an empty sparse set, per spec.md
// §4.7 step 3.
func (e *Engine) sparseScores(query string, effectiveK int) map[int64]float64 {
	out := map[int64]float64{}
	matchQuery := escapeFTSQuery(query)
	if matchQuery == "" {
		return out
	}

	rows, err := sq.Select("chunk_id", "rank").
		From("chunks_fts").
		Where(sq.Expr("chunks_fts MATCH ?", matchQuery)).
		OrderBy("rank").
		Limit(uint64(3 * effectiveK)).
		RunWith(e.store.DB()).
		Query()
	if err != nil {
		return out // invalid query syntax: empty sparse set
	}
	defer rows.Close()

	type hit struct {
		id   int64
		rank float64
	}
	var hits []hit
	for rows.Next() {
		var h hit
		if err := rows.Scan(&h.id, &h.rank); err != nil {
			continue
		}
		hits = append(hits, h)
	}
	if len(hits) == 0 {
		return out
	}

	best, worst := hits[0].rank, hits[0].rank
	for _, h := range hits {
		if h.rank < best {
			best = h.rank
		}
		if h.rank > worst {
			worst = h.rank
		}
	}
	span := worst - best
	for _, h := range hits {
		if span == 0 {
			out[h.id] = 1
			continue
		}
		// rank is negative, most negative = best.
		out[h.id] = (worst - h.rank) / span
	}
	return out
}

// denseScores decodes every chunk's embedding (consulting the
// decoded-embedding cache) and computes cosine similarity against
// queryVec — brute-force per spec.md §9.
func (e *Engine) denseScores(queryVec []float32) ([]scored, error) {
	all, err := e.store.GetAll()
	if err != nil {
		return nil, err
	}
	out := make([]scored, 0, len(all))
	for _, c := range all {
		vec, ok := e.store.DecodedEmbedding(c.ID)
		if !ok {
			vec = c.Embedding
			e.store.CacheEmbedding(c.ID, vec)
		}
		out = append(out, scored{chunk: c, dense: cosine(queryVec, vec)})
	}
	return out, nil
}

// adaptiveK implements spec.md §4.7 step 2.
func adaptiveK(query string, requestedK int) int {
	words := len(strings.Fields(query))
	switch {
	case words <= 2:
		return 8
	case requestedK <= 5:
		return requestedK
	default:
		k := requestedK + 5
		if k > 50 {
			k = 50
		}
		return k
	}
}

// cosine returns the cosine similarity of a and b, or 0 if either
// vector has zero norm.
func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// mmrRerank greedily selects up to k candidates maximizing
// λ·relevance − (1−λ)·max_sim_to_selected, λ=0.7. Ties favor the
// earlier candidate (stable scan order).
func mmrRerank(pool []scored, queryVec []float32, k int) []scored {
	if k > len(pool) {
		k = len(pool)
	}
	selected := make([]scored, 0, k)
	used := make([]bool, len(pool))

	for len(selected) < k {
		bestIdx := -1
		bestScore := math.Inf(-1)
		for i, c := range pool {
			if used[i] {
				continue
			}
			maxSim := 0.0
			for _, s := range selected {
				sim := cosine(c.chunk.Embedding, s.chunk.Embedding)
				if sim > maxSim {
					maxSim = sim
				}
			}
			mmr := mmrLambda*c.hybrid - (1-mmrLambda)*maxSim
			if mmr > bestScore {
				bestScore = mmr
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}
		used[bestIdx] = true
		selected = append(selected, pool[bestIdx])
	}
	return selected
}

// dedupOverlap drops a candidate if an already-kept result in the
// same file has an overlapping line range whose overlap ratio exceeds
// 0.5, per spec.md §4.7 step 9.
func dedupOverlap(in []scored) []scored {
	var kept []scored
	for _, c := range in {
		drop := false
		for _, k := range kept {
			if k.chunk.FilePath != c.chunk.FilePath {
				continue
			}
			overlap := overlapLines(c.chunk.StartLine, c.chunk.EndLine, k.chunk.StartLine, k.chunk.EndLine)
			if overlap <= 0 {
				continue
			}
			spanSelf := c.chunk.EndLine - c.chunk.StartLine + 1
			spanOther := k.chunk.EndLine - k.chunk.StartLine + 1
			minSpan := spanSelf
			if spanOther < minSpan {
				minSpan = spanOther
			}
			if minSpan > 0 && float64(overlap)/float64(minSpan) > overlapMax {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, c)
		}
	}
	return kept
}

func overlapLines(aStart, aEnd, bStart, bEnd int) int {
	start := aStart
	if bStart > start {
		start = bStart
	}
	end := aEnd
	if bEnd < end {
		end = bEnd
	}
	if end < start {
		return 0
	}
	return end - start + 1
}

func roundScore(v float64) float64 {
	return math.Round(v/scoreRound) * scoreRound
}

// renderHierarchy builds the xml_element_hierarchy of spec.md §4.7,
// omitting absent levels.
func renderHierarchy(c chunker.Chunk) []string {
	var levels []string

	if artifact, ok := c.Context["artifact"].(map[string]any); ok {
		artifactType, _ := artifact["type"].(string)
		name, _ := artifact["name"].(string)
		if artifactType != "" {
			levels = append(levels, fmt.Sprintf("%s:%s", artifactType, name))
		}
	}

	if resource, ok := c.Context["resource"].(map[string]any); ok {
		method, _ := resource["methods"].(string)
		uri, _ := resource["uri-template"].(string)
		if method != "" || uri != "" {
			levels = append(levels, strings.TrimSpace(fmt.Sprintf("resource:%s %s", method, uri)))
		}
	}

	if c.IsSequenceDefinition && c.SequenceKey != "" {
		levels = append(levels, fmt.Sprintf("sequence:%s", c.SequenceKey))
	}

	levels = append(levels, fmt.Sprintf("%s:%s", c.ChunkType, c.ResourceName))
	return levels
}

// escapeFTSQuery sanitizes free text into an FTS5 MATCH expression,
// quoting the whole input as a phrase so punctuation in chunk text
// never produces an FTS5 syntax error.
func escapeFTSQuery(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}
	escaped := strings.ReplaceAll(trimmed, `"`, `""`)
	return `"` + escaped + `"`
}
