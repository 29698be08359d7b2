package pipeline

// Test Plan:
// - ProcessInitial indexes every file under dirs on a fresh store
// - ProcessInitial warm-starts from the store, skipping unchanged files
// - Editing a chunk's content in place (same line range) re-embeds it
//   but keeps its db id
// - An untouched chunk is reused: its embedding and db id survive
// - Deleting a file removes every one of its chunks
// - A <sequence key="..."> reference resolves to its call-template/sequence definition
// - Progress stages are reported in scanning -> embedding -> updating -> complete order

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minuraashen/synapse-semantic-index/internal/chunker"
	"github.com/minuraashen/synapse-semantic-index/internal/embed"
	"github.com/minuraashen/synapse-semantic-index/internal/registry"
	"github.com/minuraashen/synapse-semantic-index/internal/scanner"
	"github.com/minuraashen/synapse-semantic-index/internal/storage"
)

const sampleAPI = `<api name="OrderAPI" context="/orders" xmlns="http://ws.apache.org/ns/synapse">
  <resource methods="GET" uri-template="/orders/{id}">
    <inSequence>
      <sequence key="processOrder"/>
      <respond/>
    </inSequence>
  </resource>
</api>`

const sampleSequenceDef = `<sequence name="processOrder" xmlns="http://ws.apache.org/ns/synapse">
  <log level="full"/>
  <respond/>
</sequence>`

func newTestPipeline(t *testing.T) (*Pipeline, *storage.Store) {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	sc, err := scanner.New(nil, nil)
	require.NoError(t, err)

	reg := registry.New()
	ch := chunker.New(reg, chunker.DefaultMaxTokens)
	embedder := embed.NewMockProvider(16)

	return New(store, sc, ch, embedder), store
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestProcessInitialIndexesFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "api.xml"), sampleAPI)

	p, store := newTestPipeline(t)
	require.NoError(t, p.ProcessInitial(context.Background(), []string{dir}, nil))

	n, err := store.Count()
	require.NoError(t, err)
	assert.Greater(t, n, 0)
}

func TestProcessInitialWarmStartSkipsUnchangedFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "api.xml"), sampleAPI)

	p, store := newTestPipeline(t)
	require.NoError(t, p.ProcessInitial(context.Background(), []string{dir}, nil))

	before, err := store.GetAll()
	require.NoError(t, err)

	var stages []Stage
	require.NoError(t, p.ProcessInitial(context.Background(), []string{dir}, func(s Stage, _ string, _, _ int) {
		stages = append(stages, s)
	}))

	after, err := store.GetAll()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestReusesUnchangedChunkEmbeddingAndID(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "api.xml")
	writeFile(t, path, sampleAPI)

	p, store := newTestPipeline(t)
	require.NoError(t, p.ProcessInitial(context.Background(), []string{dir}, nil))

	first, err := store.GetByFile(path)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	// Append a trailing newline: the file hash changes so the scanner
	// reports the file changed, but every chunk's line range and content
	// hash is identical.
	writeFile(t, path, sampleAPI+"\n")
	require.NoError(t, p.ProcessIncremental(context.Background(), []string{dir}, nil))

	second, err := store.GetByFile(path)
	require.NoError(t, err)
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].Embedding, second[i].Embedding)
	}
}

func TestModifiedChunkIsReembeddedButKeepsID(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "api.xml")
	writeFile(t, path, sampleAPI)

	p, store := newTestPipeline(t)
	require.NoError(t, p.ProcessInitial(context.Background(), []string{dir}, nil))

	first, err := store.GetByFile(path)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	modified := `<api name="OrderAPI" context="/orders" xmlns="http://ws.apache.org/ns/synapse">
  <resource methods="GET" uri-template="/orders/{id}">
    <inSequence>
      <sequence key="processOrder"/>
      <log level="full"/>
    </inSequence>
  </resource>
</api>`
	writeFile(t, path, modified)
	require.NoError(t, p.ProcessIncremental(context.Background(), []string{dir}, nil))

	second, err := store.GetByFile(path)
	require.NoError(t, err)
	require.NotEmpty(t, second)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.NotEqual(t, first[0].ContentHash, second[0].ContentHash)
}

func TestDeletedFileRemovesAllItsChunks(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "api.xml")
	writeFile(t, path, sampleAPI)

	p, store := newTestPipeline(t)
	require.NoError(t, p.ProcessInitial(context.Background(), []string{dir}, nil))

	chunks, err := store.GetByFile(path)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	require.NoError(t, os.Remove(path))
	require.NoError(t, p.ProcessIncremental(context.Background(), []string{dir}, nil))

	remaining, err := store.GetByFile(path)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestReferenceResolvesToDefinition(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "api.xml"), sampleAPI)
	writeFile(t, filepath.Join(dir, "sequence.xml"), sampleSequenceDef)

	p, store := newTestPipeline(t)
	require.NoError(t, p.ProcessInitial(context.Background(), []string{dir}, nil))

	edges, err := store.AllReferences()
	require.NoError(t, err)
	require.NotEmpty(t, edges)
	assert.Equal(t, "processOrder", edges[0].SequenceKey)
}

func TestProgressStagesReportInOrder(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "api.xml"), sampleAPI)

	p, _ := newTestPipeline(t)

	var stages []Stage
	require.NoError(t, p.ProcessInitial(context.Background(), []string{dir}, func(s Stage, _ string, _, _ int) {
		stages = append(stages, s)
	}))

	require.NotEmpty(t, stages)
	assert.Equal(t, StageScanning, stages[0])
	assert.Equal(t, StageComplete, stages[len(stages)-1])
}
