package service

// Test Plan:
// - Get returns the same instance for the same project path, even via
//   a differently-spelled (trailing-separator) path
// - Start transitions uninitialized -> ready and indexes the project
// - Start is idempotent: a second call on a ready service is a no-op
// - Concurrent Start calls coalesce onto one init task
// - OnReady fires once, synchronously, for a subscriber registered
//   after readiness already resolved
// - WaitForReady resolves immediately once the service is ready
// - Stop tears down the service so a later Start rebuilds it from
//   uninitialized

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minuraashen/synapse-semantic-index/internal/embed"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

const sampleAPI = `<api name="OrderAPI" context="/orders" xmlns="http://ws.apache.org/ns/synapse">
  <resource methods="GET" uri-template="/orders/{id}">
    <inSequence>
      <log level="full"/>
      <respond/>
    </inSequence>
  </resource>
</api>`

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "api.xml"), sampleAPI)

	s, err := Get(dir, []string{dir}, embed.NewMockProvider(16), Options{
		DBPath: filepath.Join(t.TempDir(), "index.db"),
	})
	require.NoError(t, err)
	t.Cleanup(s.Stop)
	return s, dir
}

func TestGetReturnsSameSingletonForEquivalentPaths(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	a, err := Get(dir, []string{dir}, embed.NewMockProvider(8), Options{})
	require.NoError(t, err)
	b, err := Get(dir+string(filepath.Separator), []string{dir}, embed.NewMockProvider(8), Options{})
	require.NoError(t, err)

	assert.Same(t, a, b)
}

func TestStartTransitionsToReady(t *testing.T) {
	t.Parallel()
	s, _ := newTestService(t)

	assert.False(t, s.IsAvailable())
	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsAvailable())
	assert.False(t, s.IsInitializing())
}

func TestStartIsIdempotentOnReady(t *testing.T) {
	t.Parallel()
	s, _ := newTestService(t)
	require.NoError(t, s.Start(context.Background()))

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsAvailable())
}

func TestConcurrentStartsCoalesce(t *testing.T) {
	t.Parallel()
	s, _ := newTestService(t)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Start(context.Background())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.True(t, s.IsAvailable())
}

func TestOnReadyFiresForLateSubscriber(t *testing.T) {
	t.Parallel()
	s, _ := newTestService(t)
	require.NoError(t, s.Start(context.Background()))

	var got bool
	var called bool
	s.OnReady(func(success bool) {
		called = true
		got = success
	})

	assert.True(t, called)
	assert.True(t, got)
}

func TestWaitForReadyResolvesWhenReady(t *testing.T) {
	t.Parallel()
	s, _ := newTestService(t)
	require.NoError(t, s.Start(context.Background()))

	assert.True(t, s.WaitForReady(context.Background()))
}

func TestStopAllowsRebuildViaStart(t *testing.T) {
	t.Parallel()
	s, _ := newTestService(t)
	require.NoError(t, s.Start(context.Background()))

	s.Stop()
	assert.False(t, s.IsAvailable())

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsAvailable())
}
