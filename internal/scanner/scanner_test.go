package scanner

// Test Plan:
// - New files with changed content are reported as changes
// - Re-scanning an unchanged tree reports no changes
// - Modifying a file's content reports a change with a new hash
// - Removing a watched file reports Exists=false
// - Non-watched extensions are never reported
// - Ignore patterns exclude matching files and whole directories
// - WarmStart seeds last-seen state so an unchanged file isn't re-reported
// - Deletion detection is scoped to the directories passed to Scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestScanReportsNewFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "api.xml"), "<api/>")

	s, err := New(nil, nil)
	require.NoError(t, err)

	changes, err := s.Scan([]string{dir})
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.True(t, changes[0].Exists)
	assert.NotEmpty(t, changes[0].Hash)
}

func TestScanIsQuietOnUnchangedTree(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "api.xml"), "<api/>")

	s, err := New(nil, nil)
	require.NoError(t, err)

	_, err = s.Scan([]string{dir})
	require.NoError(t, err)

	changes, err := s.Scan([]string{dir})
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestScanDetectsModification(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "api.xml")
	writeFile(t, path, "<api/>")

	s, err := New(nil, nil)
	require.NoError(t, err)
	first, err := s.Scan([]string{dir})
	require.NoError(t, err)
	require.Len(t, first, 1)

	writeFile(t, path, "<api version=\"2\"/>")
	second, err := s.Scan([]string{dir})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.NotEqual(t, first[0].Hash, second[0].Hash)
}

func TestScanDetectsDeletion(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "api.xml")
	writeFile(t, path, "<api/>")

	s, err := New(nil, nil)
	require.NoError(t, err)
	_, err = s.Scan([]string{dir})
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))
	changes, err := s.Scan([]string{dir})
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.False(t, changes[0].Exists)
}

func TestScanIgnoresUnwatchedExtensions(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "README.md"), "# hi")

	s, err := New(nil, nil)
	require.NoError(t, err)

	changes, err := s.Scan([]string{dir})
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestScanHonorsIgnorePatterns(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "api.xml"), "<api/>")
	writeFile(t, filepath.Join(dir, "target", "generated.xml"), "<api/>")

	s, err := New(nil, []string{"**/target/**"})
	require.NoError(t, err)

	changes, err := s.Scan([]string{dir})
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Contains(t, changes[0].Path, "api.xml")
}

func TestWarmStartSuppressesReindexOfUntouchedFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "api.xml")
	writeFile(t, path, "<api/>")

	abs, err := filepath.Abs(path)
	require.NoError(t, err)
	hash, err := hashFile(abs)
	require.NoError(t, err)

	s, err := New(nil, nil)
	require.NoError(t, err)
	s.WarmStart(map[string]string{abs: hash})

	changes, err := s.Scan([]string{dir})
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestDeletionScopeIsLimitedToScannedDirs(t *testing.T) {
	t.Parallel()
	dirA := t.TempDir()
	dirB := t.TempDir()
	writeFile(t, filepath.Join(dirA, "a.xml"), "<api/>")
	writeFile(t, filepath.Join(dirB, "b.xml"), "<api/>")

	s, err := New(nil, nil)
	require.NoError(t, err)
	_, err = s.Scan([]string{dirA, dirB})
	require.NoError(t, err)

	// Scanning only dirA must not report dirB's file as deleted.
	changes, err := s.Scan([]string{dirA})
	require.NoError(t, err)
	assert.Empty(t, changes)
}
