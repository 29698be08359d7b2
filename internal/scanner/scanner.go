// Package scanner implements C5: it walks project directories, hashes
// files in the watch set, and diffs against last-seen state to emit
// FileChange events for the Pipeline.
package scanner

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gobwas/glob"
)

// DefaultWatchExtensions are the extensions scanned per spec.md §6.
var DefaultWatchExtensions = []string{".xml", ".yaml", ".yml", ".properties", ".dmc"}

// FileChange reports that path's content hash has moved since the
// last scan, or that the file no longer exists.
type FileChange struct {
	Path   string
	Hash   string
	Exists bool
}

// Scanner walks directories, matching the watch set and excluding
// ignore globs, and diffs SHA-256 content hashes against an
// in-memory last-seen map.
type Scanner struct {
	watchExt []string
	ignore   []glob.Glob

	mu       sync.Mutex
	lastSeen map[string]string // absolute path -> last-seen hash
}

// New builds a Scanner. ignorePatterns are compiled with gobwas/glob
// the same way the teacher's FileDiscovery compiles its ignore list.
func New(watchExt []string, ignorePatterns []string) (*Scanner, error) {
	if len(watchExt) == 0 {
		watchExt = DefaultWatchExtensions
	}
	compiled := make([]glob.Glob, 0, len(ignorePatterns))
	for _, pattern := range ignorePatterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("scanner: compile ignore pattern %q: %w", pattern, err)
		}
		compiled = append(compiled, g)
	}
	return &Scanner{
		watchExt: watchExt,
		ignore:   compiled,
		lastSeen: make(map[string]string),
	}, nil
}

// WarmStart seeds the last-seen map from the store's persisted file
// hashes so a first scan after service start does not re-index
// untouched files, per spec.md §4.5.
func (s *Scanner) WarmStart(hashes map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for path, hash := range hashes {
		s.lastSeen[path] = hash
	}
}

// Scan walks dirs, hashes every watched, non-ignored file, and returns
// the set of FileChange events since the last scan (or warm start).
// Deletion detection is scoped to the directories passed in this
// call: files outside dirs are left untouched in the last-seen map,
// per spec.md §4.5's "deletion scope" rule.
func (s *Scanner) Scan(dirs []string) ([]FileChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seenThisScan := make(map[string]bool)
	var changes []FileChange

	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if s.isIgnored(path) {
					return filepath.SkipDir
				}
				return nil
			}
			if s.isIgnored(path) || !s.isWatched(path) {
				return nil
			}

			abs, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("scanner: abs path for %s: %w", path, err)
			}
			seenThisScan[abs] = true

			hash, err := hashFile(abs)
			if err != nil {
				return fmt.Errorf("scanner: hash %s: %w", abs, err)
			}

			if prev, ok := s.lastSeen[abs]; !ok || prev != hash {
				changes = append(changes, FileChange{Path: abs, Hash: hash, Exists: true})
				s.lastSeen[abs] = hash
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanner: walk %s: %w", dir, err)
		}
	}

	for abs := range s.lastSeen {
		if !s.underAnyDir(abs, dirs) {
			continue
		}
		if !seenThisScan[abs] {
			changes = append(changes, FileChange{Path: abs, Exists: false})
			delete(s.lastSeen, abs)
		}
	}

	return changes, nil
}

func (s *Scanner) underAnyDir(path string, dirs []string) bool {
	for _, dir := range dirs {
		absDir, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(absDir, path)
		if err != nil {
			continue
		}
		if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		return true
	}
	return false
}

func (s *Scanner) isWatched(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range s.watchExt {
		if ext == want {
			return true
		}
	}
	return false
}

func (s *Scanner) isIgnored(path string) bool {
	slash := filepath.ToSlash(path)
	for _, pattern := range s.ignore {
		if pattern.Match(slash) {
			return true
		}
	}
	return false
}

func hashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
