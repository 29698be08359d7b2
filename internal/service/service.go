// Package service implements C8: the per-project singleton facade that
// owns a project's Store, Pipeline, and file watcher, and exposes the
// lifecycle state machine of spec.md §4.8.
package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/minuraashen/synapse-semantic-index/internal/chunker"
	"github.com/minuraashen/synapse-semantic-index/internal/embed"
	"github.com/minuraashen/synapse-semantic-index/internal/pipeline"
	"github.com/minuraashen/synapse-semantic-index/internal/registry"
	"github.com/minuraashen/synapse-semantic-index/internal/scanner"
	"github.com/minuraashen/synapse-semantic-index/internal/storage"
)

// State is one state of the §4.8 lifecycle machine:
// uninitialized -> initializing -> ready | failed.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateInitializing  State = "initializing"
	StateReady         State = "ready"
	StateFailed        State = "failed"
)

// DebounceWindow is the per-file-path collapse window for
// notify_file_change, per spec.md §5.
const DebounceWindow = 2 * time.Second

// Options configures a Service beyond its required project path,
// directories, and embedder.
type Options struct {
	DBPath         string   // defaults to <projectPath>/.xindex/index.db
	WatchExt       []string // defaults to scanner.DefaultWatchExtensions
	IgnorePatterns []string
	MaxTokens      int // defaults to chunker.DefaultMaxTokens
	PollInterval   time.Duration
}

// Service is the per-project facade. It is never constructed directly
// by callers outside this package — use Get to obtain the project's
// singleton instance.
type Service struct {
	projectPath string
	dirs        []string
	opts        Options
	embedder    embed.Provider

	mu        sync.Mutex
	state     State
	startErr  error
	startDone chan struct{}

	store    *storage.Store
	pipeline *pipeline.Pipeline
	scan     *scanner.Scanner
	watcher  *fileWatcher
	pollStop chan struct{}

	readyMu        sync.Mutex
	readyResolved  bool
	readySuccess   bool
	readyCallbacks []func(bool)

	debounce *debouncer
}

var (
	registryMu sync.Mutex
	registryM  = map[string]*Service{}
)

// Get returns the singleton Service for projectPath, creating it on
// first call. The path is normalized to an absolute path so that
// "." and its absolute equivalent resolve to the same instance.
func Get(projectPath string, dirs []string, embedder embed.Provider, opts Options) (*Service, error) {
	norm, err := normalizePath(projectPath)
	if err != nil {
		return nil, fmt.Errorf("service: normalize project path: %w", err)
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	if s, ok := registryM[norm]; ok {
		return s, nil
	}

	s := &Service{
		projectPath: norm,
		dirs:        dirs,
		opts:        opts,
		embedder:    embedder,
		state:       StateUninitialized,
		debounce:    newDebouncer(DebounceWindow),
	}
	registryM[norm] = s
	return s, nil
}

func normalizePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}

// IsAvailable reports whether the service is ready to serve queries.
func (s *Service) IsAvailable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateReady
}

// IsInitializing reports whether a start() is currently in flight.
func (s *Service) IsInitializing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateInitializing
}

// Start is idempotent and coalesces concurrent callers onto the same
// init task. On failure the in-flight task handle is cleared so a
// subsequent Start retries from scratch.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateReady:
		s.mu.Unlock()
		return nil
	case StateInitializing:
		done := s.startDone
		s.mu.Unlock()
		<-done
		s.mu.Lock()
		err := s.startErr
		s.mu.Unlock()
		return err
	default: // uninitialized or failed: start a fresh attempt
		s.state = StateInitializing
		s.startDone = make(chan struct{})
		done := s.startDone
		s.mu.Unlock()

		err := s.doStart(ctx)

		s.mu.Lock()
		if err != nil {
			s.state = StateFailed
			s.startErr = err
		} else {
			s.state = StateReady
			s.startErr = nil
		}
		s.mu.Unlock()
		close(done)

		s.fireReady(err == nil)
		return err
	}
}

func (s *Service) doStart(ctx context.Context) error {
	dbPath := s.opts.DBPath
	if dbPath == "" {
		dbPath = filepath.Join(s.projectPath, ".xindex", "index.db")
	}
	store, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("service: open store: %w", err)
	}

	sc, err := scanner.New(s.opts.WatchExt, s.opts.IgnorePatterns)
	if err != nil {
		store.Close()
		return fmt.Errorf("service: new scanner: %w", err)
	}

	ch := chunker.New(registry.New(), s.opts.MaxTokens)
	pl := pipeline.New(store, sc, ch, s.embedder)

	if err := pl.ProcessInitial(ctx, s.dirs, nil); err != nil {
		store.Close()
		return fmt.Errorf("service: initial index: %w", err)
	}

	watchExt := s.opts.WatchExt
	if len(watchExt) == 0 {
		watchExt = scanner.DefaultWatchExtensions
	}
	fw, err := newFileWatcher(s.dirs, watchExt, func(changedPath string) {
		s.debounce.trigger(changedPath, func() {
			dir := filepath.Dir(changedPath)
			_ = pl.ProcessIncremental(context.Background(), []string{dir}, nil)
		})
	})
	if err != nil {
		store.Close()
		return fmt.Errorf("service: start file watcher: %w", err)
	}

	pollStop := make(chan struct{})
	if s.opts.PollInterval > 0 {
		go s.pollLoop(pl, s.opts.PollInterval, pollStop)
	}

	s.mu.Lock()
	s.store = store
	s.pipeline = pl
	s.scan = sc
	s.watcher = fw
	s.pollStop = pollStop
	s.mu.Unlock()

	return nil
}

// pollLoop is a fallback re-index sweep for environments where
// fsnotify misses events (some network filesystems, editors that
// replace-on-save outside the watched inode). It runs at most once
// per interval and is cancelled by Stop.
func (s *Service) pollLoop(pl *pipeline.Pipeline, interval time.Duration, stop chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_ = pl.ProcessIncremental(context.Background(), s.dirs, nil)
		case <-stop:
			return
		}
	}
}

// OnReady registers a one-shot callback for initialization leaving the
// initializing state. If resolution has already happened, cb fires
// immediately (synchronously) with the recorded outcome.
func (s *Service) OnReady(cb func(success bool)) {
	s.readyMu.Lock()
	if s.readyResolved {
		success := s.readySuccess
		s.readyMu.Unlock()
		cb(success)
		return
	}
	s.readyCallbacks = append(s.readyCallbacks, cb)
	s.readyMu.Unlock()
}

func (s *Service) fireReady(success bool) {
	s.readyMu.Lock()
	if s.readyResolved {
		s.readyMu.Unlock()
		return
	}
	s.readyResolved = true
	s.readySuccess = success
	callbacks := s.readyCallbacks
	s.readyCallbacks = nil
	s.readyMu.Unlock()

	for _, cb := range callbacks {
		cb(success)
	}
}

// WaitForReady blocks until initialization leaves the initializing
// state (or ctx is done), returning whether it succeeded. It never
// returns an error, per spec.md §4.8.
func (s *Service) WaitForReady(ctx context.Context) bool {
	for {
		s.mu.Lock()
		state := s.state
		done := s.startDone
		s.mu.Unlock()

		switch state {
		case StateReady:
			return true
		case StateFailed, StateUninitialized:
			return false
		}

		select {
		case <-done:
		case <-ctx.Done():
			return false
		}
	}
}

// NotifyFileChange runs an immediate incremental pass limited to
// path's directory, debounced 2 seconds per file path.
func (s *Service) NotifyFileChange(path string) {
	s.mu.Lock()
	pl := s.pipeline
	s.mu.Unlock()
	if pl == nil {
		return
	}
	dir := filepath.Dir(path)
	s.debounce.trigger(path, func() {
		_ = pl.ProcessIncremental(context.Background(), []string{dir}, nil)
	})
}

// Stop cancels the poll timer, disposes the file watcher, closes the
// embedder and store (errors swallowed), and clears state so a later
// Start can rebuild the service.
func (s *Service) Stop() {
	s.mu.Lock()
	watcher := s.watcher
	store := s.store
	pollStop := s.pollStop
	s.watcher = nil
	s.store = nil
	s.pipeline = nil
	s.scan = nil
	s.pollStop = nil
	s.state = StateUninitialized
	s.startErr = nil
	s.mu.Unlock()

	if pollStop != nil {
		close(pollStop)
	}

	s.debounce.stopAll()

	if watcher != nil {
		watcher.close()
	}
	if store != nil {
		_ = store.Close()
	}
	_ = s.embedder.Close()

	s.readyMu.Lock()
	s.readyResolved = false
	s.readySuccess = false
	s.readyCallbacks = nil
	s.readyMu.Unlock()
}
