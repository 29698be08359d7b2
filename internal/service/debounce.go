package service

import (
	"sync"
	"time"
)

// debouncer collapses repeated triggers for the same key within
// window into a single firing of fn, per spec.md §5 ("debounced per
// file path with a 2-second collapse window"). Grounded on the
// teacher's internal/watcher.fileWatcher debounce-timer bookkeeping,
// generalized from one global timer to one timer per key.
type debouncer struct {
	window time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func newDebouncer(window time.Duration) *debouncer {
	return &debouncer{window: window, timers: make(map[string]*time.Timer)}
}

// trigger (re)starts key's timer; fn runs once the window elapses
// without another trigger for the same key.
func (d *debouncer) trigger(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if t, ok := d.timers[key]; ok {
		t.Stop()
	}
	d.timers[key] = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		delete(d.timers, key)
		d.mu.Unlock()
		fn()
	})
}

// stopAll cancels every pending timer, used by Service.Stop.
func (d *debouncer) stopAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for k, t := range d.timers {
		t.Stop()
		delete(d.timers, k)
	}
}
