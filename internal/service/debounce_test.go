package service

// Test Plan:
// - A single trigger fires fn once the window elapses
// - Repeated triggers for the same key within the window collapse to one fn call
// - Different keys debounce independently
// - stopAll cancels pending timers so fn never fires

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncerFiresAfterWindow(t *testing.T) {
	t.Parallel()
	d := newDebouncer(30 * time.Millisecond)

	var mu sync.Mutex
	fired := 0
	d.trigger("a", func() {
		mu.Lock()
		fired++
		mu.Unlock()
	})

	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, fired)
}

func TestDebouncerCollapsesRepeatedTriggers(t *testing.T) {
	t.Parallel()
	d := newDebouncer(40 * time.Millisecond)

	var mu sync.Mutex
	fired := 0
	fn := func() {
		mu.Lock()
		fired++
		mu.Unlock()
	}

	for i := 0; i < 5; i++ {
		d.trigger("a", fn)
		time.Sleep(10 * time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, fired)
}

func TestDebouncerKeysAreIndependent(t *testing.T) {
	t.Parallel()
	d := newDebouncer(30 * time.Millisecond)

	var mu sync.Mutex
	fired := map[string]int{}
	fn := func(key string) func() {
		return func() {
			mu.Lock()
			fired[key]++
			mu.Unlock()
		}
	}

	d.trigger("a", fn("a"))
	d.trigger("b", fn("b"))

	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, fired["a"])
	assert.Equal(t, 1, fired["b"])
}

func TestDebouncerStopAllCancelsPending(t *testing.T) {
	t.Parallel()
	d := newDebouncer(30 * time.Millisecond)

	var mu sync.Mutex
	fired := 0
	d.trigger("a", func() {
		mu.Lock()
		fired++
		mu.Unlock()
	})
	d.stopAll()

	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, fired)
}
