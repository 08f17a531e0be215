package keyserver

import (
	"context"
	"sync"
)

// Broadcaster is a single-writer, multi-reader slot: one background
// updater calls Set on every tick, and any number of request handlers
// call Get or Wait without blocking the writer or each other. It plays
// the role the teacher's bootstrap dealer gives its mutex-guarded
// generation counter plus broadcast channel, repointed at a plain
// value slot instead of reshare commitments.
type Broadcaster[T any] struct {
	mu         sync.RWMutex
	value      T
	generation uint64
	populated  bool
	changed    chan struct{}
}

// NewBroadcaster returns an empty slot; until the first Set, Get
// reports it unpopulated and Wait blocks.
func NewBroadcaster[T any]() *Broadcaster[T] {
	return &Broadcaster[T]{changed: make(chan struct{})}
}

// Set stores a new value and wakes every goroutine parked in Wait.
func (b *Broadcaster[T]) Set(v T) {
	b.mu.Lock()
	b.value = v
	b.generation++
	b.populated = true
	old := b.changed
	b.changed = make(chan struct{})
	b.mu.Unlock()
	close(old)
}

// Get returns the current value and whether the slot has ever been
// populated.
func (b *Broadcaster[T]) Get() (T, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.value, b.populated
}

// Generation reports how many times Set has been called.
func (b *Broadcaster[T]) Generation() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.generation
}

// Wait blocks until the slot has been populated at least once, or ctx
// is done. Used at startup: the server must not begin serving until
// both the checkpoint-timestamp and reference-gas-price slots have
// been populated.
func (b *Broadcaster[T]) Wait(ctx context.Context) (T, error) {
	for {
		b.mu.RLock()
		v, ok := b.value, b.populated
		wait := b.changed
		b.mu.RUnlock()
		if ok {
			return v, nil
		}
		select {
		case <-wait:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}
