// Package notify is a small observer registry shared by the reactive models.
package notify

import (
	"sort"
	"sync"
)

type Hub struct {
	mu   sync.Mutex
	next int
	subs map[int]func()
}

// Subscribe registers fn and returns a function that removes it.
func (h *Hub) Subscribe(fn func()) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs == nil {
		h.subs = make(map[int]func())
	}
	id := h.next
	h.next++
	h.subs[id] = fn
	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}

// Notify calls every subscriber in registration order. It must not be called
// while holding a lock a subscriber may take.
func (h *Hub) Notify() {
	h.mu.Lock()
	ids := make([]int, 0, len(h.subs))
	for id := range h.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, h.subs[id])
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
