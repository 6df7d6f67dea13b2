package storage

import (
	"encoding/json"
	"sync"

	"github.com/julianstephens/hemma/internal/logger"
)

// Value is a typed value persisted under one key.
//
// Get returns the initial value until Hydrate has read durable storage; the
// switch to the stored value happens once, under the lock. Set updates memory
// first and then writes through; write failures are logged and the in-memory
// value is kept.
type Value[T any] struct {
	mu       sync.RWMutex
	store    Provider
	key      string
	initial  T
	value    T
	hydrated bool
}

func NewValue[T any](store Provider, key string, initial T) *Value[T] {
	return &Value[T]{
		store:   store,
		key:     key,
		initial: initial,
		value:   initial,
	}
}

func (v *Value[T]) Key() string {
	return v.key
}

func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.value
}

func (v *Value[T]) Hydrated() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.hydrated
}

// Hydrate loads the stored value. Only the first call has an effect, and a
// Set that happened earlier wins over what is on disk.
func (v *Value[T]) Hydrate() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.hydrated {
		return
	}
	v.value = v.read()
	v.hydrated = true
}

// Reload re-reads durable storage, picking up writes from other processes.
func (v *Value[T]) Reload() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.value = v.read()
	v.hydrated = true
}

func (v *Value[T]) Set(val T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.value = val
	v.hydrated = true
	v.write(val)
}

// Update applies fn to the current value and stores the result atomically.
func (v *Value[T]) Update(fn func(T) T) T {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.value = fn(v.value)
	v.hydrated = true
	v.write(v.value)
	return v.value
}

// Reset restores the initial value and removes the key from storage.
func (v *Value[T]) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.value = v.initial
	v.hydrated = true
	if err := v.store.Delete(v.key); err != nil {
		logger.Warn("Failed to delete stored value", "key", v.key, "error", err)
	}
}

func (v *Value[T]) read() T {
	raw, ok, err := v.store.Get(v.key)
	if err != nil {
		logger.Warn("Failed to read stored value", "key", v.key, "error", err)
		return v.initial
	}
	if !ok {
		return v.initial
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		logger.Warn("Discarding unparseable stored value", "key", v.key, "error", err)
		return v.initial
	}
	return out
}

func (v *Value[T]) write(val T) {
	data, err := json.Marshal(val)
	if err != nil {
		logger.Warn("Failed to serialize value", "key", v.key, "error", err)
		return
	}
	if err := v.store.Set(v.key, data); err != nil {
		logger.Warn("Failed to persist value", "key", v.key, "error", err)
	}
}
