package storage

import "errors"

var (
	// ErrNotInitialized is returned by Load when nothing exists at the store path yet.
	ErrNotInitialized = errors.New("storage not initialized")
	// ErrNotLoaded is returned by reads and writes before Init or Load.
	ErrNotLoaded = errors.New("storage not loaded")
)

// Provider is the durable key/value layer underneath the local models.
// Values are opaque JSON documents.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	Get(key string) (value []byte, ok bool, err error)
	Set(key string, value []byte) error
	Delete(key string) error

	// Path returns the file backing the store.
	Path() string
}
