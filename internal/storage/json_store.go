package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

type document struct {
	Version int                        `json:"version"`
	Values  map[string]json.RawMessage `json:"values"`
}

// JSONStore keeps every key in one JSON document on disk.
type JSONStore struct {
	mu   sync.Mutex
	path string
	doc  *document
}

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{
		path: path,
	}
}

// Init creates the document if it does not exist and loads it.
func (s *JSONStore) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		return s.Load()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = &document{Version: 1, Values: make(map[string]json.RawMessage)}
	return s.save()
}

func (s *JSONStore) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotInitialized
		}
		return fmt.Errorf("failed to read storage: %w", err)
	}

	doc := &document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("failed to parse storage: %w", err)
	}
	if doc.Values == nil {
		doc.Values = make(map[string]json.RawMessage)
	}

	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()
	return nil
}

func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) Path() string {
	return s.path
}

func (s *JSONStore) Get(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return nil, false, ErrNotLoaded
	}
	raw, ok := s.doc.Values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), raw...), true, nil
}

func (s *JSONStore) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return ErrNotLoaded
	}
	if !json.Valid(value) {
		return fmt.Errorf("value for %s is not valid JSON", key)
	}
	s.doc.Values[key] = append(json.RawMessage(nil), value...)
	return s.save()
}

func (s *JSONStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return ErrNotLoaded
	}
	delete(s.doc.Values, key)
	return s.save()
}

// save writes to a temp file and renames it over the document. Callers hold mu.
func (s *JSONStore) save() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize storage: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace storage: %w", err)
	}
	return nil
}
