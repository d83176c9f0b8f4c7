// Package audio provides read access to stored audio payloads. The core
// treats a recording's audio as an opaque locator; this package resolves
// the locator to bytes.
package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Store resolves audio locators to their raw bytes.
type Store interface {
	Open(ctx context.Context, locator string) ([]byte, error)
}

// FSStore serves audio files from a root directory. Locators are paths
// relative to the root; escapes above the root are rejected.
type FSStore struct {
	root string
}

func NewFSStore(root string) *FSStore {
	return &FSStore{root: root}
}

func (s *FSStore) Open(ctx context.Context, locator string) ([]byte, error) {
	clean := filepath.Clean(locator)
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return nil, fmt.Errorf("invalid audio locator: %s", locator)
	}

	data, err := os.ReadFile(filepath.Join(s.root, clean))
	if err != nil {
		return nil, fmt.Errorf("failed to read audio %s: %w", locator, err)
	}
	return data, nil
}

// MemoryStore is an in-memory Store for tests and the dev mode.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (s *MemoryStore) Put(locator string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[locator] = data
}

func (s *MemoryStore) Open(ctx context.Context, locator string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[locator]
	if !ok {
		return nil, fmt.Errorf("audio not found: %s", locator)
	}
	return data, nil
}
