package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store is a flat key/value store, the local copy of the settings that
// survives even when the host's own save is unavailable.
type Store interface {
	// Get returns the value under key; ok is false when nothing was
	// stored yet.
	Get(key string) (value []byte, ok bool, err error)
	Put(key string, value []byte) error
}

// MemoryStore keeps values in memory. Err, when set, is returned by
// every Put.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string][]byte
	Err    error
	puts   int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

func (m *MemoryStore) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return append([]byte(nil), v...), ok, nil
}

func (m *MemoryStore) Put(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.values[key] = append([]byte(nil), value...)
	m.puts++
	return nil
}

// Puts counts successful writes.
func (m *MemoryStore) Puts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

// FileStore keeps one file per key under Dir.
type FileStore struct {
	Dir string
}

// Path is where key is stored.
func (f FileStore) Path(key string) string {
	return filepath.Join(f.Dir, key+".yaml")
}

func (f FileStore) Get(key string) ([]byte, bool, error) {
	b, err := os.ReadFile(f.Path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

// Put writes through a temporary file so a crash never leaves half a
// record behind.
func (f FileStore) Put(key string, value []byte) error {
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	tmp, err := os.CreateTemp(f.Dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), f.Path(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
