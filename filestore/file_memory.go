package filestore

import (
	"io"
	"sync"
)

type fileMemoryStore struct {
	store map[string]fileMemory
	mu    sync.RWMutex
}

type fileMemory struct {
	name    string
	content []byte
}

// NewFileMemoryStore create new memory file store
func NewFileMemoryStore() FileStore {
	return &fileMemoryStore{
		store: make(map[string]fileMemory),
	}
}

func (s *fileMemoryStore) Add(name string, r io.Reader) (string, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := newID()
	for _, taken := s.store[id]; taken; _, taken = s.store[id] {
		id = newID()
	}
	s.store[id] = fileMemory{name: name, content: content}
	return id, nil
}

func (s *fileMemoryStore) Remove(fileID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.store[fileID]
	delete(s.store, fileID)
	return ok
}

func (s *fileMemoryStore) Get(fileID string) (string, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.store[fileID]
	if !ok {
		return "", nil, ErrNotFound
	}
	return f.name, f.content, nil
}

func (s *fileMemoryStore) List() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make(map[string]string, len(s.store))
	for id, f := range s.store {
		names[id] = f.name
	}
	return names
}
