package filestore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

type fileLocalStore struct {
	dir  string            // directory to store file
	name map[string]string // id to name mapping
	mu   sync.RWMutex
}

// NewFileLocalStore create new local file store, dir is created if missing
func NewFileLocalStore(dir string) (FileStore, error) {
	dir = filepath.Clean(dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("file store: %w", err)
	}
	return &fileLocalStore{
		dir:  dir,
		name: make(map[string]string),
	}, nil
}

func (s *fileLocalStore) Add(name string, r io.Reader) (string, error) {
	f, err := s.create()
	if err != nil {
		return "", err
	}
	id := filepath.Base(f.Name())

	_, err = io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("add: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.name[id] = name
	return id, nil
}

func (s *fileLocalStore) Get(id string) (string, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	name, ok := s.name[id]
	if !ok {
		return "", nil, ErrNotFound
	}
	content, err := os.ReadFile(filepath.Join(s.dir, id))
	if errors.Is(err, os.ErrNotExist) {
		return "", nil, ErrNotFound
	}
	if err != nil {
		return "", nil, err
	}
	return name, content, nil
}

func (s *fileLocalStore) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.name[id]
	delete(s.name, id)
	if !ok {
		return false
	}
	return os.Remove(filepath.Join(s.dir, id)) == nil
}

func (s *fileLocalStore) List() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make(map[string]string, len(s.name))
	for id, n := range s.name {
		names[id] = n
	}
	return names
}

// create opens a new file exclusively, a name clash is retried once
func (s *fileLocalStore) create() (f *os.File, err error) {
	for range 2 {
		f, err = os.OpenFile(filepath.Join(s.dir, newID()), os.O_CREATE|os.O_RDWR|os.O_EXCL, 0o644)
		if !errors.Is(err, os.ErrExist) {
			break
		}
	}
	return f, err
}
