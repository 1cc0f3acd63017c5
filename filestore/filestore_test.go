package filestore

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

func stores(t *testing.T) map[string]FileStore {
	t.Helper()
	local, err := NewFileLocalStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return map[string]FileStore{
		"Local":  local,
		"Memory": NewFileMemoryStore(),
	}
}

func TestFileStore(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			id, err := s.Add("main.cpp", strings.NewReader("int main() {}"))
			if err != nil {
				t.Fatal(err)
			}
			n, content, err := s.Get(id)
			if err != nil {
				t.Fatal(err)
			}
			if n != "main.cpp" || string(content) != "int main() {}" {
				t.Errorf("unexpected file %s %q", n, content)
			}
			if l := s.List(); len(l) != 1 || l[id] != "main.cpp" {
				t.Errorf("unexpected list %v", l)
			}
			if !s.Remove(id) {
				t.Error("expected remove to succeed")
			}
			if s.Remove(id) {
				t.Error("expected second remove to fail")
			}
			if _, _, err := s.Get(id); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestLocalStoreRemovesFile(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileLocalStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	id, err := s.Add("a.py", strings.NewReader("print(1)"))
	if err != nil {
		t.Fatal(err)
	}
	s.Remove(id)
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("expected empty directory, got %d entries", len(entries))
	}
}

func TestTimeout(t *testing.T) {
	s := NewTimeout(NewFileMemoryStore(), 50*time.Millisecond, 10*time.Millisecond)
	defer s.Close()

	id, err := s.Add("a.js", strings.NewReader("console.log(1)"))
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.Get(id); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, _, err := s.Get(id); errors.Is(err, ErrNotFound) {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatal("expected file to expire")
}

func TestTimeoutSweep(t *testing.T) {
	s := NewTimeout(NewFileMemoryStore(), time.Minute, time.Hour)
	defer s.Close()

	stale, err := s.Add("old.py", strings.NewReader("print(1)"))
	if err != nil {
		t.Fatal(err)
	}
	fresh, err := s.Add("new.py", strings.NewReader("print(2)"))
	if err != nil {
		t.Fatal(err)
	}
	s.mu.Lock()
	s.queue.entries[s.queue.index[stale]].access = time.Now().Add(-2 * time.Minute)
	s.mu.Unlock()

	if n := s.sweep(time.Now()); n != 1 {
		t.Fatalf("expected 1 file swept, got %d", n)
	}
	if _, _, err := s.Get(stale); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected stale file to be removed, got %v", err)
	}
	if _, _, err := s.Get(fresh); err != nil {
		t.Errorf("expected fresh file to be kept, got %v", err)
	}
	if !s.Remove(fresh) || s.queue.Len() != 0 {
		t.Errorf("expected queue to be empty after remove")
	}
}
