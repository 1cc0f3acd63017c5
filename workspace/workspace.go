// Package workspace manages the ephemeral directory holding source files,
// compiled programs and per test case input / output files.
//
// Every artifact is registered in an Arena owned by the operation that
// created it. Releasing the arena deletes everything registered in it.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Workspace is the scratch directory shared by concurrent submissions.
// Artifact names are unique per creation so no locking is required.
type Workspace struct {
	dir string
}

// New creates the workspace directory if it does not exist
func New(dir string) (*Workspace, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("workspace: %w", err)
	}
	return &Workspace{dir: dir}, nil
}

// Dir returns the absolute workspace directory
func (w *Workspace) Dir() string {
	return w.dir
}

// Marker returns the path segment identifying workspace paths
func (w *Workspace) Marker() string {
	return filepath.Base(w.dir)
}

// NewArena creates an empty arena inside the workspace
func (w *Workspace) NewArena() *Arena {
	return &Arena{dir: w.dir}
}

// Remove deletes the workspace with everything left inside
func (w *Workspace) Remove() error {
	return os.RemoveAll(w.dir)
}

// Arena tracks the artifacts of one owning operation
type Arena struct {
	dir      string
	paths    []string
	released bool
}

// Path reserves a fresh unique path ending with suffix for a file that will
// be created by someone else (e.g. a compiler)
func (a *Arena) Path(suffix string) string {
	p := filepath.Join(a.dir, newName(suffix))
	a.paths = append(a.paths, p)
	return p
}

// Create writes content into a fresh unique file ending with suffix
func (a *Arena) Create(suffix string, content []byte) (string, error) {
	p := filepath.Join(a.dir, newName(suffix))
	f, err := os.OpenFile(p, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", err
	}
	a.paths = append(a.paths, p)
	_, err = f.Write(content)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", err
	}
	return p, nil
}

// CreateDir creates a fresh unique sub directory
func (a *Arena) CreateDir() (string, error) {
	p := filepath.Join(a.dir, newName(""))
	if err := os.Mkdir(p, 0o755); err != nil {
		return "", err
	}
	a.paths = append(a.paths, p)
	return p, nil
}

// Adopt registers a path created outside of the arena
func (a *Arena) Adopt(p string) {
	a.paths = append(a.paths, p)
}

// Rename moves a registered artifact and keeps it registered
func (a *Arena) Rename(oldPath, newPath string) error {
	if err := os.Rename(oldPath, newPath); err != nil {
		return err
	}
	a.Adopt(newPath)
	return nil
}

// Release deletes every registered artifact. It is safe to call more than once.
func (a *Arena) Release() error {
	if a.released {
		return nil
	}
	a.released = true

	var errs []error
	for i := len(a.paths) - 1; i >= 0; i-- {
		if err := os.RemoveAll(a.paths[i]); err != nil {
			errs = append(errs, err)
		}
	}
	a.paths = nil
	return errors.Join(errs...)
}

func newName(suffix string) string {
	return uuid.NewString() + suffix
}
