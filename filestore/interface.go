// Package filestore keeps uploaded source files until they are referenced by
// a run request or expire
package filestore

import (
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown or expired file ids
var ErrNotFound = errors.New("file not found")

// FileStore holds uploads by opaque id
type FileStore interface {
	// Add stores the content of r under name and returns the new id
	Add(name string, r io.Reader) (string, error)
	Remove(id string) bool
	// Get returns the original name and the content
	Get(id string) (string, []byte, error)
	// List maps every stored id to its name
	List() map[string]string
}

// newID returns a fresh id, ids only contain [0-9a-f] so they are safe file names
func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
