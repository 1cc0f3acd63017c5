package language

import (
	"slices"
	"strings"
	"sync"
)

// Registry looks up languages by name or alias
type Registry struct {
	mu        sync.RWMutex
	languages map[string]Language
	aliases   map[string]string
}

// NewRegistry builds every spec into a registry
func NewRegistry(specs []Spec) (*Registry, error) {
	r := &Registry{
		languages: make(map[string]Language),
		aliases:   make(map[string]string),
	}
	for _, s := range specs {
		l, err := s.Build()
		if err != nil {
			return nil, err
		}
		r.Register(l, s.Aliases...)
	}
	return r, nil
}

// Register adds or replaces a language
func (r *Registry) Register(l Language, aliases ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := strings.ToLower(l.Name())
	r.languages[name] = l
	for _, a := range aliases {
		r.aliases[strings.ToLower(a)] = name
	}
}

// Get returns the language by name or alias, case insensitive
func (r *Registry) Get(name string) (Language, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name = strings.ToLower(strings.TrimSpace(name))
	if n, ok := r.aliases[name]; ok {
		name = n
	}
	l, ok := r.languages[name]
	if !ok {
		return nil, ErrLanguageNotFound
	}
	return l, nil
}

// Names returns the sorted canonical names
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.languages))
	for n := range r.languages {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
