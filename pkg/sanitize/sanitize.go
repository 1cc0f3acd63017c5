// Package sanitize hides workspace paths in diagnostics shown to users.
package sanitize

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultPlaceholder replaces workspace paths
const DefaultPlaceholder = "your_code"

// Sanitizer replaces workspace paths in compiler and runtime messages
type Sanitizer struct {
	placeholder string
	pathRe      *regexp.Regexp
}

// New creates a sanitizer for paths that contain the marker directory
func New(marker, placeholder string) *Sanitizer {
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	// an optional drive letter, some directories, the marker, then the rest
	// of the path up to a position separator or quote
	re := regexp.MustCompile(fmt.Sprintf(`(?i)([A-Z]:)?[/\\][^\s:"']*?[/\\]%s[/\\][^:\s"',)]*`, regexp.QuoteMeta(marker)))
	return &Sanitizer{
		placeholder: placeholder,
		pathRe:      re,
	}
}

// Sanitize replaces the exact source path first and any remaining workspace
// path afterwards
func (s *Sanitizer) Sanitize(raw, sourcePath string) string {
	if raw == "" {
		return raw
	}
	if sourcePath != "" {
		raw = strings.ReplaceAll(raw, sourcePath, s.placeholder)
	}
	return s.pathRe.ReplaceAllLiteralString(raw, s.placeholder)
}
