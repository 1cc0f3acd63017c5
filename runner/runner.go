// Package runner compiles source code and runs the resulting program against
// one input under resource limits. Every artifact it creates is registered in
// the arena supplied by the caller.
package runner

import (
	"errors"
	"fmt"

	"github.com/codeg/judge/envexec"
	"github.com/codeg/judge/language"
	"go.uber.org/zap"
)

// ErrUnsupportedLanguage is returned for languages missing from the registry
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Runner executes programs for all registered languages
type Runner struct {
	Languages *language.Registry
	Compiler  *language.Compiler

	// Env is the environment of the user program
	Env []string

	// OutputLimit applies to runs that do not set one
	OutputLimit envexec.Size

	// Seccomp is installed on user programs, never on the compiler
	Seccomp *envexec.Filter

	Logger *zap.Logger
}

// Source is a source file written into an arena
type Source struct {
	lang language.Language
	path string
}

// Path returns the path of the source file
func (s *Source) Path() string {
	return s.path
}

// Executable is a compiled program ready to run any number of times
type Executable struct {
	lang    language.Language
	program *language.Program
}

// Language returns the canonical language name
func (e *Executable) Language() string {
	return e.lang.Name()
}

// Source returns the path of the source file the program was built from
func (e *Executable) Source() string {
	return e.program.Source
}

func (r *Runner) language(name string) (language.Language, error) {
	l, err := r.Languages.Get(name)
	if err != nil {
		if errors.Is(err, language.ErrLanguageNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, name)
		}
		return nil, err
	}
	return l, nil
}

// Supports reports whether the language is registered
func (r *Runner) Supports(lang string) bool {
	_, err := r.Languages.Get(lang)
	return err == nil
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}
