// Package language defines how each supported language turns a source file
// into a running program.
//
// Three variants exist: Native (C, C++) compiles to a binary, VM (Java)
// compiles to a class file run by the JVM and Interpreted (Python, JavaScript)
// runs the source directly. A Registry selects the variant by name.
package language

import (
	"errors"
	"fmt"
	"time"

	"github.com/codeg/judge/envexec"
	"github.com/codeg/judge/workspace"
)

// ErrLanguageNotFound is returned by the registry for unknown names
var ErrLanguageNotFound = errors.New("language not found")

// Language defines the way to compile and run a program
type Language interface {
	// Name returns the canonical language name
	Name() string

	// Extension returns the source file extension including the dot
	Extension() string

	// Compile prepares the source file for running. Artifacts created are
	// registered in the arena. A non nil outcome with CompileError set is
	// returned when the toolchain rejected the source.
	Compile(c *Compiler, source string, a *workspace.Arena) (*Program, *envexec.Outcome, error)

	// Run returns the command to run p with the input file under limit
	Run(p *Program, input string, limit envexec.Limit) *envexec.Cmd
}

// Program is a compiled or interpretable unit ready to run
type Program struct {
	Language string
	Args     []string
	WorkDir  string

	// Source is the current path of the source file, it may differ from the
	// original path when the toolchain requires a specific file name
	Source string
}

// Compiler runs toolchain processes for compilation
type Compiler struct {
	Env         []string
	TimeLimit   time.Duration
	OutputLimit envexec.Size
}

// compileLimitMessage replaces the diagnostics of a compiler killed by its time limit
const compileLimitMessage = "Compilation time limit exceeded"

// exec runs the compiler and returns a failed compile outcome if it did not
// exit cleanly
func (c *Compiler) exec(dir string, args ...string) (*envexec.Outcome, error) {
	o, err := envexec.Run(&envexec.Cmd{
		Args:    args,
		Env:     c.Env,
		WorkDir: dir,
		Limit: envexec.Limit{
			Time:   c.TimeLimit,
			Output: c.OutputLimit,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	if o.ExitCode == 0 && !o.TimedOut {
		return nil, nil
	}
	msg := o.Stderr
	if o.Stdout != "" {
		msg = o.Stdout + msg
	}
	if o.TimedOut {
		msg = compileLimitMessage
	}
	return &envexec.Outcome{
		Stderr:       msg,
		ExitCode:     nonzero(o.ExitCode),
		Signal:       o.Signal,
		Time:         o.Time,
		CompileError: true,
	}, nil
}

func nonzero(code int) int {
	if code == 0 {
		return -1
	}
	return code
}
