package language

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/codeg/judge/envexec"
	"github.com/codeg/judge/workspace"
)

// ErrNoClassDeclaration is returned when no type declaration names the
// source file of a language that requires it
var ErrNoClassDeclaration = errors.New("could not find a class declaration in the source")

var (
	commentRe    = regexp.MustCompile(`(?s)/\*.*?\*/|//[^\n]*`)
	publicTypeRe = regexp.MustCompile(`\bpublic\s+(?:(?:final|abstract|sealed|strictfp|static)\s+)*(?:class|interface|enum|record)\s+([A-Za-z_$][A-Za-z0-9_$]*)`)
	classRe      = regexp.MustCompile(`\bclass\s+([A-Za-z_$][A-Za-z0-9_$]*)`)
)

var _ Language = &VM{}

// VM compiles the source into class files run by a virtual machine (Java).
// The source file is renamed after its public type as the compiler requires.
type VM struct {
	LangName       string
	Ext            string
	Compiler       string
	Flags          []string
	Runtime        string
	RuntimeFlags   []string
	HeapFlag       string // printf format receiving the memory limit in MiB
	MemoryPatterns []string
}

func (l *VM) Name() string      { return l.LangName }
func (l *VM) Extension() string { return l.Ext }

func (l *VM) Compile(c *Compiler, source string, a *workspace.Arena) (*Program, *envexec.Outcome, error) {
	content, err := os.ReadFile(source)
	if err != nil {
		return nil, nil, err
	}
	name, err := FindClassName(string(content))
	if err != nil {
		return nil, nil, err
	}

	// class files of concurrent submissions share names, keep them apart
	dir, err := a.CreateDir()
	if err != nil {
		return nil, nil, err
	}
	renamed := filepath.Join(dir, name+l.Ext)
	if err := a.Rename(source, renamed); err != nil {
		return nil, nil, fmt.Errorf("rename source: %w", err)
	}

	args := append([]string{l.Compiler, "-d", dir}, l.Flags...)
	args = append(args, renamed)
	o, err := c.exec(dir, args...)
	if err != nil || o != nil {
		return nil, o, err
	}

	run := append([]string{l.Runtime}, l.RuntimeFlags...)
	run = append(run, "-cp", dir, name)
	return &Program{
		Language: l.LangName,
		Args:     run,
		WorkDir:  dir,
		Source:   renamed,
	}, nil, nil
}

// Run bounds the heap instead of the address space as the VM reserves large
// virtual ranges at start up
func (l *VM) Run(p *Program, input string, limit envexec.Limit) *envexec.Cmd {
	return &envexec.Cmd{
		Args:           withHeapFlag(p.Args, l.HeapFlag, &limit),
		WorkDir:        p.WorkDir,
		Stdin:          input,
		Limit:          limit,
		MemoryPatterns: l.MemoryPatterns,
	}
}

// FindClassName returns the name of the public type declared in a Java
// source, or the first class when no type is public
func FindClassName(source string) (string, error) {
	source = commentRe.ReplaceAllString(source, "")
	if m := publicTypeRe.FindStringSubmatch(source); m != nil {
		return m[1], nil
	}
	if m := classRe.FindStringSubmatch(source); m != nil {
		return m[1], nil
	}
	return "", ErrNoClassDeclaration
}

// withHeapFlag inserts the heap flag after the runtime and removes the
// address space cap from limit
func withHeapFlag(args []string, flag string, limit *envexec.Limit) []string {
	if flag == "" || limit.Memory == 0 {
		return args
	}
	r := make([]string, 0, len(args)+1)
	r = append(r, args[0], fmt.Sprintf(flag, uint64(limit.Memory)>>20))
	r = append(r, args[1:]...)
	limit.Memory = 0
	return r
}
