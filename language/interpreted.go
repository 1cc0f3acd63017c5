package language

import (
	"path/filepath"

	"github.com/codeg/judge/envexec"
	"github.com/codeg/judge/workspace"
)

var _ Language = &Interpreted{}

// Interpreted runs the source file directly (Python, JavaScript)
type Interpreted struct {
	LangName       string
	Ext            string
	Interpreter    string
	Flags          []string
	HeapFlag       string // printf format receiving the memory limit in MiB, empty to cap the address space
	MemoryPatterns []string
}

func (l *Interpreted) Name() string      { return l.LangName }
func (l *Interpreted) Extension() string { return l.Ext }

// Compile has nothing to do
func (l *Interpreted) Compile(_ *Compiler, source string, _ *workspace.Arena) (*Program, *envexec.Outcome, error) {
	args := append([]string{l.Interpreter}, l.Flags...)
	args = append(args, source)
	return &Program{
		Language: l.LangName,
		Args:     args,
		WorkDir:  filepath.Dir(source),
		Source:   source,
	}, nil, nil
}

func (l *Interpreted) Run(p *Program, input string, limit envexec.Limit) *envexec.Cmd {
	return &envexec.Cmd{
		Args:           withHeapFlag(p.Args, l.HeapFlag, &limit),
		WorkDir:        p.WorkDir,
		Stdin:          input,
		Limit:          limit,
		MemoryPatterns: l.MemoryPatterns,
	}
}
