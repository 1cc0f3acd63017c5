package language

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/codeg/judge/envexec"
	"github.com/codeg/judge/workspace"
)

var _ Language = &Native{}

// Native compiles the source into a native binary (C, C++)
type Native struct {
	LangName       string
	Ext            string
	Compiler       string
	Flags          []string
	MemoryPatterns []string
}

func (l *Native) Name() string      { return l.LangName }
func (l *Native) Extension() string { return l.Ext }

func (l *Native) Compile(c *Compiler, source string, a *workspace.Arena) (*Program, *envexec.Outcome, error) {
	bin := a.Path(binaryExt())
	args := append([]string{l.Compiler, source, "-o", bin}, l.Flags...)
	o, err := c.exec(filepath.Dir(source), args...)
	if err != nil || o != nil {
		return nil, o, err
	}
	if runtime.GOOS != "windows" {
		if err := os.Chmod(bin, 0o755); err != nil {
			return nil, nil, err
		}
	}
	return &Program{
		Language: l.LangName,
		Args:     []string{bin},
		WorkDir:  filepath.Dir(bin),
		Source:   source,
	}, nil, nil
}

func (l *Native) Run(p *Program, input string, limit envexec.Limit) *envexec.Cmd {
	return &envexec.Cmd{
		Args:           p.Args,
		WorkDir:        p.WorkDir,
		Stdin:          input,
		Limit:          limit,
		MemoryPatterns: l.MemoryPatterns,
	}
}

func binaryExt() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}
	return ".out"
}
