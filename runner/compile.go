package runner

import (
	"fmt"

	"github.com/codeg/judge/envexec"
	"github.com/codeg/judge/workspace"
	"go.uber.org/zap"
)

// Prepare writes the source into the arena with the extension of its language
func (r *Runner) Prepare(lang, source string, a *workspace.Arena) (*Source, error) {
	l, err := r.language(lang)
	if err != nil {
		return nil, err
	}
	p, err := a.Create(l.Extension(), []byte(source))
	if err != nil {
		return nil, fmt.Errorf("write source: %w", err)
	}
	return &Source{lang: l, path: p}, nil
}

// Compile builds the source. The returned outcome is not nil when the
// toolchain rejected the source, the error is not nil when compilation could
// not be attempted.
func (r *Runner) Compile(src *Source, a *workspace.Arena) (*Executable, *envexec.Outcome, error) {
	l := src.lang
	p, ce, err := l.Compile(r.Compiler, src.path, a)
	if err != nil {
		return nil, nil, err
	}
	if ce != nil {
		r.logger().Debug("compile failed", zap.String("language", l.Name()), zap.Int("exitCode", ce.ExitCode))
		return nil, ce, nil
	}
	r.logger().Debug("compiled", zap.String("language", l.Name()), zap.Strings("args", p.Args))
	return &Executable{lang: l, program: p}, nil, nil
}
