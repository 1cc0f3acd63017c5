package runner

import (
	"fmt"

	"github.com/codeg/judge/envexec"
	"github.com/codeg/judge/workspace"
	"go.uber.org/zap"
)

// Run writes input into the arena and runs the executable with it as stdin.
// The captured output is only kept in the returned outcome.
func (r *Runner) Run(e *Executable, input string, limit envexec.Limit, a *workspace.Arena) (*envexec.Outcome, error) {
	in, err := a.Create(".in", []byte(input))
	if err != nil {
		return nil, fmt.Errorf("write input: %w", err)
	}
	if limit.Output == 0 {
		limit.Output = r.OutputLimit
	}

	c := e.lang.Run(e.program, in, limit)
	c.Env = r.Env
	c.Seccomp = r.Seccomp

	o, err := envexec.Run(c)
	if err != nil {
		return nil, err
	}
	r.logger().Debug("run finished",
		zap.String("language", e.lang.Name()),
		zap.Int("exitCode", o.ExitCode),
		zap.Bool("timedOut", o.TimedOut),
		zap.Bool("memoryExceeded", o.MemoryExceeded),
		zap.Duration("time", o.Time),
		zap.Int("stdoutBytes", len(o.Stdout)))
	return o, nil
}
