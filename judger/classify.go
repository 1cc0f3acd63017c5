package judger

import (
	"github.com/codeg/judge/envexec"
	"github.com/codeg/judge/types"
)

// Classify returns the verdict of one execution. The first matching rule
// wins: compilation error, time limit, memory limit, nonzero exit, output
// mismatch, accepted.
func Classify(o *envexec.Outcome, passed bool) types.Verdict {
	switch {
	case o.CompileError:
		return types.VerdictCompilationError
	case o.TimedOut:
		return types.VerdictTimeLimitExceeded
	case o.MemoryExceeded:
		return types.VerdictMemoryLimitExceeded
	case o.ExitCode != 0:
		return types.VerdictRuntimeError
	case !passed:
		return types.VerdictWrongAnswer
	default:
		return types.VerdictAccepted
	}
}
