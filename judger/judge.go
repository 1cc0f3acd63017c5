package judger

import (
	"errors"
	"fmt"

	"github.com/codeg/judge/envexec"
	"github.com/codeg/judge/language"
	"github.com/codeg/judge/pkg/diff"
	"github.com/codeg/judge/runner"
	"github.com/codeg/judge/types"
	"github.com/codeg/judge/workspace"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProgressFunc receives the transitions of a submission, nil to ignore
type ProgressFunc func(types.Progress)

// prepared is a validated submission with its source written to the
// submission arena
type prepared struct {
	sub    *types.Submission
	arena  *workspace.Arena
	source *runner.Source
	limit  envexec.Limit
}

// prepare validates the submission and writes the source file. Nothing is
// left behind on error.
func (j *Judger) prepare(s *types.Submission, limit envexec.Limit) (*prepared, error) {
	if err := j.Validate(s); err != nil {
		return nil, err
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	a := j.Workspace.NewArena()
	src, err := j.Runner.Prepare(s.Language, s.Source, a)
	if err != nil {
		j.release(a, s.ID)
		return nil, err
	}
	return &prepared{sub: s, arena: a, source: src, limit: limit}, nil
}

// Judge runs the submission synchronously. Once the submission passed
// validation every fault is reported as a SystemError result, the returned
// error is only set when the submission was rejected.
func (j *Judger) Judge(s *types.Submission, progress ProgressFunc) (*types.SubmissionResult, error) {
	p, err := j.prepare(s, submissionLimit(s))
	if err != nil {
		return nil, err
	}
	r := j.execute(p, progress)
	j.Observer.ObserveSubmission(ModeSync, r.Verdict)
	return r, nil
}

func submissionLimit(s *types.Submission) envexec.Limit {
	return envexec.Limit{Time: s.TimeLimit, Memory: s.MemoryLimit}
}

// execute compiles once and runs the test cases in order until the first
// failure. The submission arena is released on every path.
func (j *Judger) execute(p *prepared, progress ProgressFunc) (result *types.SubmissionResult) {
	id := p.sub.ID
	logger := j.Logger.With(zap.String("submission", id))
	report := func(state types.State, c *types.TestCaseResult) {
		logger.Debug("submission state", zap.Stringer("state", state))
		if progress != nil {
			progress(types.Progress{ID: id, State: state, Case: c})
		}
	}

	defer j.release(p.arena, id)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("submission panicked", zap.Any("panic", r), zap.Stack("stack"))
			result = j.fault(id, fmt.Errorf("internal error: %v", r))
			report(types.StateFailed, nil)
		}
	}()

	report(types.StatePreparing, nil)
	result = &types.SubmissionResult{ID: id}

	exe, ce, err := j.Runner.Compile(p.source, p.arena)
	if errors.Is(err, language.ErrNoClassDeclaration) {
		ce, err = &envexec.Outcome{Stderr: err.Error(), ExitCode: -1, CompileError: true}, nil
	}
	if err != nil {
		logger.Error("compile failed to run", zap.Error(err))
		report(types.StateFailed, nil)
		return j.fault(id, err)
	}
	if ce != nil {
		// a rejected source fails the first test case
		c := j.record(result, 1, p.sub.TestCases[0], ce, p.source.Path())
		report(types.StateExecuting, c)
		report(types.StateCompleted, nil)
		return result
	}

	for i, tc := range p.sub.TestCases {
		o, err := j.runCase(exe, tc.Input, p.limit)
		if err != nil {
			logger.Error("test case failed to run", zap.Int("case", i+1), zap.Error(err))
			report(types.StateFailed, nil)
			return j.fault(id, err)
		}
		c := j.record(result, i+1, tc, o, exe.Source())
		report(types.StateExecuting, c)
		if !c.Passed {
			break
		}
	}
	report(types.StateCompleted, nil)
	return result
}

// runCase runs one test case in its own arena, released before the next
// case starts
func (j *Judger) runCase(exe *runner.Executable, input string, limit envexec.Limit) (*envexec.Outcome, error) {
	a := j.Workspace.NewArena()
	o, err := j.Runner.Run(exe, input, limit, a)
	if rerr := a.Release(); err == nil && rerr != nil {
		return nil, fmt.Errorf("release test case artifacts: %w", rerr)
	}
	return o, err
}

// record appends the classified test case and updates the overall verdict
func (j *Judger) record(r *types.SubmissionResult, index int, tc types.TestCase, o *envexec.Outcome, sourcePath string) *types.TestCaseResult {
	passed := !o.CompileError && j.Comparator.Compare(tc.Output, o.Stdout)
	v := Classify(o, passed)
	j.Observer.ObserveCase(v, o)

	c := types.TestCaseResult{
		Index:    index,
		Verdict:  v,
		Passed:   v == types.VerdictAccepted,
		Error:    j.Sanitizer.Sanitize(o.Stderr, sourcePath),
		Input:    tc.Input,
		Expected: tc.Output,
		Outcome:  o,
	}
	if v == types.VerdictWrongAnswer {
		j.Logger.Debug("wrong answer", zap.String("submission", r.ID), zap.Int("case", index),
			zap.String("diff", diff.Explain(tc.Output, o.Stdout)))
	}
	r.Results = append(r.Results, c)
	r.Verdict = v
	if v.WithDetails() {
		r.ErrorDetails = c.Error
	}
	return &c
}

// fault reports an internal error, partial results are dropped
func (j *Judger) fault(id string, err error) *types.SubmissionResult {
	return &types.SubmissionResult{
		ID:           id,
		Verdict:      types.VerdictSystemError,
		ErrorMessage: j.Sanitizer.Sanitize(err.Error(), ""),
	}
}
