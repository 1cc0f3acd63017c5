package judger

import (
	"context"
	"errors"

	"github.com/codeg/judge/envexec"
	"github.com/codeg/judge/language"
	"github.com/codeg/judge/problem"
	"github.com/codeg/judge/types"
)

// CustomResult is the result of running a program against custom input
type CustomResult struct {
	Verdict types.Verdict
	Outcome *envexec.Outcome

	// Stderr is the sanitized standard error or compiler output
	Stderr string
}

// RunCustom compiles and runs the source once with input under the run limit
func (j *Judger) RunCustom(lang, source, input string) (*CustomResult, error) {
	if err := j.validateSource(lang, source); err != nil {
		return nil, err
	}
	a := j.Workspace.NewArena()
	defer j.release(a, "custom")

	src, err := j.Runner.Prepare(lang, source, a)
	if err != nil {
		return nil, err
	}
	exe, o, err := j.Runner.Compile(src, a)
	if errors.Is(err, language.ErrNoClassDeclaration) {
		o, err = &envexec.Outcome{Stderr: err.Error(), ExitCode: -1, CompileError: true}, nil
	}
	if err != nil {
		return nil, err
	}
	path := src.Path()
	if o == nil {
		path = exe.Source()
		if o, err = j.Runner.Run(exe, input, j.RunLimit, a); err != nil {
			return nil, err
		}
	}

	v := Classify(o, true)
	j.Observer.ObserveCase(v, o)
	j.Observer.ObserveSubmission(ModeCustom, v)
	return &CustomResult{
		Verdict: v,
		Outcome: o,
		Stderr:  j.Sanitizer.Sanitize(o.Stderr, path),
	}, nil
}

// RunSamples judges the source against the sample test cases of a problem
// with early exit. Catalog errors are returned before anything runs.
func (j *Judger) RunSamples(ctx context.Context, lang, source, problemID string) (*types.SubmissionResult, error) {
	if err := j.validateSource(lang, source); err != nil {
		return nil, err
	}
	if problemID == "" {
		return nil, &ValidationError{Field: "problemId", Reason: "is required"}
	}
	if j.Catalog == nil {
		return nil, problem.ErrUnavailable
	}
	cases, err := j.Catalog.Get(ctx, problemID)
	if err != nil {
		return nil, err
	}
	samples := problem.Samples(cases)
	if len(samples) == 0 {
		return nil, ErrNoSampleCases
	}

	s := &types.Submission{
		Language:  lang,
		Source:    source,
		TestCases: samples,
	}
	p, err := j.prepare(s, j.RunLimit)
	if err != nil {
		return nil, err
	}
	r := j.execute(p, nil)
	j.Observer.ObserveSubmission(ModeSample, r.Verdict)
	return r, nil
}
