// Package judger classifies executions and orchestrates submissions: the
// source is compiled once, test cases run strictly in order and the first
// failing case stops the submission.
//
// Results are returned synchronously by Judge, RunSamples and RunCustom, or
// delivered to a callback address by Submit.
package judger

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/codeg/judge/client"
	"github.com/codeg/judge/envexec"
	"github.com/codeg/judge/pkg/diff"
	"github.com/codeg/judge/pkg/sanitize"
	"github.com/codeg/judge/problem"
	"github.com/codeg/judge/runner"
	"github.com/codeg/judge/types"
	"github.com/codeg/judge/workspace"
	"go.uber.org/zap"
)

var (
	// ErrInvalidSubmission is wrapped by every ValidationError
	ErrInvalidSubmission = errors.New("invalid submission")

	// ErrNoSampleCases is returned by RunSamples for problems without samples
	ErrNoSampleCases = errors.New("no sample test cases found for this problem")

	// ErrShuttingDown rejects submissions after Shutdown was called
	ErrShuttingDown = errors.New("judger is shutting down")
)

// ValidationError reports a missing or malformed request field. It is
// returned before any artifact is created.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s %s", ErrInvalidSubmission, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidSubmission
}

// Observer receives judging events, used for metrics
type Observer interface {
	ObserveCase(v types.Verdict, o *envexec.Outcome)
	ObserveSubmission(mode string, v types.Verdict)
	ObserveDelivery(err error)
}

// Upper bounds of the per submission limits
const (
	MaxTimeLimit                = time.Minute
	MaxMemoryLimit envexec.Size = 16 << 30
)

// Submission modes reported to the observer
const (
	ModeSubmit = "submit"
	ModeSample = "sample"
	ModeCustom = "custom"
	ModeSync   = "sync"
)

// Config contains the collaborators of a Judger
type Config struct {
	Runner     *runner.Runner
	Workspace  *workspace.Workspace
	Comparator diff.Comparator
	Sanitizer  *sanitize.Sanitizer

	// Catalog serves RunSamples
	Catalog problem.Catalog

	// Client delivers the results of Submit
	Client *client.Client

	// RunLimit applies to custom input and sample runs
	RunLimit envexec.Limit

	Observer Observer
	Logger   *zap.Logger
}

// Judger judges submissions. It holds no per submission state, concurrent
// calls are independent.
type Judger struct {
	Config

	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// New creates a judger
func New(conf Config) *Judger {
	if conf.Comparator == nil {
		conf.Comparator = diff.Text{}
	}
	if conf.Sanitizer == nil {
		conf.Sanitizer = sanitize.New(conf.Workspace.Marker(), "")
	}
	if conf.Observer == nil {
		conf.Observer = nopObserver{}
	}
	if conf.Logger == nil {
		conf.Logger = zap.NewNop()
	}
	return &Judger{Config: conf}
}

type nopObserver struct{}

func (nopObserver) ObserveCase(types.Verdict, *envexec.Outcome) {}
func (nopObserver) ObserveSubmission(string, types.Verdict)     {}
func (nopObserver) ObserveDelivery(error)                       {}

// validateSource checks the fields every mode requires
func (j *Judger) validateSource(lang, source string) error {
	switch {
	case lang == "":
		return &ValidationError{Field: "language", Reason: "is required"}
	case source == "":
		return &ValidationError{Field: "sourceCode", Reason: "is required"}
	case !j.Runner.Supports(lang):
		return &ValidationError{Field: "language", Reason: fmt.Sprintf("%q is not supported", lang)}
	}
	return nil
}

// Validate checks a submission before it is accepted
func (j *Judger) Validate(s *types.Submission) error {
	if err := j.validateSource(s.Language, s.Source); err != nil {
		return err
	}
	if len(s.TestCases) == 0 {
		return &ValidationError{Field: "testCases", Reason: "is required"}
	}
	if s.TimeLimit < 0 {
		return &ValidationError{Field: "timeLimit", Reason: "must not be negative"}
	}
	if s.TimeLimit > MaxTimeLimit {
		return &ValidationError{Field: "timeLimit", Reason: fmt.Sprintf("must not exceed %v", MaxTimeLimit)}
	}
	if s.MemoryLimit > MaxMemoryLimit {
		return &ValidationError{Field: "memoryLimit", Reason: fmt.Sprintf("must not exceed %v", MaxMemoryLimit)}
	}
	return nil
}

func (j *Judger) release(a *workspace.Arena, id string) {
	if err := a.Release(); err != nil {
		j.Logger.Error("failed to release artifacts", zap.String("submission", id), zap.Error(err))
	}
}
