// Package types defines the data exchanged between the orchestrator and its
// callers
package types

import (
	"time"

	"github.com/codeg/judge/envexec"
)

// TestCase is one input with its expected output
type TestCase struct {
	Input    string `json:"input"`
	Output   string `json:"output"`
	IsSample bool   `json:"isSample,omitempty"`
}

// Submission is a source program with the test cases it is judged against
type Submission struct {
	ID          string
	Language    string
	Source      string
	TestCases   []TestCase
	TimeLimit   time.Duration
	MemoryLimit envexec.Size

	// asynchronous delivery
	CallbackURL string
	AuthToken   string
}

// TestCaseResult is the result of one executed test case
type TestCaseResult struct {
	Index   int // 1 based
	Verdict Verdict
	Passed  bool

	// Error holds sanitized diagnostics of the program
	Error string

	Input    string
	Expected string
	Outcome  *envexec.Outcome
}

// SubmissionResult is the result of a submission. Results stop at the first
// failed test case.
type SubmissionResult struct {
	ID      string
	Results []TestCaseResult
	Verdict Verdict

	// ErrorDetails holds sanitized diagnostics for CompilationError and
	// RuntimeError
	ErrorDetails string

	// ErrorMessage describes an internal fault for SystemError
	ErrorMessage string
}
