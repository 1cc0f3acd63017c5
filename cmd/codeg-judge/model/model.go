package model

import (
	"math"
	"time"

	"github.com/codeg/judge/envexec"
	"github.com/codeg/judge/types"
)

// RunRequest runs a source against custom input or the sample cases of a
// problem. The source comes inline, from an upload id or from the multipart
// file field sourceCode.
type RunRequest struct {
	Language     string  `json:"language"`
	SourceCode   string  `json:"sourceCode"`
	SourceFileID string  `json:"sourceFileId"`
	CustomInput  *string `json:"customInput"`
	ProblemID    string  `json:"problemId"`
}

// TestCase is one input with its expected output
type TestCase struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// SubmissionRequest is judged in background and its result posted to
// CallbackURL
type SubmissionRequest struct {
	ID          string     `json:"submissionId"`
	Language    string     `json:"language"`
	SourceCode  string     `json:"sourceCode"`
	TestCases   []TestCase `json:"testCases"`
	TimeLimit   uint64     `json:"timeLimit"`   // ms
	MemoryLimit uint64     `json:"memoryLimit"` // MiB
	CallbackURL string     `json:"callbackUrl"`
	AuthToken   string     `json:"authToken"`
}

// ExecResult holds the facts of one run
type ExecResult struct {
	Output         string `json:"output"`
	Stdout         string `json:"stdout"`
	Stderr         string `json:"stderr"`
	ExitCode       int    `json:"exitCode"`
	Signal         string `json:"signal,omitempty"`
	TimedOut       bool   `json:"timedOut"`
	MemoryExceeded bool   `json:"memoryExceeded"`
	Time           uint64 `json:"time"`   // ms
	Memory         uint64 `json:"memory"` // byte
}

// CustomResponse is the response of a custom input run
type CustomResponse struct {
	Message string        `json:"message"`
	Verdict types.Verdict `json:"verdict"`
	ExecResult
}

// CaseResult is one executed sample case
type CaseResult struct {
	Case     int           `json:"case"`
	Input    string        `json:"input"`
	Expected string        `json:"expected"`
	Passed   bool          `json:"passed"`
	Verdict  types.Verdict `json:"verdict"`
	ExecResult
}

// SubmissionResponse is the result of a judged submission
type SubmissionResponse struct {
	SubmissionID string        `json:"submissionId,omitempty"`
	Verdict      types.Verdict `json:"verdict,omitempty"`
	TestResults  []CaseResult  `json:"testResults"`
	ErrorDetails string        `json:"errorDetails,omitempty"`
	ErrorMessage string        `json:"errorMessage,omitempty"`
}

// SampleResponse is the response of a sample run
type SampleResponse struct {
	Message string `json:"message"`
	SubmissionResponse
}

// EventType is the type of a stream event
type EventType string

// Stream events, result and error are the last event of a stream
const (
	EventProgress EventType = "progress"
	EventResult   EventType = "result"
	EventError    EventType = "error"
)

// StreamEvent is one message sent on the submission stream
type StreamEvent struct {
	Type   EventType           `json:"type"`
	State  types.State         `json:"state,omitempty"`
	Case   *CaseResult         `json:"case,omitempty"`
	Result *SubmissionResponse `json:"result,omitempty"`
	Error  string              `json:"error,omitempty"`
}

// AIFeatureRequest asks the hint generator for a hint or feedback
type AIFeatureRequest struct {
	Feature            string `json:"feature"`
	Code               string `json:"code"`
	Language           string `json:"language"`
	ProblemDescription string `json:"problemDescription"`
	Constraints        string `json:"constraints"`
}

// ReviewRequest asks the hint generator for a code review
type ReviewRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Messages of the run responses
const (
	MessageCustom    = "Custom input run completed"
	MessageSamples   = "Sample test cases executed"
	MessageNoSamples = "No sample test cases found for this problem."
	MessageNoRunMode = "Request must contain either custom input or a problem ID."
)

// ConvertSubmission converts the request into a submission, zero limits
// take the defaults. Limits too large to represent saturate instead of
// wrapping, so validation rejects them.
func ConvertSubmission(r *SubmissionRequest, timeLimit time.Duration, memoryLimit envexec.Size) *types.Submission {
	s := &types.Submission{
		ID:          r.ID,
		Language:    r.Language,
		Source:      r.SourceCode,
		TestCases:   make([]types.TestCase, 0, len(r.TestCases)),
		TimeLimit:   timeLimit,
		MemoryLimit: memoryLimit,
		CallbackURL: r.CallbackURL,
		AuthToken:   r.AuthToken,
	}
	switch {
	case r.TimeLimit > math.MaxInt64/uint64(time.Millisecond):
		s.TimeLimit = math.MaxInt64
	case r.TimeLimit > 0:
		s.TimeLimit = time.Duration(r.TimeLimit) * time.Millisecond
	}
	switch {
	case r.MemoryLimit > math.MaxUint64>>20:
		s.MemoryLimit = math.MaxUint64
	case r.MemoryLimit > 0:
		s.MemoryLimit = envexec.Size(r.MemoryLimit << 20)
	}
	for _, tc := range r.TestCases {
		s.TestCases = append(s.TestCases, types.TestCase{Input: tc.Input, Output: tc.Output})
	}
	return s
}

// ConvertOutcome converts run facts with the sanitized stderr
func ConvertOutcome(o *envexec.Outcome, stderr string) ExecResult {
	if o == nil {
		return ExecResult{Stderr: stderr}
	}
	return ExecResult{
		Output:         o.Stdout,
		Stdout:         o.Stdout,
		Stderr:         stderr,
		ExitCode:       o.ExitCode,
		Signal:         o.SignalName(),
		TimedOut:       o.TimedOut,
		MemoryExceeded: o.MemoryExceeded,
		Time:           uint64(o.Time.Milliseconds()),
		Memory:         uint64(o.Memory),
	}
}

// ConvertCase converts one test case result
func ConvertCase(c *types.TestCaseResult) CaseResult {
	return CaseResult{
		Case:       c.Index,
		Input:      c.Input,
		Expected:   c.Expected,
		Passed:     c.Passed,
		Verdict:    c.Verdict,
		ExecResult: ConvertOutcome(c.Outcome, c.Error),
	}
}

// ConvertResult converts the result of a submission
func ConvertResult(r *types.SubmissionResult) *SubmissionResponse {
	rt := &SubmissionResponse{
		SubmissionID: r.ID,
		Verdict:      r.Verdict,
		TestResults:  make([]CaseResult, 0, len(r.Results)),
		ErrorDetails: r.ErrorDetails,
		ErrorMessage: r.ErrorMessage,
	}
	for i := range r.Results {
		rt.TestResults = append(rt.TestResults, ConvertCase(&r.Results[i]))
	}
	return rt
}

// ConvertSampleResult converts the result of a sample run
func ConvertSampleResult(r *types.SubmissionResult) *SampleResponse {
	rt := ConvertResult(r)
	// sample runs are not tracked by id
	rt.SubmissionID = ""
	return &SampleResponse{
		Message:            MessageSamples,
		SubmissionResponse: *rt,
	}
}
