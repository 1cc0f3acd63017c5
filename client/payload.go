package client

import (
	"github.com/codeg/judge/types"
)

// CaseResult is the per test case entry of a callback payload
type CaseResult struct {
	Case    int           `json:"case"`
	Verdict types.Verdict `json:"verdict"`
	Passed  bool          `json:"passed"`
}

// Payload is posted to the callback address once a submission finished
type Payload struct {
	Results      []CaseResult  `json:"results"`
	Verdict      types.Verdict `json:"verdict"`
	AuthToken    string        `json:"authToken"`
	ErrorDetails string        `json:"errorDetails,omitempty"`
	ErrorMessage string        `json:"errorMessage,omitempty"`
}

// NewPayload converts the submission result, diagnostics are kept only for
// compilation and runtime errors
func NewPayload(r *types.SubmissionResult, authToken string) *Payload {
	if r.Verdict == types.VerdictSystemError {
		return NewFaultPayload(r.ErrorMessage, authToken)
	}
	p := &Payload{
		Results:   make([]CaseResult, 0, len(r.Results)),
		Verdict:   r.Verdict,
		AuthToken: authToken,
	}
	for _, c := range r.Results {
		p.Results = append(p.Results, CaseResult{
			Case:    c.Index,
			Verdict: c.Verdict,
			Passed:  c.Passed,
		})
	}
	if r.Verdict.WithDetails() {
		p.ErrorDetails = r.ErrorDetails
	}
	return p
}

// NewFaultPayload reports an internal fault without results
func NewFaultPayload(msg, authToken string) *Payload {
	return &Payload{
		Results:      []CaseResult{},
		Verdict:      types.VerdictSystemError,
		AuthToken:    authToken,
		ErrorMessage: msg,
	}
}
