// Package hint asks a text generation model for hints, feedback and reviews
// of user code. It is never used while grading.
package hint

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Features accepted by Service.Feature
const (
	FeatureHint     = "Hint"
	FeatureFeedback = "Feedback"
)

var (
	// ErrMissingFields is returned when the feature or the code is empty
	ErrMissingFields = errors.New("missing required fields")

	// ErrUnknownFeature is returned for features other than Hint / Feedback
	ErrUnknownFeature = errors.New("unknown AI feature requested")
)

// Generator produces text for a prompt
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Request describes the code a hint or feedback is asked for
type Request struct {
	Feature            string
	Code               string
	Language           string
	ProblemDescription string
	Constraints        string
}

// Service builds prompts and forwards them to the generator
type Service struct {
	gen Generator
}

// NewService creates the service on top of gen
func NewService(gen Generator) *Service {
	return &Service{gen: gen}
}

// Feature returns hints or feedback for the request
func (s *Service) Feature(ctx context.Context, r *Request) (string, error) {
	if r.Feature == "" || r.Code == "" {
		return "", ErrMissingFields
	}
	var prompt string
	switch r.Feature {
	case FeatureHint:
		prompt = fmt.Sprintf(hintPrompt, orNA(r.ProblemDescription), orNA(r.Constraints), r.Language, r.Code)
	case FeatureFeedback:
		prompt = fmt.Sprintf(feedbackPrompt, orNA(r.ProblemDescription), orNA(r.Constraints), r.Language, r.Code)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFeature, r.Feature)
	}
	return s.gen.Generate(ctx, prompt)
}

// Review returns a markdown code review
func (s *Service) Review(ctx context.Context, code, language string) (string, error) {
	if code == "" {
		return "", ErrMissingFields
	}
	return s.gen.Generate(ctx, fmt.Sprintf(reviewPrompt, language, code))
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

const hintPrompt = `Provide hints to solve this coding problem without full solution.
Problem: %s
Constraints: %s
Code (%s):
%s
Format:
1. Strategic Hints
2. Key Insights
3. Optimization Tips
4. Common Pitfalls`

const feedbackPrompt = `Give constructive feedback on this solution.
Problem: %s
Constraints: %s
Code (%s):
%s
Analyze:
1. Correctness
2. Code Quality
3. Efficiency
4. Best Practices
5. Improvements`

const reviewPrompt = `Act as a code reviewer for %s code:
%s
Provide review in markdown:
## Overall Assessment
## Strengths
## Issues Found (Critical/Major/Minor)
## Specific Recommendations (with examples)
## Best Practices`
