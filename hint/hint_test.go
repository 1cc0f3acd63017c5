package hint

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeGenerator struct {
	prompt string
	err    error
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return "generated", nil
}

func TestFeature(t *testing.T) {
	tests := []struct {
		Name     string
		Request  Request
		Err      error
		Contains []string
	}{
		{
			Name:     "Hint",
			Request:  Request{Feature: FeatureHint, Code: "int main(){}", Language: "cpp", ProblemDescription: "A+B"},
			Contains: []string{"Provide hints", "Problem: A+B", "Constraints: N/A", "Code (cpp):\nint main(){}", "4. Common Pitfalls"},
		},
		{
			Name:     "Feedback",
			Request:  Request{Feature: FeatureFeedback, Code: "print(1)", Language: "python", Constraints: "n <= 10"},
			Contains: []string{"constructive feedback", "Problem: N/A", "Constraints: n <= 10", "5. Improvements"},
		},
		{
			Name:    "MissingCode",
			Request: Request{Feature: FeatureHint},
			Err:     ErrMissingFields,
		},
		{
			Name:    "MissingFeature",
			Request: Request{Code: "x"},
			Err:     ErrMissingFields,
		},
		{
			Name:    "Unknown",
			Request: Request{Feature: "Solve", Code: "x"},
			Err:     ErrUnknownFeature,
		},
	}
	for _, tc := range tests {
		t.Run(tc.Name, func(t *testing.T) {
			gen := &fakeGenerator{}
			r, err := NewService(gen).Feature(context.Background(), &tc.Request)
			if !errors.Is(err, tc.Err) {
				t.Fatalf("expected %v, got %v", tc.Err, err)
			}
			if tc.Err != nil {
				if gen.prompt != "" {
					t.Error("generator must not be called for invalid requests")
				}
				return
			}
			if r != "generated" {
				t.Errorf("unexpected result %q", r)
			}
			for _, c := range tc.Contains {
				if !strings.Contains(gen.prompt, c) {
					t.Errorf("prompt misses %q:\n%s", c, gen.prompt)
				}
			}
		})
	}
}

func TestReview(t *testing.T) {
	gen := &fakeGenerator{}
	s := NewService(gen)
	if _, err := s.Review(context.Background(), "", "go"); !errors.Is(err, ErrMissingFields) {
		t.Errorf("expected ErrMissingFields, got %v", err)
	}
	if _, err := s.Review(context.Background(), "fmt.Println()", "go"); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(gen.prompt, "Act as a code reviewer for go code:\nfmt.Println()") {
		t.Errorf("unexpected prompt %q", gen.prompt)
	}

	gen.err = errors.New("quota exceeded")
	if _, err := s.Review(context.Background(), "x", "go"); err == nil {
		t.Error("expected generator error")
	}
}
