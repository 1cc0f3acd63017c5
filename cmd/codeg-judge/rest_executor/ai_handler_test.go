package restexecutor

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/codeg/judge/cmd/codeg-judge/model"
	"github.com/codeg/judge/hint"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"
)

type fakeGenerator struct {
	text string
	err  error
}

func (g fakeGenerator) Generate(context.Context, string) (string, error) {
	return g.text, g.err
}

func newAIRouter(t *testing.T, gen hint.Generator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewAIHandle(hint.NewService(gen), zaptest.NewLogger(t)).Register(router)
	return router
}

func TestHandleAIFeature(t *testing.T) {
	tests := []struct {
		Name   string
		Gen    fakeGenerator
		Body   model.AIFeatureRequest
		Status int
		Expect string
	}{
		{
			Name:   "Hint",
			Gen:    fakeGenerator{text: "1. Strategic Hints"},
			Body:   model.AIFeatureRequest{Feature: hint.FeatureHint, Code: "x = 1", Language: "python"},
			Status: http.StatusOK,
			Expect: "Strategic Hints",
		},
		{
			Name:   "MissingCode",
			Body:   model.AIFeatureRequest{Feature: hint.FeatureHint},
			Status: http.StatusBadRequest,
			Expect: "Missing required fields",
		},
		{
			Name:   "GeneratorFailed",
			Gen:    fakeGenerator{err: errors.New("quota exceeded")},
			Body:   model.AIFeatureRequest{Feature: hint.FeatureFeedback, Code: "x = 1"},
			Status: http.StatusInternalServerError,
			Expect: "AI Feature Failed",
		},
		{
			Name:   "UnknownFeature",
			Body:   model.AIFeatureRequest{Feature: "Poem", Code: "x = 1"},
			Status: http.StatusInternalServerError,
			Expect: "AI Feature Failed",
		},
	}
	for _, tc := range tests {
		t.Run(tc.Name, func(t *testing.T) {
			router := newAIRouter(t, tc.Gen)
			w := serve(router, http.MethodPost, "/ai-feature", requestToReader(tc.Body), "application/json")
			if w.Code != tc.Status {
				t.Fatalf("expected status %d, got %d", tc.Status, w.Code)
			}
			if !strings.Contains(w.Body.String(), tc.Expect) {
				t.Errorf("expected %q in %s", tc.Expect, w.Body.String())
			}
		})
	}
}

func TestHandleReview(t *testing.T) {
	router := newAIRouter(t, fakeGenerator{text: "### Summary"})

	w := serve(router, http.MethodPost, "/review", requestToReader(model.ReviewRequest{Code: "x = 1", Language: "python"}), "application/json")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "### Summary") {
		t.Fatalf("unexpected review %d %s", w.Code, w.Body.String())
	}

	w = serve(router, http.MethodPost, "/review", requestToReader(model.ReviewRequest{}), "application/json")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}

	router = newAIRouter(t, fakeGenerator{err: errors.New("down")})
	w = serve(router, http.MethodPost, "/review", requestToReader(model.ReviewRequest{Code: "x = 1"}), "application/json")
	if w.Code != http.StatusInternalServerError || !strings.Contains(w.Body.String(), "AI Review Failed") {
		t.Errorf("unexpected failure response %d %s", w.Code, w.Body.String())
	}
}
