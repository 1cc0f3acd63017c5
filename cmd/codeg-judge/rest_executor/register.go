package restexecutor

import (
	"context"

	"github.com/codeg/judge/judger"
	"github.com/codeg/judge/types"
	"github.com/gin-gonic/gin"
)

// Register registers the handler
type Register interface {
	Register(*gin.Engine)
}

// Judger is the judging surface used by the handlers, implemented by
// *judger.Judger
type Judger interface {
	RunCustom(lang, source, input string) (*judger.CustomResult, error)
	RunSamples(ctx context.Context, lang, source, problemID string) (*types.SubmissionResult, error)
	Submit(ctx context.Context, s *types.Submission) error
}

var _ Judger = &judger.Judger{}
