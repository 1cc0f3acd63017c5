package restexecutor

import (
	"context"
	"net/http"

	"github.com/codeg/judge/problem"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CacheInvalidator drops cached test cases of a problem
type CacheInvalidator interface {
	Invalidate(ctx context.Context, id string) error
}

var _ CacheInvalidator = &problem.Cache{}

type problemHandle struct {
	cache  CacheInvalidator
	logger *zap.Logger
}

// NewProblemHandle lets the problem backend evict a problem after its test
// cases changed, instead of waiting for the cache TTL
func NewProblemHandle(c CacheInvalidator, logger *zap.Logger) Register {
	return &problemHandle{cache: c, logger: logger}
}

func (h *problemHandle) Register(r *gin.Engine) {
	r.DELETE("/problem/:pid/cache", h.handleInvalidate)
}

func (h *problemHandle) handleInvalidate(c *gin.Context) {
	id := c.Param("pid")
	if err := h.cache.Invalidate(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	h.logger.Info("problem cache invalidated", zap.String("problem", id))
	c.Status(http.StatusNoContent)
}
