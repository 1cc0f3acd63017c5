package restexecutor

import (
	"errors"
	"net/http"

	"github.com/codeg/judge/cmd/codeg-judge/model"
	"github.com/codeg/judge/hint"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type aiHandle struct {
	service *hint.Service
	logger  *zap.Logger
}

// NewAIHandle creates the handle of hint, feedback and review requests
func NewAIHandle(service *hint.Service, logger *zap.Logger) Register {
	return &aiHandle{
		service: service,
		logger:  logger,
	}
}

func (h *aiHandle) Register(r *gin.Engine) {
	r.POST("/review", h.handleReview)
	r.POST("/ai-feature", h.handleFeature)
}

func (h *aiHandle) handleReview(c *gin.Context) {
	var req model.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err)
		return
	}
	if req.Code == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, model.ErrorResponse{Error: "Missing code"})
		return
	}
	review, err := h.service.Review(c.Request.Context(), req.Code, req.Language)
	if err != nil {
		h.logger.Error("review failed", zap.Error(err))
		c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, model.ErrorResponse{Error: "AI Review Failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "review": review})
}

func (h *aiHandle) handleFeature(c *gin.Context) {
	var req model.AIFeatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err)
		return
	}
	result, err := h.service.Feature(c.Request.Context(), &hint.Request{
		Feature:            req.Feature,
		Code:               req.Code,
		Language:           req.Language,
		ProblemDescription: req.ProblemDescription,
		Constraints:        req.Constraints,
	})
	switch {
	case errors.Is(err, hint.ErrMissingFields):
		c.AbortWithStatusJSON(http.StatusBadRequest, model.ErrorResponse{Error: "Missing required fields"})
		return
	case err != nil:
		h.logger.Error("ai feature failed", zap.String("feature", req.Feature), zap.Error(err))
		c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, model.ErrorResponse{Error: "AI Feature Failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": result})
}
