package restexecutor

import (
	"errors"
	"net/http"

	"github.com/codeg/judge/cmd/codeg-judge/model"
	"github.com/codeg/judge/filestore"
	"github.com/codeg/judge/judger"
	"github.com/codeg/judge/problem"
	"github.com/codeg/judge/types"
	"github.com/gin-gonic/gin"
)

// abortWithError maps err to the response status. Internal faults carry a
// fixed message, the detail only goes to the access log.
func abortWithError(c *gin.Context, err error) {
	c.Error(err)
	status, msg := http.StatusInternalServerError, types.VerdictSystemError.String()
	switch {
	case errors.Is(err, judger.ErrInvalidSubmission):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, problem.ErrNotFound), errors.Is(err, filestore.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, problem.ErrUnavailable):
		status, msg = http.StatusBadGateway, err.Error()
	case errors.Is(err, judger.ErrShuttingDown):
		status, msg = http.StatusServiceUnavailable, err.Error()
	}
	c.AbortWithStatusJSON(status, model.ErrorResponse{Error: msg})
}

func abortBadRequest(c *gin.Context, err error) {
	c.Error(err)
	c.AbortWithStatusJSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
}
