package restexecutor

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/codeg/judge/cmd/codeg-judge/model"
	"github.com/codeg/judge/envexec"
	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"
)

// maxSubmissionBody bounds the decoded request body, compressed or not
const maxSubmissionBody = 64 << 20

type submissionHandle struct {
	judger      Judger
	timeLimit   time.Duration
	memoryLimit envexec.Size
	maxBody     int64
	logger      *zap.Logger
}

// NewSubmissionHandle creates the handle of asynchronous submissions, the
// limits apply when the request does not set them
func NewSubmissionHandle(j Judger, timeLimit time.Duration, memoryLimit envexec.Size, logger *zap.Logger) Register {
	return &submissionHandle{
		judger:      j,
		timeLimit:   timeLimit,
		memoryLimit: memoryLimit,
		maxBody:     maxSubmissionBody,
		logger:      logger,
	}
}

func (h *submissionHandle) Register(r *gin.Engine) {
	r.POST("/process-submission", h.handleSubmit)
}

func (h *submissionHandle) handleSubmit(c *gin.Context) {
	var body io.ReadCloser = c.Request.Body
	// bulk test cases are often compressed by the caller
	if strings.EqualFold(c.GetHeader("Content-Encoding"), "gzip") {
		zr, err := gzip.NewReader(c.Request.Body)
		if err != nil {
			abortBadRequest(c, err)
			return
		}
		defer zr.Close()
		body = zr
	}
	body = http.MaxBytesReader(c.Writer, body, h.maxBody)

	var req model.SubmissionRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.Error(err)
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, model.ErrorResponse{Error: "request body too large"})
			return
		}
		abortBadRequest(c, err)
		return
	}
	s := model.ConvertSubmission(&req, h.timeLimit, h.memoryLimit)
	if err := h.judger.Submit(c.Request.Context(), s); err != nil {
		abortWithError(c, err)
		return
	}
	h.logger.Info("submission accepted",
		zap.String("submission", s.ID),
		zap.String("language", s.Language),
		zap.Int("testCases", len(s.TestCases)))
	c.JSON(http.StatusAccepted, gin.H{
		"message":      "accepted",
		"submissionId": s.ID,
	})
}
