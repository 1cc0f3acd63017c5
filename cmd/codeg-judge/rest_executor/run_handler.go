package restexecutor

import (
	"errors"
	"io"
	"net/http"

	"github.com/codeg/judge/cmd/codeg-judge/model"
	"github.com/codeg/judge/filestore"
	"github.com/codeg/judge/judger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var errNoRunMode = errors.New("request has neither custom input nor problem id")

type runHandle struct {
	judger Judger
	fs     filestore.FileStore
	logger *zap.Logger
}

// NewRunHandle creates the handle of synchronous runs. fs resolves
// sourceFileId and may be nil.
func NewRunHandle(j Judger, fs filestore.FileStore, logger *zap.Logger) Register {
	return &runHandle{
		judger: j,
		fs:     fs,
		logger: logger,
	}
}

func (h *runHandle) Register(r *gin.Engine) {
	r.POST("/run", h.handleRun)
	r.POST("/submission/run-sample", h.handleRun)
}

func (h *runHandle) handleRun(c *gin.Context) {
	req, err := bindRunRequest(c)
	if err != nil {
		abortBadRequest(c, err)
		return
	}
	source, err := h.source(c, req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	switch {
	case req.CustomInput != nil:
		rt, err := h.judger.RunCustom(req.Language, source, *req.CustomInput)
		if err != nil {
			abortWithError(c, err)
			return
		}
		h.logger.Debug("custom run", zap.String("language", req.Language), zap.Stringer("verdict", rt.Verdict))
		c.JSON(http.StatusOK, model.CustomResponse{
			Message:    model.MessageCustom,
			Verdict:    rt.Verdict,
			ExecResult: model.ConvertOutcome(rt.Outcome, rt.Stderr),
		})

	case req.ProblemID != "":
		rt, err := h.judger.RunSamples(c.Request.Context(), req.Language, source, req.ProblemID)
		if errors.Is(err, judger.ErrNoSampleCases) {
			c.JSON(http.StatusOK, model.SampleResponse{
				Message:            model.MessageNoSamples,
				SubmissionResponse: model.SubmissionResponse{TestResults: []model.CaseResult{}},
			})
			return
		}
		if err != nil {
			abortWithError(c, err)
			return
		}
		h.logger.Debug("sample run", zap.String("problem", req.ProblemID), zap.Stringer("verdict", rt.Verdict))
		c.JSON(http.StatusOK, model.ConvertSampleResult(rt))

	default:
		c.Error(errNoRunMode)
		c.AbortWithStatusJSON(http.StatusBadRequest, model.ErrorResponse{Error: model.MessageNoRunMode})
	}
}

// bindRunRequest reads json bodies or multipart forms carrying the source
// as file
func bindRunRequest(c *gin.Context) (*model.RunRequest, error) {
	if c.ContentType() != gin.MIMEMultipartPOSTForm {
		var req model.RunRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, err
		}
		return &req, nil
	}
	req := &model.RunRequest{
		Language:     c.PostForm("language"),
		SourceCode:   c.PostForm("sourceCode"),
		SourceFileID: c.PostForm("sourceFileId"),
		ProblemID:    c.PostForm("problemId"),
	}
	if in, ok := c.GetPostForm("customInput"); ok {
		req.CustomInput = &in
	}
	return req, nil
}

// source resolves the source text: inline, uploaded before by id or
// attached as multipart file
func (h *runHandle) source(c *gin.Context, req *model.RunRequest) (string, error) {
	switch {
	case req.SourceCode != "":
		return req.SourceCode, nil

	case req.SourceFileID != "":
		if h.fs == nil {
			return "", filestore.ErrNotFound
		}
		_, content, err := h.fs.Get(req.SourceFileID)
		if err != nil {
			return "", err
		}
		return string(content), nil
	}

	fh, err := c.FormFile("sourceCode")
	if err != nil {
		// validated by the judger as missing source
		return "", nil
	}
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	return string(content), nil
}
