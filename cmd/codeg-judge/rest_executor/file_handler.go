package restexecutor

import (
	"errors"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/codeg/judge/filestore"
	"github.com/gin-gonic/gin"
)

// maxSourceUpload bounds a single uploaded source file
const maxSourceUpload = 1 << 20

var errUploadTooLarge = errors.New("uploaded source exceeds 1MiB")

type fileHandle struct {
	fs filestore.FileStore
}

// NewFileHandle serves source uploads later referenced by sourceFileId
func NewFileHandle(fs filestore.FileStore) Register {
	return &fileHandle{fs: fs}
}

func (f *fileHandle) Register(r *gin.Engine) {
	g := r.Group("/file")
	g.GET("", f.list)
	g.POST("", f.upload)
	g.GET("/:fid", f.download)
	g.DELETE("/:fid", f.remove)
}

func (f *fileHandle) list(c *gin.Context) {
	c.JSON(http.StatusOK, f.fs.List())
}

// upload stores the multipart field "file" and replies with its id
func (f *fileHandle) upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		abortBadRequest(c, err)
		return
	}
	if fh.Size > maxSourceUpload {
		abortBadRequest(c, errUploadTooLarge)
		return
	}
	r, err := fh.Open()
	if err != nil {
		abortWithError(c, err)
		return
	}
	defer r.Close()

	id, err := f.fs.Add(filepath.Base(fh.Filename), r)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, id)
}

func (f *fileHandle) download(c *gin.Context) {
	name, content, err := f.fs.Get(c.Param("fid"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	ct := mime.TypeByExtension(filepath.Ext(name))
	if ct == "" {
		ct = "text/plain; charset=utf-8"
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	c.Data(http.StatusOK, ct, content)
}

func (f *fileHandle) remove(c *gin.Context) {
	if !f.fs.Remove(c.Param("fid")) {
		abortWithError(c, filestore.ErrNotFound)
		return
	}
	c.Status(http.StatusOK)
}
