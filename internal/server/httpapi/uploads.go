package httpapi

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
)

type uploadForm struct {
	File *multipart.FileHeader `form:"file" binding:"required"`
}

type presignRequest struct {
	ContentType string `json:"content_type" binding:"required"`
	Size        int64  `json:"size" binding:"required,gt=0"`
}

// upload stores a multipart "file" part directly.
func (s *Server) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.config.MaxUploadBytes+1<<20)

	var form uploadForm
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, err)
		return
	}

	f, err := form.File.Open()
	if err != nil {
		badRequest(c, fmt.Errorf("open upload: %w", err))
		return
	}
	defer f.Close()

	contentType, err := sniffContentType(f, form.File.Header.Get("Content-Type"))
	if err != nil {
		badRequest(c, err)
		return
	}

	obj, err := s.svc.Storage.Upload(c.Request.Context(), sessionOf(c), c.Param("kind"),
		contentType, form.File.Size, f)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, obj)
}

func (s *Server) presignUpload(c *gin.Context) {
	var req presignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	obj, err := s.svc.Storage.PresignUpload(c.Request.Context(), sessionOf(c), c.Param("kind"), req.ContentType, req.Size)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, obj)
}

// sniffContentType detects the type of f from its content and rewinds it.
// A declared type that the content does not match is rejected; an empty one
// is replaced by the detected type.
func sniffContentType(f multipart.File, declared string) (string, error) {
	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}
	if declared == "" {
		return mt.String(), nil
	}
	if !mt.Is(declared) {
		return "", fmt.Errorf("content is %s, not %s", mt.String(), declared)
	}
	return declared, nil
}
