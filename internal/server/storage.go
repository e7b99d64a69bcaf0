package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const maxUploadBytes = 256 << 20

type uploadResponse struct {
	Bucket string `json:"bucket"`
	Path   string `json:"path"`
}

// UploadBlob stores a multipart file and returns its generated object path.
// Service-side tooling only; buyers never hit this.
func (s *Server) UploadBlob(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		AbortWithError(c, newValidationError("file", "invalid_file", "multipart file field is required"))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		AbortWithError(c, newValidationError("file", "invalid_file", "unreadable file"))
		return
	}
	if len(content) > maxUploadBytes {
		AbortWithError(c, newValidationError("file", "file_too_large", "file exceeds upload limit"))
		return
	}

	bucket := strings.TrimSpace(c.PostForm("bucket"))
	contentType := header.Header.Get("Content-Type")

	path, err := s.blobs.Upload(c.Request.Context(), bucket, header.Filename, content, contentType)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, uploadResponse{Bucket: bucket, Path: path})
}
