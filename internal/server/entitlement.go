package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

type purchaseStatusResponse struct {
	Purchased bool `json:"purchased"`
}

func (s *Server) GetPurchaseStatus(c *gin.Context) {
	itemID, ok := itemIDQuery(c)
	if !ok {
		return
	}

	purchased, err := s.gate.CheckStatus(c.Request.Context(), bearerToken(c), itemID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, purchaseStatusResponse{Purchased: purchased})
}

// DownloadItem streams the purchased bytes with an attachment disposition.
// Authorization happens in the gate; the blob store only moves bytes.
func (s *Server) DownloadItem(c *gin.Context) {
	itemID, ok := itemIDQuery(c)
	if !ok {
		return
	}

	location, err := s.gate.AuthorizeDownload(c.Request.Context(), bearerToken(c), itemID)
	if err != nil {
		s.metrics.RecordDownload(c.Request.Context(), "denied")
		AbortWithError(c, err)
		return
	}

	data, err := s.blobs.Download(c.Request.Context(), location.Bucket, location.Path)
	if err != nil {
		s.metrics.RecordDownload(c.Request.Context(), "storage_error")
		AbortWithError(c, err)
		return
	}

	s.metrics.RecordDownload(c.Request.Context(), "ok")
	c.Header("Content-Disposition", `attachment; filename="`+location.Filename+`"`)
	c.Data(http.StatusOK, "application/octet-stream", data)
}

func itemIDQuery(c *gin.Context) (int64, bool) {
	raw := strings.TrimSpace(c.Query("item_id"))
	itemID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || itemID <= 0 {
		AbortWithError(c, newValidationError("item_id", "invalid_item_id", "item_id must be a positive integer"))
		return 0, false
	}
	return itemID, true
}

func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
