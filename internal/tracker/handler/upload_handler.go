package handler

import (
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/Anshu331/harness-portal/internal/tracker/storage"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UploadHandler 上传文件访问
type UploadHandler struct {
	store  storage.FileStore
	logger *zap.Logger
}

func NewUploadHandler(store storage.FileStore, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{store: store, logger: logger}
}

// Serve 读取存储中的文件，支持 Range
// GET /uploads/*path
func (h *UploadHandler) Serve(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("path"), "/")
	rc, info, err := h.store.Open(c.Request.Context(), key)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrInvalidKey):
			NotFound(c, "file not found")
		default:
			h.logger.Error("open upload", zap.String("key", key), zap.Error(err))
			InternalError(c, "failed to read file")
		}
		return
	}
	defer rc.Close()

	if info.ContentType != "" {
		c.Header("Content-Type", info.ContentType)
	}
	http.ServeContent(c.Writer, c.Request, path.Base(key), info.ModTime, rc)
}
