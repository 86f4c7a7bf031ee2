package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// multipartOverhead 表单字段及边界的额外余量
const multipartOverhead = 1 << 20

// limitBody 限制请求体大小，超限时 FormFile 返回 *http.MaxBytesError
func limitBody(c *gin.Context, maxUpload int64) {
	if maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUpload+multipartOverhead)
	}
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
