package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Anshu331/harness-portal/internal/tracker/service"
	"github.com/gin-gonic/gin"
)

// ReportHandler 线束文档
type ReportHandler struct {
	svc       *service.ReportService
	maxUpload int64
}

func NewReportHandler(svc *service.ReportService, maxUpload int64) *ReportHandler {
	return &ReportHandler{svc: svc, maxUpload: maxUpload}
}

// Upload 上传文档 multipart: file, type, remarks
// POST /api/report/upload/:harnessId
func (h *ReportHandler) Upload(c *gin.Context) {
	limitBody(c, h.maxUpload)

	fh, err := c.FormFile("file")
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		if tooLarge(err) {
			BadRequest(c, fmt.Sprintf("file exceeds the %d MB limit", h.maxUpload>>20))
			return
		}
		BadRequest(c, "invalid multipart form: "+err.Error())
		return
	}
	in := service.UploadReportInput{
		Type:    c.PostForm("type"),
		Remarks: c.PostForm("remarks"),
	}
	if fh != nil {
		file, f, err := fileInput(fh)
		if err != nil {
			InternalError(c, "failed to read upload")
			return
		}
		defer f.Close()
		in.File = *file
	}

	report, err := h.svc.Upload(c.Request.Context(), GetPrincipal(c), c.Param("harnessId"), in)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Created(c, report)
}

// List GET /api/report/harness/:id?type=DVP_REPORT
func (h *ReportHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), GetPrincipal(c), c.Param("id"), c.Query("type"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, items)
}
