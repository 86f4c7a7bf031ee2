package handler

import (
	"fmt"

	"github.com/Anshu331/harness-portal/internal/tracker/service"
	"github.com/gin-gonic/gin"
)

// TrackingHandler 线束跟踪表
type TrackingHandler struct {
	svc *service.TrackingService
}

func NewTrackingHandler(svc *service.TrackingService) *TrackingHandler {
	return &TrackingHandler{svc: svc}
}

// List GET /api/tracking?vendorId=
func (h *TrackingHandler) List(c *gin.Context) {
	rows, err := h.svc.List(c.Request.Context(), c.Query("vendorId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, rows)
}

// Export 导出xlsx
// GET /api/tracking/export?vendorId=
func (h *TrackingHandler) Export(c *gin.Context) {
	f, filename, err := h.svc.Export(c.Request.Context(), c.Query("vendorId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Content-Transfer-Encoding", "binary")
	if err := f.Write(c.Writer); err != nil {
		c.Error(err)
	}
}
