package handler

import (
	"github.com/Anshu331/harness-portal/internal/tracker/service"
	"github.com/gin-gonic/gin"
)

// DashboardHandler 管理员看板
type DashboardHandler struct {
	svc *service.DashboardService
}

func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

// Stats GET /api/dashboard
func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, stats)
}

// Detail GET /api/dashboard/:filter
func (h *DashboardHandler) Detail(c *gin.Context) {
	detail, err := h.svc.Detail(c.Request.Context(), c.Param("filter"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, detail)
}
