package handler

import (
	"github.com/Anshu331/harness-portal/internal/tracker/service"
	"github.com/gin-gonic/gin"
)

// HarnessHandler 线束生命周期
type HarnessHandler struct {
	svc *service.HarnessService
}

func NewHarnessHandler(svc *service.HarnessService) *HarnessHandler {
	return &HarnessHandler{svc: svc}
}

// List 当前用户可见的线束
// GET /api/harness
func (h *HarnessHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), GetPrincipal(c), "")
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, items)
}

// ListByProject GET /api/harness/:projectId
func (h *HarnessHandler) ListByProject(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), GetPrincipal(c), c.Param("projectId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, items)
}

// ListMine 分配给当前供应商的线束（任意状态）
// GET /api/harness/vendor/me
func (h *HarnessHandler) ListMine(c *gin.Context) {
	items, err := h.svc.ListForVendor(c.Request.Context(), GetPrincipal(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, items)
}

// Activity GET /api/harness/activity/:id
func (h *HarnessHandler) Activity(c *gin.Context) {
	logs, err := h.svc.Activity(c.Request.Context(), GetPrincipal(c), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, logs)
}

// Create POST /api/harness
func (h *HarnessHandler) Create(c *gin.Context) {
	var req service.CreateHarnessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, bindError(err))
		return
	}
	item, err := h.svc.Create(c.Request.Context(), GetPrincipal(c), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Created(c, item)
}

// Release PATCH /api/harness/release/:id
func (h *HarnessHandler) Release(c *gin.Context) {
	var req service.ReleaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, bindError(err))
		return
	}
	item, err := h.svc.Release(c.Request.Context(), GetPrincipal(c), c.Param("id"), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, item)
}

// AssignVendors PATCH /api/harness/assign-vendors/:id
func (h *HarnessHandler) AssignVendors(c *gin.Context) {
	var req service.AssignVendorsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, bindError(err))
		return
	}
	item, err := h.svc.AssignVendors(c.Request.Context(), GetPrincipal(c), c.Param("id"), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, item)
}

// SampleReceived PATCH /api/sample-received/:id
func (h *HarnessHandler) SampleReceived(c *gin.Context) {
	item, err := h.svc.MarkSampleReceived(c.Request.Context(), GetPrincipal(c), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, item)
}

// VendorETA PATCH /api/harness/vendor-eta/:id
func (h *HarnessHandler) VendorETA(c *gin.Context) {
	var req service.VendorETARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, bindError(err))
		return
	}
	item, err := h.svc.SetVendorETA(c.Request.Context(), GetPrincipal(c), c.Param("id"), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, item)
}

// AssignDVP PATCH /api/harness/assignDVP/:id
func (h *HarnessHandler) AssignDVP(c *gin.Context) {
	var req service.AssignDVPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, bindError(err))
		return
	}
	item, err := h.svc.AssignDVP(c.Request.Context(), GetPrincipal(c), c.Param("id"), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, item)
}

// DVPStatus PATCH /api/harness/dvp-status/:id
func (h *HarnessHandler) DVPStatus(c *gin.Context) {
	var req service.DVPStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, bindError(err))
		return
	}
	item, err := h.svc.SetDVPStatus(c.Request.Context(), GetPrincipal(c), c.Param("id"), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, item)
}

// AssignTNV PATCH /api/harness/assignTNV/:id
func (h *HarnessHandler) AssignTNV(c *gin.Context) {
	var req service.AssignTNVRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, bindError(err))
		return
	}
	item, err := h.svc.AssignTNV(c.Request.Context(), GetPrincipal(c), c.Param("id"), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, item)
}

// TNVStatus PATCH /api/harness/tnv-status/:id
func (h *HarnessHandler) TNVStatus(c *gin.Context) {
	var req service.TNVStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, bindError(err))
		return
	}
	item, err := h.svc.SetTNVStatus(c.Request.Context(), GetPrincipal(c), c.Param("id"), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, item)
}
