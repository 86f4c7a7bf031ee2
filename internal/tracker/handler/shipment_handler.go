package handler

import (
	"github.com/Anshu331/harness-portal/internal/tracker/service"
	"github.com/gin-gonic/gin"
)

// ShipmentHandler 发运
type ShipmentHandler struct {
	svc *service.ShipmentService
}

func NewShipmentHandler(svc *service.ShipmentService) *ShipmentHandler {
	return &ShipmentHandler{svc: svc}
}

// List 管理员看到全部，供应商只看到自己的发运
// GET /api/shipment
func (h *ShipmentHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), GetPrincipal(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, items)
}

// Dispatch POST /api/shipment/dispatch/:harnessId
func (h *ShipmentHandler) Dispatch(c *gin.Context) {
	var req service.DispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, bindError(err))
		return
	}
	shipment, err := h.svc.Dispatch(c.Request.Context(), GetPrincipal(c), c.Param("harnessId"), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Created(c, shipment)
}

// Receive POST /api/shipment/receive/:id
func (h *ShipmentHandler) Receive(c *gin.Context) {
	var req service.ReceiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, bindError(err))
		return
	}
	shipment, err := h.svc.Receive(c.Request.Context(), GetPrincipal(c), c.Param("id"), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, shipment)
}
