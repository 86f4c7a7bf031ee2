package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Anshu331/harness-portal/internal/tracker/service"
	"github.com/gin-gonic/gin"
)

// VehicleDetailHandler 车型明细（仅管理员）
type VehicleDetailHandler struct {
	svc       *service.VehicleDetailService
	maxUpload int64
}

func NewVehicleDetailHandler(svc *service.VehicleDetailService, maxUpload int64) *VehicleDetailHandler {
	return &VehicleDetailHandler{svc: svc, maxUpload: maxUpload}
}

// List GET /api/vehicle-details
func (h *VehicleDetailHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, items)
}

// Create POST /api/vehicle-details (multipart, drawing 可选)
func (h *VehicleDetailHandler) Create(c *gin.Context) {
	limitBody(c, h.maxUpload)

	var req service.CreateVehicleDetailRequest
	if err := c.ShouldBind(&req); err != nil {
		if tooLarge(err) {
			BadRequest(c, fmt.Sprintf("file exceeds the %d MB limit", h.maxUpload>>20))
			return
		}
		BadRequest(c, bindError(err))
		return
	}

	var drawing *service.FileInput
	fh, err := c.FormFile("drawing")
	switch {
	case err == nil:
		file, f, err := fileInput(fh)
		if err != nil {
			InternalError(c, "failed to read upload")
			return
		}
		defer f.Close()
		drawing = file
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		BadRequest(c, "invalid multipart form: "+err.Error())
		return
	}

	item, err := h.svc.Create(c.Request.Context(), GetPrincipal(c), req, drawing)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Created(c, item)
}

// Update PATCH /api/vehicle-details/:id
func (h *VehicleDetailHandler) Update(c *gin.Context) {
	var req service.UpdateVehicleDetailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, bindError(err))
		return
	}
	item, err := h.svc.Update(c.Request.Context(), GetPrincipal(c), c.Param("id"), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, item)
}

// Delete DELETE /api/vehicle-details/:id
func (h *VehicleDetailHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), GetPrincipal(c), c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, nil)
}

// UploadDrawing POST /api/vehicle-details/:id/drawing
func (h *VehicleDetailHandler) UploadDrawing(c *gin.Context) {
	limitBody(c, h.maxUpload)

	fh, err := c.FormFile("drawing")
	if err != nil {
		if tooLarge(err) {
			BadRequest(c, fmt.Sprintf("file exceeds the %d MB limit", h.maxUpload>>20))
			return
		}
		BadRequest(c, "drawing file is required")
		return
	}
	drawing, f, err := fileInput(fh)
	if err != nil {
		InternalError(c, "failed to read upload")
		return
	}
	defer f.Close()

	item, err := h.svc.UploadDrawing(c.Request.Context(), GetPrincipal(c), c.Param("id"), drawing)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, item)
}
