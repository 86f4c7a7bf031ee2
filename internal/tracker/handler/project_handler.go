package handler

import (
	"github.com/Anshu331/harness-portal/internal/tracker/service"
	"github.com/gin-gonic/gin"
)

// ProjectHandler 项目
type ProjectHandler struct {
	svc *service.ProjectService
}

func NewProjectHandler(svc *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{svc: svc}
}

// List GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.svc.List(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, projects)
}

// Create POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req service.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, bindError(err))
		return
	}
	project, err := h.svc.Create(c.Request.Context(), req, GetUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Created(c, project)
}
