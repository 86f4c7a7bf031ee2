package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Anshu331/harness-portal/internal/tracker/entity"
	"github.com/Anshu331/harness-portal/internal/tracker/repository"
)

// ProjectService 项目服务
type ProjectService struct {
	projectRepo *repository.ProjectRepository
}

func NewProjectService(projectRepo *repository.ProjectRepository) *ProjectService {
	return &ProjectService{projectRepo: projectRepo}
}

// CreateProjectRequest 创建项目
type CreateProjectRequest struct {
	VehicleModel string `json:"vehicleModel" binding:"required"`
	Platform     string `json:"platform"`
}

func (s *ProjectService) Create(ctx context.Context, req CreateProjectRequest, operatorID string) (*entity.Project, error) {
	model := strings.TrimSpace(req.VehicleModel)
	if model == "" {
		return nil, invalidInput("vehicleModel is required")
	}
	p := &entity.Project{
		VehicleModel: model,
		Platform:     strings.TrimSpace(req.Platform),
		CreatedBy:    operatorID,
	}
	if err := s.projectRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return p, nil
}

func (s *ProjectService) List(ctx context.Context) ([]entity.Project, error) {
	items, err := s.projectRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return items, nil
}

// resolveProject 校验可选项目引用
func resolveProject(ctx context.Context, repo *repository.ProjectRepository, projectID *string) (*string, error) {
	if projectID == nil || strings.TrimSpace(*projectID) == "" {
		return nil, nil
	}
	id := strings.TrimSpace(*projectID)
	if _, err := repo.FindByID(ctx, id); err != nil {
		if err == repository.ErrNotFound {
			return nil, invalidInput("project %s does not exist", id)
		}
		return nil, fmt.Errorf("find project: %w", err)
	}
	return &id, nil
}
