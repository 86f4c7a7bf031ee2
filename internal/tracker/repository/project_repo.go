package repository

import (
	"context"

	"github.com/Anshu331/harness-portal/internal/tracker/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProjectRepository 项目仓库
type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(ctx context.Context, p *entity.Project) error {
	if p.ID == "" {
		p.ID = uuid.New().String()[:32]
	}
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *ProjectRepository) FindByID(ctx context.Context, id string) (*entity.Project, error) {
	var p entity.Project
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// List 项目列表（最新在前）
func (r *ProjectRepository) List(ctx context.Context) ([]entity.Project, error) {
	items := []entity.Project{}
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&items).Error
	return items, err
}
