package repository

import (
	"context"

	"github.com/Anshu331/harness-portal/internal/tracker/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReportRepository 报告仓库
type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) Create(ctx context.Context, rep *entity.Report) error {
	if rep.ID == "" {
		rep.ID = uuid.New().String()[:32]
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(rep).Error
}

// ListByHarness 按线束和类型查询报告，types为空返回空列表
func (r *ReportRepository) ListByHarness(ctx context.Context, harnessID string, types []string) ([]entity.Report, error) {
	items := []entity.Report{}
	if len(types) == 0 {
		return items, nil
	}
	err := r.db.WithContext(ctx).
		Preload("Uploader").
		Where("harness_id = ? AND type IN ?", harnessID, types).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}
