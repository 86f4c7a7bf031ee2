package repository

import (
	"context"

	"github.com/Anshu331/harness-portal/internal/tracker/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VehicleDetailRepository 车型明细仓库
type VehicleDetailRepository struct {
	db *gorm.DB
}

func NewVehicleDetailRepository(db *gorm.DB) *VehicleDetailRepository {
	return &VehicleDetailRepository{db: db}
}

func (r *VehicleDetailRepository) Create(ctx context.Context, v *entity.VehicleDetail) error {
	if v.ID == "" {
		v.ID = uuid.New().String()[:32]
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(v).Error
}

func (r *VehicleDetailRepository) FindByID(ctx context.Context, id string) (*entity.VehicleDetail, error) {
	var v entity.VehicleDetail
	if err := r.db.WithContext(ctx).Preload("Project").First(&v, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &v, nil
}

func (r *VehicleDetailRepository) List(ctx context.Context) ([]entity.VehicleDetail, error) {
	items := []entity.VehicleDetail{}
	err := r.db.WithContext(ctx).Preload("Project").Order("created_at DESC").Find(&items).Error
	return items, err
}

func (r *VehicleDetailRepository) Save(ctx context.Context, v *entity.VehicleDetail) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(v).Error
}

// Delete 物理删除
func (r *VehicleDetailRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&entity.VehicleDetail{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
