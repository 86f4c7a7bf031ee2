package repository

import (
	"context"

	"github.com/Anshu331/harness-portal/internal/tracker/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ShipmentRepository 发运仓库
type ShipmentRepository struct {
	db *gorm.DB
}

func NewShipmentRepository(db *gorm.DB) *ShipmentRepository {
	return &ShipmentRepository{db: db}
}

// WithTx 返回绑定到事务的仓库
func (r *ShipmentRepository) WithTx(tx *gorm.DB) *ShipmentRepository {
	return &ShipmentRepository{db: tx}
}

// ShipmentFilter 发运查询条件
type ShipmentFilter struct {
	VendorID  string
	HarnessID string
	Status    string
}

func (r *ShipmentRepository) Create(ctx context.Context, s *entity.Shipment) error {
	if s.ID == "" {
		s.ID = uuid.New().String()[:32]
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(s).Error
}

func (r *ShipmentRepository) FindByID(ctx context.Context, id string) (*entity.Shipment, error) {
	var s entity.Shipment
	err := r.db.WithContext(ctx).
		Preload("Harness").
		Preload("Vendor").
		First(&s, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

// FindForUpdate 行锁读取，须在事务中调用
func (r *ShipmentRepository) FindForUpdate(ctx context.Context, id string) (*entity.Shipment, error) {
	var s entity.Shipment
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&s, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *ShipmentRepository) Save(ctx context.Context, s *entity.Shipment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(s).Error
}

// List 发运列表（最新在前）
func (r *ShipmentRepository) List(ctx context.Context, filter ShipmentFilter) ([]entity.Shipment, error) {
	items := []entity.Shipment{}
	query := r.db.WithContext(ctx).
		Preload("Harness").
		Preload("Vendor").
		Model(&entity.Shipment{})
	if filter.VendorID != "" {
		query = query.Where("vendor_id = ?", filter.VendorID)
	}
	if filter.HarnessID != "" {
		query = query.Where("harness_id = ?", filter.HarnessID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	err := query.Order("created_at DESC").Find(&items).Error
	return items, err
}

// HasInTransit 线束是否存在在途发运
func (r *ShipmentRepository) HasInTransit(ctx context.Context, harnessID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Shipment{}).
		Where("harness_id = ? AND status = ?", harnessID, entity.ShipmentStatusInTransit).
		Count(&count).Error
	return count > 0, err
}

// LatestByHarnessIDs 每个线束最近一次发运
func (r *ShipmentRepository) LatestByHarnessIDs(ctx context.Context, harnessIDs []string) (map[string]entity.Shipment, error) {
	result := make(map[string]entity.Shipment)
	if len(harnessIDs) == 0 {
		return result, nil
	}
	var items []entity.Shipment
	err := r.db.WithContext(ctx).
		Where("harness_id IN ?", harnessIDs).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	for _, s := range items {
		result[s.HarnessID] = s
	}
	return result, nil
}
