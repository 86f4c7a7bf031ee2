package repository

import (
	"context"

	"github.com/Anshu331/harness-portal/internal/tracker/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HarnessRepository 线束仓库
type HarnessRepository struct {
	db *gorm.DB
}

func NewHarnessRepository(db *gorm.DB) *HarnessRepository {
	return &HarnessRepository{db: db}
}

// WithTx 返回绑定到事务的仓库
func (r *HarnessRepository) WithTx(tx *gorm.DB) *HarnessRepository {
	return &HarnessRepository{db: tx}
}

// HarnessFilter 线束查询条件
type HarnessFilter struct {
	ProjectID    string
	VendorID     string
	Status       string
	ReleasedOnly bool
}

func (r *HarnessRepository) Create(ctx context.Context, h *entity.Harness) error {
	if h.ID == "" {
		h.ID = uuid.New().String()[:32]
	}
	h.Normalize()
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(h).Error
}

func (r *HarnessRepository) preload(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Project").
		Preload("VendorETAHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("set_at ASC")
		}).
		Preload("VendorETAHistory.SetBy")
}

// FindByID 根据ID查找（可附加可见范围）
func (r *HarnessRepository) FindByID(ctx context.Context, id string, scopes ...Scope) (*entity.Harness, error) {
	var h entity.Harness
	query := applyScopes(r.preload(r.db.WithContext(ctx)), scopes)
	if err := query.First(&h, "harnesses.id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	h.Normalize()
	return &h, nil
}

// FindForUpdate 行锁读取，须在事务中调用
func (r *HarnessRepository) FindForUpdate(ctx context.Context, id string) (*entity.Harness, error) {
	var h entity.Harness
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&h, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	h.Normalize()
	return &h, nil
}

// Save 保存线束（不级联关联）
func (r *HarnessRepository) Save(ctx context.Context, h *entity.Harness) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(h).Error
}

// List 线束列表
func (r *HarnessRepository) List(ctx context.Context, filter HarnessFilter, scopes ...Scope) ([]entity.Harness, error) {
	items := []entity.Harness{}
	query := applyScopes(r.preload(r.db.WithContext(ctx)).Model(&entity.Harness{}), scopes)
	if filter.ProjectID != "" {
		query = query.Where("project_id = ?", filter.ProjectID)
	}
	if filter.VendorID != "" {
		query = query.Where("? = ANY(assigned_vendors)", filter.VendorID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ReleasedOnly {
		query = query.Where("drawings_release_date IS NOT NULL")
	}
	if err := query.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Normalize()
	}
	return items, nil
}

// AppendETALog 追加ETA历史
func (r *HarnessRepository) AppendETALog(ctx context.Context, log *entity.HarnessETALog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()[:32]
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(log).Error
}
