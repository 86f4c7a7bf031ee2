package repository

import (
	"errors"

	"github.com/Anshu331/harness-portal/internal/tracker/entity"
	"gorm.io/gorm"
)

// 错误定义
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// Scope 查询范围（由权限策略提供）
type Scope func(*gorm.DB) *gorm.DB

// Repositories 仓库集合
type Repositories struct {
	User          *UserRepository
	Project       *ProjectRepository
	Harness       *HarnessRepository
	Shipment      *ShipmentRepository
	Report        *ReportRepository
	VehicleDetail *VehicleDetailRepository
	ActivityLog   *ActivityLogRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:          NewUserRepository(db),
		Project:       NewProjectRepository(db),
		Harness:       NewHarnessRepository(db),
		Shipment:      NewShipmentRepository(db),
		Report:        NewReportRepository(db),
		VehicleDetail: NewVehicleDetailRepository(db),
		ActivityLog:   NewActivityLogRepository(db),
	}
}

// Models 需要迁移的全部实体
func Models() []interface{} {
	return []interface{}{
		&entity.User{},
		&entity.Project{},
		&entity.Harness{},
		&entity.HarnessETALog{},
		&entity.Shipment{},
		&entity.Report{},
		&entity.VehicleDetail{},
		&entity.ActivityLog{},
	}
}

// AutoMigrate 自动迁移表结构
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// duplicate 唯一约束冲突（需开启 TranslateError）
func duplicate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

func applyScopes(db *gorm.DB, scopes []Scope) *gorm.DB {
	for _, s := range scopes {
		if s != nil {
			db = s(db)
		}
	}
	return db
}
