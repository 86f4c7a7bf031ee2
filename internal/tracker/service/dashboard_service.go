package service

import (
	"context"
	"fmt"

	"github.com/Anshu331/harness-portal/internal/tracker/entity"
	"github.com/Anshu331/harness-portal/internal/tracker/repository"
	"gorm.io/gorm"
)

// 看板明细过滤
const (
	DashboardFilterTotal       = "total"
	DashboardFilterDevelopment = "development"
	DashboardFilterDispatched  = "dispatched"
	DashboardFilterReceived    = "received"
)

// DashboardService 看板服务
type DashboardService struct {
	db           *gorm.DB
	harnessRepo  *repository.HarnessRepository
	shipmentRepo *repository.ShipmentRepository
}

func NewDashboardService(db *gorm.DB, repos *repository.Repositories) *DashboardService {
	return &DashboardService{
		db:           db,
		harnessRepo:  repos.Harness,
		shipmentRepo: repos.Shipment,
	}
}

// DashboardStats 管理员看板统计
type DashboardStats struct {
	TotalHarness int64 `json:"totalHarness"`
	Development  int64 `json:"development"`
	Dispatched   int64 `json:"dispatched"`
	Received     int64 `json:"received"`
}

// Stats 每次请求实时统计
func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}

	row := s.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*) AS total,
			COUNT(CASE WHEN status = ? THEN 1 END) AS development
		FROM harnesses
	`, entity.HarnessStatusDevelopment).Row()
	if err := row.Scan(&stats.TotalHarness, &stats.Development); err != nil {
		return nil, fmt.Errorf("count harnesses: %w", err)
	}

	row = s.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(CASE WHEN status = ? THEN 1 END) AS dispatched,
			COUNT(CASE WHEN status = ? THEN 1 END) AS received
		FROM shipments
	`, entity.ShipmentStatusInTransit, entity.ShipmentStatusReceived).Row()
	if err := row.Scan(&stats.Dispatched, &stats.Received); err != nil {
		return nil, fmt.Errorf("count shipments: %w", err)
	}

	return stats, nil
}

// DashboardDetail 卡片明细
type DashboardDetail struct {
	Filter    string            `json:"filter"`
	Harnesses []entity.Harness  `json:"harnesses"`
	Shipments []entity.Shipment `json:"shipments"`
}

// Detail total|development 返回线束，dispatched|received 返回发运
func (s *DashboardService) Detail(ctx context.Context, filter string) (*DashboardDetail, error) {
	detail := &DashboardDetail{Filter: filter}
	var err error
	switch filter {
	case DashboardFilterTotal:
		detail.Harnesses, err = s.harnessRepo.List(ctx, repository.HarnessFilter{})
	case DashboardFilterDevelopment:
		detail.Harnesses, err = s.harnessRepo.List(ctx, repository.HarnessFilter{Status: entity.HarnessStatusDevelopment})
	case DashboardFilterDispatched:
		detail.Shipments, err = s.shipmentRepo.List(ctx, repository.ShipmentFilter{Status: entity.ShipmentStatusInTransit})
	case DashboardFilterReceived:
		detail.Shipments, err = s.shipmentRepo.List(ctx, repository.ShipmentFilter{Status: entity.ShipmentStatusReceived})
	default:
		return nil, invalidInput("unknown dashboard filter %q", filter)
	}
	if err != nil {
		return nil, fmt.Errorf("dashboard detail: %w", err)
	}
	if detail.Harnesses == nil && (filter == DashboardFilterTotal || filter == DashboardFilterDevelopment) {
		detail.Harnesses = []entity.Harness{}
	}
	if detail.Shipments == nil && (filter == DashboardFilterDispatched || filter == DashboardFilterReceived) {
		detail.Shipments = []entity.Shipment{}
	}
	return detail, nil
}
