package service

import (
	"github.com/Anshu331/harness-portal/internal/config"
	"github.com/Anshu331/harness-portal/internal/tracker/policy"
	"github.com/Anshu331/harness-portal/internal/tracker/repository"
	"github.com/Anshu331/harness-portal/internal/tracker/sse"
	"github.com/Anshu331/harness-portal/internal/tracker/storage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services 服务集合
type Services struct {
	Auth          *AuthService
	User          *UserService
	Project       *ProjectService
	Harness       *HarnessService
	Shipment      *ShipmentService
	Report        *ReportService
	VehicleDetail *VehicleDetailService
	Dashboard     *DashboardService
	Tracking      *TrackingService
}

// Deps 服务依赖
type Deps struct {
	DB     *gorm.DB
	Repos  *repository.Repositories
	Redis  *redis.Client
	Store  storage.FileStore
	Hub    *sse.Hub
	Policy *policy.Policy
	Config *config.Config
	Logger *zap.Logger
}

// NewServices 创建服务集合
func NewServices(d Deps) *Services {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxSize := d.Config.Storage.MaxUploadSize

	return &Services{
		Auth:          NewAuthService(d.Repos.User, d.Redis, d.Config.JWT, d.Hub, logger.Named("auth")),
		User:          NewUserService(d.Repos.User, d.Policy),
		Project:       NewProjectService(d.Repos.Project),
		Harness:       NewHarnessService(d.DB, d.Repos, d.Policy, d.Hub, logger.Named("harness")),
		Shipment:      NewShipmentService(d.DB, d.Repos, d.Policy, d.Hub, logger.Named("shipment")),
		Report:        NewReportService(d.Repos, d.Store, d.Policy, d.Hub, maxSize, logger.Named("report")),
		VehicleDetail: NewVehicleDetailService(d.Repos, d.Store, maxSize, logger.Named("vehicle")),
		Dashboard:     NewDashboardService(d.DB, d.Repos),
		Tracking:      NewTrackingService(d.Repos),
	}
}
