package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Anshu331/harness-portal/internal/tracker/entity"
	"github.com/Anshu331/harness-portal/internal/tracker/policy"
	"github.com/Anshu331/harness-portal/internal/tracker/repository"
	"github.com/Anshu331/harness-portal/internal/tracker/storage"
	"go.uber.org/zap"
)

// NullableString 区分字段缺失与显式 null
type NullableString struct {
	Set   bool
	Value *string
}

func (n *NullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// VehicleDetailService 车型明细服务
type VehicleDetailService struct {
	repo         *repository.VehicleDetailRepository
	projectRepo  *repository.ProjectRepository
	activityRepo *repository.ActivityLogRepository
	store        storage.FileStore
	maxSize      int64
	logger       *zap.Logger
}

func NewVehicleDetailService(
	repos *repository.Repositories,
	store storage.FileStore,
	maxSize int64,
	logger *zap.Logger,
) *VehicleDetailService {
	return &VehicleDetailService{
		repo:         repos.VehicleDetail,
		projectRepo:  repos.Project,
		activityRepo: repos.ActivityLog,
		store:        store,
		maxSize:      maxSize,
		logger:       logger,
	}
}

func (s *VehicleDetailService) List(ctx context.Context) ([]entity.VehicleDetail, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list vehicle details: %w", err)
	}
	return items, nil
}

// CreateVehicleDetailRequest multipart 表单字段
type CreateVehicleDetailRequest struct {
	VehicleType     string `form:"vehicleType"`
	VehicleName     string `form:"vehicleName"`
	ProjectID       string `form:"projectId"`
	PartNo          string `form:"partNo" binding:"required"`
	PartDescription string `form:"partDescription"`
}

// Create 创建车型明细，drawing 可选
func (s *VehicleDetailService) Create(ctx context.Context, p policy.Principal, req CreateVehicleDetailRequest, drawing *FileInput) (*entity.VehicleDetail, error) {
	vehicleType := strings.TrimSpace(req.VehicleType)
	if vehicleType == "" {
		vehicleType = entity.VehicleType3W
	}
	if !entity.IsValidVehicleType(vehicleType) {
		return nil, invalidInput("vehicleType must be %s or %s", entity.VehicleType3W, entity.VehicleType4W)
	}
	partNo := strings.TrimSpace(req.PartNo)
	if partNo == "" {
		return nil, invalidInput("partNo is required")
	}
	projectID, err := resolveProject(ctx, s.projectRepo, &req.ProjectID)
	if err != nil {
		return nil, err
	}

	item := &entity.VehicleDetail{
		VehicleType:     vehicleType,
		VehicleName:     strings.TrimSpace(req.VehicleName),
		ProjectID:       projectID,
		PartNo:          partNo,
		PartDescription: strings.TrimSpace(req.PartDescription),
		CreatedBy:       p.UserID,
	}
	if drawing != nil {
		if err := s.storeDrawing(ctx, item, drawing); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Create(ctx, item); err != nil {
		s.removeFile(ctx, item.DrawingKey)
		return nil, fmt.Errorf("create vehicle detail: %w", err)
	}
	s.log(ctx, p, item, "create", "vehicle detail created")
	return s.repo.FindByID(ctx, item.ID)
}

// UpdateVehicleDetailRequest 局部更新，projectId 为 null 时解除关联
type UpdateVehicleDetailRequest struct {
	VehicleType     *string        `json:"vehicleType"`
	VehicleName     *string        `json:"vehicleName"`
	ProjectID       NullableString `json:"projectId"`
	PartNo          *string        `json:"partNo"`
	PartDescription *string        `json:"partDescription"`
}

func (s *VehicleDetailService) Update(ctx context.Context, p policy.Principal, id string, req UpdateVehicleDetailRequest) (*entity.VehicleDetail, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err, "vehicle detail")
	}

	if req.VehicleType != nil {
		vt := strings.TrimSpace(*req.VehicleType)
		if !entity.IsValidVehicleType(vt) {
			return nil, invalidInput("vehicleType must be %s or %s", entity.VehicleType3W, entity.VehicleType4W)
		}
		item.VehicleType = vt
	}
	if req.VehicleName != nil {
		item.VehicleName = strings.TrimSpace(*req.VehicleName)
	}
	if req.ProjectID.Set {
		projectID, err := resolveProject(ctx, s.projectRepo, req.ProjectID.Value)
		if err != nil {
			return nil, err
		}
		item.ProjectID = projectID
		item.Project = nil
	}
	if req.PartNo != nil {
		partNo := strings.TrimSpace(*req.PartNo)
		if partNo == "" {
			return nil, invalidInput("partNo cannot be empty")
		}
		item.PartNo = partNo
	}
	if req.PartDescription != nil {
		item.PartDescription = strings.TrimSpace(*req.PartDescription)
	}

	if err := s.repo.Save(ctx, item); err != nil {
		return nil, fmt.Errorf("update vehicle detail: %w", err)
	}
	s.log(ctx, p, item, "update", "vehicle detail updated")
	return s.repo.FindByID(ctx, item.ID)
}

// Delete 物理删除，并删除图纸文件
func (s *VehicleDetailService) Delete(ctx context.Context, p policy.Principal, id string) error {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return wrapNotFound(err, "vehicle detail")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return wrapNotFound(err, "vehicle detail")
	}
	s.removeFile(ctx, item.DrawingKey)
	s.log(ctx, p, item, "delete", "vehicle detail deleted")
	return nil
}

// UploadDrawing 上传新图纸，替换旧文件
func (s *VehicleDetailService) UploadDrawing(ctx context.Context, p policy.Principal, id string, drawing *FileInput) (*entity.VehicleDetail, error) {
	if drawing == nil || drawing.Reader == nil {
		return nil, invalidInput("drawing file is required")
	}
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err, "vehicle detail")
	}
	oldKey := item.DrawingKey
	if err := s.storeDrawing(ctx, item, drawing); err != nil {
		return nil, err
	}
	item.Project = nil
	if err := s.repo.Save(ctx, item); err != nil {
		s.removeFile(ctx, item.DrawingKey)
		return nil, fmt.Errorf("update vehicle detail: %w", err)
	}
	s.removeFile(ctx, oldKey)
	s.log(ctx, p, item, "drawing", "drawing uploaded: "+item.DrawingName)
	return s.repo.FindByID(ctx, item.ID)
}

func (s *VehicleDetailService) storeDrawing(ctx context.Context, item *entity.VehicleDetail, f *FileInput) error {
	if s.maxSize > 0 && f.Size > s.maxSize {
		return invalidInput("file exceeds the %d MB limit", s.maxSize>>20)
	}
	key := storage.NewKey("drawings", f.Name)
	if err := s.store.Put(ctx, key, f.Reader, f.Size, f.detectContentType()); err != nil {
		return fmt.Errorf("store drawing: %w", err)
	}
	item.DrawingKey = key
	item.DrawingURL = storage.URL(key)
	item.DrawingName = f.Name
	return nil
}

func (s *VehicleDetailService) removeFile(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.Warn("remove drawing file", zap.String("key", key), zap.Error(err))
	}
}

func (s *VehicleDetailService) log(ctx context.Context, p policy.Principal, item *entity.VehicleDetail, action, content string) {
	if err := s.activityRepo.LogActivity(ctx, EntityTypeVehicleDetail, item.ID, item.PartNo, action,
		"", "", content, p.UserID, p.Name); err != nil {
		s.logger.Warn("write activity", zap.String("vehicle_detail_id", item.ID), zap.Error(err))
	}
}
