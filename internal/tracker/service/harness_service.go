package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Anshu331/harness-portal/internal/metrics"
	"github.com/Anshu331/harness-portal/internal/tracker/entity"
	"github.com/Anshu331/harness-portal/internal/tracker/policy"
	"github.com/Anshu331/harness-portal/internal/tracker/repository"
	"github.com/Anshu331/harness-portal/internal/tracker/sse"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 线束操作（操作日志 action）
const (
	ActionHarnessCreate  = "create"
	ActionRelease        = "release"
	ActionAssignVendors  = "assign_vendors"
	ActionSampleReceived = "sample_received"
	ActionVendorETA      = "vendor_eta"
	ActionDispatch       = "dispatch"
	ActionReceive        = "receive"
	ActionAssignDVP      = "assign_dvp"
	ActionDVPStatus      = "dvp_status"
	ActionAssignTNV      = "assign_tnv"
	ActionTNVStatus      = "tnv_status"
	ActionReportUpload   = "report_upload"
)

// 操作日志实体类型
const (
	EntityTypeHarness       = "harness"
	EntityTypeShipment      = "shipment"
	EntityTypeVehicleDetail = "vehicle_detail"
)

// errUnchanged 操作未改变任何字段（幂等重复调用）
var errUnchanged = errors.New("unchanged")

// HarnessService 线束服务
type HarnessService struct {
	db           *gorm.DB
	harnessRepo  *repository.HarnessRepository
	projectRepo  *repository.ProjectRepository
	userRepo     *repository.UserRepository
	shipmentRepo *repository.ShipmentRepository
	activityRepo *repository.ActivityLogRepository
	policy       *policy.Policy
	hub          *sse.Hub
	logger       *zap.Logger
}

func NewHarnessService(
	db *gorm.DB,
	repos *repository.Repositories,
	pol *policy.Policy,
	hub *sse.Hub,
	logger *zap.Logger,
) *HarnessService {
	return &HarnessService{
		db:           db,
		harnessRepo:  repos.Harness,
		projectRepo:  repos.Project,
		userRepo:     repos.User,
		shipmentRepo: repos.Shipment,
		activityRepo: repos.ActivityLog,
		policy:       pol,
		hub:          hub,
		logger:       logger,
	}
}

// CreateHarnessRequest 创建线束
type CreateHarnessRequest struct {
	ProjectID       *string  `json:"projectId"`
	PartNo          string   `json:"partNo" binding:"required"`
	PartDescription string   `json:"partDescription"`
	AssignedVendors []string `json:"assignedVendors"`
}

// Create 创建线束，初始状态 DEVELOPMENT
func (s *HarnessService) Create(ctx context.Context, p policy.Principal, req CreateHarnessRequest) (*entity.Harness, error) {
	if !s.policy.Allow(p.Role, policy.ResourceHarness, policy.ActionCreate) {
		return nil, forbidden("role %s may not create harnesses", p.Role)
	}
	partNo := strings.TrimSpace(req.PartNo)
	if partNo == "" {
		return nil, invalidInput("partNo is required")
	}
	projectID, err := resolveProject(ctx, s.projectRepo, req.ProjectID)
	if err != nil {
		return nil, err
	}
	vendors, err := s.resolveVendors(ctx, req.AssignedVendors)
	if err != nil {
		return nil, err
	}

	h := &entity.Harness{
		ProjectID:       projectID,
		PartNo:          partNo,
		PartDescription: strings.TrimSpace(req.PartDescription),
		Status:          entity.HarnessStatusDevelopment,
		AssignedVendors: vendors,
		DVPStatus:       entity.VerdictPending,
		TNVStatus:       entity.VerdictPending,
		CreatedBy:       p.UserID,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.harnessRepo.WithTx(tx).Create(ctx, h); err != nil {
			return fmt.Errorf("create harness: %w", err)
		}
		return s.activityRepo.WithTx(tx).LogActivity(ctx, EntityTypeHarness, h.ID, h.PartNo, ActionHarnessCreate,
			"", h.Status, fmt.Sprintf("harness %s created", h.PartNo), p.UserID, p.Name)
	})
	if err != nil {
		return nil, err
	}
	s.publish(h, ActionHarnessCreate)
	return s.harnessRepo.FindByID(ctx, h.ID)
}

// List 当前角色可见的线束，projectID可选
func (s *HarnessService) List(ctx context.Context, p policy.Principal, projectID string) ([]entity.Harness, error) {
	items, err := s.harnessRepo.List(ctx, repository.HarnessFilter{ProjectID: projectID}, s.policy.HarnessScope(p))
	if err != nil {
		return nil, fmt.Errorf("list harnesses: %w", err)
	}
	return items, nil
}

// ListForVendor 分配给当前供应商的线束
func (s *HarnessService) ListForVendor(ctx context.Context, p policy.Principal) ([]entity.Harness, error) {
	if p.Role != entity.RoleVendor {
		return []entity.Harness{}, nil
	}
	items, err := s.harnessRepo.List(ctx, repository.HarnessFilter{VendorID: p.UserID}, s.policy.HarnessScope(p))
	if err != nil {
		return nil, fmt.Errorf("list vendor harnesses: %w", err)
	}
	return items, nil
}

// Get 获取可见线束，不可见按不存在处理
func (s *HarnessService) Get(ctx context.Context, p policy.Principal, id string) (*entity.Harness, error) {
	h, err := s.harnessRepo.FindByID(ctx, id, s.policy.HarnessScope(p))
	if err != nil {
		return nil, wrapNotFound(err, "harness")
	}
	return h, nil
}

// Activity 线束操作日志
func (s *HarnessService) Activity(ctx context.Context, p policy.Principal, id string) ([]entity.ActivityLog, error) {
	if !s.policy.Allow(p.Role, policy.ResourceActivity, policy.ActionRead) {
		return nil, forbidden("role %s may not read activity", p.Role)
	}
	if _, err := s.Get(ctx, p, id); err != nil {
		return nil, err
	}
	logs, err := s.activityRepo.FindByEntity(ctx, EntityTypeHarness, id)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return logs, nil
}

// mutation 在行锁事务内修改线束，返回日志内容
type mutation func(ctx context.Context, tx *gorm.DB, h *entity.Harness) (string, error)

// mutate 受控修改：字段权限、可见性、行锁、操作日志、指标与事件
func (s *HarnessService) mutate(ctx context.Context, p policy.Principal, id, field, action string, fn mutation) (*entity.Harness, error) {
	if !s.policy.CanWriteField(p.Role, field) {
		return nil, forbidden("role %s may not change %s", p.Role, field)
	}

	var (
		from, to string
		h        *entity.Harness
		changed  bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		h, err = s.harnessRepo.WithTx(tx).FindForUpdate(ctx, id)
		if err != nil {
			return wrapNotFound(err, "harness")
		}
		if !s.policy.CanView(p, h) {
			return notFound("harness")
		}

		from = h.Status
		content, err := fn(ctx, tx, h)
		if errors.Is(err, errUnchanged) {
			return nil
		}
		if err != nil {
			return err
		}
		to = h.Status

		if err := s.harnessRepo.WithTx(tx).Save(ctx, h); err != nil {
			return fmt.Errorf("save harness: %w", err)
		}
		if err := s.activityRepo.WithTx(tx).LogActivity(ctx, EntityTypeHarness, h.ID, h.PartNo, action,
			from, to, content, p.UserID, p.Name); err != nil {
			return fmt.Errorf("write activity: %w", err)
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		if from != to {
			metrics.RecordTransition(action, from, to)
		}
		s.publish(h, action)
	}
	return s.harnessRepo.FindByID(ctx, id)
}

// advance 按声明的状态机推进
func advance(h *entity.Harness, to string) error {
	if !entity.CanTransition(h.Status, to) {
		return invalidTransition("cannot move harness from %s to %s", h.Status, to)
	}
	h.Status = to
	return nil
}

func (s *HarnessService) publish(h *entity.Harness, action string) {
	if s.hub == nil {
		return
	}
	s.hub.PublishHarnessUpdate(sse.HarnessUpdate{
		HarnessID: h.ID,
		Status:    h.Status,
		Action:    action,
	}, h.AssignedVendors)
}

// ReleaseRequest 设置图纸发布日期
type ReleaseRequest struct {
	DrawingsReleaseDate string `json:"drawingsReleaseDate" binding:"required"`
}

// Release 首次发布 DEVELOPMENT → RELEASED（已分配供应商则直接到 ASSIGNED），之后只修改日期
func (s *HarnessService) Release(ctx context.Context, p policy.Principal, id string, req ReleaseRequest) (*entity.Harness, error) {
	date, err := parseDate("drawingsReleaseDate", req.DrawingsReleaseDate)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, p, id, policy.FieldRelease, ActionRelease, func(ctx context.Context, tx *gorm.DB, h *entity.Harness) (string, error) {
		prev := h.DrawingsReleaseDate
		if sameTime(prev, &date) {
			return "", errUnchanged
		}
		h.DrawingsReleaseDate = &date

		if h.Status == entity.HarnessStatusDevelopment {
			if err := advance(h, entity.HarnessStatusReleased); err != nil {
				return "", err
			}
			if len(h.AssignedVendors) > 0 {
				if err := advance(h, entity.HarnessStatusAssigned); err != nil {
					return "", err
				}
			}
			return fmt.Sprintf("drawings released on %s", formatDate(&date)), nil
		}
		return fmt.Sprintf("release date changed from %s to %s", formatDate(prev), formatDate(&date)), nil
	})
}

// AssignVendorsRequest 分配供应商（整体替换）
type AssignVendorsRequest struct {
	AssignedVendors []string `json:"assignedVendors"`
}

// AssignVendors 发运前可修改；RELEASED+非空 → ASSIGNED，ASSIGNED+空 → RELEASED
func (s *HarnessService) AssignVendors(ctx context.Context, p policy.Principal, id string, req AssignVendorsRequest) (*entity.Harness, error) {
	vendors, err := s.resolveVendors(ctx, req.AssignedVendors)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, p, id, policy.FieldVendors, ActionAssignVendors, func(ctx context.Context, tx *gorm.DB, h *entity.Harness) (string, error) {
		if !entity.StatusIn(h.Status, entity.HarnessStatusDevelopment, entity.HarnessStatusReleased, entity.HarnessStatusAssigned) {
			return "", invalidTransition("vendors cannot be changed once the harness is %s", h.Status)
		}
		if sameSet(h.AssignedVendors, vendors) {
			return "", errUnchanged
		}
		h.AssignedVendors = vendors

		switch {
		case h.Status == entity.HarnessStatusReleased && len(vendors) > 0:
			if err := advance(h, entity.HarnessStatusAssigned); err != nil {
				return "", err
			}
		case h.Status == entity.HarnessStatusAssigned && len(vendors) == 0:
			if err := advance(h, entity.HarnessStatusReleased); err != nil {
				return "", err
			}
		}
		return fmt.Sprintf("assigned vendors: %d", len(vendors)), nil
	})
}

// MarkSampleReceived 标记样件已收（幂等）；ASSIGNED → RECEIVED 为手工交付
func (s *HarnessService) MarkSampleReceived(ctx context.Context, p policy.Principal, id string) (*entity.Harness, error) {
	return s.mutate(ctx, p, id, policy.FieldSample, ActionSampleReceived, func(ctx context.Context, tx *gorm.DB, h *entity.Harness) (string, error) {
		if !entity.StatusIn(h.Status,
			entity.HarnessStatusAssigned, entity.HarnessStatusDispatched, entity.HarnessStatusReceived,
			entity.HarnessStatusDVPDone, entity.HarnessStatusTNVDone) {
			return "", invalidTransition("sample cannot be received while the harness is %s", h.Status)
		}
		inTransit, err := s.shipmentRepo.WithTx(tx).HasInTransit(ctx, h.ID)
		if err != nil {
			return "", fmt.Errorf("check shipments: %w", err)
		}
		if inTransit {
			return "", invalidTransition("a shipment for this harness is still IN TRANSIT; receive the shipment instead")
		}
		if h.SampleReceived {
			return "", errUnchanged
		}

		now := time.Now()
		h.SampleReceived = true
		h.SampleReceivedDate = &now
		if entity.StatusIn(h.Status, entity.HarnessStatusAssigned, entity.HarnessStatusDispatched) {
			if err := advance(h, entity.HarnessStatusReceived); err != nil {
				return "", err
			}
		}
		return "sample received", nil
	})
}

// VendorETARequest 供应商预计到货日期，null 清空
type VendorETARequest struct {
	VendorETA *string `json:"vendorEta"`
}

// SetVendorETA 覆盖当前ETA，原值（非空）追加到历史
func (s *HarnessService) SetVendorETA(ctx context.Context, p policy.Principal, id string, req VendorETARequest) (*entity.Harness, error) {
	eta, err := parseOptionalDate("vendorEta", req.VendorETA)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, p, id, policy.FieldVendorETA, ActionVendorETA, func(ctx context.Context, tx *gorm.DB, h *entity.Harness) (string, error) {
		if !entity.StatusIn(h.Status, entity.HarnessStatusAssigned, entity.HarnessStatusDispatched) {
			return "", invalidTransition("ETA can only be set while the harness is ASSIGNED or DISPATCHED (current: %s)", h.Status)
		}
		prev := h.VendorETA
		if sameTime(prev, eta) {
			return "", errUnchanged
		}
		if prev != nil {
			prevETA := *prev
			if err := s.harnessRepo.WithTx(tx).AppendETALog(ctx, &entity.HarnessETALog{
				HarnessID: h.ID,
				ETA:       &prevETA,
				SetAt:     time.Now(),
				SetByID:   p.UserID,
			}); err != nil {
				return "", fmt.Errorf("append eta history: %w", err)
			}
		}
		h.VendorETA = eta
		return fmt.Sprintf("vendor ETA changed from %s to %s", formatDate(prev), formatDate(eta)), nil
	})
}

// AssignDVPRequest 分配DVP编号
type AssignDVPRequest struct {
	DVPNo string `json:"dvpNo" binding:"required"`
}

func (s *HarnessService) AssignDVP(ctx context.Context, p policy.Principal, id string, req AssignDVPRequest) (*entity.Harness, error) {
	dvpNo := strings.TrimSpace(req.DVPNo)
	if dvpNo == "" {
		return nil, invalidInput("dvpNo is required")
	}
	return s.mutate(ctx, p, id, policy.FieldDVP, ActionAssignDVP, func(ctx context.Context, tx *gorm.DB, h *entity.Harness) (string, error) {
		if !entity.StatusIn(h.Status, entity.HarnessStatusReceived, entity.HarnessStatusDVPDone) {
			return "", invalidTransition("DVP number requires a received sample (current: %s)", h.Status)
		}
		if h.DVPNo == dvpNo {
			return "", errUnchanged
		}
		prev := h.DVPNo
		h.DVPNo = dvpNo
		return fmt.Sprintf("DVP number %q -> %q", prev, dvpNo), nil
	})
}

// DVPStatusRequest DVP结论
type DVPStatusRequest struct {
	DVPStatus string `json:"dvpStatus" binding:"required,verdict"`
}

// SetDVPStatus 通过 → DVP_DONE；从 DVP_DONE 改为 PENDING/FAIL → RECEIVED
func (s *HarnessService) SetDVPStatus(ctx context.Context, p policy.Principal, id string, req DVPStatusRequest) (*entity.Harness, error) {
	if !entity.IsValidVerdict(req.DVPStatus) {
		return nil, invalidInput("dvpStatus must be one of %s", strings.Join(entity.Verdicts, ", "))
	}
	return s.mutate(ctx, p, id, policy.FieldDVP, ActionDVPStatus, func(ctx context.Context, tx *gorm.DB, h *entity.Harness) (string, error) {
		return applyVerdict(h, &h.DVPStatus, req.DVPStatus, "DVP",
			entity.HarnessStatusReceived, entity.HarnessStatusDVPDone)
	})
}

// AssignTNVRequest 分配TNV单号
type AssignTNVRequest struct {
	TNVDocketNo string `json:"tnvDocketNo" binding:"required"`
}

func (s *HarnessService) AssignTNV(ctx context.Context, p policy.Principal, id string, req AssignTNVRequest) (*entity.Harness, error) {
	docket := strings.TrimSpace(req.TNVDocketNo)
	if docket == "" {
		return nil, invalidInput("tnvDocketNo is required")
	}
	return s.mutate(ctx, p, id, policy.FieldTNV, ActionAssignTNV, func(ctx context.Context, tx *gorm.DB, h *entity.Harness) (string, error) {
		if !entity.StatusIn(h.Status, entity.HarnessStatusDVPDone, entity.HarnessStatusTNVDone) {
			return "", invalidTransition("TNV docket requires DVP to pass first (current: %s)", h.Status)
		}
		if h.TNVDocketNo == docket {
			return "", errUnchanged
		}
		prev := h.TNVDocketNo
		h.TNVDocketNo = docket
		return fmt.Sprintf("TNV docket %q -> %q", prev, docket), nil
	})
}

// TNVStatusRequest TNV结论
type TNVStatusRequest struct {
	TNVStatus string `json:"tnvStatus" binding:"required,verdict"`
}

// SetTNVStatus 通过 → TNV_DONE；从 TNV_DONE 改为 PENDING/FAIL → DVP_DONE
func (s *HarnessService) SetTNVStatus(ctx context.Context, p policy.Principal, id string, req TNVStatusRequest) (*entity.Harness, error) {
	if !entity.IsValidVerdict(req.TNVStatus) {
		return nil, invalidInput("tnvStatus must be one of %s", strings.Join(entity.Verdicts, ", "))
	}
	return s.mutate(ctx, p, id, policy.FieldTNV, ActionTNVStatus, func(ctx context.Context, tx *gorm.DB, h *entity.Harness) (string, error) {
		return applyVerdict(h, &h.TNVStatus, req.TNVStatus, "TNV",
			entity.HarnessStatusDVPDone, entity.HarnessStatusTNVDone)
	})
}

// applyVerdict DVP/TNV 共用：pending 为待验证状态，done 为通过状态
func applyVerdict(h *entity.Harness, field *string, verdict, stage, pending, done string) (string, error) {
	if !entity.StatusIn(h.Status, pending, done) {
		return "", invalidTransition("%s status requires the harness to be %s or %s (current: %s)", stage, pending, done, h.Status)
	}
	if *field == verdict {
		return "", errUnchanged
	}
	prev := *field
	*field = verdict

	switch {
	case entity.IsPassing(verdict) && h.Status == pending:
		if err := advance(h, done); err != nil {
			return "", err
		}
	case !entity.IsPassing(verdict) && h.Status == done:
		if err := advance(h, pending); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("%s status %s -> %s", stage, prev, verdict), nil
}

// resolveVendors 去重并校验均为供应商账号
func (s *HarnessService) resolveVendors(ctx context.Context, ids []string) (pq.StringArray, error) {
	seen := make(map[string]bool)
	vendors := pq.StringArray{}
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		vendors = append(vendors, id)
	}
	if len(vendors) == 0 {
		return vendors, nil
	}

	users, err := s.userRepo.FindByIDs(ctx, vendors)
	if err != nil {
		return nil, fmt.Errorf("find vendors: %w", err)
	}
	found := make(map[string]bool, len(users))
	for _, u := range users {
		if u.Role == entity.RoleVendor {
			found[u.ID] = true
		}
	}
	for _, id := range vendors {
		if !found[id] {
			return nil, invalidInput("user %s is not a vendor", id)
		}
	}
	return vendors, nil
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x := append([]string(nil), a...)
	y := append([]string(nil), b...)
	sort.Strings(x)
	sort.Strings(y)
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}
