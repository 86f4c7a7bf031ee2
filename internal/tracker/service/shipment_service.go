package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Anshu331/harness-portal/internal/metrics"
	"github.com/Anshu331/harness-portal/internal/tracker/entity"
	"github.com/Anshu331/harness-portal/internal/tracker/policy"
	"github.com/Anshu331/harness-portal/internal/tracker/repository"
	"github.com/Anshu331/harness-portal/internal/tracker/sse"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultShipmentRef = "N/A"

// ShipmentService 发运服务
type ShipmentService struct {
	db           *gorm.DB
	harnessRepo  *repository.HarnessRepository
	shipmentRepo *repository.ShipmentRepository
	activityRepo *repository.ActivityLogRepository
	policy       *policy.Policy
	hub          *sse.Hub
	logger       *zap.Logger
}

func NewShipmentService(
	db *gorm.DB,
	repos *repository.Repositories,
	pol *policy.Policy,
	hub *sse.Hub,
	logger *zap.Logger,
) *ShipmentService {
	return &ShipmentService{
		db:           db,
		harnessRepo:  repos.Harness,
		shipmentRepo: repos.Shipment,
		activityRepo: repos.ActivityLog,
		policy:       pol,
		hub:          hub,
		logger:       logger,
	}
}

// List 管理员看全部，供应商只看自己的发运
func (s *ShipmentService) List(ctx context.Context, p policy.Principal) ([]entity.Shipment, error) {
	if !s.policy.Allow(p.Role, policy.ResourceShipment, policy.ActionRead) {
		return nil, forbidden("role %s may not read shipments", p.Role)
	}
	filter := repository.ShipmentFilter{}
	if p.Role == entity.RoleVendor {
		filter.VendorID = p.UserID
	}
	items, err := s.shipmentRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list shipments: %w", err)
	}
	for i := range items {
		if items[i].Harness != nil {
			items[i].Harness.Normalize()
		}
	}
	return items, nil
}

// DispatchRequest 供应商发运
type DispatchRequest struct {
	Transporter  string  `json:"transporter"`
	LRNo         string  `json:"lrNo"`
	DispatchDate *string `json:"dispatchDate"`
	ETA          *string `json:"eta"`
}

// Dispatch 创建在途发运，线束 ASSIGNED → DISPATCHED
func (s *ShipmentService) Dispatch(ctx context.Context, p policy.Principal, harnessID string, req DispatchRequest) (*entity.Shipment, error) {
	if !s.policy.Allow(p.Role, policy.ResourceShipment, policy.ActionDispatch) {
		return nil, forbidden("role %s may not dispatch", p.Role)
	}
	eta, err := parseOptionalDate("eta", req.ETA)
	if err != nil {
		return nil, err
	}
	dispatchDate := time.Now()
	if d, err := parseOptionalDate("dispatchDate", req.DispatchDate); err != nil {
		return nil, err
	} else if d != nil {
		dispatchDate = *d
	}

	shipment := &entity.Shipment{
		VendorID:     p.UserID,
		Transporter:  orDefault(req.Transporter),
		LRNo:         orDefault(req.LRNo),
		DispatchDate: dispatchDate,
		ETA:          eta,
		Status:       entity.ShipmentStatusInTransit,
	}

	var h *entity.Harness
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		h, err = s.harnessRepo.WithTx(tx).FindForUpdate(ctx, harnessID)
		if err != nil {
			return wrapNotFound(err, "harness")
		}
		if !s.policy.CanView(p, h) {
			return notFound("harness")
		}
		if !h.HasVendor(p.UserID) {
			return forbidden("only a vendor assigned to this harness can dispatch it")
		}
		if h.Status != entity.HarnessStatusAssigned {
			return invalidTransition("harness must be ASSIGNED to dispatch (current: %s)", h.Status)
		}

		shipment.HarnessID = h.ID
		if err := s.shipmentRepo.WithTx(tx).Create(ctx, shipment); err != nil {
			return fmt.Errorf("create shipment: %w", err)
		}

		from := h.Status
		if eta != nil && h.VendorETA == nil {
			v := *eta
			h.VendorETA = &v
		}
		if err := advance(h, entity.HarnessStatusDispatched); err != nil {
			return err
		}
		if err := s.harnessRepo.WithTx(tx).Save(ctx, h); err != nil {
			return fmt.Errorf("save harness: %w", err)
		}

		content := fmt.Sprintf("dispatched via %s, LR %s", shipment.Transporter, shipment.LRNo)
		logs := s.activityRepo.WithTx(tx)
		if err := logs.LogActivity(ctx, EntityTypeHarness, h.ID, h.PartNo, ActionDispatch,
			from, h.Status, content, p.UserID, p.Name); err != nil {
			return fmt.Errorf("write activity: %w", err)
		}
		return logs.LogActivity(ctx, EntityTypeShipment, shipment.ID, shipment.LRNo, ActionDispatch,
			"", shipment.Status, content, p.UserID, p.Name)
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordTransition(ActionDispatch, entity.HarnessStatusAssigned, entity.HarnessStatusDispatched)
	s.publish(shipment, h, ActionDispatch)
	return s.shipmentRepo.FindByID(ctx, shipment.ID)
}

// ReceiveRequest 收货
type ReceiveRequest struct {
	ReceivedAt string `json:"receivedAt" binding:"required,location"`
}

// Receive 在途发运只能收货一次；线束 DISPATCHED → RECEIVED 并标记样件已收
func (s *ShipmentService) Receive(ctx context.Context, p policy.Principal, shipmentID string, req ReceiveRequest) (*entity.Shipment, error) {
	if !s.policy.Allow(p.Role, policy.ResourceShipment, policy.ActionReceive) {
		return nil, forbidden("role %s may not receive shipments", p.Role)
	}
	location := strings.TrimSpace(req.ReceivedAt)
	if !entity.IsValidReceivedAt(location) {
		return nil, invalidInput("receivedAt must be %s or %s", entity.ReceivedAtPlant, entity.ReceivedAtRnDCentre)
	}

	var (
		shipment *entity.Shipment
		h        *entity.Harness
		from     string
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		shipment, err = s.shipmentRepo.WithTx(tx).FindForUpdate(ctx, shipmentID)
		if err != nil {
			return wrapNotFound(err, "shipment")
		}
		if shipment.Status != entity.ShipmentStatusInTransit {
			return invalidTransition("shipment has already been received")
		}
		h, err = s.harnessRepo.WithTx(tx).FindForUpdate(ctx, shipment.HarnessID)
		if err != nil {
			return wrapNotFound(err, "harness")
		}

		now := time.Now()
		shipment.Status = entity.ShipmentStatusReceived
		shipment.ReceivedAt = location
		shipment.ReceivedDate = &now
		shipment.ReceivedBy = p.UserID
		if err := s.shipmentRepo.WithTx(tx).Save(ctx, shipment); err != nil {
			return fmt.Errorf("save shipment: %w", err)
		}

		from = h.Status
		if h.Status == entity.HarnessStatusDispatched {
			if err := advance(h, entity.HarnessStatusReceived); err != nil {
				return err
			}
		}
		if !h.SampleReceived {
			h.SampleReceived = true
			h.SampleReceivedDate = &now
		}
		if err := s.harnessRepo.WithTx(tx).Save(ctx, h); err != nil {
			return fmt.Errorf("save harness: %w", err)
		}

		content := fmt.Sprintf("shipment %s received at %s", shipment.LRNo, location)
		logs := s.activityRepo.WithTx(tx)
		if err := logs.LogActivity(ctx, EntityTypeHarness, h.ID, h.PartNo, ActionReceive,
			from, h.Status, content, p.UserID, p.Name); err != nil {
			return fmt.Errorf("write activity: %w", err)
		}
		return logs.LogActivity(ctx, EntityTypeShipment, shipment.ID, shipment.LRNo, ActionReceive,
			entity.ShipmentStatusInTransit, shipment.Status, content, p.UserID, p.Name)
	})
	if err != nil {
		return nil, err
	}

	if from != h.Status {
		metrics.RecordTransition(ActionReceive, from, h.Status)
	}
	s.publish(shipment, h, ActionReceive)
	return s.shipmentRepo.FindByID(ctx, shipment.ID)
}

func (s *ShipmentService) publish(shipment *entity.Shipment, h *entity.Harness, action string) {
	if s.hub == nil {
		return
	}
	s.hub.PublishShipmentUpdate(sse.ShipmentUpdate{
		ShipmentID: shipment.ID,
		HarnessID:  shipment.HarnessID,
		Status:     shipment.Status,
		Action:     action,
	}, shipment.VendorID)
	s.hub.PublishHarnessUpdate(sse.HarnessUpdate{
		HarnessID: h.ID,
		Status:    h.Status,
		Action:    action,
	}, h.AssignedVendors)
}

func orDefault(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return defaultShipmentRef
	}
	return v
}
