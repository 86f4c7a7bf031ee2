package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Anshu331/harness-portal/internal/tracker/entity"
	"github.com/Anshu331/harness-portal/internal/tracker/repository"
	"github.com/xuri/excelize/v2"
)

// TrackingService 已发布线束跟踪
type TrackingService struct {
	harnessRepo  *repository.HarnessRepository
	shipmentRepo *repository.ShipmentRepository
	userRepo     *repository.UserRepository
}

func NewTrackingService(repos *repository.Repositories) *TrackingService {
	return &TrackingService{
		harnessRepo:  repos.Harness,
		shipmentRepo: repos.Shipment,
		userRepo:     repos.User,
	}
}

// TrackingRow 跟踪行
type TrackingRow struct {
	entity.Harness
	Vendors        []entity.UserRef `json:"vendors"`
	LatestShipment *entity.Shipment `json:"latestShipment"`
}

// List 图纸已发布的线束，vendorID 可选
func (s *TrackingService) List(ctx context.Context, vendorID string) ([]TrackingRow, error) {
	harnesses, err := s.harnessRepo.List(ctx, repository.HarnessFilter{VendorID: vendorID, ReleasedOnly: true})
	if err != nil {
		return nil, fmt.Errorf("list released harnesses: %w", err)
	}

	ids := make([]string, 0, len(harnesses))
	vendorSet := make(map[string]bool)
	var vendorIDs []string
	for _, h := range harnesses {
		ids = append(ids, h.ID)
		for _, v := range h.AssignedVendors {
			if !vendorSet[v] {
				vendorSet[v] = true
				vendorIDs = append(vendorIDs, v)
			}
		}
	}

	latest, err := s.shipmentRepo.LatestByHarnessIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load shipments: %w", err)
	}
	users, err := s.userRepo.FindByIDs(ctx, vendorIDs)
	if err != nil {
		return nil, fmt.Errorf("load vendors: %w", err)
	}
	byID := make(map[string]entity.UserRef, len(users))
	for _, u := range users {
		byID[u.ID] = entity.UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
	}

	rows := make([]TrackingRow, 0, len(harnesses))
	for _, h := range harnesses {
		row := TrackingRow{Harness: h, Vendors: []entity.UserRef{}}
		for _, v := range h.AssignedVendors {
			if ref, ok := byID[v]; ok {
				row.Vendors = append(row.Vendors, ref)
			}
		}
		if sh, ok := latest[h.ID]; ok {
			sh := sh
			row.LatestShipment = &sh
		}
		rows = append(rows, row)
	}
	return rows, nil
}

var trackingExportHeaders = []string{
	"Project", "Platform", "Part No", "Part Description", "Status", "Vendors",
	"Release Date", "Vendor ETA", "Transporter", "LR No", "Shipment Status",
	"Sample Received", "DVP No", "DVP Status", "TNV Docket", "TNV Status",
}

// Export 导出跟踪表为xlsx
func (s *TrackingService) Export(ctx context.Context, vendorID string) (*excelize.File, string, error) {
	rows, err := s.List(ctx, vendorID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	sheet := "Tracking"
	f.SetSheetName("Sheet1", sheet)

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	for i, h := range trackingExportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	for idx, r := range rows {
		row := idx + 2
		var project, platform string
		if r.Project != nil {
			project, platform = r.Project.VehicleModel, r.Project.Platform
		}
		names := make([]string, 0, len(r.Vendors))
		for _, v := range r.Vendors {
			names = append(names, v.Name)
		}
		var transporter, lrNo, shipmentStatus string
		if r.LatestShipment != nil {
			transporter = r.LatestShipment.Transporter
			lrNo = r.LatestShipment.LRNo
			shipmentStatus = r.LatestShipment.Status
		}
		sample := "No"
		if r.SampleReceived {
			sample = "Yes " + cellDate(r.SampleReceivedDate)
		}

		values := []interface{}{
			project, platform, r.PartNo, r.PartDescription, r.Status, strings.Join(names, ", "),
			cellDate(r.DrawingsReleaseDate), cellDate(r.VendorETA), transporter, lrNo, shipmentStatus,
			strings.TrimSpace(sample), r.DVPNo, r.DVPStatus, r.TNVDocketNo, r.TNVStatus,
		}
		for i, v := range values {
			col, _ := excelize.ColumnNumberToName(i + 1)
			f.SetCellValue(sheet, fmt.Sprintf("%s%d", col, row), v)
		}
	}

	colWidths := []float64{14, 10, 16, 28, 12, 24, 12, 12, 14, 12, 14, 16, 10, 16, 12, 16}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	filename := fmt.Sprintf("harness_tracking_%s.xlsx", time.Now().Format("20060102"))
	return f, filename, nil
}

func cellDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
