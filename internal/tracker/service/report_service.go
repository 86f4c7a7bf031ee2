package service

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/Anshu331/harness-portal/internal/metrics"
	"github.com/Anshu331/harness-portal/internal/tracker/entity"
	"github.com/Anshu331/harness-portal/internal/tracker/policy"
	"github.com/Anshu331/harness-portal/internal/tracker/repository"
	"github.com/Anshu331/harness-portal/internal/tracker/sse"
	"github.com/Anshu331/harness-portal/internal/tracker/storage"
	"go.uber.org/zap"
)

// FileInput 上传文件
type FileInput struct {
	Name        string
	Size        int64
	ContentType string
	Reader      io.Reader
}

// detectContentType 优先使用上传头，缺失时按扩展名推断
func (f *FileInput) detectContentType() string {
	ct := strings.TrimSpace(f.ContentType)
	if ct == "" || ct == "application/octet-stream" {
		if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(f.Name))); byExt != "" {
			ct = byExt
		}
	}
	if ct == "" {
		ct = "application/octet-stream"
	}
	return ct
}

var documentMIMEs = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"text/csv",
}

// acceptable 建议的文件类型：PHOTO 为图片，其余为文档或图片
func acceptable(reportType, contentType string) bool {
	base, _, _ := mime.ParseMediaType(contentType)
	if base == "" {
		base = contentType
	}
	if strings.HasPrefix(base, "image/") {
		return true
	}
	if reportType == entity.ReportTypePhoto {
		return false
	}
	for _, m := range documentMIMEs {
		if base == m {
			return true
		}
	}
	return false
}

// ReportService 线束文档服务
type ReportService struct {
	harnessRepo  *repository.HarnessRepository
	reportRepo   *repository.ReportRepository
	activityRepo *repository.ActivityLogRepository
	store        storage.FileStore
	policy       *policy.Policy
	hub          *sse.Hub
	maxSize      int64
	logger       *zap.Logger
}

func NewReportService(
	repos *repository.Repositories,
	store storage.FileStore,
	pol *policy.Policy,
	hub *sse.Hub,
	maxSize int64,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{
		harnessRepo:  repos.Harness,
		reportRepo:   repos.Report,
		activityRepo: repos.ActivityLog,
		store:        store,
		policy:       pol,
		hub:          hub,
		maxSize:      maxSize,
		logger:       logger,
	}
}

// UploadReportInput 上传参数
type UploadReportInput struct {
	Type    string
	Remarks string
	File    FileInput
}

// Upload 上传线束文档，角色必须拥有该类型的上传权限
func (s *ReportService) Upload(ctx context.Context, p policy.Principal, harnessID string, in UploadReportInput) (*entity.Report, error) {
	reportType := strings.TrimSpace(in.Type)
	if !entity.IsValidReportType(reportType) {
		return nil, invalidInput("unknown report type %q", reportType)
	}
	if !s.policy.CanUploadReport(p.Role, reportType) {
		return nil, forbidden("role %s may not upload %s", p.Role, reportType)
	}
	h, err := s.harnessRepo.FindByID(ctx, harnessID, s.policy.HarnessScope(p))
	if err != nil {
		return nil, wrapNotFound(err, "harness")
	}
	if in.File.Reader == nil {
		return nil, invalidInput("file is required")
	}
	if s.maxSize > 0 && in.File.Size > s.maxSize {
		return nil, invalidInput("file exceeds the %d MB limit", s.maxSize>>20)
	}

	contentType := in.File.detectContentType()
	if !acceptable(reportType, contentType) {
		s.logger.Warn("unexpected report content type",
			zap.String("harness_id", h.ID),
			zap.String("type", reportType),
			zap.String("content_type", contentType),
			zap.String("file_name", in.File.Name))
	}

	key := storage.NewKey("reports/"+h.ID, in.File.Name)
	if err := s.store.Put(ctx, key, in.File.Reader, in.File.Size, contentType); err != nil {
		return nil, fmt.Errorf("store file: %w", err)
	}

	report := &entity.Report{
		HarnessID:   h.ID,
		Type:        reportType,
		FileURL:     storage.URL(key),
		FileKey:     key,
		FileName:    in.File.Name,
		FileSize:    in.File.Size,
		ContentType: contentType,
		Remarks:     strings.TrimSpace(in.Remarks),
		UploadedBy:  p.UserID,
	}
	if err := s.reportRepo.Create(ctx, report); err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.logger.Warn("remove orphaned upload", zap.String("key", key), zap.Error(delErr))
		}
		return nil, fmt.Errorf("create report: %w", err)
	}

	if err := s.activityRepo.LogActivity(ctx, EntityTypeHarness, h.ID, h.PartNo, ActionReportUpload,
		h.Status, h.Status, fmt.Sprintf("%s uploaded: %s", reportType, report.FileName), p.UserID, p.Name); err != nil {
		s.logger.Warn("write activity", zap.String("harness_id", h.ID), zap.Error(err))
	}
	metrics.ReportUploadsTotal.WithLabelValues(reportType).Inc()
	if s.hub != nil {
		s.hub.PublishReportUpdate(sse.ReportUpdate{
			ReportID:  report.ID,
			HarnessID: h.ID,
			Type:      reportType,
		}, h.AssignedVendors)
	}
	return report, nil
}

// List 线束文档；指定类型时校验读取权限，否则按角色可读类型过滤
func (s *ReportService) List(ctx context.Context, p policy.Principal, harnessID, reportType string) ([]entity.Report, error) {
	var types []string
	if reportType != "" {
		if !entity.IsValidReportType(reportType) {
			return nil, invalidInput("unknown report type %q", reportType)
		}
		if !s.policy.CanReadReport(p.Role, reportType) {
			return nil, forbidden("role %s may not read %s", p.Role, reportType)
		}
		types = []string{reportType}
	} else {
		types = s.policy.ReadableReportTypes(p.Role)
	}

	if _, err := s.harnessRepo.FindByID(ctx, harnessID, s.policy.HarnessScope(p)); err != nil {
		return nil, wrapNotFound(err, "harness")
	}
	items, err := s.reportRepo.ListByHarness(ctx, harnessID, types)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return items, nil
}
