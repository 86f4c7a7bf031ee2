// Package policy 角色权限与可见性策略
package policy

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/Anshu331/harness-portal/internal/tracker/entity"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	stringadapter "github.com/casbin/casbin/v2/persist/string-adapter"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

//go:embed policy.csv
var policyText string

// 资源
const (
	ResourceHarness       = "harness"
	ResourceProject       = "project"
	ResourceUser          = "user"
	ResourceShipment      = "shipment"
	ResourceVehicleDetail = "vehicle_detail"
	ResourceDashboard     = "dashboard"
	ResourceTracking      = "tracking"
	ResourceActivity      = "activity"
)

// 线束可写字段（资源名 harness.<field>）
const (
	FieldRelease   = "release"
	FieldVendors   = "vendors"
	FieldSample    = "sample"
	FieldVendorETA = "vendor_eta"
	FieldDVP       = "dvp"
	FieldTNV       = "tnv"
)

var harnessFields = []string{FieldRelease, FieldVendors, FieldSample, FieldVendorETA, FieldDVP, FieldTNV}

// 动作
const (
	ActionRead     = "read"
	ActionCreate   = "create"
	ActionUpdate   = "update"
	ActionDelete   = "delete"
	ActionUpload   = "upload"
	ActionDispatch = "dispatch"
	ActionReceive  = "receive"
	ActionExport   = "export"
)

// Principal 当前操作人
type Principal struct {
	UserID string
	Name   string
	Email  string
	Role   string
}

// Policy 基于Casbin的角色策略
type Policy struct {
	enforcer *casbin.Enforcer
}

// New 加载内置模型与策略
func New() (*Policy, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("load policy model: %w", err)
	}
	e, err := casbin.NewEnforcer(m, stringadapter.NewAdapter(compactPolicy(policyText)))
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}
	return &Policy{enforcer: e}, nil
}

// MustNew 加载失败直接panic（内置策略不应失败）
func MustNew() *Policy {
	p, err := New()
	if err != nil {
		panic(err)
	}
	return p
}

func compactPolicy(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// Allow 判断角色是否可以对资源执行动作
func (p *Policy) Allow(role, resource, action string) bool {
	if role == "" {
		return false
	}
	ok, err := p.enforcer.Enforce(role, resource, action)
	return err == nil && ok
}

// CanView 判断是否可以查看某线束：供应商只能看到分配给自己的线束
func (p *Policy) CanView(principal Principal, h *entity.Harness) bool {
	if h == nil || !p.Allow(principal.Role, ResourceHarness, ActionRead) {
		return false
	}
	if principal.Role == entity.RoleVendor {
		return h.HasVendor(principal.UserID)
	}
	return true
}

// HarnessScope 线束查询范围
func (p *Policy) HarnessScope(principal Principal) func(*gorm.DB) *gorm.DB {
	switch {
	case !p.Allow(principal.Role, ResourceHarness, ActionRead):
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("1 = 0")
		}
	case principal.Role == entity.RoleVendor:
		vendorID := principal.UserID
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("? = ANY(harnesses.assigned_vendors)", vendorID)
		}
	default:
		return func(db *gorm.DB) *gorm.DB {
			return db
		}
	}
}

// HarnessFieldResource 字段对应的资源名
func HarnessFieldResource(field string) string {
	return ResourceHarness + "." + field
}

// CanWriteField 判断角色能否修改线束字段
func (p *Policy) CanWriteField(role, field string) bool {
	return p.Allow(role, HarnessFieldResource(field), ActionUpdate)
}

// WritableFields 角色可修改的线束字段
func (p *Policy) WritableFields(role string) []string {
	fields := []string{}
	for _, f := range harnessFields {
		if p.CanWriteField(role, f) {
			fields = append(fields, f)
		}
	}
	return fields
}

// ReportResource 报告类型对应的资源名
func ReportResource(reportType string) string {
	return "report:" + reportType
}

// CanReadReport 判断角色能否查看某类型报告
func (p *Policy) CanReadReport(role, reportType string) bool {
	return p.Allow(role, ReportResource(reportType), ActionRead)
}

// CanUploadReport 判断角色能否上传某类型报告
func (p *Policy) CanUploadReport(role, reportType string) bool {
	return p.Allow(role, ReportResource(reportType), ActionUpload)
}

// ReadableReportTypes 角色可查看的报告类型
func (p *Policy) ReadableReportTypes(role string) []string {
	types := []string{}
	for _, t := range entity.ReportTypes {
		if p.CanReadReport(role, t) {
			types = append(types, t)
		}
	}
	return types
}

// UploadableReportTypes 角色可上传的报告类型
func (p *Policy) UploadableReportTypes(role string) []string {
	types := []string{}
	for _, t := range entity.ReportTypes {
		if p.CanUploadReport(role, t) {
			types = append(types, t)
		}
	}
	return types
}
