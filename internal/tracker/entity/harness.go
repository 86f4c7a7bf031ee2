package entity

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// 线束生命周期状态
const (
	HarnessStatusDevelopment = "DEVELOPMENT" // 已创建
	HarnessStatusReleased    = "RELEASED"    // 图纸已发布
	HarnessStatusAssigned    = "ASSIGNED"    // 已发布且已分配供应商
	HarnessStatusDispatched  = "DISPATCHED"  // 供应商已发运
	HarnessStatusReceived    = "RECEIVED"    // 样件已收货
	HarnessStatusDVPDone     = "DVP_DONE"    // DVP通过
	HarnessStatusTNVDone     = "TNV_DONE"    // TNV通过
)

// ValidHarnessTransitions 合法的线束状态流转
var ValidHarnessTransitions = map[string][]string{
	HarnessStatusDevelopment: {HarnessStatusReleased},
	HarnessStatusReleased:    {HarnessStatusAssigned},
	HarnessStatusAssigned:    {HarnessStatusReleased, HarnessStatusDispatched, HarnessStatusReceived},
	HarnessStatusDispatched:  {HarnessStatusReceived},
	HarnessStatusReceived:    {HarnessStatusDVPDone},
	HarnessStatusDVPDone:     {HarnessStatusTNVDone, HarnessStatusReceived},
	HarnessStatusTNVDone:     {HarnessStatusDVPDone},
}

// CanTransition 判断状态流转是否合法
func CanTransition(from, to string) bool {
	for _, s := range ValidHarnessTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// StatusIn 判断状态是否在给定集合中
func StatusIn(status string, set ...string) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}

// 验证结论（DVP/TNV共用）
const (
	VerdictPending         = "PENDING"
	VerdictPass            = "PASS"
	VerdictFail            = "FAIL"
	VerdictConditionalPass = "CONDITIONAL_PASS"
)

// Verdicts 全部验证结论
var Verdicts = []string{VerdictPending, VerdictPass, VerdictFail, VerdictConditionalPass}

// IsValidVerdict 校验验证结论
func IsValidVerdict(v string) bool {
	return StatusIn(v, Verdicts...)
}

// IsPassing PASS 与 CONDITIONAL_PASS 视为通过
func IsPassing(v string) bool {
	return v == VerdictPass || v == VerdictConditionalPass
}

// Harness 线束
type Harness struct {
	ID                  string         `json:"id" gorm:"primaryKey;size:32"`
	ProjectID           *string        `json:"projectId" gorm:"size:32;index"`
	PartNo              string         `json:"partNo" gorm:"size:64;not null;index"`
	PartDescription     string         `json:"partDescription" gorm:"size:512"`
	Status              string         `json:"status" gorm:"size:20;not null;default:DEVELOPMENT;index"`
	DrawingsReleaseDate *time.Time     `json:"drawingsReleaseDate"`
	AssignedVendors     pq.StringArray `json:"assignedVendors" gorm:"type:text[]"`

	VendorETA        *time.Time      `json:"vendorEta"`
	VendorETAHistory []HarnessETALog `json:"vendorEtaHistory" gorm:"foreignKey:HarnessID"`

	SampleReceived     bool       `json:"sampleReceived" gorm:"not null;default:false"`
	SampleReceivedDate *time.Time `json:"sampleReceivedDate"`

	DVPNo     string `json:"dvpNo" gorm:"column:dvp_no;size:64"`
	DVPStatus string `json:"dvpStatus" gorm:"column:dvp_status;size:20;not null;default:PENDING"`

	TNVDocketNo string `json:"tnvDocketNo" gorm:"column:tnv_docket_no;size:64"`
	TNVStatus   string `json:"tnvStatus" gorm:"column:tnv_status;size:20;not null;default:PENDING"`

	CreatedBy string    `json:"createdBy" gorm:"size:32"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Project *Project `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
}

func (Harness) TableName() string {
	return "harnesses"
}

// IsReleased 图纸发布日期已设置
func (h *Harness) IsReleased() bool {
	return h.DrawingsReleaseDate != nil
}

// HasVendor 供应商是否已分配到该线束
func (h *Harness) HasVendor(vendorID string) bool {
	if vendorID == "" {
		return false
	}
	for _, v := range h.AssignedVendors {
		if v == vendorID {
			return true
		}
	}
	return false
}

// Normalize 补齐默认值（旧数据中的空状态按PENDING展示）
func (h *Harness) Normalize() {
	if h.DVPStatus == "" {
		h.DVPStatus = VerdictPending
	}
	if h.TNVStatus == "" {
		h.TNVStatus = VerdictPending
	}
	if h.Status == "" {
		h.Status = HarnessStatusDevelopment
	}
	if h.AssignedVendors == nil {
		h.AssignedVendors = pq.StringArray{}
	}
	if h.VendorETAHistory == nil {
		h.VendorETAHistory = []HarnessETALog{}
	}
}

// HarnessETALog 供应商ETA历史
type HarnessETALog struct {
	ID        string     `json:"id" gorm:"primaryKey;size:32"`
	HarnessID string     `json:"harnessId" gorm:"size:32;not null;index"`
	ETA       *time.Time `json:"eta"`
	SetAt     time.Time  `json:"setAt"`
	SetByID   string     `json:"-" gorm:"column:set_by;size:32"`

	SetBy *User `json:"setBy,omitempty" gorm:"foreignKey:SetByID"`
}

func (HarnessETALog) TableName() string {
	return "harness_eta_logs"
}

// MarshalJSON setBy 只输出用户摘要
func (l HarnessETALog) MarshalJSON() ([]byte, error) {
	type alias HarnessETALog
	out := struct {
		alias
		SetBy *UserRef `json:"setBy,omitempty"`
	}{alias: alias(l)}
	if l.SetBy != nil {
		out.SetBy = &UserRef{ID: l.SetBy.ID, Name: l.SetBy.Name, Email: l.SetBy.Email}
	}
	return json.Marshal(out)
}
