package entity

import "time"

// 文档类型
const (
	ReportTypeDVPReport   = "DVP_REPORT"
	ReportTypeTNVReport   = "TNV_REPORT"
	ReportTypeTNVDocument = "TNV_DOCUMENT"
	ReportTypePhoto       = "PHOTO"
	ReportTypePDIReport   = "PDI_REPORT"
	ReportTypeReport      = "REPORT"
)

// ReportTypes 全部文档类型
var ReportTypes = []string{
	ReportTypeDVPReport,
	ReportTypeTNVReport,
	ReportTypeTNVDocument,
	ReportTypePhoto,
	ReportTypePDIReport,
	ReportTypeReport,
}

// Report 线束附件（报告/照片/文档）
type Report struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	HarnessID   string    `json:"harnessId" gorm:"size:32;not null;index:idx_reports_harness_type"`
	Type        string    `json:"type" gorm:"size:16;not null;index:idx_reports_harness_type"`
	FileURL     string    `json:"fileUrl" gorm:"size:512;not null"`
	FileKey     string    `json:"-" gorm:"size:512"`
	FileName    string    `json:"fileName" gorm:"size:256"`
	FileSize    int64     `json:"fileSize"`
	ContentType string    `json:"contentType" gorm:"size:128"`
	Remarks     string    `json:"remarks,omitempty" gorm:"type:text"`
	UploadedBy  string    `json:"uploadedBy" gorm:"size:32;not null"`
	CreatedAt   time.Time `json:"createdAt"`

	Uploader *User `json:"uploader,omitempty" gorm:"foreignKey:UploadedBy"`
}

func (Report) TableName() string {
	return "reports"
}

// IsValidReportType 校验文档类型
func IsValidReportType(t string) bool {
	for _, rt := range ReportTypes {
		if rt == t {
			return true
		}
	}
	return false
}
