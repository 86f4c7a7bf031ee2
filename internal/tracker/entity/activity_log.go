package entity

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog 操作日志
type ActivityLog struct {
	ID         string `json:"id" gorm:"primaryKey;size:32"`
	EntityType string `json:"entityType" gorm:"size:50;not null;index:idx_activity_entity"` // harness/shipment/report/vehicle_detail
	EntityID   string `json:"entityId" gorm:"size:32;not null;index:idx_activity_entity"`
	EntityCode string `json:"entityCode" gorm:"size:64"`

	Action     string `json:"action" gorm:"size:50;not null"`
	FromStatus string `json:"fromStatus" gorm:"size:20"`
	ToStatus   string `json:"toStatus" gorm:"size:20"`

	Content  string         `json:"content" gorm:"type:text"`
	Metadata datatypes.JSON `json:"metadata,omitempty" gorm:"type:jsonb"`

	OperatorID   string    `json:"operatorId" gorm:"size:32"`
	OperatorName string    `json:"operatorName" gorm:"size:128"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}
