package entity

import "time"

// 车辆类型
const (
	VehicleType3W = "3W"
	VehicleType4W = "4W"
)

// VehicleDetail 零件与车型的关联（独立于线束生命周期）
type VehicleDetail struct {
	ID              string    `json:"id" gorm:"primaryKey;size:32"`
	VehicleType     string    `json:"vehicleType" gorm:"size:4;not null;default:3W"`
	VehicleName     string    `json:"vehicleName" gorm:"size:128"`
	ProjectID       *string   `json:"projectId" gorm:"size:32;index"`
	PartNo          string    `json:"partNo" gorm:"size:64;not null"`
	PartDescription string    `json:"partDescription" gorm:"size:512"`
	DrawingURL      string    `json:"drawingUrl,omitempty" gorm:"size:512"`
	DrawingName     string    `json:"drawingName,omitempty" gorm:"size:256"`
	DrawingKey      string    `json:"-" gorm:"size:512"`
	CreatedBy       string    `json:"createdBy" gorm:"size:32"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`

	Project *Project `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
}

func (VehicleDetail) TableName() string {
	return "vehicle_details"
}

// IsValidVehicleType 校验车辆类型
func IsValidVehicleType(t string) bool {
	return t == VehicleType3W || t == VehicleType4W
}
