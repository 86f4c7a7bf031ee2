package entity

import "time"

// Project 车型项目
type Project struct {
	ID           string    `json:"id" gorm:"primaryKey;size:32"`
	VehicleModel string    `json:"vehicleModel" gorm:"size:128;not null"`
	Platform     string    `json:"platform" gorm:"size:128"`
	CreatedBy    string    `json:"createdBy" gorm:"size:32"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (Project) TableName() string {
	return "projects"
}
