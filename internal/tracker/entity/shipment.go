package entity

import "time"

// 发运状态
const (
	ShipmentStatusInTransit = "IN TRANSIT"
	ShipmentStatusReceived  = "RECEIVED"
)

// 收货地点
const (
	ReceivedAtPlant     = "PLANT"
	ReceivedAtRnDCentre = "R&D_CENTRE"
)

// Shipment 供应商发运记录
type Shipment struct {
	ID           string     `json:"id" gorm:"primaryKey;size:32"`
	HarnessID    string     `json:"harnessId" gorm:"size:32;not null;index"`
	VendorID     string     `json:"vendorId" gorm:"size:32;not null;index"`
	Transporter  string     `json:"transporter" gorm:"size:128"`
	LRNo         string     `json:"lrNo" gorm:"column:lr_no;size:64"`
	DispatchDate time.Time  `json:"dispatchDate"`
	ETA          *time.Time `json:"eta"`
	Status       string     `json:"status" gorm:"size:16;not null;index"`
	ReceivedAt   string     `json:"receivedAt,omitempty" gorm:"size:16"`
	ReceivedDate *time.Time `json:"receivedDate"`
	ReceivedBy   string     `json:"receivedBy,omitempty" gorm:"size:32"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`

	Harness *Harness `json:"harness,omitempty" gorm:"foreignKey:HarnessID"`
	Vendor  *User    `json:"vendor,omitempty" gorm:"foreignKey:VendorID"`
}

func (Shipment) TableName() string {
	return "shipments"
}

// IsValidReceivedAt 校验收货地点
func IsValidReceivedAt(loc string) bool {
	return loc == ReceivedAtPlant || loc == ReceivedAtRnDCentre
}
