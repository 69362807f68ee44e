package model

import "time"

type Order struct {
	DTO
	TrackingCode string      `gorm:"unique;size:20" json:"trackingCode"` // Mã công khai dạng FD-483920
	CustomerName string      `json:"customerName"`
	Phone        string      `gorm:"index" json:"phone"` // Đã chuẩn hóa +251...
	Location     string      `json:"location"`
	Source       string      `gorm:"default:online" json:"source"` // online | manual
	UserID       *uint       `json:"userId,omitempty"`             // Null nếu khách vãng lai
	User         *User       `json:"user,omitempty"`
	Items        []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
	Total        float64     `json:"total"` // Snapshot tại thời điểm tạo / sửa
	Status       string      `gorm:"default:pending" json:"status"`

	StatusHistory []StatusHistory `gorm:"foreignKey:OrderID" json:"statusHistory"`
	SmsHistory    []SmsHistory    `gorm:"foreignKey:OrderID" json:"smsHistory"`
}

// Ketchup/Spices không đặt default ở cột: default cột sẽ nuốt giá trị false
// khi insert, default nằm ở tầng build items
type OrderItem struct {
	DTO
	OrderID      uint    `json:"orderId"`
	ErtibType    string  `gorm:"default:normal" json:"ertibType"` // normal | special
	Ketchup      bool    `json:"ketchup"`
	Spices       bool    `json:"spices"`
	ExtraKetchup bool    `json:"extraKetchup"`
	ExtraFelafil bool    `json:"extraFelafil"`
	Quantity     int     `gorm:"default:1" json:"quantity"`
	UnitPrice    float64 `json:"unitPrice"` // Luôn tính lại phía server
	LineTotal    float64 `json:"lineTotal"`
}

// StatusHistory chỉ được insert, không bao giờ sửa hay xóa
type StatusHistory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   uint      `gorm:"index" json:"orderId"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type SmsHistory struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	OrderID          uint      `gorm:"index" json:"orderId"`
	Type             string    `json:"type"` // confirmation | arrival
	Provider         string    `json:"provider"`
	ProviderResponse string    `json:"providerResponse"`
	Status           string    `json:"status"` // sent | failed
	CreatedAt        time.Time `json:"createdAt"`
}
