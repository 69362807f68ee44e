package model

type User struct {
	DTO
	Name        string `json:"name"`
	Phone       string `gorm:"unique" json:"phone"` // Đã chuẩn hóa
	Password    string `json:"-"`
	BlockNumber string `json:"blockNumber"`
	Role        string `gorm:"default:user" json:"role"` // user | admin
}
