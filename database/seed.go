package database

import (
	"log"

	"ertib_delivery/config"
	"ertib_delivery/constants"
	"ertib_delivery/model"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func SeedData(db *gorm.DB) {
	password := config.ConfigDefault("ADMIN_PASSWORD", "changeme")
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	hashPassword := string(bytes)
	if err != nil {
		log.Println("failed to hash admin password:", err)
		return
	}

	admin := model.User{
		Name:     "Administrator",
		Phone:    config.ConfigDefault("ADMIN_PHONE", "+251900000000"),
		Password: hashPassword,
		Role:     constants.ROLE_ADMIN,
	}
	if err := db.Where(model.User{Phone: admin.Phone}).FirstOrCreate(&admin).Error; err != nil {
		log.Println("failed to seed admin user:", err)
	}

	// Lịch phục vụ mặc định: thứ 2 đến thứ 5, nhận đơn trước 18:00
	availability := model.Availability{
		WeeklyDays: "monday,tuesday,wednesday,thursday",
		CutoffTime: "18:00",
	}
	if err := db.Where(model.Availability{}).Attrs(availability).FirstOrCreate(&availability).Error; err != nil {
		log.Println("failed to seed availability:", err)
	}
}
