package helper

import (
	"fmt"
	"math/rand"

	"ertib_delivery/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const trackingPrefix = "FD"

// GenerateTrackingCode sinh mã dạng FD-483920, có kiểm tra trùng và sinh lại.
// Sau 10 lần trùng thì nới rộng không gian mã bằng uuid.
func GenerateTrackingCode(tx *gorm.DB) string {
	for i := 0; i < 10; i++ {
		code := fmt.Sprintf("%s-%06d", trackingPrefix, rand.Intn(1000000))

		var count int64
		tx.Model(&model.Order{}).
			Where("tracking_code = ?", code).
			Count(&count)

		if count == 0 {
			return code
		}
	}

	return trackingPrefix + "-" + uuid.New().String()[:8]
}
